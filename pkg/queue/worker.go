package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"vboard/pkg/logger"
	"vboard/pkg/mail"
)

// Worker 队列工作器池，从队列取邮件任务并投递
type Worker struct {
	queue    *MailQueue
	mailer   mail.Mailer
	stopChan chan struct{}
	metrics  *QueueMetrics
	wg       sync.WaitGroup
	config   WorkerConfig
}

// WorkerConfig 工作器配置
type WorkerConfig struct {
	WorkerCount     int           // 并发工作器数量
	MaxRetries      int           // 单个任务最大重试次数
	RetryInterval   time.Duration // 重试间隔
	ShutdownTimeout time.Duration // 关闭超时时间
}

// NewWorker 创建新的工作器组
func NewWorker(queue *MailQueue, mailer mail.Mailer, config WorkerConfig) *Worker {
	if config.WorkerCount <= 0 {
		config.WorkerCount = 5
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 3
	}
	if config.RetryInterval <= 0 {
		config.RetryInterval = time.Second
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = 30 * time.Second
	}

	return &Worker{
		queue:    queue,
		mailer:   mailer,
		stopChan: make(chan struct{}),
		metrics:  NewQueueMetrics(),
		config:   config,
	}
}

// Start 启动工作器组
func (w *Worker) Start() {
	for i := 0; i < w.config.WorkerCount; i++ {
		w.wg.Add(1)
		go w.startWorker(i)
	}
}

// startWorker 启动单个工作器
func (w *Worker) startWorker(id int) {
	defer w.wg.Done()

	logger.InfoString("Worker", "Start", fmt.Sprintf("mail worker %d started", id))

	for {
		select {
		case <-w.stopChan:
			logger.InfoString("Worker", "Stop", fmt.Sprintf("mail worker %d stopping", id))
			return
		default:
			if err := w.processNextTask(); err != nil {
				logger.ErrorString("Worker", "Process", fmt.Sprintf("worker %d: %v", id, err))
				time.Sleep(time.Second) // 错误恢复延迟
			}
		}
	}
}

// processNextTask 取出并处理下一个任务
func (w *Worker) processNextTask() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	task, err := w.queue.Pop(ctx)
	if err != nil {
		return err
	}
	if task == nil {
		// 空队列，稍等避免忙等
		time.Sleep(100 * time.Millisecond)
		return nil
	}

	return w.handleTask(task)
}

// handleTask 投递单个任务，带重试
// SMTP 偶发故障时重试，重试耗尽记录错误后丢弃，不回推队列
func (w *Worker) handleTask(task *MailTask) error {
	start := time.Now()
	defer func() {
		w.metrics.RecordProcessingTime(time.Since(start))
	}()

	var lastErr error
	for attempt := 0; attempt < w.config.MaxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(w.config.RetryInterval)
		}
		if lastErr = w.mailer.Send(&task.Message); lastErr == nil {
			w.metrics.RecordSuccess(OpProcess)
			return nil
		}
	}

	w.metrics.RecordError(OpProcess)
	return fmt.Errorf("deliver mail %s to %s: %w", task.ID, task.Message.To, lastErr)
}

// Stop 优雅关闭工作器组
func (w *Worker) Stop() {
	close(w.stopChan)

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.InfoString("Worker", "Stop", "all mail workers stopped gracefully")
	case <-time.After(w.config.ShutdownTimeout):
		logger.WarnString("Worker", "Stop", "mail worker shutdown timed out")
	}
}
