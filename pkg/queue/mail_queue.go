// Package queue 基于 Redis 的通知投递队列
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"vboard/pkg/config"
	"vboard/pkg/mail"
	"vboard/pkg/redis"
)

// MailTask 一次邮件投递任务
// 任务只携带模板名与参数，渲染与投递由 worker 的邮件驱动完成
type MailTask struct {
	ID        string       `json:"id"`
	Message   mail.Message `json:"message"`
	CreatedAt time.Time    `json:"created_at"`
}

// MailQueue Redis 邮件队列
// 入队方（回调处理、提醒扫描）与出队方（worker 池）解耦，
// 触发路径上的请求不等待 SMTP
type MailQueue struct {
	client      *redis.RedisClient
	prefix      string
	rateLimiter *rate.Limiter
	metrics     *QueueMetrics
}

// NewMailQueue 创建邮件队列实例
func NewMailQueue() *MailQueue {
	rateLimit := config.GetInt("queue.rate_limit", 1000)
	burst := config.GetInt("queue.rate_burst", rateLimit)

	return &MailQueue{
		client:      redis.GetRedis(redis.QueueDB),
		prefix:      config.GetString("redis.queue_prefix", "vboard:queue"),
		rateLimiter: rate.NewLimiter(rate.Limit(rateLimit), burst),
		metrics:     NewQueueMetrics(),
	}
}

// Push 将投递任务推入队列
func (q *MailQueue) Push(ctx context.Context, task *MailTask) error {
	// 应用限流，防止提醒扫描风暴打爆队列
	if err := q.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit exceeded: %w", err)
	}

	start := time.Now()
	defer func() {
		q.metrics.RecordPushLatency(time.Since(start))
	}()

	taskJSON, err := json.Marshal(task)
	if err != nil {
		q.metrics.RecordError(OpPush)
		return fmt.Errorf("failed to marshal mail task: %w", err)
	}

	if err := q.client.Client.LPush(ctx, q.listKey(), taskJSON).Err(); err != nil {
		q.metrics.RecordError(OpPush)
		return fmt.Errorf("failed to push mail task: %w", err)
	}

	q.metrics.RecordSuccess(OpPush)
	return nil
}

// Pop 从队列中阻塞获取任务，队列为空时最多等待 ctx 的期限
func (q *MailQueue) Pop(ctx context.Context) (*MailTask, error) {
	result, err := q.client.Client.BRPop(ctx, 0, q.listKey()).Result()
	if err != nil {
		if err == goredis.Nil || err == context.DeadlineExceeded {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to pop mail task: %w", err)
	}

	if len(result) != 2 {
		return nil, fmt.Errorf("invalid result from queue")
	}

	var task MailTask
	if err := json.Unmarshal([]byte(result[1]), &task); err != nil {
		q.metrics.RecordError(OpPop)
		return nil, fmt.Errorf("failed to unmarshal mail task: %w", err)
	}

	q.metrics.RecordSuccess(OpPop)
	return &task, nil
}

// Length 当前队列长度
func (q *MailQueue) Length(ctx context.Context) (int64, error) {
	return q.client.Client.LLen(ctx, q.listKey()).Result()
}

// Ping 检查队列健康状态
func (q *MailQueue) Ping(ctx context.Context) error {
	return q.client.Ping()
}

// Metrics 入队侧指标快照
func (q *MailQueue) Metrics() Snapshot {
	return q.metrics.Snapshot()
}

func (q *MailQueue) listKey() string {
	return fmt.Sprintf("%s:mails", q.prefix)
}
