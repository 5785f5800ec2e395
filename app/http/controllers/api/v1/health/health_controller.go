// Package health 健康检查控制器
package health

import (
	"github.com/gin-gonic/gin"

	"vboard/pkg/logger"
	"vboard/pkg/queue"
	"vboard/pkg/response"
)

// HealthController 健康检查
type HealthController struct {
	queue *queue.MailQueue
}

// NewHealthController 创建健康检查控制器
func NewHealthController(q *queue.MailQueue) *HealthController {
	return &HealthController{
		queue: q,
	}
}

// Show 服务健康状态：队列可达性、积压长度与入队指标
func (hc *HealthController) Show(c *gin.Context) {
	ctx := c.Request.Context()

	if err := hc.queue.Ping(ctx); err != nil {
		logger.ErrorString("健康检查", "队列", err.Error())
		response.Abort500(c, "队列不可用")
		return
	}

	length, err := hc.queue.Length(ctx)
	if err != nil {
		logger.ErrorString("健康检查", "队列长度", err.Error())
		response.Abort500(c, "队列不可用")
		return
	}

	response.Data(c, gin.H{
		"queue_length":  length,
		"queue_metrics": hc.queue.Metrics(),
	})
}
