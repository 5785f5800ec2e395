// Package routes 注册路由
package routes

import (
	"github.com/gin-gonic/gin"

	"vboard/app/http/controllers/api/v1/health"
	"vboard/app/http/controllers/api/v1/order"
	"vboard/app/http/middlewares"
	"vboard/app/repositories"
	"vboard/app/services"
	"vboard/pkg/config"
	"vboard/pkg/gate"
	"vboard/pkg/queue"
	"vboard/pkg/redis"
	"vboard/pkg/telegram"
)

// 路由限流配置
const (
	// 全局限流：每小时每 IP 30000 请求
	GlobalRateLimit = "30000-H"
	// 下单限流：每小时每 IP 100 请求
	CreateOrderLimit = "100-H"
	// 回调限流要宽松，网关重试风暴不能被挡在验签之前
	NotifyLimit = "10000-H"
)

// RegisterAPIRoutes 注册所有 API 路由
func RegisterAPIRoutes(r *gin.Engine) {
	v1 := r.Group("/v1")

	v1.Use(
		middlewares.Recovery(),
		middlewares.SecurityHeaders(),
		middlewares.LimitIP(GlobalRateLimit),
		middlewares.Cors(),
	)

	// 组装订单链路的依赖
	orderRepo := repositories.NewOrderRepository()
	userRepo := repositories.NewUserRepository()
	notifyGate := gate.New(gate.NewRedisStore(redis.Redis.Client), config.GetString("app.name"))
	mailQueue := queue.NewMailQueue()

	mailService := services.NewMailService(notifyGate, mailQueue, telegramSender(), userRepo)
	orderService := services.NewOrderService(orderRepo, mailService, notifyGate)

	oc := order.NewOrderController(orderRepo)
	nc := order.NewNotifyController(orderService)
	hc := health.NewHealthController(mailQueue)

	// 健康检查：队列可达性与积压
	// GET /v1/health
	v1.GET("/health", hc.Show)

	// 订单相关路由
	orderRoutes := v1.Group("/orders")
	{
		// 下单，创建 pending 订单
		// POST /v1/orders
		orderRoutes.POST("",
			middlewares.LimitIP(CreateOrderLimit),
			oc.Create,
		)

		// 收银台，对订单发起网关支付
		// POST /v1/orders/checkout
		orderRoutes.POST("/checkout",
			middlewares.LimitIP(CreateOrderLimit),
			oc.Checkout,
		)
	}

	// 支付回调路由，:method 为 epusdt / alipay
	paymentRoutes := v1.Group("/payments")
	{
		// GET 用于网关侧的探活校验
		paymentRoutes.GET("/notify/:method",
			middlewares.LimitIP(NotifyLimit),
			nc.Query,
		)

		// POST /v1/payments/notify/:method
		paymentRoutes.POST("/notify/:method",
			middlewares.LimitIP(NotifyLimit),
			nc.Handle,
		)
	}
}

// telegramSender 组装 TG 推送端，未配置 bot token 时返回 nil 接口
func telegramSender() services.TelegramSender {
	if client := telegram.NewClient(config.GetString("mail.telegram_bot_token")); client != nil {
		return client
	}
	return nil
}
