// Package order 订单与收银台控制器
package order

import (
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"vboard/app/models/order"
	"vboard/app/repositories"
	"vboard/app/requests"
	"vboard/pkg/config"
	"vboard/pkg/logger"
	"vboard/pkg/payment"
	"vboard/pkg/payment/types"
	"vboard/pkg/payment/utils"
	"vboard/pkg/response"
)

// OrderController 订单控制器
type OrderController struct {
	orders *repositories.OrderRepository
}

// NewOrderController 创建订单控制器
func NewOrderController(orders *repositories.OrderRepository) *OrderController {
	return &OrderController{
		orders: orders,
	}
}

// Create 下单，创建一笔 pending 订单
func (oc *OrderController) Create(c *gin.Context) {
	req, err := requests.ValidateCreateOrder(c)
	if err != nil {
		response.BadRequest(c, err, "下单参数有误")
		return
	}

	o := &order.Order{
		TradeNo:     utils.GenerateTradeNo(),
		UserID:      req.UserID,
		PlanID:      req.PlanID,
		PlanName:    req.PlanName,
		Period:      req.Period,
		Type:        req.Type,
		TotalAmount: req.TotalAmount,
		Status:      order.StatusPending,
	}

	if err := oc.orders.Create(c.Request.Context(), o); err != nil {
		logger.ErrorString("订单", "创建", err.Error())
		response.Abort500(c, "订单创建失败")
		return
	}

	response.Created(c, o, "订单创建成功")
}

// Checkout 收银台，对 pending 订单发起网关支付
func (oc *OrderController) Checkout(c *gin.Context) {
	req, err := requests.ValidateCheckout(c)
	if err != nil {
		response.BadRequest(c, err, "收银台参数有误")
		return
	}

	o, err := oc.orders.FindByTradeNo(c.Request.Context(), req.TradeNo)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.Abort404(c, "订单不存在")
			return
		}
		logger.ErrorString("订单", "查询", err.Error())
		response.Abort500(c)
		return
	}

	if !o.IsPending() {
		response.Abort400(c, "订单不是待支付状态")
		return
	}

	svc, err := payment.NewService(payment.Provider(req.Method))
	if err != nil {
		response.Abort400(c, "不支持的支付方式")
		return
	}

	// 先落支付方式再外呼，订单完成通知要标注支付渠道
	if err := oc.orders.SetPaymentMethod(c.Request.Context(), o.TradeNo, req.Method); err != nil {
		logger.ErrorString("订单", "记录支付方式", err.Error())
		response.Abort500(c)
		return
	}

	appURL := config.Get("app.url")
	result, err := svc.CreatePayment(c.Request.Context(), &payment.Request{
		TradeNo:     o.TradeNo,
		TotalAmount: o.TotalAmount,
		NotifyURL:   appURL + "/v1/payments/notify/" + req.Method,
		ReturnURL:   appURL + "/orders/" + o.TradeNo,
		Subject:     o.PlanNameWithType(),
	})
	if err != nil {
		// 分类记录网关失败，超时有可能单子已在网关侧建好，留给对账
		if ge, ok := types.AsGatewayError(err); ok {
			logger.ErrorString("支付", "网关外呼", ge.Error())
		} else {
			logger.ErrorString("支付", "发起", err.Error())
		}
		response.Abort500(c, "发起支付失败，请稍后重试")
		return
	}

	response.Data(c, gin.H{
		"trade_no": o.TradeNo,
		"method":   req.Method,
		"result":   result,
	})
}
