package requests

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/thedevsaddam/govalidator"

	"vboard/app/models/order"
)

// CreateOrderRequest 下单请求
type CreateOrderRequest struct {
	UserID      uint64 `json:"user_id" valid:"required"`
	PlanID      uint64 `json:"plan_id" valid:"required"`
	PlanName    string `json:"plan_name" valid:"required"`
	Period      string `json:"period" valid:"required"`
	Type        int    `json:"type"`
	TotalAmount int64  `json:"total_amount" valid:"required"`
}

// CheckoutRequest 收银台请求，对指定订单发起支付
type CheckoutRequest struct {
	TradeNo string `json:"trade_no" valid:"required"`
	Method  string `json:"method" valid:"required"`
}

// ValidateCreateOrder 验证下单请求
func ValidateCreateOrder(c *gin.Context) (*CreateOrderRequest, error) {
	var req CreateOrderRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, fmt.Errorf("解析 JSON 失败: %w", err)
	}

	rules := govalidator.MapData{
		"user_id":      []string{"required"},
		"plan_id":      []string{"required"},
		"plan_name":    []string{"required", "min:1"},
		"period":       []string{"required", "in:month_price,quarter_price,half_year_price,year_price,onetime_price"},
		"total_amount": []string{"required"},
	}

	messages := govalidator.MapData{
		"user_id": []string{
			"required:用户 ID 不能为空",
		},
		"plan_id": []string{
			"required:套餐 ID 不能为空",
		},
		"plan_name": []string{
			"required:套餐名称不能为空",
		},
		"period": []string{
			"required:订购周期不能为空",
			"in:订购周期不合法",
		},
		"total_amount": []string{
			"required:订单金额不能为空",
		},
	}

	opts := govalidator.Options{
		Data:     &req,
		Rules:    rules,
		Messages: messages,
	}

	if errs := govalidator.New(opts).ValidateStruct(); len(errs) > 0 {
		return nil, fmt.Errorf("验证失败: %v", errs)
	}

	// 金额以分计，必须为正
	if req.TotalAmount <= 0 {
		return nil, fmt.Errorf("订单金额必须大于 0")
	}

	// 订单类型缺省按新购处理
	switch req.Type {
	case 0:
		req.Type = order.TypeNew
	case order.TypeNew, order.TypeRenew, order.TypeChange, order.TypeResetTraffic:
	default:
		return nil, fmt.Errorf("无效的订单类型: %d", req.Type)
	}

	return &req, nil
}

// ValidateCheckout 验证收银台请求
func ValidateCheckout(c *gin.Context) (*CheckoutRequest, error) {
	var req CheckoutRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, fmt.Errorf("解析 JSON 失败: %w", err)
	}

	rules := govalidator.MapData{
		"trade_no": []string{"required", "min:1"},
		"method":   []string{"required", "in:epusdt,alipay"},
	}

	messages := govalidator.MapData{
		"trade_no": []string{
			"required:订单号不能为空",
		},
		"method": []string{
			"required:支付方式不能为空",
			"in:支付方式必须是 epusdt 或 alipay",
		},
	}

	opts := govalidator.Options{
		Data:     &req,
		Rules:    rules,
		Messages: messages,
	}

	if errs := govalidator.New(opts).ValidateStruct(); len(errs) > 0 {
		return nil, fmt.Errorf("验证失败: %v", errs)
	}

	return &req, nil
}
