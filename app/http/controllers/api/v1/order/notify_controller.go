package order

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"

	"vboard/app/services"
	"vboard/pkg/logger"
	"vboard/pkg/payment"
	"vboard/pkg/payment/types"
	"vboard/pkg/response"
)

// 网关回调的应答文案，必须与网关的重试判定约定一致：
// 收到 "success" 停止重试，其余应答会触发网关按退避策略重放
const (
	ackSuccess      = "success"
	ackFailed       = "failed"
	ackBadSignature = "cannot pass verification"
)

// NotifyController 支付回调控制器
// 回调是不可信输入，验签之前不读取任何业务字段
type NotifyController struct {
	orders *services.OrderService
}

// NewNotifyController 创建回调控制器
func NewNotifyController(orders *services.OrderService) *NotifyController {
	return &NotifyController{
		orders: orders,
	}
}

// Handle 处理支付回调
// 统一应答 HTTP 200 纯文本，靠文案区分结果；非 200 会让网关无差别重试
func (nc *NotifyController) Handle(c *gin.Context) {
	method := c.Param("method")

	svc, err := payment.NewService(payment.Provider(method))
	if err != nil {
		logger.WarnString("回调", "支付方式", "unknown method: "+method)
		c.String(http.StatusOK, ackFailed)
		return
	}

	params := collectNotifyParams(c)

	result, err := svc.VerifyNotify(params)
	if err != nil {
		switch {
		case errors.Is(err, types.ErrBadSignature):
			// 签名不过意味着伪造或密钥配置漂移，原文记录现场
			logger.ErrorJSON("回调", "验签失败", params)
			c.String(http.StatusOK, ackBadSignature)
		case errors.Is(err, types.ErrNotPaid):
			c.String(http.StatusOK, ackFailed)
		default:
			logger.ErrorString("回调", "解析", err.Error())
			c.String(http.StatusOK, ackFailed)
		}
		return
	}

	outcome := services.PaidOutcome{
		TradeNo:    result.TradeNo,
		CallbackNo: result.CallbackNo,
	}
	if _, err := nc.orders.ApplyPaidOutcome(c.Request.Context(), outcome); err != nil {
		switch {
		case errors.Is(err, services.ErrOrderNotFound):
			logger.WarnString("回调", "订单", "order not found: "+result.TradeNo)
		case errors.Is(err, services.ErrInvalidOrderState):
			logger.WarnString("回调", "订单", "invalid state: "+result.TradeNo)
		default:
			logger.ErrorString("回调", "入账", err.Error())
		}
		c.String(http.StatusOK, ackFailed)
		return
	}

	c.String(http.StatusOK, ackSuccess)
}

// Query 回调探活，网关在配置校验时会 GET 一次
func (nc *NotifyController) Query(c *gin.Context) {
	response.Data(c, gin.H{"alive": true})
}

// collectNotifyParams 将回调参数统一收进扁平的 string map
// epusdt 以 JSON POST 回调，支付宝走表单；query 参数兜底
func collectNotifyParams(c *gin.Context) map[string]string {
	params := make(map[string]string)

	// query 参数
	for key, values := range c.Request.URL.Query() {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}

	body, _ := io.ReadAll(c.Request.Body)
	c.Request.Body = io.NopCloser(bytes.NewBuffer(body))

	// JSON 回调，UseNumber 避免金额被解析成浮点后丢失精度
	if len(body) > 0 && json.Valid(body) {
		decoder := json.NewDecoder(bytes.NewReader(body))
		decoder.UseNumber()

		var fields map[string]interface{}
		if err := decoder.Decode(&fields); err == nil {
			for key, value := range fields {
				params[key] = cast.ToString(value)
			}
			return params
		}
	}

	// 表单回调
	if err := c.Request.ParseForm(); err == nil {
		for key, values := range c.Request.PostForm {
			if len(values) > 0 {
				params[key] = values[0]
			}
		}
	}

	return params
}
