// Package types 定义支付驱动的统一接口与错误分类
package types

import (
	"context"
	"errors"
	"fmt"
)

// Provider 支付提供商类型
type Provider string

const (
	ProviderEpusdt Provider = "epusdt"
	ProviderAlipay Provider = "alipay"
)

// ResultType 支付结果的呈现方式
type ResultType int

const (
	// ResultQRCode 返回收款二维码内容
	ResultQRCode ResultType = 0
	// ResultRedirect 返回跳转收银台的 URL
	ResultRedirect ResultType = 1
)

// Request 支付请求参数，金额一律使用最小货币单位（分）
type Request struct {
	TradeNo     string `json:"trade_no"`
	TotalAmount int64  `json:"total_amount"`
	NotifyURL   string `json:"notify_url"`
	ReturnURL   string `json:"return_url"`
	Subject     string `json:"subject"`
}

// Result 支付结果
type Result struct {
	Type       ResultType `json:"type"`
	PaymentURL string     `json:"payment_url,omitempty"`
	QRCode     string     `json:"qrcode,omitempty"`
}

// NotifyResult 验签通过的回调结果
type NotifyResult struct {
	TradeNo    string `json:"trade_no"`    // 本站订单号
	CallbackNo string `json:"callback_no"` // 网关侧交易号
}

// Service 支付驱动接口
// VerifyNotify 是唯一的信任边界：它只做验签与分类，不做任何 I/O 与订单变更
type Service interface {
	CreatePayment(ctx context.Context, req *Request) (*Result, error)
	VerifyNotify(params map[string]string) (*NotifyResult, error)
}

// 回调校验错误
// ErrNotPaid 与 ErrBadSignature 必须可区分：前者是正常的未支付状态，
// 后者意味着攻击或配置错误，调用方据此决定应答与日志级别
var (
	ErrNotPaid      = errors.New("payment not completed")
	ErrBadSignature = errors.New("callback signature verification failed")
)

// GatewayErrorKind 外呼网关失败的分类
type GatewayErrorKind int

const (
	GatewayTimeout GatewayErrorKind = iota
	GatewayBadStatus
	GatewayNetworkFailure
)

// GatewayError 外呼网关失败
type GatewayError struct {
	Kind    GatewayErrorKind
	Message string
}

// Error 实现 error 接口
func (e *GatewayError) Error() string {
	switch e.Kind {
	case GatewayTimeout:
		return fmt.Sprintf("gateway timeout: %s", e.Message)
	case GatewayBadStatus:
		return fmt.Sprintf("gateway rejected order: %s", e.Message)
	default:
		return fmt.Sprintf("gateway network failure: %s", e.Message)
	}
}

// AsGatewayError 从错误链中提取 GatewayError
func AsGatewayError(err error) (*GatewayError, bool) {
	var ge *GatewayError
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}
