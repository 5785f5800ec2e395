// Package epusdt 实现 Epusdt USDT 收款网关驱动
//
// 外呼：签名后 POST 创建交易，拿到收银台跳转地址。
// 回调：通知接口暴露在公网，order_id / trade_id / status 在验签通过前
// 一律视为不可信输入。
package epusdt

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	btsConfig "vboard/config"
	"vboard/pkg/payment/types"
	"vboard/pkg/sign"
)

const (
	// createTransactionPath 创建交易接口路径
	createTransactionPath = "/api/v1/order/create-transaction"

	// defaultTradeType 未配置支付方式时的默认值
	defaultTradeType = "usdt.trc20"

	// statusPaid 网关回调中表示已支付的状态码
	statusPaid = "2"

	// requestTimeout 外呼超时，网关无响应时不能拖住下单请求
	requestTimeout = 5 * time.Second
)

// EpusdtService Epusdt 支付服务
type EpusdtService struct {
	client *resty.Client
	config btsConfig.EpusdtConfig
}

// createResponse 网关创建交易的应答
// status_code 是网关业务状态，与 HTTP 状态码无关
type createResponse struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
	Data       struct {
		PaymentURL string `json:"payment_url"`
	} `json:"data"`
}

// NewEpusdtService 创建 Epusdt 支付服务
func NewEpusdtService(config btsConfig.EpusdtConfig) (*EpusdtService, error) {
	if config.BaseURL == "" {
		return nil, errors.New("epusdt: missing base url")
	}
	if config.APIToken == "" {
		return nil, errors.New("epusdt: missing api token")
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(config.BaseURL, "/")).
		SetTimeout(requestTimeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "EpusdtPay").
		// 网关普遍部署在自签证书后面，沿用既有插件约定跳过证书校验。
		// 这是刻意保留的行为，启用严格校验前需确认网关证书链可用。
		SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})

	return &EpusdtService{
		client: client,
		config: config,
	}, nil
}

// CreatePayment 签名并创建网关交易，成功时返回收银台跳转地址
// 不修改任何本地状态，失败后调用方无需补偿
func (s *EpusdtService) CreatePayment(ctx context.Context, req *types.Request) (*types.Result, error) {
	tradeType := s.config.TradeType
	if tradeType == "" {
		tradeType = defaultTradeType
	}

	params := map[string]string{
		"address":      "", // 收款地址由网关分配，留空
		"trade_type":   tradeType,
		"order_id":     req.TradeNo,
		"amount":       FormatAmount(req.TotalAmount),
		"notify_url":   req.NotifyURL,
		"redirect_url": req.ReturnURL,
	}
	params[sign.SignatureField] = sign.Sign(params, s.config.APIToken)

	// 签名基于字符串形式，请求体中 amount 按网关要求发送为 JSON 数字
	body := make(map[string]interface{}, len(params))
	for key, value := range params {
		body[key] = value
	}
	body["amount"] = json.Number(params["amount"])

	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(body).
		Post(createTransactionPath)
	if err != nil {
		return nil, classifyTransportError(err)
	}

	// 网关在 HTTP 非 2xx 时也可能携带业务应答，统一按响应体解析
	var result createResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil || result.StatusCode == 0 {
		return nil, &types.GatewayError{
			Kind:    types.GatewayBadStatus,
			Message: "Unknown error",
		}
	}

	if result.StatusCode != 200 {
		message := result.Message
		if message == "" {
			message = "Unknown error"
		}
		return nil, &types.GatewayError{
			Kind:    types.GatewayBadStatus,
			Message: message,
		}
	}

	return &types.Result{
		Type:       types.ResultRedirect,
		PaymentURL: result.Data.PaymentURL,
	}, nil
}

// VerifyNotify 校验异步回调
// 先判定支付状态（便于网关重试未支付场景），再验签；两类失败必须可区分。
// 本方法无 I/O、不改订单，订单变更是上层状态机的职责
func (s *EpusdtService) VerifyNotify(params map[string]string) (*types.NotifyResult, error) {
	if params["status"] != statusPaid {
		return nil, types.ErrNotPaid
	}
	if !sign.Verify(params, params[sign.SignatureField], s.config.APIToken) {
		return nil, types.ErrBadSignature
	}
	return &types.NotifyResult{
		TradeNo:    params["order_id"],
		CallbackNo: params["trade_id"],
	}, nil
}

// FormatAmount 将分转换为保留两位小数的元
// 订单金额以分存储，整数运算即可精确得到两位小数，不经过浮点
func FormatAmount(minorUnits int64) string {
	return fmt.Sprintf("%d.%02d", minorUnits/100, minorUnits%100)
}

// classifyTransportError 区分超时与其它网络故障
func classifyTransportError(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		return &types.GatewayError{
			Kind:    types.GatewayTimeout,
			Message: err.Error(),
		}
	}
	return &types.GatewayError{
		Kind:    types.GatewayNetworkFailure,
		Message: err.Error(),
	}
}
