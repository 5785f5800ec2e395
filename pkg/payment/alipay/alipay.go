// Package alipay 实现支付宝电脑网站支付驱动
package alipay

import (
	"context"
	"fmt"
	"net/url"

	"github.com/smartwalle/alipay/v3"

	btsConfig "vboard/config"
	"vboard/pkg/payment/types"
)

// AlipayService 支付宝支付服务
type AlipayService struct {
	client    *alipay.Client
	notifyURL string
	returnURL string
}

// NewAlipayService 创建支付宝支付服务
func NewAlipayService(config btsConfig.AlipayConfig) (*AlipayService, error) {
	client, err := alipay.New(config.AppID, config.PrivateKey, config.IsProduction)
	if err != nil {
		return nil, fmt.Errorf("create alipay client error: %w", err)
	}

	if err := client.LoadAliPayPublicKey(config.PublicKey); err != nil {
		return nil, fmt.Errorf("load alipay public key error: %w", err)
	}

	return &AlipayService{
		client:    client,
		notifyURL: config.NotifyURL,
		returnURL: config.ReturnURL,
	}, nil
}

// CreatePayment 创建支付，订单号与金额由订单模块给定，这里不生成也不落库
func (s *AlipayService) CreatePayment(ctx context.Context, req *types.Request) (*types.Result, error) {
	trade := alipay.TradePagePay{}
	trade.NotifyURL = s.notifyURL
	trade.ReturnURL = req.ReturnURL
	if trade.ReturnURL == "" {
		trade.ReturnURL = s.returnURL
	}
	trade.Subject = req.Subject
	trade.OutTradeNo = req.TradeNo
	trade.TotalAmount = fmt.Sprintf("%d.%02d", req.TotalAmount/100, req.TotalAmount%100)
	trade.ProductCode = "FAST_INSTANT_TRADE_PAY"

	payURL, err := s.client.TradePagePay(trade)
	if err != nil {
		return nil, &types.GatewayError{
			Kind:    types.GatewayNetworkFailure,
			Message: err.Error(),
		}
	}

	return &types.Result{
		Type:       types.ResultRedirect,
		PaymentURL: payURL.String(),
	}, nil
}

// VerifyNotify 校验支付宝异步通知
// DecodeNotification 内部完成 RSA 验签，失败一律视为验签不通过
func (s *AlipayService) VerifyNotify(params map[string]string) (*types.NotifyResult, error) {
	values := make(url.Values, len(params))
	for key, value := range params {
		values.Set(key, value)
	}

	notification, err := s.client.DecodeNotification(values)
	if err != nil {
		return nil, types.ErrBadSignature
	}

	if notification.TradeStatus != alipay.TradeStatusSuccess &&
		notification.TradeStatus != alipay.TradeStatusFinished {
		return nil, types.ErrNotPaid
	}

	return &types.NotifyResult{
		TradeNo:    notification.OutTradeNo,
		CallbackNo: notification.TradeNo,
	}, nil
}
