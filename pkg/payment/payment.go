// Package payment 支付模块的对外门面
package payment

import (
	"vboard/pkg/payment/factory"
	"vboard/pkg/payment/types"
)

// 常用类型别名，调用方无需直接依赖子包
type (
	Provider     = types.Provider
	Service      = types.Service
	Request      = types.Request
	Result       = types.Result
	NotifyResult = types.NotifyResult
)

const (
	ProviderEpusdt = types.ProviderEpusdt
	ProviderAlipay = types.ProviderAlipay
)

// NewService 按提供商创建支付驱动
func NewService(provider Provider) (Service, error) {
	return factory.NewPaymentService(provider)
}
