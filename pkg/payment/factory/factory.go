package factory

import (
	"fmt"

	btsConfig "vboard/config"
	"vboard/pkg/payment/alipay"
	"vboard/pkg/payment/epusdt"
	"vboard/pkg/payment/types"
)

// NewPaymentService 按提供商创建支付驱动
func NewPaymentService(provider types.Provider) (types.Service, error) {
	switch provider {
	case types.ProviderEpusdt:
		return epusdt.NewEpusdtService(btsConfig.LoadEpusdtConfig())

	case types.ProviderAlipay:
		return alipay.NewAlipayService(btsConfig.LoadAlipayConfig())

	default:
		return nil, fmt.Errorf("unsupported payment provider: %s", provider)
	}
}
