package config

import "vboard/pkg/config"

// EpusdtConfig Epusdt 网关配置
type EpusdtConfig struct {
	// BaseURL API 地址，如 https://epusdt-pay.example.com
	BaseURL string
	// APIToken 签名通信密钥
	APIToken string
	// TradeType 支付方式：usdt.trc20、tron.trx、usdt.polygon
	TradeType string
}

// AlipayConfig 支付宝配置
type AlipayConfig struct {
	AppID        string
	PrivateKey   string
	PublicKey    string
	NotifyURL    string
	ReturnURL    string
	IsProduction bool
}

func init() {
	config.Add("payment", func() map[string]interface{} {
		return map[string]interface{}{
			"epusdt": map[string]interface{}{
				"url":        config.Env("EPUSDT_PAY_URL", ""),
				"api_token":  config.Env("EPUSDT_PAY_APITOKEN", ""),
				"trade_type": config.Env("EPUSDT_TRADE_TYPE", "usdt.trc20"),
			},
			"alipay": map[string]interface{}{
				"app_id":        config.Env("ALIPAY_APP_ID", ""),
				"private_key":   config.Env("ALIPAY_PRIVATE_KEY", ""),
				"public_key":    config.Env("ALIPAY_PUBLIC_KEY", ""),
				"notify_url":    config.Env("ALIPAY_NOTIFY_URL", ""),
				"return_url":    config.Env("ALIPAY_RETURN_URL", ""),
				"is_production": config.Env("ALIPAY_IS_PRODUCTION", false),
			},
		}
	})
}

// LoadEpusdtConfig 从配置读取 Epusdt 网关配置
func LoadEpusdtConfig() EpusdtConfig {
	return EpusdtConfig{
		BaseURL:   config.GetString("payment.epusdt.url"),
		APIToken:  config.GetString("payment.epusdt.api_token"),
		TradeType: config.GetString("payment.epusdt.trade_type"),
	}
}

// LoadAlipayConfig 从配置读取支付宝配置
func LoadAlipayConfig() AlipayConfig {
	return AlipayConfig{
		AppID:        config.GetString("payment.alipay.app_id"),
		PrivateKey:   config.GetString("payment.alipay.private_key"),
		PublicKey:    config.GetString("payment.alipay.public_key"),
		NotifyURL:    config.GetString("payment.alipay.notify_url"),
		ReturnURL:    config.GetString("payment.alipay.return_url"),
		IsProduction: config.GetBool("payment.alipay.is_production"),
	}
}
