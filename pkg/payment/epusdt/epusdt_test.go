package epusdt_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	btsConfig "vboard/config"
	"vboard/pkg/payment/epusdt"
	"vboard/pkg/payment/types"
	"vboard/pkg/sign"
)

const testToken = "test-token"

func newService(t *testing.T, baseURL string) *epusdt.EpusdtService {
	t.Helper()
	service, err := epusdt.NewEpusdtService(btsConfig.EpusdtConfig{
		BaseURL:  baseURL,
		APIToken: testToken,
	})
	if err != nil {
		t.Fatalf("NewEpusdtService: %v", err)
	}
	return service
}

// decodeParams 按网关侧视角还原请求参数为字符串表
func decodeParams(t *testing.T, r *http.Request) map[string]string {
	t.Helper()
	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()

	var raw map[string]interface{}
	if err := decoder.Decode(&raw); err != nil {
		t.Fatalf("decode request body: %v", err)
	}

	params := make(map[string]string, len(raw))
	for key, value := range raw {
		switch v := value.(type) {
		case string:
			params[key] = v
		case json.Number:
			params[key] = v.String()
		default:
			t.Fatalf("unexpected field type for %q: %T", key, value)
		}
	}
	return params
}

// 创建交易：金额 1999 分必须以 19.99 发送，且签名可被网关侧验证通过。
// 同时覆盖了刻意关闭 TLS 校验的行为：httptest 的自签证书必须被接受
func TestCreatePaymentSuccess(t *testing.T) {
	var gotParams map[string]string
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/order/create-transaction" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type: %s", ct)
		}
		gotParams = decodeParams(t, r)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status_code":200,"data":{"payment_url":"https://epusdt.example.com/pay/abc"}}`))
	}))
	defer server.Close()

	service := newService(t, server.URL)
	result, err := service.CreatePayment(context.Background(), &types.Request{
		TradeNo:     "V202401010001",
		TotalAmount: 1999,
		NotifyURL:   "https://panel.example.com/v1/payments/notify/epusdt",
		ReturnURL:   "https://panel.example.com/orders",
	})
	if err != nil {
		t.Fatalf("CreatePayment: %v", err)
	}

	if result.Type != types.ResultRedirect {
		t.Errorf("result type = %d, want redirect", result.Type)
	}
	if result.PaymentURL != "https://epusdt.example.com/pay/abc" {
		t.Errorf("payment url = %s", result.PaymentURL)
	}

	if gotParams["amount"] != "19.99" {
		t.Errorf("amount sent as %q, want 19.99", gotParams["amount"])
	}
	if gotParams["trade_type"] != "usdt.trc20" {
		t.Errorf("trade_type sent as %q, want default usdt.trc20", gotParams["trade_type"])
	}
	if !sign.Verify(gotParams, gotParams["signature"], testToken) {
		t.Error("gateway-side signature verification failed")
	}
}

// 网关业务状态非 200 时返回 BadStatus，并带上网关给出的原因
func TestCreatePaymentBadStatus(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status_code":500,"message":"insufficient funds"}`))
	}))
	defer server.Close()

	service := newService(t, server.URL)
	_, err := service.CreatePayment(context.Background(), &types.Request{
		TradeNo:     "V202401010002",
		TotalAmount: 1999,
	})

	gatewayErr, ok := types.AsGatewayError(err)
	if !ok {
		t.Fatalf("want GatewayError, got %v", err)
	}
	if gatewayErr.Kind != types.GatewayBadStatus {
		t.Errorf("kind = %d, want BadStatus", gatewayErr.Kind)
	}
	if gatewayErr.Message != "insufficient funds" {
		t.Errorf("message = %q, want gateway-provided message", gatewayErr.Message)
	}
}

// 应答缺失 status_code 或无法解析时按 Unknown error 处理
func TestCreatePaymentUnparsableResponse(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream exploded"))
	}))
	defer server.Close()

	service := newService(t, server.URL)
	_, err := service.CreatePayment(context.Background(), &types.Request{
		TradeNo:     "V202401010003",
		TotalAmount: 100,
	})

	gatewayErr, ok := types.AsGatewayError(err)
	if !ok {
		t.Fatalf("want GatewayError, got %v", err)
	}
	if gatewayErr.Kind != types.GatewayBadStatus || gatewayErr.Message != "Unknown error" {
		t.Errorf("got kind=%d message=%q, want BadStatus/Unknown error", gatewayErr.Kind, gatewayErr.Message)
	}
}

// 上下文超时映射为 GatewayTimeout，调用方不会被挂住
func TestCreatePaymentTimeout(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer server.Close()

	service := newService(t, server.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := service.CreatePayment(ctx, &types.Request{
		TradeNo:     "V202401010004",
		TotalAmount: 100,
	})

	gatewayErr, ok := types.AsGatewayError(err)
	if !ok {
		t.Fatalf("want GatewayError, got %v", err)
	}
	if gatewayErr.Kind != types.GatewayTimeout {
		t.Errorf("kind = %d, want Timeout", gatewayErr.Kind)
	}
}

func callbackParams() map[string]string {
	params := map[string]string{
		"trade_id":             "EP123456",
		"order_id":             "V202401010001",
		"amount":               "19.99",
		"actual_amount":        "19.99",
		"token":                "TXYZ",
		"block_transaction_id": "b123",
		"status":               "2",
	}
	params["signature"] = sign.Sign(params, testToken)
	return params
}

func TestVerifyNotifyAccepted(t *testing.T) {
	service := newService(t, "https://epusdt.example.com")

	outcome, err := service.VerifyNotify(callbackParams())
	if err != nil {
		t.Fatalf("VerifyNotify: %v", err)
	}
	if outcome.TradeNo != "V202401010001" {
		t.Errorf("trade_no = %s", outcome.TradeNo)
	}
	if outcome.CallbackNo != "EP123456" {
		t.Errorf("callback_no = %s", outcome.CallbackNo)
	}
}

// status=1 必须判定为未支付，即便签名完全有效
func TestVerifyNotifyNotPaid(t *testing.T) {
	service := newService(t, "https://epusdt.example.com")

	params := callbackParams()
	params["status"] = "1"
	params["signature"] = sign.Sign(params, testToken)

	_, err := service.VerifyNotify(params)
	if !errors.Is(err, types.ErrNotPaid) {
		t.Errorf("want ErrNotPaid, got %v", err)
	}
}

// trade_id 被篡改（签名基于原值）必须判定为验签失败
func TestVerifyNotifyTamperedTradeID(t *testing.T) {
	service := newService(t, "https://epusdt.example.com")

	params := callbackParams()
	params["trade_id"] = "EP999999"

	_, err := service.VerifyNotify(params)
	if !errors.Is(err, types.ErrBadSignature) {
		t.Errorf("want ErrBadSignature, got %v", err)
	}
}

func TestVerifyNotifyMissingSignature(t *testing.T) {
	service := newService(t, "https://epusdt.example.com")

	params := callbackParams()
	delete(params, "signature")

	_, err := service.VerifyNotify(params)
	if !errors.Is(err, types.ErrBadSignature) {
		t.Errorf("want ErrBadSignature, got %v", err)
	}
}

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		minor int64
		want  string
	}{
		{1999, "19.99"},
		{100, "1.00"},
		{5, "0.05"},
		{0, "0.00"},
		{1000000, "10000.00"},
	}
	for _, c := range cases {
		if got := epusdt.FormatAmount(c.minor); got != c.want {
			t.Errorf("FormatAmount(%d) = %s, want %s", c.minor, got, c.want)
		}
	}
}
