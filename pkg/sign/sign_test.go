package sign_test

import (
	"testing"

	"vboard/pkg/sign"
)

const testToken = "test-token"

func testFields() map[string]string {
	return map[string]string{
		"address":      "",
		"trade_type":   "usdt.trc20",
		"order_id":     "V202401010001",
		"amount":       "19.99",
		"notify_url":   "https://panel.example.com/v1/payments/notify/epusdt",
		"redirect_url": "https://panel.example.com/orders",
	}
}

// 固定向量，与网关侧独立计算的结果一致
func TestSignKnownVector(t *testing.T) {
	got := sign.Sign(testFields(), testToken)
	want := "c969495ff0967ddc923803e58e356c3a"
	if got != want {
		t.Errorf("Sign() = %s, want %s", got, want)
	}
}

func TestVerifyRoundTrip(t *testing.T) {
	fields := testFields()
	digest := sign.Sign(fields, testToken)
	if !sign.Verify(fields, digest, testToken) {
		t.Error("Verify should accept a digest produced by Sign")
	}
}

// 任意一个非空字段被篡改后验签必须失败
func TestVerifyDetectsTamper(t *testing.T) {
	original := testFields()
	digest := sign.Sign(original, testToken)

	for key := range original {
		if original[key] == "" {
			continue
		}
		tampered := testFields()
		tampered[key] = original[key] + "x"
		if sign.Verify(tampered, digest, testToken) {
			t.Errorf("Verify should reject tampered field %q", key)
		}
	}
}

// 签名与 map 的插入顺序无关（排序消除了输入顺序）
func TestSignOrderIndependent(t *testing.T) {
	a := testFields()

	b := make(map[string]string, len(a))
	b["redirect_url"] = a["redirect_url"]
	b["amount"] = a["amount"]
	b["address"] = a["address"]
	b["notify_url"] = a["notify_url"]
	b["trade_type"] = a["trade_type"]
	b["order_id"] = a["order_id"]

	if sign.Sign(a, testToken) != sign.Sign(b, testToken) {
		t.Error("digest should not depend on map construction order")
	}
}

// 空值字段不参与摘要：增删空字段不改变结果
func TestSignIgnoresEmptyFields(t *testing.T) {
	fields := testFields()
	base := sign.Sign(fields, testToken)

	delete(fields, "address")
	if sign.Sign(fields, testToken) != base {
		t.Error("removing an empty field should not change the digest")
	}

	fields["extra"] = ""
	if sign.Sign(fields, testToken) != base {
		t.Error("adding an empty field should not change the digest")
	}
}

// signature 字段本身不参与摘要
func TestSignExcludesSignatureField(t *testing.T) {
	fields := testFields()
	base := sign.Sign(fields, testToken)

	fields[sign.SignatureField] = base
	if sign.Sign(fields, testToken) != base {
		t.Error("the signature field must be excluded from the digest")
	}
}

// 值不做归一化：大小写、空白差异产生不同摘要
func TestSignNoNormalization(t *testing.T) {
	a := testFields()
	b := testFields()
	b["trade_type"] = "USDT.TRC20"
	if sign.Sign(a, testToken) == sign.Sign(b, testToken) {
		t.Error("values must be signed exactly as given, without case folding")
	}

	c := testFields()
	c["order_id"] = " " + c["order_id"]
	if sign.Sign(a, testToken) == sign.Sign(c, testToken) {
		t.Error("values must be signed exactly as given, without trimming")
	}
}

func TestVerifyRejectsEmptyCandidate(t *testing.T) {
	if sign.Verify(testFields(), "", testToken) {
		t.Error("empty candidate digest must be rejected")
	}
}

func TestVerifyRejectsWrongToken(t *testing.T) {
	digest := sign.Sign(testFields(), testToken)
	if sign.Verify(testFields(), digest, "other-token") {
		t.Error("digest signed with a different token must be rejected")
	}
}
