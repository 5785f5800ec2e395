// Package sign 实现与 epusdt 网关约定的参数签名算法
//
// 双方独立计算同一个摘要，因此序列化方式必须逐字节一致：
// 剔除空值与 signature 字段，按键名字节序升序排列，
// 以 key=value& 连接去掉末尾 &，直接拼接通信密钥后取 md5 小写十六进制。
package sign

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"sort"
	"strings"
)

// SignatureField 参与验签但不参与摘要计算的字段名
const SignatureField = "signature"

// Sign 对参数集计算签名
// 值为空字符串的字段和 signature 字段本身不参与计算，
// 其余值不做任何大小写或空白归一化，按原样参与摘要
func Sign(fields map[string]string, token string) string {
	keys := make([]string, 0, len(fields))
	for key, value := range fields {
		if value == "" || key == SignatureField {
			continue
		}
		keys = append(keys, key)
	}
	// 按键名字节序升序，与对端的 ksort 保持一致
	sort.Strings(keys)

	var builder strings.Builder
	for i, key := range keys {
		if i > 0 {
			builder.WriteByte('&')
		}
		builder.WriteString(key)
		builder.WriteByte('=')
		builder.WriteString(fields[key])
	}
	// 密钥直接拼接在参数串之后，无分隔符
	builder.WriteString(token)

	digest := md5.Sum([]byte(builder.String()))
	return hex.EncodeToString(digest[:])
}

// Verify 重新计算摘要并与 candidate 进行恒定时间比较
// 任何不一致（包括空 candidate）都返回 false
func Verify(fields map[string]string, candidate string, token string) bool {
	if candidate == "" {
		return false
	}
	expected := Sign(fields, token)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(candidate)) == 1
}
