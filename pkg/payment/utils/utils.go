package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateTradeNo 生成本站订单号，时间前缀便于排查，uuid 片段保证唯一
func GenerateTradeNo() string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
	return fmt.Sprintf("%s%s", time.Now().Format("20060102150405"), suffix)
}
