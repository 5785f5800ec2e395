package user

import (
	"fmt"
	"math"
	"time"
)

// TrafficWarnPercent 流量提醒阈值（百分比）
const TrafficWarnPercent = 95

// TrafficUsed 已用流量
func (u *User) TrafficUsed() int64 {
	return u.U + u.D
}

// IsTrafficWarn 已用流量是否达到套餐总量的 95%
func (u *User) IsTrafficWarn() bool {
	if u.TransferEnable <= 0 {
		return false
	}
	return u.TrafficUsed()*100 >= u.TransferEnable*TrafficWarnPercent
}

// IsExpiringWithin 是否在 window 内到期（已过期不算）
func (u *User) IsExpiringWithin(window time.Duration) bool {
	if u.ExpiredAt == nil {
		return false
	}
	now := time.Now()
	return u.ExpiredAt.After(now) && u.ExpiredAt.Before(now.Add(window))
}

// FormatTraffic 将字节数格式化为可读流量文案
func FormatTraffic(bytes int64) string {
	units := []string{"B", "KB", "MB", "GB", "TB"}
	if bytes < 0 {
		bytes = 0
	}

	pow := 0
	if bytes > 0 {
		pow = int(math.Floor(math.Log(float64(bytes)) / math.Log(1024)))
	}
	if pow > len(units)-1 {
		pow = len(units) - 1
	}

	value := float64(bytes) / math.Pow(1024, float64(pow))
	return fmt.Sprintf("%.2f %s", value, units[pow])
}
