// Package gate 提供幂等通知闸门
//
// 同一个 (subject, kind) 键在时间窗口内只允许一次副作用（邮件、TG 消息），
// 依赖存储层原子的「不存在则写入并带过期」操作；
// 先读后写的实现在并发触发下会出现双发，不可接受。
package gate

import (
	"context"
	"fmt"
	"time"

	"vboard/pkg/logger"
)

// Store 闸门的原子后端存储
// SetIfAbsent 必须是单次原子操作：键不存在则写入并设置过期时间，返回 true；
// 已存在返回 false。不允许拆成 exists + set 两步。
type Store interface {
	SetIfAbsent(ctx context.Context, key string, window time.Duration) (bool, error)
}

// Gate 幂等通知闸门
type Gate struct {
	store  Store
	prefix string
}

// New 创建闸门，prefix 用于隔离不同应用的键空间
func New(store Store, prefix string) *Gate {
	return &Gate{
		store:  store,
		prefix: prefix,
	}
}

// TryFire 返回 true 时当前调用者获得执行副作用的资格，
// 同一键在 window 内的其余并发或重复调用均返回 false。
// 存储故障时保守地返回 false，宁可漏发也不重复发。
func (g *Gate) TryFire(ctx context.Context, subjectID, kind string, window time.Duration) bool {
	key := g.key(subjectID, kind)

	ok, err := g.store.SetIfAbsent(ctx, key, window)
	if err != nil {
		logger.ErrorString("闸门", "TryFire", fmt.Sprintf("key: %s, error: %v", key, err))
		return false
	}
	return ok
}

// key 生成存储键，形如 vboard:gate:remind_traffic:42
func (g *Gate) key(subjectID, kind string) string {
	return fmt.Sprintf("%s:gate:%s:%s", g.prefix, kind, subjectID)
}
