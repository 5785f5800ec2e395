package gate

import (
	"context"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// RedisStore 基于 Redis SETNX + 过期时间的闸门存储
// SET key value NX EX window 是单条命令，天然原子
type RedisStore struct {
	client *goredis.Client
}

// NewRedisStore 创建 Redis 闸门存储
func NewRedisStore(client *goredis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// SetIfAbsent 实现 Store 接口
func (s *RedisStore) SetIfAbsent(ctx context.Context, key string, window time.Duration) (bool, error) {
	return s.client.SetNX(ctx, key, 1, window).Result()
}

// MemoryStore 进程内的闸门存储，供测试和单机部署使用
// 整个检查-写入在同一把锁内完成
type MemoryStore struct {
	mu      sync.Mutex
	expires map[string]time.Time
}

// NewMemoryStore 创建内存闸门存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		expires: make(map[string]time.Time),
	}
}

// SetIfAbsent 实现 Store 接口
func (s *MemoryStore) SetIfAbsent(_ context.Context, key string, window time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if deadline, ok := s.expires[key]; ok && now.Before(deadline) {
		return false, nil
	}
	s.expires[key] = now.Add(window)

	// 顺手清理已过期的键，避免长期运行时无限增长
	for k, deadline := range s.expires {
		if now.After(deadline) {
			delete(s.expires, k)
		}
	}
	return true, nil
}
