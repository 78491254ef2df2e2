package session

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// Store 抽象会话级 KV 存储（原浏览器 localStorage/sessionStorage 的服务端替身）。
// 生产环境由 pkg/redis 提供实现，测试使用 MemoryStore。
type Store interface {
	// Get 读取 key；found=false 表示 key 不存在或已过期。
	Get(ctx context.Context, key string) (value string, found bool, err error)
	// Set 写入 key；ttl<=0 表示不过期。
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Remove 删除 key，不存在时不报错。
	Remove(ctx context.Context, key string) error
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryStore 进程内实现，带 TTL 惰性过期。
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]memoryEntry
	now  func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]memoryEntry), now: time.Now}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.data[key]
	if !ok {
		return "", false, nil
	}
	if !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt) {
		delete(m.data, key)
		return "", false, nil
	}
	return e.value, true, nil
}

func (m *MemoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := memoryEntry{value: value}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	m.data[key] = e
	return nil
}

func (m *MemoryStore) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// TryLock 在同一把互斥锁内完成检查与占位。
func (m *MemoryStore) TryLock(_ context.Context, key string, ttl time.Duration, now time.Time) (bool, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, found := "", false
	if e, ok := m.data[key]; ok && (e.expiresAt.IsZero() || m.now().Before(e.expiresAt)) {
		raw, found = e.value, true
	}
	acquire, cleared := lockDecision(raw, found, ttl, now)
	if !acquire {
		return false, "", nil
	}
	e := memoryEntry{value: strconv.FormatInt(now.UnixMilli(), 10)}
	if ttl > 0 {
		e.expiresAt = m.now().Add(2 * ttl)
	}
	m.data[key] = e
	return true, cleared, nil
}
