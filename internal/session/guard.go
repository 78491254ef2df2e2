package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DefaultLockTTL 是下单占位锁的有效期。
const DefaultLockTTL = 30 * time.Second

// CheckoutLockKey 统一约定下单占位锁键名。
func CheckoutLockKey(userID int64) string {
	return fmt.Sprintf("checkout_creating_%d", userID)
}

// Guard 防止同一用户重复提交订单（双击、重复渲染等）。
type Guard struct {
	store  Store
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger

	// mu 串行化本进程内的占位；跨实例的互斥依赖 store 实现 Locker。
	mu sync.Mutex
}

func NewGuard(store Store, ttl time.Duration, logger *slog.Logger) *Guard {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return &Guard{store: store, ttl: ttl, now: time.Now, logger: logger}
}

// Acquire 尝试占位；返回 false 表示已有进行中的提交。
func (g *Guard) Acquire(ctx context.Context, userID int64) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return AcquireLock(ctx, g.store, CheckoutLockKey(userID), g.ttl, g.now(), g.logger)
}

// Release 无条件释放占位。
func (g *Guard) Release(ctx context.Context, userID int64) error {
	return g.store.Remove(ctx, CheckoutLockKey(userID))
}
