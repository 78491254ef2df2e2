package session

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// Locker 由能原子完成“检查+占位”的存储实现（Redis Lua、MemoryStore 互斥），
// 多实例共享同一存储时只有一个调用方能拿到锁。
type Locker interface {
	// TryLock 返回是否占位成功；cleared 非空表示覆盖了遗留锁（"stale" / "unparsable"）。
	TryLock(ctx context.Context, key string, ttl time.Duration, now time.Time) (acquired bool, cleared string, err error)
}

const (
	clearedStale      = "stale"
	clearedUnparsable = "unparsable"
)

// AcquireLock 以毫秒时间戳作为锁值占位：
// - 存在未过期的锁 -> 返回 false，调用方必须放弃
// - 锁值无法解析或 now-ts > ttl -> 视为遗留锁，记录日志并覆盖
// store 实现 Locker 时走原子路径；否则退化为 get->set，仅在单实例内由调用方串行化。
func AcquireLock(ctx context.Context, store Store, key string, ttl time.Duration, now time.Time, logger *slog.Logger) (bool, error) {
	if l, ok := store.(Locker); ok {
		acquired, cleared, err := l.TryLock(ctx, key, ttl, now)
		if err != nil {
			return false, fmt.Errorf("lock %s: %w", key, err)
		}
		logCleared(logger, key, cleared)
		return acquired, nil
	}

	raw, found, err := store.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("read lock %s: %w", key, err)
	}
	acquire, cleared := lockDecision(raw, found, ttl, now)
	if !acquire {
		return false, nil
	}
	logCleared(logger, key, cleared)

	// 存储层 TTL 放宽一倍，仅用于兜底回收；是否过期以锁值时间戳为准。
	if err := store.Set(ctx, key, strconv.FormatInt(now.UnixMilli(), 10), 2*ttl); err != nil {
		return false, fmt.Errorf("write lock %s: %w", key, err)
	}
	return true, nil
}

// lockDecision 判断现有锁值是否允许重新占位。
func lockDecision(raw string, found bool, ttl time.Duration, now time.Time) (bool, string) {
	if !found {
		return true, ""
	}
	ts, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	switch {
	case err != nil:
		return true, clearedUnparsable
	case now.UnixMilli()-ts > ttl.Milliseconds():
		return true, clearedStale
	default:
		return false, ""
	}
}

func logCleared(logger *slog.Logger, key, cleared string) {
	switch cleared {
	case clearedUnparsable:
		logger.Warn("clearing unparsable checkout lock", "key", key)
	case clearedStale:
		logger.Warn("clearing stale checkout lock", "key", key)
	}
}
