package session

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGuard_Acquire(t *testing.T) {
	ctx := context.Background()

	t.Run("second acquire within ttl is rejected", func(t *testing.T) {
		g := NewGuard(NewMemoryStore(), DefaultLockTTL, testLogger())
		base := time.UnixMilli(1_700_000_000_000)
		g.now = func() time.Time { return base }

		ok, err := g.Acquire(ctx, 42)
		if err != nil || !ok {
			t.Fatalf("expected first acquire to succeed, got ok=%v err=%v", ok, err)
		}

		g.now = func() time.Time { return base.Add(29 * time.Second) }
		ok, err = g.Acquire(ctx, 42)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ok {
			t.Error("expected second acquire to be rejected")
		}
	})

	t.Run("different users do not contend", func(t *testing.T) {
		g := NewGuard(NewMemoryStore(), DefaultLockTTL, testLogger())
		if ok, _ := g.Acquire(ctx, 1); !ok {
			t.Fatal("expected user 1 to acquire")
		}
		if ok, _ := g.Acquire(ctx, 2); !ok {
			t.Error("expected user 2 to acquire")
		}
	})

	t.Run("stale lock is overridden", func(t *testing.T) {
		store := NewMemoryStore()
		g := NewGuard(store, DefaultLockTTL, testLogger())
		base := time.UnixMilli(1_700_000_000_000)
		old := base.Add(-31 * time.Second).UnixMilli()
		_ = store.Set(ctx, CheckoutLockKey(42), strconv.FormatInt(old, 10), 0)
		g.now = func() time.Time { return base }

		ok, err := g.Acquire(ctx, 42)
		if err != nil || !ok {
			t.Fatalf("expected stale lock to be acquirable, got ok=%v err=%v", ok, err)
		}
		v, _, _ := store.Get(ctx, CheckoutLockKey(42))
		if v != strconv.FormatInt(base.UnixMilli(), 10) {
			t.Errorf("expected lock rewritten with current timestamp, got %s", v)
		}
	})

	t.Run("unparsable lock is overridden", func(t *testing.T) {
		store := NewMemoryStore()
		_ = store.Set(ctx, CheckoutLockKey(7), "not-a-number", 0)
		g := NewGuard(store, DefaultLockTTL, testLogger())

		ok, err := g.Acquire(ctx, 7)
		if err != nil || !ok {
			t.Fatalf("expected acquire to succeed, got ok=%v err=%v", ok, err)
		}
	})

	t.Run("release allows reacquire", func(t *testing.T) {
		g := NewGuard(NewMemoryStore(), DefaultLockTTL, testLogger())
		if ok, _ := g.Acquire(ctx, 42); !ok {
			t.Fatal("expected acquire")
		}
		if err := g.Release(ctx, 42); err != nil {
			t.Fatalf("release: %v", err)
		}
		if ok, _ := g.Acquire(ctx, 42); !ok {
			t.Error("expected reacquire after release")
		}
	})
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	base := time.Now()
	s.now = func() time.Time { return base }

	_ = s.Set(ctx, "k", "v", time.Second)
	if _, found, _ := s.Get(ctx, "k"); !found {
		t.Fatal("expected key before expiry")
	}

	s.now = func() time.Time { return base.Add(2 * time.Second) }
	if _, found, _ := s.Get(ctx, "k"); found {
		t.Error("expected key to expire")
	}
}

// plainStore 隐藏 MemoryStore 的 TryLock，只暴露 Store 接口。
type plainStore struct{ Store }

func TestGuard_SharedStoreAcrossInstances(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	// 每个 goroutine 模拟一个独立实例：各自的 Guard，各自的进程内互斥。
	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g := NewGuard(store, DefaultLockTTL, testLogger())
			ok, err := g.Acquire(ctx, 42)
			if err != nil {
				t.Errorf("acquire: %v", err)
				return
			}
			if ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := wins.Load(); got != 1 {
		t.Errorf("expected exactly one instance to acquire, got %d", got)
	}
}

func TestAcquireLock_WithoutLocker(t *testing.T) {
	ctx := context.Background()
	store := plainStore{NewMemoryStore()}
	base := time.UnixMilli(1_700_000_000_000)
	key := CheckoutLockKey(42)

	ok, err := AcquireLock(ctx, store, key, DefaultLockTTL, base, testLogger())
	if err != nil || !ok {
		t.Fatalf("expected first acquire, got ok=%v err=%v", ok, err)
	}
	if ok, _ := AcquireLock(ctx, store, key, DefaultLockTTL, base.Add(time.Second), testLogger()); ok {
		t.Error("expected held lock to reject")
	}
	ok, err = AcquireLock(ctx, store, key, DefaultLockTTL, base.Add(31*time.Second), testLogger())
	if err != nil || !ok {
		t.Fatalf("expected stale lock to be acquirable, got ok=%v err=%v", ok, err)
	}
	v, _, _ := store.Get(ctx, key)
	if v != strconv.FormatInt(base.Add(31*time.Second).UnixMilli(), 10) {
		t.Errorf("expected lock rewritten, got %s", v)
	}
}
