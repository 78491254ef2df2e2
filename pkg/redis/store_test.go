package redis

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	rd "github.com/redis/go-redis/v9"

	"ezbuild/internal/session"
)

var _ session.Locker = (*SessionStore)(nil)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *rd.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := rd.NewClient(&rd.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestSessionStore(t *testing.T) {
	ctx := context.Background()

	t.Run("missing key is not found", func(t *testing.T) {
		_, rdb := newTestRedis(t)
		v, found, err := NewSessionStore(rdb).Get(ctx, "nope")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if found || v != "" {
			t.Errorf("expected not found, got %q found=%v", v, found)
		}
	})

	t.Run("set get remove under session prefix", func(t *testing.T) {
		mr, rdb := newTestRedis(t)
		s := NewSessionStore(rdb)
		if err := s.Set(ctx, "cart", "payload", 0); err != nil {
			t.Fatalf("set: %v", err)
		}
		if got, _ := mr.Get(SessionKey("cart")); got != "payload" {
			t.Errorf("expected prefixed key, got %q", got)
		}
		v, found, err := s.Get(ctx, "cart")
		if err != nil || !found || v != "payload" {
			t.Fatalf("get: v=%q found=%v err=%v", v, found, err)
		}
		if err := s.Remove(ctx, "cart"); err != nil {
			t.Fatalf("remove: %v", err)
		}
		if _, found, _ := s.Get(ctx, "cart"); found {
			t.Error("expected key removed")
		}
	})

	t.Run("ttl expires key", func(t *testing.T) {
		mr, rdb := newTestRedis(t)
		s := NewSessionStore(rdb)
		_ = s.Set(ctx, "k", "v", time.Minute)
		mr.FastForward(2 * time.Minute)
		if _, found, _ := s.Get(ctx, "k"); found {
			t.Error("expected key to expire")
		}
	})
}

func TestSessionStore_TryLock(t *testing.T) {
	ctx := context.Background()
	const ttl = 30 * time.Second
	base := time.UnixMilli(1_700_000_000_000)

	t.Run("held lock rejects until stale", func(t *testing.T) {
		mr, rdb := newTestRedis(t)
		s := NewSessionStore(rdb)

		ok, cleared, err := s.TryLock(ctx, "checkout_creating_42", ttl, base)
		if err != nil || !ok || cleared != "" {
			t.Fatalf("expected clean acquire, got ok=%v cleared=%q err=%v", ok, cleared, err)
		}
		if got, _ := mr.Get(SessionKey("checkout_creating_42")); got != strconv.FormatInt(base.UnixMilli(), 10) {
			t.Errorf("unexpected lock value %q", got)
		}
		if d := mr.TTL(SessionKey("checkout_creating_42")); d != 2*ttl {
			t.Errorf("expected store ttl %s, got %s", 2*ttl, d)
		}

		ok, _, err = s.TryLock(ctx, "checkout_creating_42", ttl, base.Add(29*time.Second))
		if err != nil || ok {
			t.Fatalf("expected held lock to reject, got ok=%v err=%v", ok, err)
		}

		ok, cleared, err = s.TryLock(ctx, "checkout_creating_42", ttl, base.Add(31*time.Second))
		if err != nil || !ok || cleared != "stale" {
			t.Fatalf("expected stale override, got ok=%v cleared=%q err=%v", ok, cleared, err)
		}
	})

	t.Run("unparsable value is overridden", func(t *testing.T) {
		mr, rdb := newTestRedis(t)
		_ = mr.Set(SessionKey("checkout_creating_7"), "not-a-number")

		ok, cleared, err := NewSessionStore(rdb).TryLock(ctx, "checkout_creating_7", ttl, base)
		if err != nil || !ok || cleared != "unparsable" {
			t.Fatalf("expected unparsable override, got ok=%v cleared=%q err=%v", ok, cleared, err)
		}
	})

	t.Run("concurrent clients acquire once", func(t *testing.T) {
		mr, _ := newTestRedis(t)

		var wins atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				// 每个 goroutine 独立连接，模拟不同实例。
				rdb := rd.NewClient(&rd.Options{Addr: mr.Addr()})
				defer rdb.Close()
				ok, _, err := NewSessionStore(rdb).TryLock(ctx, "checkout_creating_42", ttl, base)
				if err != nil {
					t.Errorf("try lock: %v", err)
					return
				}
				if ok {
					wins.Add(1)
				}
			}()
		}
		wg.Wait()
		if got := wins.Load(); got != 1 {
			t.Errorf("expected exactly one winner, got %d", got)
		}
	})
}

func TestCheckoutState(t *testing.T) {
	ctx := context.Background()

	t.Run("missing request is not found", func(t *testing.T) {
		_, rdb := newTestRedis(t)
		if _, found, err := GetCheckoutState(ctx, rdb, "missing"); err != nil || found {
			t.Fatalf("expected not found, got found=%v err=%v", found, err)
		}
	})

	t.Run("later update keeps owner and amounts", func(t *testing.T) {
		mr, rdb := newTestRedis(t)
		begin := CheckoutState{RequestID: "req-1", Status: CheckoutPending, UserID: 42, Total: 300000, Deposit: 50000}
		if err := PutCheckoutState(ctx, rdb, begin, time.Hour); err != nil {
			t.Fatalf("put begin: %v", err)
		}
		done := CheckoutState{RequestID: "req-1", Status: CheckoutSuccess, OrderID: 501, PaymentID: 9001}
		if err := PutCheckoutState(ctx, rdb, done, time.Hour); err != nil {
			t.Fatalf("put success: %v", err)
		}

		got, found, err := GetCheckoutState(ctx, rdb, "req-1")
		if err != nil || !found {
			t.Fatalf("get: found=%v err=%v", found, err)
		}
		want := CheckoutState{RequestID: "req-1", Status: CheckoutSuccess, OrderID: 501, PaymentID: 9001, UserID: 42, Total: 300000, Deposit: 50000}
		if got != want {
			t.Errorf("unexpected state:\n got %+v\nwant %+v", got, want)
		}
		if d := mr.TTL(CheckoutStatusKey("req-1")); d != time.Hour {
			t.Errorf("expected ttl refreshed to 1h, got %s", d)
		}
	})
}

func TestGuard_TwoInstancesShareRedis(t *testing.T) {
	ctx := context.Background()
	mr, rdbA := newTestRedis(t)
	rdbB := rd.NewClient(&rd.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdbB.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	a := session.NewGuard(NewSessionStore(rdbA), session.DefaultLockTTL, logger)
	b := session.NewGuard(NewSessionStore(rdbB), session.DefaultLockTTL, logger)

	if ok, err := a.Acquire(ctx, 42); err != nil || !ok {
		t.Fatalf("instance a: ok=%v err=%v", ok, err)
	}
	if ok, err := b.Acquire(ctx, 42); err != nil || ok {
		t.Fatalf("instance b should be rejected: ok=%v err=%v", ok, err)
	}
	if err := a.Release(ctx, 42); err != nil {
		t.Fatalf("release: %v", err)
	}
	if ok, err := b.Acquire(ctx, 42); err != nil || !ok {
		t.Fatalf("instance b after release: ok=%v err=%v", ok, err)
	}
}
