package cart

import (
	"context"
	"testing"
	"time"

	"ezbuild/internal/session"
	rediskey "ezbuild/pkg/redis"
)

func TestBuild_Total(t *testing.T) {
	b := Build{Components: []Component{{PriceValue: 100000}, {PriceValue: 200000}}}
	if got := b.Total(); got != 300000 {
		t.Errorf("expected 300000, got %d", got)
	}
}

func TestStore(t *testing.T) {
	ctx := context.Background()

	t.Run("save load clear", func(t *testing.T) {
		kv := session.NewMemoryStore()
		s := NewStore(kv, time.Hour)
		in := Build{Components: []Component{{Name: "CPU", Model: "i5-13400F", PriceValue: 4_500_000}}}
		if err := s.Save(ctx, 42, in); err != nil {
			t.Fatalf("save: %v", err)
		}

		got, found, err := s.Load(ctx, 42)
		if err != nil || !found {
			t.Fatalf("expected snapshot, found=%v err=%v", found, err)
		}
		if got.Total() != 4_500_000 || got.Components[0].Model != "i5-13400F" {
			t.Errorf("unexpected snapshot: %+v", got)
		}
		if got.CapturedAt.IsZero() {
			t.Error("expected capturedAt to be set")
		}

		if err := s.Clear(ctx, 42); err != nil {
			t.Fatalf("clear: %v", err)
		}
		if _, found, _ := s.Load(ctx, 42); found {
			t.Error("expected snapshot to be gone after clear")
		}
	})

	t.Run("rejects empty build", func(t *testing.T) {
		s := NewStore(session.NewMemoryStore(), time.Hour)
		if err := s.Save(ctx, 1, Build{}); err == nil {
			t.Error("expected error for empty build")
		}
	})

	t.Run("corrupt snapshot reads as missing", func(t *testing.T) {
		kv := session.NewMemoryStore()
		_ = kv.Set(ctx, rediskey.CartSnapshotKey(9), "{not json", 0)
		s := NewStore(kv, time.Hour)
		if _, found, err := s.Load(ctx, 9); found || err != nil {
			t.Errorf("expected missing snapshot, found=%v err=%v", found, err)
		}
	})
}
