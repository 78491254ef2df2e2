package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ezbuild/internal/session"
	rediskey "ezbuild/pkg/redis"
)

// Component 是装机单中的一个配件。
type Component struct {
	Name       string `json:"name,omitempty"`
	Model      string `json:"model,omitempty"`
	PriceValue int64  `json:"priceValue"` // 单位：VND
}

// Build 是装机页写入、结算页读取一次的购物车快照。
type Build struct {
	Components []Component `json:"components"`
	CapturedAt time.Time   `json:"capturedAt"`
}

// Total 计算快照总价。
func (b Build) Total() int64 {
	var total int64
	for _, c := range b.Components {
		total += c.PriceValue
	}
	return total
}

// Validate 做最小字段校验。
func (b Build) Validate() error {
	if len(b.Components) == 0 {
		return errors.New("components must not be empty")
	}
	for i, c := range b.Components {
		if c.PriceValue < 0 {
			return fmt.Errorf("component %d: priceValue must be >= 0", i)
		}
	}
	return nil
}

// Store 把快照序列化为 JSON 存进会话存储。
type Store struct {
	kv  session.Store
	ttl time.Duration
	now func() time.Time
}

func NewStore(kv session.Store, ttl time.Duration) *Store {
	return &Store{kv: kv, ttl: ttl, now: time.Now}
}

func (s *Store) Save(ctx context.Context, userID int64, b Build) error {
	if err := b.Validate(); err != nil {
		return err
	}
	if b.CapturedAt.IsZero() {
		b.CapturedAt = s.now().UTC()
	}
	raw, err := json.Marshal(b)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, rediskey.CartSnapshotKey(userID), string(raw), s.ttl)
}

// Load 返回快照；found=false 表示没有快照。
// 损坏的快照按不存在处理。
func (s *Store) Load(ctx context.Context, userID int64) (Build, bool, error) {
	raw, found, err := s.kv.Get(ctx, rediskey.CartSnapshotKey(userID))
	if err != nil || !found {
		return Build{}, false, err
	}
	var b Build
	if err := json.Unmarshal([]byte(raw), &b); err != nil {
		return Build{}, false, nil
	}
	if len(b.Components) == 0 {
		return Build{}, false, nil
	}
	return b, true, nil
}

func (s *Store) Clear(ctx context.Context, userID int64) error {
	return s.kv.Remove(ctx, rediskey.CartSnapshotKey(userID))
}
