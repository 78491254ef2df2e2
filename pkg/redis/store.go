package redis

import (
	"context"
	"errors"
	"time"

	rd "github.com/redis/go-redis/v9"
)

// SessionStore 基于 Redis 的 session.Store 实现。
type SessionStore struct {
	rdb *rd.Client
}

func NewSessionStore(rdb *rd.Client) *SessionStore {
	return &SessionStore{rdb: rdb}
}

func (s *SessionStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.rdb.Get(ctx, SessionKey(key)).Result()
	if err != nil {
		if errors.Is(err, rd.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return v, true, nil
}

func (s *SessionStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return s.rdb.Set(ctx, SessionKey(key), value, ttl).Err()
}

func (s *SessionStore) Remove(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, SessionKey(key)).Err()
}
