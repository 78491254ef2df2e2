package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// luaTryLock 原子地检查毫秒时间戳锁并占位。
// 返回 {1, cleared} 表示拿到锁（cleared 为 "stale"/"unparsable"/""），{0, ""} 表示已有未过期的锁。
const luaTryLock = `
local key = KEYS[1]
local now = tonumber(ARGV[1])
local ttl = tonumber(ARGV[2])
local cleared = ''
local v = redis.call('GET', key)
if v then
  local ts = tonumber(string.match(v, '^%s*(%-?%d+)%s*$'))
  if ts == nil then
    cleared = 'unparsable'
  elseif now - ts > ttl then
    cleared = 'stale'
  else
    return {0, ''}
  end
end
redis.call('SET', key, ARGV[1], 'PX', ARGV[3])
return {1, cleared}
`

// TryLock 实现 session.Locker；存储层 TTL 为 2*ttl，仅兜底回收。
func (s *SessionStore) TryLock(ctx context.Context, key string, ttl time.Duration, now time.Time) (bool, string, error) {
	ttlMs := ttl.Milliseconds()
	if ttlMs <= 0 {
		return false, "", fmt.Errorf("lock ttl must be > 0, got %s", ttl)
	}
	res, err := s.rdb.Eval(ctx, luaTryLock, []string{SessionKey(key)},
		strconv.FormatInt(now.UnixMilli(), 10),
		strconv.FormatInt(ttlMs, 10),
		strconv.FormatInt(2*ttlMs, 10),
	).Slice()
	if err != nil {
		return false, "", err
	}
	if len(res) != 2 {
		return false, "", fmt.Errorf("unexpected lock reply: %v", res)
	}
	acquired, _ := res[0].(int64)
	cleared, _ := res[1].(string)
	return acquired == 1, cleared, nil
}
