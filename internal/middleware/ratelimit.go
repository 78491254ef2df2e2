package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"ezbuild/internal/auth"
	rediskey "ezbuild/pkg/redis"

	"github.com/gin-gonic/gin"
	rd "github.com/redis/go-redis/v9"
)

// luaRateLimit：Redis 滑动窗口限流 Lua 脚本（原子操作）
// KEYS[1]=限流key，ARGV[1]=当前时间戳，ARGV[2]=窗口开始时间戳，ARGV[3]=窗口秒数
// 返回：当前窗口内的请求数（如果 >= limit 则返回 -1 表示限流）
const luaRateLimit = `
local key = KEYS[1]
local now = tonumber(ARGV[1])
local windowStart = tonumber(ARGV[2])
local windowSec = tonumber(ARGV[3])
local member = ARGV[4]

-- 删除窗口外的旧记录
redis.call('ZREMRANGEBYSCORE', key, '0', windowStart)

-- 统计当前窗口内的请求数
local count = redis.call('ZCARD', key)

-- 添加当前请求（如果还没超限）
if count < tonumber(ARGV[5]) then
  redis.call('ZADD', key, now, member)
  redis.call('EXPIRE', key, windowSec)
  return count + 1
else
  return -1
end
`

// RedisRateLimit 下单接口的分布式限流，按登录用户计数，未识别用户时按 IP 降级。
// 需挂在 auth.Authenticate 之后。
func RedisRateLimit(rdb *rd.Client, limit int, window time.Duration, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := rateLimitKey(c)

		now := time.Now()
		windowSec := int64(window.Seconds())
		windowStart := now.Unix() - windowSec
		member := fmt.Sprintf("%d-%d", now.Unix(), now.UnixNano())

		res, err := rdb.Eval(c.Request.Context(), luaRateLimit, []string{key},
			now.Unix(), windowStart, windowSec, member, limit).Int()
		if err != nil {
			// Redis 出错时放行（降级策略）
			logger.Warn("rate limit unavailable, allowing request", "key", key, "error", err)
			c.Next()
			return
		}

		if res < 0 {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"code": 429,
				"msg":  "too many checkout attempts, please wait",
			})
			return
		}
		c.Next()
	}
}

func rateLimitKey(c *gin.Context) string {
	if id, ok := auth.FromContext(c); ok && id.UserID > 0 {
		return rediskey.RateLimitUserKey(id.UserID)
	}
	return rediskey.RateLimitIPKey(c.ClientIP())
}
