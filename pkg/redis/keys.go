package redis

import "fmt"

// CartSnapshotKey 统一约定购物车快照键名（原 localStorage["ezbuild-checkout"]，按用户隔离）。
func CartSnapshotKey(userID int64) string {
	return fmt.Sprintf("ezbuild-checkout:%d", userID)
}

// CheckoutStatusKey 存储 request_id 的下单状态（pending/success/failed）。
func CheckoutStatusKey(requestID string) string {
	return fmt.Sprintf("ezbuild:checkout:status:%s", requestID)
}

// SessionKey 给会话存储的业务键加统一前缀，避免与其他键冲突。
func SessionKey(key string) string {
	return "ezbuild:session:" + key
}

// RateLimitUserKey 下单接口按用户限流的键名。
func RateLimitUserKey(userID int64) string {
	return fmt.Sprintf("rate_limit:checkout:user:%d", userID)
}

// RateLimitIPKey 无法识别用户时按 IP 降级限流。
func RateLimitIPKey(ip string) string {
	return fmt.Sprintf("rate_limit:checkout:ip:%s", ip)
}
