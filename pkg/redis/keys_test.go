package redis

import "testing"

func TestKeys(t *testing.T) {
	if got := CartSnapshotKey(42); got != "ezbuild-checkout:42" {
		t.Errorf("unexpected cart key: %s", got)
	}
	if got := SessionKey("checkout_creating_42"); got != "ezbuild:session:checkout_creating_42" {
		t.Errorf("unexpected session key: %s", got)
	}
	if got := RateLimitUserKey(7); got != "rate_limit:checkout:user:7" {
		t.Errorf("unexpected rate limit key: %s", got)
	}
}
