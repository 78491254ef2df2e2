package redis

import (
	"context"
	"strconv"
	"time"

	rd "github.com/redis/go-redis/v9"
)

const (
	// CheckoutPending 表示下单流程进行中。
	CheckoutPending = "pending"
	// CheckoutSuccess 表示订单与支付均已创建。
	CheckoutSuccess = "success"
	// CheckoutFailed 表示流程失败（已终态）。
	CheckoutFailed = "failed"
)

// CheckoutState 对应 Redis 内的下单状态缓存。
type CheckoutState struct {
	RequestID string
	Status    string
	OrderID   int64
	PaymentID int64
	Reason    string

	// 只在 Begin 时写入，后续更新为 0 时不覆盖
	UserID  int64
	Total   int64
	Deposit int64
}

// GetCheckoutState 查询 request_id 当前状态。found=false 表示缓存不存在。
func GetCheckoutState(ctx context.Context, rdb *rd.Client, requestID string) (CheckoutState, bool, error) {
	m, err := rdb.HGetAll(ctx, CheckoutStatusKey(requestID)).Result()
	if err != nil {
		return CheckoutState{}, false, err
	}
	if len(m) == 0 {
		return CheckoutState{}, false, nil
	}

	out := CheckoutState{
		RequestID: requestID,
		Status:    m["status"],
		Reason:    m["reason"],
	}
	out.OrderID, _ = strconv.ParseInt(m["order_id"], 10, 64)
	out.PaymentID, _ = strconv.ParseInt(m["payment_id"], 10, 64)
	out.UserID, _ = strconv.ParseInt(m["user_id"], 10, 64)
	out.Total, _ = strconv.ParseInt(m["total"], 10, 64)
	out.Deposit, _ = strconv.ParseInt(m["deposit"], 10, 64)
	if out.Status == "" {
		out.Status = CheckoutPending
	}
	return out, true, nil
}

// PutCheckoutState 更新下单状态，并刷新 key TTL。
func PutCheckoutState(ctx context.Context, rdb *rd.Client, st CheckoutState, ttl time.Duration) error {
	key := CheckoutStatusKey(st.RequestID)
	pipe := rdb.TxPipeline()
	fields := []any{
		"request_id", st.RequestID,
		"status", st.Status,
		"order_id", strconv.FormatInt(st.OrderID, 10),
		"payment_id", strconv.FormatInt(st.PaymentID, 10),
		"reason", st.Reason,
	}
	for _, f := range []struct {
		name string
		v    int64
	}{{"user_id", st.UserID}, {"total", st.Total}, {"deposit", st.Deposit}} {
		if f.v > 0 {
			fields = append(fields, f.name, strconv.FormatInt(f.v, 10))
		}
	}
	pipe.HSet(ctx, key, fields...)
	if ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}
