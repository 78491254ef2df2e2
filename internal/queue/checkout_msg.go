package queue

import (
	"fmt"
	"strconv"
	"time"
)

// CheckoutMessage 是写入 Kafka 的下单成功事件。
type CheckoutMessage struct {
	RequestID  string    `json:"request_id"`
	UserID     int64     `json:"user_id"`
	OrderID    int64     `json:"order_id"`
	PaymentID  int64     `json:"payment_id"`
	Total      int64     `json:"total"`   // VND
	Deposit    int64     `json:"deposit"` // VND
	OccurredAt time.Time `json:"occurred_at"`
}

// Validate 做最小字段校验，防止消费者处理脏消息。
func (m CheckoutMessage) Validate() error {
	if m.RequestID == "" {
		return fmt.Errorf("request_id is required")
	}
	if m.UserID <= 0 {
		return fmt.Errorf("user_id is required")
	}
	if m.OrderID <= 0 {
		return fmt.Errorf("order_id is required")
	}
	if m.PaymentID <= 0 {
		return fmt.Errorf("payment_id is required")
	}
	if m.Deposit <= 0 {
		return fmt.Errorf("deposit must be > 0")
	}
	return nil
}

// streamValues 转成 Redis Stream 字段。
func (m CheckoutMessage) streamValues() map[string]any {
	return map[string]any{
		"request_id":  m.RequestID,
		"user_id":     strconv.FormatInt(m.UserID, 10),
		"order_id":    strconv.FormatInt(m.OrderID, 10),
		"payment_id":  strconv.FormatInt(m.PaymentID, 10),
		"total":       strconv.FormatInt(m.Total, 10),
		"deposit":     strconv.FormatInt(m.Deposit, 10),
		"occurred_at": m.OccurredAt.UTC().Format(time.RFC3339Nano),
	}
}
