package queue

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"ezbuild/internal/model"

	"github.com/segmentio/kafka-go"
	"gorm.io/gorm"
)

// Consumer 消费下单成功事件，落库为员工后台可查的 checkout_events。
type Consumer struct {
	r      *kafka.Reader
	db     *gorm.DB
	logger *slog.Logger
}

func NewConsumer(brokers []string, topic, groupID string, db *gorm.DB, logger *slog.Logger) *Consumer {
	return &Consumer{
		r: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			Topic:    topic,
			GroupID:  groupID,
			MinBytes: 1e3,
			MaxBytes: 1e6,
		}),
		db:     db,
		logger: logger,
	}
}

func (c *Consumer) Close() error { return c.r.Close() }

func (c *Consumer) Run(ctx context.Context) {
	for {
		m, err := c.r.ReadMessage(ctx)
		if err != nil {
			return // ctx cancel / 连接断开等
		}
		if err := Project(ctx, c.db, m.Value); err != nil {
			c.logger.Error("consumer project event", "error", err, "offset", m.Offset)
		}
	}
}

// Project 把一条事件写入 checkout_events；重复消息视为成功。
func Project(ctx context.Context, db *gorm.DB, value []byte) error {
	var msg CheckoutMessage
	if err := json.Unmarshal(value, &msg); err != nil {
		return err
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	if msg.OccurredAt.IsZero() {
		msg.OccurredAt = time.Now().UTC()
	}

	ev := &model.CheckoutEvent{
		RequestID:  msg.RequestID,
		UserID:     msg.UserID,
		OrderID:    msg.OrderID,
		PaymentID:  msg.PaymentID,
		Total:      msg.Total,
		Deposit:    msg.Deposit,
		OccurredAt: msg.OccurredAt,
	}
	err := db.WithContext(ctx).Create(ev).Error
	if errorsLikeUnique(err) {
		return nil
	}
	return err
}

func errorsLikeUnique(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "UNIQUE") || strings.Contains(s, "unique")
}
