package model

import (
	"time"

	"gorm.io/gorm"
)

// CheckoutEvent 是从 Kafka 消费并落库的下单成功事件，供员工后台只读查看。
type CheckoutEvent struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	RequestID  string    `gorm:"size:64;uniqueIndex;not null" json:"request_id"`
	UserID     int64     `gorm:"not null;index" json:"user_id"`
	OrderID    int64     `gorm:"not null;index" json:"order_id"`
	PaymentID  int64     `gorm:"not null" json:"payment_id"`
	Total      int64     `gorm:"not null" json:"total"`
	Deposit    int64     `gorm:"not null" json:"deposit"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (CheckoutEvent) TableName() string { return "checkout_events" }
