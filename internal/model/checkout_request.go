package model

import (
	"time"

	"gorm.io/gorm"
)

// CheckoutStatus 描述一次下单提交的状态机。
type CheckoutStatus int

const (
	CheckoutPending CheckoutStatus = iota // 已占位，流程进行中
	CheckoutSuccess                       // 订单与支付均已创建
	CheckoutFailed                        // 致命失败，已释放占位
)

func (s CheckoutStatus) String() string {
	switch s {
	case CheckoutPending:
		return "pending"
	case CheckoutSuccess:
		return "success"
	case CheckoutFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// CheckoutRequest 记录每次下单提交，便于查询结果与对账（含“有订单无支付”的遗留单）。
type CheckoutRequest struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	RequestID string `gorm:"size:64;uniqueIndex;not null" json:"request_id"`
	UserID    int64  `gorm:"not null;index" json:"user_id"`
	BuildID   *int64 `json:"build_id,omitempty"`
	Total     int64  `gorm:"not null" json:"total"`   // 单位：VND
	Deposit   int64  `gorm:"not null" json:"deposit"` // 单位：VND
	// OrderID 在支付失败时仍会保留，供人工对账。
	OrderID   int64          `gorm:"index" json:"order_id"`
	PaymentID int64          `json:"payment_id"`
	HasQR     bool           `json:"has_qr"`
	Status    CheckoutStatus `gorm:"not null;default:0;index" json:"status"`
	ErrorMsg  string         `gorm:"size:255" json:"error_msg"`
}

func (CheckoutRequest) TableName() string { return "checkout_requests" }
