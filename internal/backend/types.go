package backend

import "encoding/json"

// OrderStatusPending 是新建订单的初始状态。
const OrderStatusPending = "PENDING"

// PaymentStatusPending 是新建支付的初始状态。
const PaymentStatusPending = "PENDING"

// OrderInput 对应 POST /api/order 请求体。
type OrderInput struct {
	UserID        int64  `json:"userId"`
	BuildID       *int64 `json:"buildId,omitempty"`
	TotalPrice    int64  `json:"totalPrice"`
	Status        string `json:"status"`
	PaymentMethod string `json:"paymentMethod"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
}

// Order 是后端返回的订单。
type Order struct {
	ID            FlexID  `json:"id"`
	OrderID       FlexID  `json:"orderId"`
	UserID        FlexID  `json:"userId"`
	BuildID       FlexID  `json:"buildId"`
	TotalPrice    FlexInt `json:"totalPrice"`
	Status        string  `json:"status"`
	PaymentMethod string  `json:"paymentMethod"`
	Phone         string  `json:"phone"`
	Address       string  `json:"address"`
}

// Identity 优先取 id，缺失时回退 orderId。
func (o Order) Identity() FlexID {
	if o.ID.Valid() {
		return o.ID
	}
	return o.OrderID
}

// PaymentInput 对应 POST /api/payment 请求体。
type PaymentInput struct {
	OrderID int64  `json:"orderId"`
	Amount  int64  `json:"amount"`
	Method  string `json:"method"`
	Status  string `json:"status"`
}

// Payment 是后端返回的支付记录；PaymentURL 为二维码载荷（可选）。
type Payment struct {
	ID         FlexID  `json:"id"`
	PaymentID  FlexID  `json:"paymentId"`
	OrderID    FlexID  `json:"orderId"`
	Amount     FlexInt `json:"amount"`
	Method     string  `json:"method"`
	Status     string  `json:"status"`
	PaymentURL string  `json:"paymentUrl,omitempty"`
}

// Identity 优先取 id，缺失时回退 paymentId。
func (p Payment) Identity() FlexID {
	if p.ID.Valid() {
		return p.ID
	}
	return p.PaymentID
}

// PaymentQR 对应 GET /api/payment/{id}/qr。
type PaymentQR struct {
	QRString string          `json:"qrString"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

// User 是用户资料。
type User struct {
	ID       FlexID `json:"id"`
	Email    string `json:"email,omitempty"`
	FullName string `json:"fullName,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Address  string `json:"address,omitempty"`
	Role     string `json:"role,omitempty"`
}

// ProfileUpdate 对应 PUT /api/user/{id} 请求体。
type ProfileUpdate struct {
	FullName string `json:"fullName,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Address  string `json:"address,omitempty"`
}
