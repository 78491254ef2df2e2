package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ezbuild/internal/backend"
	"ezbuild/internal/cart"
	"ezbuild/internal/catalog"
	"ezbuild/internal/model"
	"ezbuild/internal/queue"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// DefaultDeposit 是下单时收取的固定订金（VND），与订单总价无关。
	DefaultDeposit int64 = 50000
	// DefaultPaymentMethod 是订单上的支付方式标记。
	DefaultPaymentMethod = "VIETQR"

	placeholderPhone   = "0000000000"
	placeholderAddress = "N/A"
)

var (
	// ErrReauthenticate 用户 id 缺失或为 0，需要重新登录。
	ErrReauthenticate = errors.New("please sign in again")
	// ErrNoCart 没有可结算的装机单快照。
	ErrNoCart = errors.New("no build selected for checkout")
	// ErrInProgress 同一用户已有进行中的提交，调用方应静默忽略。
	ErrInProgress = errors.New("checkout already in progress")
	// ErrOrderCreate 订单创建失败或未返回可用 id。
	ErrOrderCreate = errors.New("could not create order, please try again")
	// ErrPaymentCreate 支付创建失败或未返回可用 id；已建订单保持原样。
	ErrPaymentCreate = errors.New("could not create payment, please try again")
)

// API 是下单流程依赖的后端接口，生产环境为 *backend.Client。
type API interface {
	ListBuilds(ctx context.Context, userID int64) ([]backend.RawBuild, error)
	CreateOrder(ctx context.Context, in backend.OrderInput) (backend.Order, error)
	CreatePayment(ctx context.Context, in backend.PaymentInput) (backend.Payment, error)
	GetPaymentQR(ctx context.Context, paymentID int64) (backend.PaymentQR, error)
}

// Carts 读取并清理购物车快照。
type Carts interface {
	Load(ctx context.Context, userID int64) (cart.Build, bool, error)
	Clear(ctx context.Context, userID int64) error
}

// Locker 是防重复提交的占位锁。
type Locker interface {
	Acquire(ctx context.Context, userID int64) (bool, error)
	Release(ctx context.Context, userID int64) error
}

// Recorder 记录提交过程，可选。
type Recorder interface {
	Begin(ctx context.Context, req *model.CheckoutRequest) error
	Succeed(ctx context.Context, requestID string, orderID, paymentID int64, hasQR bool) error
	Fail(ctx context.Context, requestID string, orderID int64, reason string) error
}

// EventSink 接收下单成功事件，可选。
type EventSink interface {
	Append(ctx context.Context, msg queue.CheckoutMessage) error
}

type Options struct {
	Deposit       int64
	PaymentMethod string
}

// Submission 是一次下单提交的入参。Phone/Address 为空时使用占位值。
type Submission struct {
	UserID  int64
	Phone   string
	Address string
}

// Result 交给支付展示页的状态。
type Result struct {
	RequestID   string          `json:"requestId"`
	OrderID     int64           `json:"orderId"`
	PaymentID   int64           `json:"paymentId"`
	Total       int64           `json:"amount"`
	Deposit     int64           `json:"deposit"`
	QR          string          `json:"qr,omitempty"`
	QRPayload   json.RawMessage `json:"qrPayload,omitempty"`
	RedirectURL string          `json:"redirectUrl"`
}

type Service struct {
	api      API
	carts    Carts
	locker   Locker
	recorder Recorder
	events   EventSink
	opts     Options
	logger   *slog.Logger
	now      func() time.Time

	submissions metric.Int64Counter
}

func NewService(api API, carts Carts, locker Locker, recorder Recorder, events EventSink, opts Options, logger *slog.Logger) *Service {
	if opts.Deposit <= 0 {
		opts.Deposit = DefaultDeposit
	}
	if opts.PaymentMethod == "" {
		opts.PaymentMethod = DefaultPaymentMethod
	}
	counter, err := otel.Meter("ezbuild/checkout").Int64Counter("checkout.submissions",
		metric.WithDescription("Checkout submissions by outcome"))
	if err != nil {
		logger.Warn("create checkout counter", "error", err)
	}
	return &Service{
		api:         api,
		carts:       carts,
		locker:      locker,
		recorder:    recorder,
		events:      events,
		opts:        opts,
		logger:      logger,
		now:         time.Now,
		submissions: counter,
	}
}

// Submit 执行完整下单流程：
// 1. 校验用户与购物车快照（不发任何请求）
// 2. 占位防重
// 3. 尽力查询最近的装机单 id
// 4. 创建订单（PENDING）
// 5. 创建订金支付（PENDING）
// 6. 解析二维码（失败不致命）
// 7. 释放占位、清理快照、返回跳转信息
// 任何致命失败都会释放占位；已建订单不回滚。
func (s *Service) Submit(ctx context.Context, sub Submission) (Result, error) {
	if sub.UserID <= 0 {
		s.count(ctx, "unauthenticated")
		return Result{}, ErrReauthenticate
	}

	build, found, err := s.carts.Load(ctx, sub.UserID)
	if err != nil {
		s.count(ctx, "error")
		return Result{}, fmt.Errorf("load cart: %w", err)
	}
	if !found {
		s.count(ctx, "no_cart")
		return Result{}, ErrNoCart
	}

	ok, err := s.locker.Acquire(ctx, sub.UserID)
	if err != nil {
		s.count(ctx, "error")
		return Result{}, fmt.Errorf("acquire checkout lock: %w", err)
	}
	if !ok {
		s.logger.Info("checkout already in progress", "user_id", sub.UserID)
		s.count(ctx, "in_progress")
		return Result{}, ErrInProgress
	}

	requestID := uuid.New().String()
	total := build.Total()
	buildID := s.latestBuildID(ctx, sub.UserID)
	s.begin(ctx, &model.CheckoutRequest{
		RequestID: requestID,
		UserID:    sub.UserID,
		BuildID:   buildID,
		Total:     total,
		Deposit:   s.opts.Deposit,
	})

	order, err := s.api.CreateOrder(ctx, backend.OrderInput{
		UserID:        sub.UserID,
		BuildID:       buildID,
		TotalPrice:    total,
		Status:        backend.OrderStatusPending,
		PaymentMethod: s.opts.PaymentMethod,
		Phone:         orDefault(sub.Phone, placeholderPhone),
		Address:       orDefault(sub.Address, placeholderAddress),
	})
	if err == nil && !order.Identity().Valid() {
		err = fmt.Errorf("order response has no usable id")
	}
	if err != nil {
		s.logger.Error("create order failed", "user_id", sub.UserID, "request_id", requestID, "error", err)
		s.fail(ctx, sub.UserID, requestID, 0, "order_create_failed: "+err.Error())
		return Result{}, ErrOrderCreate
	}
	orderID := order.Identity().Int64()

	payment, err := s.api.CreatePayment(ctx, backend.PaymentInput{
		OrderID: orderID,
		Amount:  s.opts.Deposit,
		Method:  s.opts.PaymentMethod,
		Status:  backend.PaymentStatusPending,
	})
	if err == nil && !payment.Identity().Valid() {
		err = fmt.Errorf("payment response has no usable id")
	}
	if err != nil {
		s.logger.Error("create payment failed, order left pending",
			"user_id", sub.UserID, "request_id", requestID, "order_id", orderID, "error", err)
		s.fail(ctx, sub.UserID, requestID, orderID, "payment_create_failed: "+err.Error())
		return Result{}, ErrPaymentCreate
	}
	paymentID := payment.Identity().Int64()

	qr, payload := s.resolveQR(ctx, payment)

	res := Result{
		RequestID:   requestID,
		OrderID:     orderID,
		PaymentID:   paymentID,
		Total:       total,
		Deposit:     s.opts.Deposit,
		QR:          qr,
		QRPayload:   payload,
		RedirectURL: PaymentURL(orderID, total, paymentID, s.opts.Deposit),
	}

	if err := s.locker.Release(ctx, sub.UserID); err != nil {
		s.logger.Warn("release checkout lock", "user_id", sub.UserID, "error", err)
	}
	if err := s.carts.Clear(ctx, sub.UserID); err != nil {
		s.logger.Warn("clear cart snapshot", "user_id", sub.UserID, "error", err)
	}
	if s.recorder != nil {
		if err := s.recorder.Succeed(ctx, requestID, orderID, paymentID, qr != "" || len(payload) > 0); err != nil {
			s.logger.Warn("record checkout success", "request_id", requestID, "error", err)
		}
	}
	if s.events != nil {
		msg := queue.CheckoutMessage{
			RequestID:  requestID,
			UserID:     sub.UserID,
			OrderID:    orderID,
			PaymentID:  paymentID,
			Total:      total,
			Deposit:    s.opts.Deposit,
			OccurredAt: s.now().UTC(),
		}
		if err := s.events.Append(ctx, msg); err != nil {
			s.logger.Warn("append checkout event", "request_id", requestID, "error", err)
		}
	}

	s.logger.Info("checkout created",
		"user_id", sub.UserID, "request_id", requestID, "order_id", orderID, "payment_id", paymentID, "has_qr", qr != "")
	s.count(ctx, "success")
	return res, nil
}

// latestBuildID 失败不致命，订单不带 buildId 继续创建。
func (s *Service) latestBuildID(ctx context.Context, userID int64) *int64 {
	raws, err := s.api.ListBuilds(ctx, userID)
	if err != nil {
		s.logger.Warn("resolve build id", "user_id", userID, "error", err)
		return nil
	}
	latest, ok := catalog.LatestBuild(catalog.NormalizeBuilds(raws))
	if !ok {
		return nil
	}
	id := latest.ID
	return &id
}

// resolveQR 优先使用创建响应里的 paymentUrl，否则补拉一次；失败返回空。
func (s *Service) resolveQR(ctx context.Context, p backend.Payment) (string, json.RawMessage) {
	if p.PaymentURL != "" {
		return p.PaymentURL, nil
	}
	return FetchQR(ctx, s.api, p.Identity().Int64(), s.logger)
}

// QRFetcher 是补拉二维码所需的最小接口。
type QRFetcher interface {
	GetPaymentQR(ctx context.Context, paymentID int64) (backend.PaymentQR, error)
}

// FetchQR 按支付 id 拉取二维码，失败只记日志。
func FetchQR(ctx context.Context, api QRFetcher, paymentID int64, logger *slog.Logger) (string, json.RawMessage) {
	qr, err := api.GetPaymentQR(ctx, paymentID)
	if err != nil {
		logger.Warn("resolve payment qr", "payment_id", paymentID, "error", err)
		return "", nil
	}
	var payload json.RawMessage
	if len(qr.Payload) > 0 && string(qr.Payload) != "null" {
		payload = qr.Payload
	}
	return qr.QRString, payload
}

// PaymentURL 生成支付展示页地址，刷新页面时可据此重建视图而不重复下单。
func PaymentURL(orderID, amount, paymentID, deposit int64) string {
	return fmt.Sprintf("/payment?orderId=%d&amount=%d&paymentId=%d&deposit=%d", orderID, amount, paymentID, deposit)
}

func (s *Service) begin(ctx context.Context, req *model.CheckoutRequest) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Begin(ctx, req); err != nil {
		s.logger.Warn("record checkout begin", "request_id", req.RequestID, "error", err)
	}
}

// fail 释放占位并记录失败原因。
func (s *Service) fail(ctx context.Context, userID int64, requestID string, orderID int64, reason string) {
	if err := s.locker.Release(ctx, userID); err != nil {
		s.logger.Warn("release checkout lock", "user_id", userID, "error", err)
	}
	if s.recorder != nil {
		if err := s.recorder.Fail(ctx, requestID, orderID, reason); err != nil {
			s.logger.Warn("record checkout failure", "request_id", requestID, "error", err)
		}
	}
	s.count(ctx, "failed")
}

func (s *Service) count(ctx context.Context, outcome string) {
	if s.submissions == nil {
		return
	}
	s.submissions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
