package audit

import (
	"context"
	"errors"
	"log/slog"
	"time"
	"unicode/utf8"

	"ezbuild/internal/model"
	rediskey "ezbuild/pkg/redis"

	rd "github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// ErrNotFound 表示 request_id 不存在。
var ErrNotFound = errors.New("checkout request not found")

// Recorder 把下单提交落到 checkout_requests，并在 Redis 里缓存最新状态。
// rdb 为 nil 时只写库。
type Recorder struct {
	db       *gorm.DB
	rdb      *rd.Client
	cacheTTL time.Duration
	logger   *slog.Logger
}

func NewRecorder(db *gorm.DB, rdb *rd.Client, cacheTTL time.Duration, logger *slog.Logger) *Recorder {
	return &Recorder{db: db, rdb: rdb, cacheTTL: cacheTTL, logger: logger}
}

// Begin 写入 pending 记录。
func (r *Recorder) Begin(ctx context.Context, req *model.CheckoutRequest) error {
	req.Status = model.CheckoutPending
	if err := r.db.WithContext(ctx).Create(req).Error; err != nil {
		return err
	}
	r.cache(ctx, rediskey.CheckoutState{
		RequestID: req.RequestID,
		Status:    rediskey.CheckoutPending,
		UserID:    req.UserID,
		Total:     req.Total,
		Deposit:   req.Deposit,
	})
	return nil
}

// Succeed 标记成功。
func (r *Recorder) Succeed(ctx context.Context, requestID string, orderID, paymentID int64, hasQR bool) error {
	err := r.db.WithContext(ctx).Model(&model.CheckoutRequest{}).
		Where("request_id = ?", requestID).
		Updates(map[string]any{
			"status":     model.CheckoutSuccess,
			"order_id":   orderID,
			"payment_id": paymentID,
			"has_qr":     hasQR,
			"error_msg":  "",
		}).Error
	if err != nil {
		return err
	}
	r.cache(ctx, rediskey.CheckoutState{
		RequestID: requestID,
		Status:    rediskey.CheckoutSuccess,
		OrderID:   orderID,
		PaymentID: paymentID,
	})
	return nil
}

// Fail 标记失败；orderID 非零表示订单已创建但支付失败，需要人工对账。
func (r *Recorder) Fail(ctx context.Context, requestID string, orderID int64, reason string) error {
	err := r.db.WithContext(ctx).Model(&model.CheckoutRequest{}).
		Where("request_id = ?", requestID).
		Updates(map[string]any{
			"status":    model.CheckoutFailed,
			"order_id":  orderID,
			"error_msg": truncate(reason, 255),
		}).Error
	if err != nil {
		return err
	}
	r.cache(ctx, rediskey.CheckoutState{
		RequestID: requestID,
		Status:    rediskey.CheckoutFailed,
		OrderID:   orderID,
		Reason:    reason,
	})
	return nil
}

// Lookup 先查 Redis 缓存，未命中再查库。缓存不含 BuildID 与 HasQR。
func (r *Recorder) Lookup(ctx context.Context, requestID string) (model.CheckoutRequest, error) {
	if r.rdb != nil {
		st, found, err := rediskey.GetCheckoutState(ctx, r.rdb, requestID)
		if err == nil && found {
			return model.CheckoutRequest{
				RequestID: st.RequestID,
				Status:    parseStatus(st.Status),
				OrderID:   st.OrderID,
				PaymentID: st.PaymentID,
				ErrorMsg:  st.Reason,
				UserID:    st.UserID,
				Total:     st.Total,
				Deposit:   st.Deposit,
			}, nil
		}
	}

	var req model.CheckoutRequest
	err := r.db.WithContext(ctx).Where("request_id = ?", requestID).First(&req).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.CheckoutRequest{}, ErrNotFound
	}
	return req, err
}

// ListForUser 按时间倒序返回用户的下单记录。
func (r *Recorder) ListForUser(ctx context.Context, userID int64, limit int) ([]model.CheckoutRequest, error) {
	if limit <= 0 {
		limit = 20
	}
	var out []model.CheckoutRequest
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("id DESC").Limit(limit).Find(&out).Error
	return out, err
}

// ListEvents 返回已投递的下单事件，供员工后台只读查看。
func (r *Recorder) ListEvents(ctx context.Context, limit int) ([]model.CheckoutEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []model.CheckoutEvent
	err := r.db.WithContext(ctx).Order("occurred_at DESC").Limit(limit).Find(&out).Error
	return out, err
}

// ListOrphans 返回“订单已建、支付失败”的遗留记录。
func (r *Recorder) ListOrphans(ctx context.Context) ([]model.CheckoutRequest, error) {
	var out []model.CheckoutRequest
	err := r.db.WithContext(ctx).
		Where("status = ? AND order_id > 0", model.CheckoutFailed).
		Order("id DESC").Find(&out).Error
	return out, err
}

// cache 失败不影响主流程。
func (r *Recorder) cache(ctx context.Context, st rediskey.CheckoutState) {
	if r.rdb == nil {
		return
	}
	if err := rediskey.PutCheckoutState(ctx, r.rdb, st, r.cacheTTL); err != nil {
		r.logger.Warn("cache checkout state", "request_id", st.RequestID, "error", err)
	}
}

func parseStatus(s string) model.CheckoutStatus {
	switch s {
	case rediskey.CheckoutSuccess:
		return model.CheckoutSuccess
	case rediskey.CheckoutFailed:
		return model.CheckoutFailed
	default:
		return model.CheckoutPending
	}
}

// truncate 按字节截断到 n 以内，不切断多字节字符。
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
