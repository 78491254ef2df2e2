package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
)

// ErrInvalidView 表示支付页 URL 参数缺失或非法。
var ErrInvalidView = errors.New("invalid payment view parameters")

// View 从支付页 URL 参数重建展示状态，只补拉二维码，绝不重新下单。
func View(ctx context.Context, api QRFetcher, q url.Values, logger *slog.Logger) (Result, error) {
	orderID, err1 := positiveParam(q, "orderId")
	paymentID, err2 := positiveParam(q, "paymentId")
	// 全部配件为“联系报价”时总价为 0，仍是合法订单
	amount, err3 := intParam(q, "amount", 0)
	if err := errors.Join(err1, err2, err3); err != nil {
		return Result{}, ErrInvalidView
	}
	deposit, err := positiveParam(q, "deposit")
	if err != nil {
		deposit = DefaultDeposit
	}

	qr, payload := FetchQR(ctx, api, paymentID, logger)
	return Result{
		OrderID:     orderID,
		PaymentID:   paymentID,
		Total:       amount,
		Deposit:     deposit,
		QR:          qr,
		QRPayload:   payload,
		RedirectURL: PaymentURL(orderID, amount, paymentID, deposit),
	}, nil
}

func positiveParam(q url.Values, key string) (int64, error) {
	return intParam(q, key, 1)
}

func intParam(q url.Values, key string, lowest int64) (int64, error) {
	n, err := strconv.ParseInt(q.Get(key), 10, 64)
	if err != nil {
		return 0, err
	}
	if n < lowest {
		return 0, fmt.Errorf("%s must be >= %d", key, lowest)
	}
	return n, nil
}
