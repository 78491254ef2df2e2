package router

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"ezbuild/internal/audit"
	"ezbuild/internal/auth"
	"ezbuild/internal/backend"
	"ezbuild/internal/checkout"
	"ezbuild/internal/model"

	"github.com/gin-gonic/gin"
)

// submitCheckout 是下单入口。同一用户并发提交时后到者得到 409，无任何副作用。
func submitCheckout(svc *checkout.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Phone   string `json:"phone"`
			Address string `json:"address"`
		}
		// body 可选；chunked 请求 ContentLength 为 -1，空 body 解码得到 io.EOF
		if c.Request.Body != nil && c.Request.Body != http.NoBody {
			if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
				fail(c, http.StatusBadRequest, err.Error())
				return
			}
		}
		ctx, id := forward(c)
		res, err := svc.Submit(ctx, checkout.Submission{UserID: id.UserID, Phone: req.Phone, Address: req.Address})
		if err != nil {
			writeError(c, err)
			return
		}
		ok(c, res)
	}
}

// getCheckout 根据 request_id 查询提交结果；只能查看自己的记录，员工除外。
func getCheckout(rec *audit.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := auth.FromContext(c)
		req, err := rec.Lookup(c.Request.Context(), c.Param("request_id"))
		if err != nil {
			writeError(c, err)
			return
		}
		if req.UserID != id.UserID && !id.Role.AtLeast(auth.RoleStaff) {
			writeError(c, audit.ErrNotFound)
			return
		}
		ok(c, checkoutView(req))
	}
}

func listMyCheckouts(rec *audit.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := auth.FromContext(c)
		limit, _ := strconv.Atoi(c.Query("limit"))
		list, err := rec.ListForUser(c.Request.Context(), id.UserID, limit)
		if err != nil {
			writeError(c, err)
			return
		}
		out := make([]gin.H, 0, len(list))
		for _, r := range list {
			out = append(out, checkoutView(r))
		}
		ok(c, out)
	}
}

// checkoutView 将内部状态映射为前端可读语义。
func checkoutView(r model.CheckoutRequest) gin.H {
	data := gin.H{
		"request_id": r.RequestID,
		"status":     r.Status.String(),
	}
	switch r.Status {
	case model.CheckoutSuccess:
		data["order_id"] = r.OrderID
		data["payment_id"] = r.PaymentID
		data["redirect_url"] = checkout.PaymentURL(r.OrderID, r.Total, r.PaymentID, r.Deposit)
	case model.CheckoutFailed:
		data["reason"] = r.ErrorMsg
		if r.OrderID > 0 {
			data["order_id"] = r.OrderID
		}
	}
	return data
}

// paymentView 刷新支付页时按 URL 参数重建展示，不会重复下单。
func paymentView(api *backend.Client, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, _ := forward(c)
		res, err := checkout.View(ctx, api, c.Request.URL.Query(), logger)
		if err != nil {
			writeError(c, err)
			return
		}
		ok(c, res)
	}
}

func listCheckoutEvents(rec *audit.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.Query("limit"))
		events, err := rec.ListEvents(c.Request.Context(), limit)
		if err != nil {
			writeError(c, err)
			return
		}
		ok(c, events)
	}
}

// listOrphans 列出有订单无支付的记录，供人工对账。
func listOrphans(rec *audit.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := rec.ListOrphans(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		ok(c, list)
	}
}
