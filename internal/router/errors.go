package router

import (
	"errors"
	"net/http"

	"ezbuild/internal/admin"
	"ezbuild/internal/audit"
	"ezbuild/internal/backend"
	"ezbuild/internal/checkout"

	"github.com/gin-gonic/gin"
)

// writeError 把领域错误映射为状态码与面向用户的提示。
// 致命的后端错误只返回通用提示，细节进日志。
func writeError(c *gin.Context, err error) {
	_ = c.Error(err)

	switch {
	case errors.Is(err, checkout.ErrReauthenticate):
		fail(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, checkout.ErrNoCart),
		errors.Is(err, checkout.ErrInvalidView),
		errors.Is(err, admin.ErrConfirmationRequired):
		fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, checkout.ErrInProgress):
		fail(c, http.StatusConflict, err.Error())
	case errors.Is(err, checkout.ErrOrderCreate),
		errors.Is(err, checkout.ErrPaymentCreate):
		fail(c, http.StatusBadGateway, err.Error())
	case errors.Is(err, admin.ErrReadOnly):
		fail(c, http.StatusMethodNotAllowed, err.Error())
	case errors.Is(err, audit.ErrNotFound):
		fail(c, http.StatusNotFound, err.Error())
	default:
		var apiErr *backend.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.Status {
			case http.StatusNotFound:
				fail(c, http.StatusNotFound, "not found")
			case http.StatusUnauthorized, http.StatusForbidden:
				fail(c, apiErr.Status, "access denied")
			case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
				fail(c, apiErr.Status, "request rejected by server")
			default:
				fail(c, http.StatusBadGateway, "server error, please try again")
			}
			return
		}
		fail(c, http.StatusInternalServerError, "internal error")
	}
}
