package router

import (
	"log/slog"
	"net/http"
	"time"

	"ezbuild/internal/admin"
	"ezbuild/internal/audit"
	"ezbuild/internal/auth"
	"ezbuild/internal/backend"
	"ezbuild/internal/cart"
	"ezbuild/internal/chat"
	"ezbuild/internal/checkout"
	"ezbuild/internal/middleware"

	"github.com/gin-gonic/gin"
	rd "github.com/redis/go-redis/v9"
)

// Deps 是注册路由所需的全部组件。RDB 为 nil 时不启用限流。
type Deps struct {
	Backend  *backend.Client
	Carts    *cart.Store
	Checkout *checkout.Service
	Recorder *audit.Recorder
	Panels   admin.Registry
	Chat     *chat.Responder
	Metrics  http.Handler

	RDB        *rd.Client
	RateLimit  int
	RateWindow time.Duration

	Logger *slog.Logger
}

// Setup 注册全部 HTTP 路由。
func Setup(r *gin.Engine, d Deps) {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"msg": "pong"})
	})
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics))
	}

	api := r.Group("/api")
	// 公开接口
	api.GET("/catalog/:category", listCatalog(d.Backend))
	api.GET("/games", listGames(d.Backend))
	api.POST("/chat", chatReply(d.Chat))

	// 登录用户
	user := api.Group("", auth.Authenticate())
	user.GET("/builds", listBuilds(d.Backend))
	user.GET("/cart", getCart(d.Carts))
	user.PUT("/cart", putCart(d.Carts))
	user.DELETE("/cart", clearCart(d.Carts))

	submit := []gin.HandlerFunc{}
	if d.RDB != nil {
		submit = append(submit, middleware.RedisRateLimit(d.RDB, d.RateLimit, d.RateWindow, d.Logger))
	}
	submit = append(submit, submitCheckout(d.Checkout))
	user.POST("/checkout", submit...)
	user.GET("/checkout", listMyCheckouts(d.Recorder))
	user.GET("/checkout/:request_id", getCheckout(d.Recorder))
	user.GET("/payment-view", paymentView(d.Backend, d.Logger))
	user.GET("/profile", getProfile(d.Backend))
	user.PUT("/profile", putProfile(d.Backend))

	// 员工/管理员
	staff := api.Group("/admin", auth.Authenticate(), auth.RequireRole(auth.RoleStaff))
	staff.GET("/checkouts", listCheckoutEvents(d.Recorder))
	staff.GET("/orphans", listOrphans(d.Recorder))
	staff.GET("/:panel", adminList(d.Panels))
	staff.POST("/:panel", adminCreate(d.Panels))
	staff.PUT("/:panel/:id", adminUpdate(d.Panels))
	staff.DELETE("/:panel/:id", adminDelete(d.Panels))
}

// ok 统一成功响应。
func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"code": 0, "data": data})
}

// fail 统一失败响应。
func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"code": status, "msg": msg})
}
