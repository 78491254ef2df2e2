package telemetry

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// GinRoute 在 gin 匹配路由后把路由模板写入 otelhttp 的指标标签，
// 避免按原始路径产生高基数。
func GinRoute() gin.HandlerFunc {
	return func(c *gin.Context) {
		if route := c.FullPath(); route != "" {
			if labeler, ok := otelhttp.LabelerFromContext(c.Request.Context()); ok {
				labeler.Add(semconv.HTTPRoute(route))
			}
		}
		c.Next()
	}
}
