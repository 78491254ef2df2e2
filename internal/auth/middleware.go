package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const identityKey = "ezbuild.identity"

// Authenticate 解析 Authorization 头；缺失或无法解析时返回 401。
func Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": 401, "msg": "please sign in"})
			return
		}
		id, err := Decode(header)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": 401, "msg": "please sign in again"})
			return
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

// RequireRole 必须挂在 Authenticate 之后。
func RequireRole(min Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := FromContext(c)
		if !ok || !id.Role.AtLeast(min) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"code": 403, "msg": "access denied"})
			return
		}
		c.Next()
	}
}

func FromContext(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok
}
