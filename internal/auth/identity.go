package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v4"
)

// Role 是前端展示用的角色分级；真正的鉴权由后端完成。
type Role string

const (
	RoleCustomer Role = "Customer"
	RoleStaff    Role = "Staff"
	RoleAdmin    Role = "Admin"
)

// ParseRole 大小写不敏感，兼容 ROLE_ 前缀；无法识别时视为 Customer。
func ParseRole(s string) Role {
	s = strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(s)), "ROLE_")
	switch s {
	case "ADMIN":
		return RoleAdmin
	case "STAFF":
		return RoleStaff
	default:
		return RoleCustomer
	}
}

// AtLeast 判断角色等级是否不低于 min。
func (r Role) AtLeast(min Role) bool {
	return rank(r) >= rank(min)
}

func rank(r Role) int {
	switch r {
	case RoleAdmin:
		return 2
	case RoleStaff:
		return 1
	default:
		return 0
	}
}

// Identity 是从 bearer token 中解出的身份信息，Token 原样透传给后端。
type Identity struct {
	UserID int64
	Role   Role
	Email  string
	Token  string
}

var ErrInvalidToken = errors.New("invalid token")

// Decode 不校验签名地解析 token；签名由后端负责。
// 用户 id 依次取 userId、id、sub。
func Decode(token string) (Identity, error) {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if token == "" {
		return Identity{}, ErrInvalidToken
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	var userID int64
	for _, k := range []string{"userId", "id", "sub"} {
		if id, ok := claimInt(claims[k]); ok && id > 0 {
			userID = id
			break
		}
	}
	role, _ := claims["role"].(string)
	email, _ := claims["email"].(string)
	return Identity{UserID: userID, Role: ParseRole(role), Email: email, Token: token}, nil
}

func claimInt(v any) (int64, bool) {
	switch x := v.(type) {
	case float64:
		if x != float64(int64(x)) {
			return 0, false
		}
		return int64(x), true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}
