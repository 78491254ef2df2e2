package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"ezbuild/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

func TestRateLimitKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"userId": 42}).SignedString([]byte("s"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	var got string
	r := gin.New()
	r.GET("/user", auth.Authenticate(), func(c *gin.Context) { got = rateLimitKey(c) })
	r.GET("/anon", func(c *gin.Context) { got = rateLimitKey(c) })

	req := httptest.NewRequest(http.MethodGet, "/user", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	r.ServeHTTP(httptest.NewRecorder(), req)
	if got != "rate_limit:checkout:user:42" {
		t.Errorf("user key = %s", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/anon", nil)
	req.RemoteAddr = "10.0.0.7:5555"
	r.ServeHTTP(httptest.NewRecorder(), req)
	if got != "rate_limit:checkout:ip:10.0.0.7" {
		t.Errorf("ip key = %s", got)
	}
}

func TestRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	r := gin.New()
	r.Use(RequestLogger(logger))
	r.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/9", nil))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log: %v (%s)", err, buf.String())
	}
	if entry["level"] != "WARN" || entry["route"] != "/items/:id" || entry["status"] != float64(404) {
		t.Errorf("unexpected log entry: %v", entry)
	}
}
