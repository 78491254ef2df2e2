package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// APIError 表示后端返回了非 2xx 状态码。
type APIError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend %s %s: status=%d body=%s", e.Method, e.Path, e.Status, e.Body)
}

// IsStatus 判断 err 是否为指定状态码的 APIError。
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

type tokenKey struct{}

// WithToken 把调用方的 bearer token 放进 ctx，后续请求原样透传给后端。
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func tokenFrom(ctx context.Context) string {
	t, _ := ctx.Value(tokenKey{}).(string)
	return t
}

// Client 是 EzBuild 后端 REST API 的类型化客户端。
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string, client *http.Client) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// Do 发送一次 JSON 请求；out 为 nil 或响应体为空时不解码。
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := tokenFrom(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("backend %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s %s: %w", method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Method: method, Path: path, Status: resp.StatusCode, Body: string(b)}
	}

	b = bytes.TrimSpace(b)
	if out == nil || len(b) == 0 {
		return nil
	}
	if err := json.Unmarshal(unwrapData(b), out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// unwrapData 兼容 {"data": ...} 形式的响应包裹；记录本身带 id 时不拆。
func unwrapData(b []byte) []byte {
	if len(b) == 0 || b[0] != '{' {
		return b
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(b, &probe); err != nil {
		return b
	}
	data, ok := probe["data"]
	if !ok {
		return b
	}
	if _, hasID := probe["id"]; hasID {
		return b
	}
	return data
}

// ListBuilds 查询用户的装机单。
func (c *Client) ListBuilds(ctx context.Context, userID int64) ([]RawBuild, error) {
	var out []RawBuild
	path := "/api/build?userId=" + strconv.FormatInt(userID, 10)
	if err := c.Do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetBuild 查询装机单详情（含配件明细）。
func (c *Client) GetBuild(ctx context.Context, id int64) (RawBuild, error) {
	var out RawBuild
	err := c.Do(ctx, http.MethodGet, "/api/build/"+strconv.FormatInt(id, 10), nil, &out)
	return out, err
}

func (c *Client) CreateOrder(ctx context.Context, in OrderInput) (Order, error) {
	var out Order
	err := c.Do(ctx, http.MethodPost, "/api/order", in, &out)
	return out, err
}

func (c *Client) CreatePayment(ctx context.Context, in PaymentInput) (Payment, error) {
	var out Payment
	err := c.Do(ctx, http.MethodPost, "/api/payment", in, &out)
	return out, err
}

// GetPaymentQR 在创建响应缺少 paymentUrl 时补拉二维码。
func (c *Client) GetPaymentQR(ctx context.Context, paymentID int64) (PaymentQR, error) {
	var out PaymentQR
	err := c.Do(ctx, http.MethodGet, "/api/payment/"+strconv.FormatInt(paymentID, 10)+"/qr", nil, &out)
	return out, err
}

func (c *Client) GetUser(ctx context.Context, id int64) (User, error) {
	var out User
	err := c.Do(ctx, http.MethodGet, "/api/user/"+strconv.FormatInt(id, 10), nil, &out)
	return out, err
}

func (c *Client) UpdateUser(ctx context.Context, id int64, in ProfileUpdate) (User, error) {
	var out User
	err := c.Do(ctx, http.MethodPut, "/api/user/"+strconv.FormatInt(id, 10), in, &out)
	return out, err
}

// ListProducts 按分类查询商品；category 为空时返回全部。
func (c *Client) ListProducts(ctx context.Context, category string) ([]RawProduct, error) {
	path := "/api/product"
	if category != "" {
		path += "?category=" + url.QueryEscape(category)
	}
	var out []RawProduct
	if err := c.Do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
