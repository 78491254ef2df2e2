package backend

import (
	"context"
	"net/http"
	"strconv"
)

// Resource 是单个实体集合的通用 CRUD 端点，例如 /api/game。
type Resource[T any] struct {
	c    *Client
	path string
}

func NewResource[T any](c *Client, path string) *Resource[T] {
	return &Resource[T]{c: c, path: path}
}

func (r *Resource[T]) Path() string { return r.path }

func (r *Resource[T]) List(ctx context.Context) ([]T, error) {
	var out []T
	if err := r.c.Do(ctx, http.MethodGet, r.path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Resource[T]) Create(ctx context.Context, form any) (T, error) {
	var out T
	err := r.c.Do(ctx, http.MethodPost, r.path, form, &out)
	return out, err
}

func (r *Resource[T]) Update(ctx context.Context, id int64, form any) (T, error) {
	var out T
	err := r.c.Do(ctx, http.MethodPut, r.path+"/"+strconv.FormatInt(id, 10), form, &out)
	return out, err
}

func (r *Resource[T]) Delete(ctx context.Context, id int64) error {
	return r.c.Do(ctx, http.MethodDelete, r.path+"/"+strconv.FormatInt(id, 10), nil, nil)
}
