package admin

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
)

var (
	// ErrConfirmationRequired 删除前必须显式确认，未确认时不发请求。
	ErrConfirmationRequired = errors.New("delete requires confirmation")
	// ErrReadOnly 只读面板拒绝任何写操作。
	ErrReadOnly = errors.New("panel is read-only")
)

// Entity 是面板里的一行记录。
type Entity interface {
	Key() int64
	SearchText() string
}

// Endpoint 是面板背后的 REST 集合，生产环境为 *backend.Resource[T]。
type Endpoint[T any] interface {
	List(ctx context.Context) ([]T, error)
	Create(ctx context.Context, form any) (T, error)
	Update(ctx context.Context, id int64, form any) (T, error)
	Delete(ctx context.Context, id int64) error
}

// Panel 持有最近一次 Load 的快照。写操作完成后无论成败都会重新 Load，
// 不做乐观更新。
type Panel[T Entity] struct {
	name     string
	ep       Endpoint[T]
	readOnly bool
	logger   *slog.Logger

	mu    sync.RWMutex
	items []T
}

func NewPanel[T Entity](name string, ep Endpoint[T], readOnly bool, logger *slog.Logger) *Panel[T] {
	return &Panel[T]{name: name, ep: ep, readOnly: readOnly, logger: logger}
}

func (p *Panel[T]) Name() string   { return p.name }
func (p *Panel[T]) ReadOnly() bool { return p.readOnly }

// Load 拉取完整集合并替换快照；失败时保留旧快照。
func (p *Panel[T]) Load(ctx context.Context) ([]T, error) {
	items, err := p.ep.List(ctx)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.items = items
	p.mu.Unlock()
	return items, nil
}

func (p *Panel[T]) Create(ctx context.Context, form any) ([]T, error) {
	if p.readOnly {
		return nil, ErrReadOnly
	}
	_, err := p.ep.Create(ctx, form)
	return p.reload(ctx, "create", err)
}

func (p *Panel[T]) Update(ctx context.Context, id int64, form any) ([]T, error) {
	if p.readOnly {
		return nil, ErrReadOnly
	}
	_, err := p.ep.Update(ctx, id, form)
	return p.reload(ctx, "update", err)
}

func (p *Panel[T]) Delete(ctx context.Context, id int64, confirmed bool) ([]T, error) {
	if p.readOnly {
		return nil, ErrReadOnly
	}
	if !confirmed {
		return nil, ErrConfirmationRequired
	}
	err := p.ep.Delete(ctx, id)
	return p.reload(ctx, "delete", err)
}

// reload 返回写操作本身的错误；重新加载失败只记日志。
func (p *Panel[T]) reload(ctx context.Context, op string, opErr error) ([]T, error) {
	if opErr != nil {
		p.logger.Warn("admin mutation failed", "panel", p.name, "op", op, "error", opErr)
	}
	items, err := p.Load(ctx)
	if err != nil {
		p.logger.Warn("admin reload failed", "panel", p.name, "op", op, "error", err)
		items = p.Snapshot()
	}
	return items, opErr
}

// Snapshot 返回最近一次加载的数据副本。
func (p *Panel[T]) Snapshot() []T {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]T, len(p.items))
	copy(out, p.items)
	return out
}

// Search 在快照上做大小写不敏感的子串过滤，空查询返回全部。
func (p *Panel[T]) Search(query string) []T {
	return searchIn(p.Snapshot(), query)
}

// searchIn 返回新切片，不修改 items。
func searchIn[T Entity](items []T, query string) []T {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]T, 0, len(items))
	for _, it := range items {
		if q == "" || strings.Contains(it.SearchText(), q) {
			out = append(out, it)
		}
	}
	return out
}
