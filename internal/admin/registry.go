package admin

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"

	"ezbuild/internal/backend"
)

// Handle 是去掉类型参数后的面板，供路由层按名字分发。
type Handle interface {
	Name() string
	ReadOnly() bool
	List(ctx context.Context, query string) (any, error)
	Create(ctx context.Context, form json.RawMessage) (any, error)
	Update(ctx context.Context, id int64, form json.RawMessage) (any, error)
	Delete(ctx context.Context, id int64, confirmed bool) (any, error)
}

type handle[T Entity] struct{ *Panel[T] }

// List 每次都重新加载，只过滤本次请求拿到的数据，不读共享快照。
func (h handle[T]) List(ctx context.Context, query string) (any, error) {
	items, err := h.Load(ctx)
	if err != nil {
		return nil, err
	}
	return searchIn(items, query), nil
}

func (h handle[T]) Create(ctx context.Context, form json.RawMessage) (any, error) {
	return h.Panel.Create(ctx, form)
}

func (h handle[T]) Update(ctx context.Context, id int64, form json.RawMessage) (any, error) {
	return h.Panel.Update(ctx, id, form)
}

func (h handle[T]) Delete(ctx context.Context, id int64, confirmed bool) (any, error) {
	return h.Panel.Delete(ctx, id, confirmed)
}

// Wrap 把类型化面板转成 Handle。
func Wrap[T Entity](p *Panel[T]) Handle { return handle[T]{p} }

// Registry 按名字索引全部面板。
type Registry map[string]Handle

// NewRegistry 注册全部后台面板；payments 只读。
func NewRegistry(c *backend.Client, logger *slog.Logger) Registry {
	r := Registry{}
	r.add(Wrap(NewPanel[backend.Product]("products", backend.NewResource[backend.Product](c, "/api/product"), false, logger)))
	r.add(Wrap(NewPanel[backend.Game]("games", backend.NewResource[backend.Game](c, "/api/game"), false, logger)))
	r.add(Wrap(NewPanel[backend.Service]("services", backend.NewResource[backend.Service](c, "/api/service"), false, logger)))
	r.add(Wrap(NewPanel[backend.OrderFeedback]("order-feedback", backend.NewResource[backend.OrderFeedback](c, "/api/order-feedback"), false, logger)))
	r.add(Wrap(NewPanel[backend.ServiceFeedback]("service-feedback", backend.NewResource[backend.ServiceFeedback](c, "/api/service-feedback"), false, logger)))
	r.add(Wrap(NewPanel[backend.Payment]("payments", backend.NewResource[backend.Payment](c, "/api/payment"), true, logger)))
	return r
}

func (r Registry) add(h Handle) { r[h.Name()] = h }

func (r Registry) Names() []string {
	out := make([]string, 0, len(r))
	for n := range r {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
