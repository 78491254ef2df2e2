package catalog

import (
	"net/url"
	"strconv"
	"strings"
)

// Filter 是分类页的筛选状态，所有启用的条件取交集。
type Filter struct {
	MinPrice *int64
	MaxPrice *int64
	Search   string
	// Facets 按维度给出允许值，例如 socket -> [LGA1700, AM5]。
	Facets map[string][]string
}

// Apply 返回可见子集，保持原有顺序。
func Apply(items []Item, f Filter) []Item {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if !matchPrice(it, f) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(it.Name), search) &&
			!strings.Contains(strings.ToLower(it.Brand), search) {
			continue
		}
		if !matchFacets(it, f.Facets) {
			continue
		}
		out = append(out, it)
	}
	return out
}

// matchPrice 只对有正价格的商品生效，“联系报价”(price<=0) 的商品始终保留。
func matchPrice(it Item, f Filter) bool {
	if it.Price <= 0 {
		return true
	}
	if f.MinPrice != nil && it.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && it.Price > *f.MaxPrice {
		return false
	}
	return true
}

func matchFacets(it Item, facets map[string][]string) bool {
	for name, allowed := range facets {
		if len(allowed) == 0 {
			continue
		}
		v, ok := it.Facets[strings.ToLower(name)]
		if !ok {
			return false
		}
		hit := false
		for _, a := range allowed {
			if strings.EqualFold(strings.TrimSpace(a), v) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	return true
}

// ParseFilter 从查询串解析筛选条件：minPrice、maxPrice、q、facet.<name>=a,b。
// 无法解析的价格参数视为未设置。
func ParseFilter(q url.Values) Filter {
	f := Filter{Search: q.Get("q")}
	if v, err := strconv.ParseInt(q.Get("minPrice"), 10, 64); err == nil {
		f.MinPrice = &v
	}
	if v, err := strconv.ParseInt(q.Get("maxPrice"), 10, 64); err == nil {
		f.MaxPrice = &v
	}
	for key, values := range q {
		name, ok := strings.CutPrefix(key, "facet.")
		if !ok || name == "" {
			continue
		}
		for _, v := range values {
			for _, part := range strings.Split(v, ",") {
				if part = strings.TrimSpace(part); part != "" {
					if f.Facets == nil {
						f.Facets = map[string][]string{}
					}
					f.Facets[strings.ToLower(name)] = append(f.Facets[strings.ToLower(name)], part)
				}
			}
		}
	}
	return f
}
