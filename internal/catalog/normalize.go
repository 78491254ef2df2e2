package catalog

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"ezbuild/internal/backend"
)

// Item 是分类页统一的商品视图。Price<=0 表示“联系报价”。
type Item struct {
	ID       int64             `json:"id"`
	Name     string            `json:"name"`
	Brand    string            `json:"brand"`
	Category string            `json:"category"`
	Price    int64             `json:"price"`
	Facets   map[string]string `json:"facets,omitempty"`
}

// NormalizeProduct 把新旧两种商品形态映射为 Item。
func NormalizeProduct(r backend.RawProduct) Item {
	switch {
	case r.Shape == backend.ShapeLegacy && r.Legacy != nil:
		p := r.Legacy
		facets := map[string]string{}
		putFacet(facets, "socket", p.Socket)
		if p.Cores > 0 {
			putFacet(facets, "cores", strconv.FormatInt(int64(p.Cores), 10))
		}
		putFacet(facets, "chipset", p.Chipset)
		putFacet(facets, "capacity", p.Capacity)
		return Item{
			ID:       p.ProductID.Int64(),
			Name:     p.ProductName,
			Brand:    p.Manufacturer,
			Category: p.CategoryName,
			Price:    int64(p.PriceValue),
			Facets:   facets,
		}
	case r.Current != nil:
		p := r.Current
		facets := map[string]string{}
		for k, v := range p.Specs {
			putFacet(facets, k, specString(v))
		}
		return Item{
			ID:       p.ID.Int64(),
			Name:     p.Name,
			Brand:    p.Brand,
			Category: p.Category,
			Price:    int64(p.Price),
			Facets:   facets,
		}
	default:
		return Item{}
	}
}

func NormalizeProducts(rs []backend.RawProduct) []Item {
	out := make([]Item, 0, len(rs))
	for _, r := range rs {
		out = append(out, NormalizeProduct(r))
	}
	return out
}

func putFacet(m map[string]string, key, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	m[strings.ToLower(key)] = value
}

func specString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		if x == float64(int64(x)) {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

// Requirement 是游戏最低配置需求。
type Requirement struct {
	CPU       string `json:"cpu"`
	GPU       string `json:"gpu"`
	RAMGB     int    `json:"ramGb"`
	StorageGB int    `json:"storageGb"`
}

type Game struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	Genre       string      `json:"genre"`
	ImageURL    string      `json:"imageUrl,omitempty"`
	Requirement Requirement `json:"requirement"`
}

// NormalizeGame 把新旧两种游戏形态映射为 Game。
func NormalizeGame(r backend.RawGame) Game {
	switch {
	case r.Shape == backend.ShapeLegacy && r.Legacy != nil:
		g := r.Legacy
		return Game{
			ID:       g.GameID.Int64(),
			Name:     g.GameName,
			Genre:    g.Category,
			ImageURL: g.Image,
			Requirement: Requirement{
				CPU:       g.MinCPU,
				GPU:       g.MinGPU,
				RAMGB:     parseGB(g.MinRAM),
				StorageGB: parseGB(g.MinStorage),
			},
		}
	case r.Current != nil:
		g := r.Current
		return Game{
			ID:       g.ID.Int64(),
			Name:     g.Name,
			Genre:    g.Genre,
			ImageURL: g.ImageURL,
			Requirement: Requirement{
				CPU:       g.Requirements.CPU,
				GPU:       g.Requirements.GPU,
				RAMGB:     int(g.Requirements.RAMGB),
				StorageGB: int(g.Requirements.StorageGB),
			},
		}
	default:
		return Game{}
	}
}

func NormalizeGames(rs []backend.RawGame) []Game {
	out := make([]Game, 0, len(rs))
	for _, r := range rs {
		out = append(out, NormalizeGame(r))
	}
	return out
}

var gbPattern = regexp.MustCompile(`(?i)^\s*(\d+)\s*(gb|g|tb)?\s*$`)

// parseGB 解析 "16GB"、"16 GB"、"1TB" 等写法；无法解析返回 0。
func parseGB(s string) int {
	m := gbPattern.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	if strings.EqualFold(m[2], "tb") {
		n *= 1024
	}
	return n
}

// BuildLine 是装机单中的一行配件。
type BuildLine struct {
	Name     string `json:"name"`
	Model    string `json:"model,omitempty"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
}

type Build struct {
	ID        int64       `json:"id"`
	UserID    int64       `json:"userId"`
	Name      string      `json:"name"`
	Total     int64       `json:"total"`
	CreatedAt time.Time   `json:"createdAt"`
	Lines     []BuildLine `json:"lines"`
}

// NormalizeBuild 把新旧两种装机单形态映射为 Build；总价缺失时按明细求和。
func NormalizeBuild(r backend.RawBuild) Build {
	var b Build
	switch {
	case r.Shape == backend.ShapeLegacy && r.Legacy != nil:
		l := r.Legacy
		b = Build{
			ID:        l.BuildID.Int64(),
			UserID:    l.User.ID.Int64(),
			Name:      l.BuildName,
			Total:     int64(l.Total),
			CreatedAt: parseTime(l.CreatedAt),
		}
		for _, c := range l.Components {
			b.Lines = append(b.Lines, BuildLine{Name: c.Name, Model: c.Model, Price: int64(c.PriceValue), Quantity: 1})
		}
	case r.Current != nil:
		c := r.Current
		b = Build{
			ID:        c.ID.Int64(),
			UserID:    c.UserID.Int64(),
			Name:      c.Name,
			Total:     int64(c.TotalPrice),
			CreatedAt: parseTime(c.CreatedAt),
		}
		for _, it := range c.Items {
			qty := int(it.Quantity)
			if qty <= 0 {
				qty = 1
			}
			b.Lines = append(b.Lines, BuildLine{Name: it.ProductName, Model: it.Model, Price: int64(it.Price), Quantity: qty})
		}
	}
	if b.Total <= 0 {
		for _, l := range b.Lines {
			b.Total += l.Price * int64(l.Quantity)
		}
	}
	return b
}

func NormalizeBuilds(rs []backend.RawBuild) []Build {
	out := make([]Build, 0, len(rs))
	for _, r := range rs {
		out = append(out, NormalizeBuild(r))
	}
	return out
}

// LatestBuild 取最近创建的装机单；创建时间相同或缺失时取 id 最大者。
// 只考虑 id 可用的记录。
func LatestBuild(builds []Build) (Build, bool) {
	var best Build
	found := false
	for _, b := range builds {
		if b.ID <= 0 {
			continue
		}
		if !found || b.CreatedAt.After(best.CreatedAt) ||
			(b.CreatedAt.Equal(best.CreatedAt) && b.ID > best.ID) {
			best = b
			found = true
		}
	}
	return best, found
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
