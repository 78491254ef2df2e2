package backend

import (
	"encoding/json"
	"fmt"
)

// Shape 标记后端记录的字段形态：新版字段名或遗留字段名。
type Shape int

const (
	ShapeCurrent Shape = iota
	ShapeLegacy
)

func (s Shape) String() string {
	if s == ShapeLegacy {
		return "legacy"
	}
	return "current"
}

// detectShape 只要出现任一遗留字段即判定为遗留形态。
func detectShape(b []byte, legacyKeys ...string) (Shape, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(b, &probe); err != nil {
		return ShapeCurrent, err
	}
	for _, k := range legacyKeys {
		if _, ok := probe[k]; ok {
			return ShapeLegacy, nil
		}
	}
	return ShapeCurrent, nil
}

// ---- builds ----

type CurrentBuildItem struct {
	ProductID   FlexID  `json:"productId"`
	ProductName string  `json:"productName"`
	Model       string  `json:"model,omitempty"`
	Price       FlexInt `json:"price"`
	Quantity    FlexInt `json:"quantity"`
}

type CurrentBuild struct {
	ID         FlexID             `json:"id"`
	UserID     FlexID             `json:"userId"`
	Name       string             `json:"name"`
	TotalPrice FlexInt            `json:"totalPrice"`
	CreatedAt  string             `json:"createdAt"`
	Items      []CurrentBuildItem `json:"items"`
}

type LegacyComponent struct {
	Name       string  `json:"name"`
	Model      string  `json:"model"`
	PriceValue FlexInt `json:"priceValue"`
}

type LegacyBuild struct {
	BuildID FlexID `json:"buildId"`
	User    struct {
		ID FlexID `json:"id"`
	} `json:"user"`
	BuildName  string            `json:"buildName"`
	Total      FlexInt           `json:"total"`
	CreatedAt  string            `json:"created_at"`
	Components []LegacyComponent `json:"components"`
}

// RawBuild 是装机单的 tagged union，恰好一个分支非空。
type RawBuild struct {
	Shape   Shape
	Current *CurrentBuild
	Legacy  *LegacyBuild
}

func (r *RawBuild) UnmarshalJSON(b []byte) error {
	shape, err := detectShape(b, "buildId", "buildName", "components")
	if err != nil {
		return fmt.Errorf("decode build: %w", err)
	}
	*r = RawBuild{Shape: shape}
	if shape == ShapeLegacy {
		r.Legacy = &LegacyBuild{}
		return json.Unmarshal(b, r.Legacy)
	}
	r.Current = &CurrentBuild{}
	return json.Unmarshal(b, r.Current)
}

// ---- games ----

type GameRequirements struct {
	CPU       string  `json:"cpu"`
	GPU       string  `json:"gpu"`
	RAMGB     FlexInt `json:"ramGb"`
	StorageGB FlexInt `json:"storageGb"`
}

type CurrentGame struct {
	ID           FlexID           `json:"id"`
	Name         string           `json:"name"`
	Genre        string           `json:"genre"`
	ImageURL     string           `json:"imageUrl,omitempty"`
	Requirements GameRequirements `json:"requirements"`
}

type LegacyGame struct {
	GameID     FlexID `json:"gameId"`
	GameName   string `json:"gameName"`
	Category   string `json:"category"`
	Image      string `json:"image,omitempty"`
	MinCPU     string `json:"minCpu"`
	MinGPU     string `json:"minGpu"`
	MinRAM     string `json:"minRam"`     // 例如 "16GB"
	MinStorage string `json:"minStorage"` // 例如 "100 GB"
}

// RawGame 是游戏配置需求的 tagged union。
type RawGame struct {
	Shape   Shape
	Current *CurrentGame
	Legacy  *LegacyGame
}

func (r *RawGame) UnmarshalJSON(b []byte) error {
	shape, err := detectShape(b, "gameId", "gameName", "minCpu")
	if err != nil {
		return fmt.Errorf("decode game: %w", err)
	}
	*r = RawGame{Shape: shape}
	if shape == ShapeLegacy {
		r.Legacy = &LegacyGame{}
		return json.Unmarshal(b, r.Legacy)
	}
	r.Current = &CurrentGame{}
	return json.Unmarshal(b, r.Current)
}

// ---- products ----

type CurrentProduct struct {
	ID       FlexID         `json:"id"`
	Name     string         `json:"name"`
	Brand    string         `json:"brand"`
	Price    FlexInt        `json:"price"`
	Category string         `json:"category"`
	Specs    map[string]any `json:"specs,omitempty"`
}

type LegacyProduct struct {
	ProductID    FlexID  `json:"productId"`
	ProductName  string  `json:"productName"`
	Manufacturer string  `json:"manufacturer"`
	PriceValue   FlexInt `json:"priceValue"`
	CategoryName string  `json:"categoryName"`
	Socket       string  `json:"socket,omitempty"`
	Cores        FlexInt `json:"cores,omitempty"`
	Chipset      string  `json:"chipset,omitempty"`
	Capacity     string  `json:"capacity,omitempty"`
}

// RawProduct 是商品的 tagged union。
type RawProduct struct {
	Shape   Shape
	Current *CurrentProduct
	Legacy  *LegacyProduct
}

func (r *RawProduct) UnmarshalJSON(b []byte) error {
	shape, err := detectShape(b, "productId", "productName", "priceValue")
	if err != nil {
		return fmt.Errorf("decode product: %w", err)
	}
	*r = RawProduct{Shape: shape}
	if shape == ShapeLegacy {
		r.Legacy = &LegacyProduct{}
		return json.Unmarshal(b, r.Legacy)
	}
	r.Current = &CurrentProduct{}
	return json.Unmarshal(b, r.Current)
}
