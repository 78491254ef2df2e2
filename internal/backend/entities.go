package backend

import (
	"fmt"
	"strings"
)

// 管理后台各面板的实体。SearchText 供前端检索框使用。

type Product struct {
	ID       FlexID         `json:"id"`
	Name     string         `json:"name"`
	Brand    string         `json:"brand"`
	Price    FlexInt        `json:"price"`
	Category string         `json:"category"`
	Specs    map[string]any `json:"specs,omitempty"`
}

func (p Product) Key() int64         { return p.ID.Int64() }
func (p Product) SearchText() string { return joinText(p.Name, p.Brand, p.Category) }

type Game struct {
	ID           FlexID           `json:"id"`
	Name         string           `json:"name"`
	Genre        string           `json:"genre"`
	ImageURL     string           `json:"imageUrl,omitempty"`
	Requirements GameRequirements `json:"requirements"`
}

func (g Game) Key() int64         { return g.ID.Int64() }
func (g Game) SearchText() string { return joinText(g.Name, g.Genre) }

type Service struct {
	ID          FlexID  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       FlexInt `json:"price"`
}

func (s Service) Key() int64         { return s.ID.Int64() }
func (s Service) SearchText() string { return joinText(s.Name, s.Description) }

type OrderFeedback struct {
	ID      FlexID  `json:"id"`
	OrderID FlexID  `json:"orderId"`
	UserID  FlexID  `json:"userId"`
	Rating  FlexInt `json:"rating"`
	Comment string  `json:"comment"`
}

func (f OrderFeedback) Key() int64 { return f.ID.Int64() }
func (f OrderFeedback) SearchText() string {
	return joinText(f.Comment, fmt.Sprintf("order %d", f.OrderID))
}

type ServiceFeedback struct {
	ID        FlexID  `json:"id"`
	ServiceID FlexID  `json:"serviceId"`
	UserID    FlexID  `json:"userId"`
	Rating    FlexInt `json:"rating"`
	Comment   string  `json:"comment"`
}

func (f ServiceFeedback) Key() int64 { return f.ID.Int64() }
func (f ServiceFeedback) SearchText() string {
	return joinText(f.Comment, fmt.Sprintf("service %d", f.ServiceID))
}

func (p Payment) Key() int64 { return p.Identity().Int64() }
func (p Payment) SearchText() string {
	return joinText(p.Method, p.Status, fmt.Sprintf("order %d", p.OrderID))
}

func joinText(parts ...string) string {
	return strings.ToLower(strings.Join(parts, " "))
}
