package catalog

import (
	"encoding/json"
	"testing"
	"time"

	"ezbuild/internal/backend"
)

func TestNormalizeProduct(t *testing.T) {
	raw := `[
		{"id":1,"name":"Ryzen 5 7600","brand":"AMD","price":5200000,"category":"cpu","specs":{"Socket":"AM5","cores":6}},
		{"productId":"2","productName":"Core i5","manufacturer":"Intel","priceValue":null,"categoryName":"cpu","socket":"LGA1700","cores":10}
	]`
	var rs []backend.RawProduct
	if err := json.Unmarshal([]byte(raw), &rs); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	items := NormalizeProducts(rs)

	if items[0].ID != 1 || items[0].Brand != "AMD" || items[0].Price != 5200000 {
		t.Errorf("unexpected current item: %+v", items[0])
	}
	if items[0].Facets["socket"] != "AM5" || items[0].Facets["cores"] != "6" {
		t.Errorf("unexpected current facets: %v", items[0].Facets)
	}
	if items[1].ID != 2 || items[1].Brand != "Intel" || items[1].Price != 0 {
		t.Errorf("unexpected legacy item: %+v", items[1])
	}
	if items[1].Facets["socket"] != "LGA1700" || items[1].Facets["cores"] != "10" {
		t.Errorf("unexpected legacy facets: %v", items[1].Facets)
	}
}

func TestNormalizeGame(t *testing.T) {
	raw := `[
		{"id":5,"name":"Cyberpunk 2077","genre":"RPG","requirements":{"cpu":"i7-6700","gpu":"GTX 1060","ramGb":12,"storageGb":70}},
		{"gameId":6,"gameName":"Elden Ring","category":"Action","minCpu":"i5-8400","minGpu":"GTX 1060","minRam":"12 GB","minStorage":"1TB"}
	]`
	var rs []backend.RawGame
	if err := json.Unmarshal([]byte(raw), &rs); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	cur, legacy := NormalizeGame(rs[0]), NormalizeGame(rs[1])

	if cur.Requirement.RAMGB != 12 || cur.Requirement.StorageGB != 70 || cur.Genre != "RPG" {
		t.Errorf("unexpected current game: %+v", cur)
	}
	if legacy.ID != 6 || legacy.Name != "Elden Ring" || legacy.Requirement.RAMGB != 12 || legacy.Requirement.StorageGB != 1024 {
		t.Errorf("unexpected legacy game: %+v", legacy)
	}
}

func TestNormalizeBuildAndLatest(t *testing.T) {
	raw := `[
		{"id":10,"userId":42,"createdAt":"2024-03-01T10:00:00Z","items":[{"productName":"CPU","price":100,"quantity":2}]},
		{"buildId":11,"user":{"id":42},"buildName":"old","created_at":"2024-01-01 08:00:00","components":[{"name":"GPU","priceValue":300}]},
		{"id":12,"userId":42,"createdAt":"2024-05-01T10:00:00Z","totalPrice":999}
	]`
	var rs []backend.RawBuild
	if err := json.Unmarshal([]byte(raw), &rs); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	builds := NormalizeBuilds(rs)

	if builds[0].Total != 200 {
		t.Errorf("expected summed total 200, got %d", builds[0].Total)
	}
	if builds[1].ID != 11 || builds[1].UserID != 42 || builds[1].Total != 300 {
		t.Errorf("unexpected legacy build: %+v", builds[1])
	}
	if !builds[1].CreatedAt.Equal(time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected legacy createdAt: %v", builds[1].CreatedAt)
	}

	latest, ok := LatestBuild(builds)
	if !ok || latest.ID != 12 {
		t.Errorf("expected latest build 12, got %+v ok=%v", latest, ok)
	}
}

func TestLatestBuild_TieBreaksOnID(t *testing.T) {
	latest, ok := LatestBuild([]Build{{ID: 3}, {ID: 9}, {ID: 0}, {ID: 5}})
	if !ok || latest.ID != 9 {
		t.Errorf("expected 9, got %+v", latest)
	}
	if _, ok := LatestBuild(nil); ok {
		t.Error("expected no build")
	}
}
