package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"ezbuild/internal/backend"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeBackend 记录收到的请求，GET 返回当前集合。
type fakeBackend struct {
	mu      sync.Mutex
	calls   []string
	games   []map[string]any
	failPut bool
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, r.Method+" "+r.URL.Path)
	w.Header().Set("Content-Type", "application/json")
	switch r.Method {
	case http.MethodGet:
		_ = json.NewEncoder(w).Encode(f.games)
	case http.MethodPost:
		var g map[string]any
		_ = json.NewDecoder(r.Body).Decode(&g)
		g["id"] = len(f.games) + 1
		f.games = append(f.games, g)
		_ = json.NewEncoder(w).Encode(g)
	case http.MethodPut:
		if f.failPut {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"id":1}`))
	case http.MethodDelete:
		f.games = f.games[:0]
		w.WriteHeader(http.StatusNoContent)
	}
}

func (f *fakeBackend) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func newGamePanel(t *testing.T, fb *fakeBackend, readOnly bool) *Panel[backend.Game] {
	t.Helper()
	srv := httptest.NewServer(fb)
	t.Cleanup(srv.Close)
	c := backend.NewClient(srv.URL, srv.Client())
	return NewPanel[backend.Game]("games", backend.NewResource[backend.Game](c, "/api/game"), readOnly, testLogger())
}

func TestPanel_MutationsReload(t *testing.T) {
	ctx := context.Background()
	fb := &fakeBackend{games: []map[string]any{{"id": 1, "name": "Cyberpunk 2077", "genre": "RPG"}}}
	p := newGamePanel(t, fb, false)

	items, err := p.Create(ctx, map[string]any{"name": "Elden Ring", "genre": "RPG"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 games after reload, got %d", len(items))
	}
	want := []string{"POST /api/game", "GET /api/game"}
	if got := fb.Calls(); len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("calls = %v, want %v", got, want)
	}
}

func TestPanel_FailedMutationStillReloads(t *testing.T) {
	ctx := context.Background()
	fb := &fakeBackend{failPut: true, games: []map[string]any{{"id": 1, "name": "Doom"}}}
	p := newGamePanel(t, fb, false)

	items, err := p.Update(ctx, 1, map[string]any{"name": "Doom Eternal"})
	if !backend.IsStatus(err, http.StatusInternalServerError) {
		t.Fatalf("expected 500 APIError, got %v", err)
	}
	if len(items) != 1 {
		t.Errorf("expected reloaded snapshot, got %d items", len(items))
	}
	if calls := fb.Calls(); len(calls) != 2 || calls[1] != "GET /api/game" {
		t.Errorf("expected reload after failed update, got %v", calls)
	}
}

func TestPanel_DeleteRequiresConfirmation(t *testing.T) {
	ctx := context.Background()
	fb := &fakeBackend{games: []map[string]any{{"id": 1, "name": "Doom"}}}
	p := newGamePanel(t, fb, false)

	if _, err := p.Delete(ctx, 1, false); !errors.Is(err, ErrConfirmationRequired) {
		t.Fatalf("expected ErrConfirmationRequired, got %v", err)
	}
	if calls := fb.Calls(); len(calls) != 0 {
		t.Fatalf("expected no http call, got %v", calls)
	}

	items, err := p.Delete(ctx, 1, true)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected empty list after delete, got %d", len(items))
	}
}

func TestPanel_ReadOnly(t *testing.T) {
	ctx := context.Background()
	fb := &fakeBackend{}
	p := newGamePanel(t, fb, true)

	if _, err := p.Create(ctx, map[string]any{}); !errors.Is(err, ErrReadOnly) {
		t.Errorf("create: expected ErrReadOnly, got %v", err)
	}
	if _, err := p.Update(ctx, 1, map[string]any{}); !errors.Is(err, ErrReadOnly) {
		t.Errorf("update: expected ErrReadOnly, got %v", err)
	}
	if _, err := p.Delete(ctx, 1, true); !errors.Is(err, ErrReadOnly) {
		t.Errorf("delete: expected ErrReadOnly, got %v", err)
	}
	if calls := fb.Calls(); len(calls) != 0 {
		t.Errorf("expected no http call, got %v", calls)
	}
}

func TestPanel_Search(t *testing.T) {
	fb := &fakeBackend{games: []map[string]any{
		{"id": 1, "name": "Cyberpunk 2077", "genre": "RPG"},
		{"id": 2, "name": "Forza Horizon", "genre": "Racing"},
		{"id": 3, "name": "Elden Ring", "genre": "rpg"},
	}}
	p := newGamePanel(t, fb, false)
	if _, err := p.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	tests := []struct {
		query string
		want  int
	}{
		{"", 3},
		{"rpg", 2},
		{"FORZA", 1},
		{"zelda", 0},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			if got := p.Search(tt.query); len(got) != tt.want {
				t.Errorf("Search(%q) = %d items, want %d", tt.query, len(got), tt.want)
			}
		})
	}
	if len(p.Snapshot()) != 3 {
		t.Error("search must not mutate the snapshot")
	}
}

func TestHandle_ListUsesOwnLoad(t *testing.T) {
	// 不同 token 看到不同的数据集，模拟并发的两位管理员。
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		name := "Alpha"
		if r.Header.Get("Authorization") == "Bearer b" {
			name = "Beta"
		}
		_ = json.NewEncoder(w).Encode([]map[string]any{{"id": 1, "name": name}})
	}))
	t.Cleanup(srv.Close)
	c := backend.NewClient(srv.URL, srv.Client())
	h := Wrap(NewPanel[backend.Game]("games", backend.NewResource[backend.Game](c, "/api/game"), false, testLogger()))

	var wg sync.WaitGroup
	errs := make(chan string, 64)
	for i := 0; i < 64; i++ {
		token, want := "a", "Alpha"
		if i%2 == 1 {
			token, want = "b", "Beta"
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := h.List(backend.WithToken(context.Background(), token), "")
			if err != nil {
				errs <- err.Error()
				return
			}
			games := got.([]backend.Game)
			if len(games) != 1 || games[0].Name != want {
				errs <- fmt.Sprintf("token %s saw %+v", token, games)
			}
		}()
	}
	wg.Wait()
	close(errs)
	for e := range errs {
		t.Error(e)
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(backend.NewClient("http://unused", http.DefaultClient), testLogger())
	want := []string{"games", "order-feedback", "payments", "products", "service-feedback", "services"}
	got := r.Names()
	if len(got) != len(want) {
		t.Fatalf("names = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("names[%d] = %s, want %s", i, got[i], want[i])
		}
	}
	if !r["payments"].ReadOnly() {
		t.Error("payments panel must be read-only")
	}
	if r["products"].ReadOnly() {
		t.Error("products panel must be writable")
	}
}
