package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hilthontt/spinwheel/internal/domain"
	"github.com/hilthontt/spinwheel/internal/infrastructure/logging"
)

type fakeCatalog struct {
	games  []domain.CatalogGame
	filter domain.CatalogFilter
}

func (f *fakeCatalog) FindByName(context.Context, string) (*domain.CatalogGame, error) {
	return nil, domain.ErrGameNotFound
}

func (f *fakeCatalog) List(_ context.Context, filter domain.CatalogFilter) ([]domain.CatalogGame, error) {
	f.filter = filter
	return append([]domain.CatalogGame{}, f.games...), nil
}

func TestListGamesNaturalOrder(t *testing.T) {
	catalog := &fakeCatalog{games: []domain.CatalogGame{
		{Name: "Civilization 10"}, {Name: "Civilization 2"}, {Name: "Chess"},
	}}
	h := NewHandler(catalog, logging.NewNop())

	rec := httptest.NewRecorder()
	h.ListGamesHandler(rec, httptest.NewRequest(http.MethodGet, "/api/games?genre=Strategy&limit=10", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp listGamesResponse
	_ = json.NewDecoder(rec.Body).Decode(&resp)
	want := []string{"Chess", "Civilization 2", "Civilization 10"}
	for i, name := range want {
		if resp.Games[i].Name != name {
			t.Fatalf("expected %v, got %+v", want, resp.Games)
		}
	}
	if catalog.filter.Genre != "Strategy" || catalog.filter.Limit != 10 {
		t.Fatalf("filter not forwarded: %+v", catalog.filter)
	}
}

func TestListGamesRejectsBadLimit(t *testing.T) {
	h := NewHandler(&fakeCatalog{}, logging.NewNop())

	for _, q := range []string{"limit=abc", "limit=1000"} {
		rec := httptest.NewRecorder()
		h.ListGamesHandler(rec, httptest.NewRequest(http.MethodGet, "/api/games?"+q, nil))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s should be rejected, got %d", q, rec.Code)
		}
	}
}
