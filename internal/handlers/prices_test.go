package handlers

import (
	"context"
	"html/template"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"goldtracker/internal/errors"
	"goldtracker/internal/localstore"
	"goldtracker/internal/logging"
	"goldtracker/internal/models"
	"goldtracker/internal/prices"
)

// fakeHistoryAPI records which history endpoint was hit.
type fakeHistoryAPI struct {
	history []models.GoldPrice
	err     error

	fullCalls int
	typeCalls []string
}

func (f *fakeHistoryAPI) PriceHistory(_ context.Context) ([]models.GoldPrice, error) {
	f.fullCalls++
	return f.history, f.err
}

func (f *fakeHistoryAPI) PricesByType(_ context.Context, goldType string) ([]models.GoldPrice, error) {
	f.typeCalls = append(f.typeCalls, goldType)
	return f.history, f.err
}

type stubFetcher struct{}

func (stubFetcher) LatestPrices(_ context.Context) ([]models.GoldPrice, error) {
	return nil, nil
}

func newHistoryHandler(t *testing.T, api *fakeHistoryAPI) *PricesHandler {
	t.Helper()
	store, err := localstore.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	templates := map[string]*template.Template{
		"price-history.html": template.Must(template.New("base.html").Parse(`rows={{len .Rows}}`)),
	}
	return NewPricesHandler(templates, prices.New(stubFetcher{}, nil), api, store, logging.NewSilent())
}

func TestPriceHistoryPage_NoType_FetchesFullHistory(t *testing.T) {
	api := &fakeHistoryAPI{history: []models.GoldPrice{
		{Name: "SJC", BuyPrice: 11810000, SellPrice: 12100000, Timestamp: time.Now().Format(time.RFC3339)},
	}}
	h := newHistoryHandler(t, api)

	w := httptest.NewRecorder()
	h.PriceHistoryPage(w, httptest.NewRequest("GET", "/gold-price/history", nil))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if api.fullCalls != 1 || len(api.typeCalls) != 0 {
		t.Errorf("fullCalls = %d, typeCalls = %v, want one full-history fetch", api.fullCalls, api.typeCalls)
	}
	if got := w.Body.String(); got != "rows=1" {
		t.Errorf("body = %q, want one rendered row", got)
	}
}

func TestPriceHistoryPage_TypeFilter_UsesTypeEndpoint(t *testing.T) {
	api := &fakeHistoryAPI{}
	h := newHistoryHandler(t, api)

	w := httptest.NewRecorder()
	h.PriceHistoryPage(w, httptest.NewRequest("GET", "/gold-price/history?type=SJC", nil))

	if api.fullCalls != 0 {
		t.Errorf("fullCalls = %d, want the per-type endpoint instead", api.fullCalls)
	}
	if len(api.typeCalls) != 1 || api.typeCalls[0] != "SJC" {
		t.Errorf("typeCalls = %v, want [SJC]", api.typeCalls)
	}
}

func TestPriceHistoryPage_FetchError_RendersEmpty(t *testing.T) {
	api := &fakeHistoryAPI{err: errors.Network("down", nil)}
	h := newHistoryHandler(t, api)

	w := httptest.NewRecorder()
	h.PriceHistoryPage(w, httptest.NewRequest("GET", "/gold-price/history", nil))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want an inline error on a rendered page", w.Code)
	}
	if got := w.Body.String(); got != "rows=0" {
		t.Errorf("body = %q, want no rows", got)
	}
}

func TestBuildHistoryRows_WindowAndOrder(t *testing.T) {
	now := time.Now()
	entries := []models.GoldPrice{
		{Name: "SJC", BuyPrice: 11800000, SellPrice: 12100000, Timestamp: now.Format(time.RFC3339)},
		{Name: "SJC", BuyPrice: 11700000, SellPrice: 12000000, Timestamp: now.Add(-time.Hour).Format(time.RFC3339)},
		{Name: "SJC", BuyPrice: 11500000, SellPrice: 11800000, Timestamp: now.Add(-48 * time.Hour).Format(time.RFC3339)},
		{Name: "SJC", BuyPrice: 1, SellPrice: 2, Timestamp: "not a time"},
	}

	rows := buildHistoryRows(entries, now.Add(-24*time.Hour))

	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want the two entries inside the window", len(rows))
	}
	if !rows[0].Time.Before(rows[1].Time) {
		t.Error("rows are not sorted oldest first")
	}
	if rows[1].Spread != 300000 {
		t.Errorf("Spread = %v, want 300000", rows[1].Spread)
	}
}

func TestBuildHistoryRows_ZeroCutoff_KeepsAll(t *testing.T) {
	entries := []models.GoldPrice{
		{Name: "SJC", Timestamp: "2020-01-01 09:00:00"},
		{Name: "SJC", Timestamp: "2026-01-01 09:00:00"},
	}

	if rows := buildHistoryRows(entries, time.Time{}); len(rows) != 2 {
		t.Errorf("len(rows) = %d, want all entries without a window", len(rows))
	}
}

func TestHistoryWindow_Keys(t *testing.T) {
	tests := []struct {
		key    string
		want   time.Duration
		wantOK bool
	}{
		{"15m", 15 * time.Minute, true},
		{"1h", time.Hour, true},
		{"24h", 24 * time.Hour, true},
		{"7d", 7 * 24 * time.Hour, true},
		{"30d", 30 * 24 * time.Hour, true},
		{"all", 0, false},
		{"garbage", 0, false},
	}
	for _, tt := range tests {
		got, ok := historyWindow(tt.key)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("historyWindow(%q) = %v, %v, want %v, %v", tt.key, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestAverageMid_MeanOfMidpoints(t *testing.T) {
	rows := []historyRow{
		{BuyPrice: 100, SellPrice: 200},
		{BuyPrice: 300, SellPrice: 500},
	}
	if got := averageMid(rows); got != 275 {
		t.Errorf("averageMid() = %v, want 275", got)
	}
	if got := averageMid(nil); got != 0 {
		t.Errorf("averageMid(nil) = %v, want 0", got)
	}
}
