package handlers

import (
	"context"
	"encoding/json"
	"html/template"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"goldtracker/internal/errors"
	"goldtracker/internal/gold"
	"goldtracker/internal/localstore"
	"goldtracker/internal/logging"
	"goldtracker/internal/middleware"
	"goldtracker/internal/models"
	"goldtracker/internal/prices"
)

// HistoryAPI is the slice of the remote client the history view depends on.
// Satisfied by *goldapi.Client.
type HistoryAPI interface {
	PriceHistory(ctx context.Context) ([]models.GoldPrice, error)
	PricesByType(ctx context.Context, goldType string) ([]models.GoldPrice, error)
}

// calculatorInput is the form state persisted between visits, so a returning
// user finds the calculator the way they left it.
type calculatorInput struct {
	GoldType string  `json:"goldType"`
	Amount   float64 `json:"amount"`
	Unit     string  `json:"unit"`
	BuyPrice float64 `json:"buyPrice"`
}

// PricesHandler handles the price board, the history view and the sell
// calculator.
type PricesHandler struct {
	templates map[string]*template.Template
	prices    *prices.Service
	api       HistoryAPI
	store     *localstore.Store
	log       *logging.Logger
}

// NewPricesHandler creates a new PricesHandler.
func NewPricesHandler(
	templates map[string]*template.Template,
	svc *prices.Service,
	api HistoryAPI,
	store *localstore.Store,
	log *logging.Logger,
) *PricesHandler {
	return &PricesHandler{templates: templates, prices: svc, api: api, store: store, log: log}
}

// GoldPricePage renders the price board with the calculator in its last
// saved state.
func (h *PricesHandler) GoldPricePage(w http.ResponseWriter, r *http.Request) {
	input := h.loadInput(middleware.ClientIDFromContext(r.Context()))
	h.renderBoard(w, r, input, nil, "")
}

// Calculate handles the calculator form: it persists the input, prices the
// lot against the current quote and renders the result with a sell advice.
func (h *PricesHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderBoard(w, r, calculatorInput{}, nil, "Invalid form data")
		return
	}

	input := calculatorInput{
		GoldType: strings.TrimSpace(r.FormValue("gold_type")),
		Unit:     r.FormValue("unit"),
	}
	input.Amount, _ = strconv.ParseFloat(r.FormValue("amount"), 64)
	input.BuyPrice, _ = strconv.ParseFloat(r.FormValue("buy_price"), 64)

	clientID := middleware.ClientIDFromContext(r.Context())
	h.saveInput(clientID, input)

	if input.GoldType == "" {
		h.renderBoard(w, r, input, nil, "Choose a gold type")
		return
	}
	if input.Amount <= 0 {
		h.renderBoard(w, r, input, nil, "Enter an amount greater than zero")
		return
	}

	lot := gold.Lot{
		Type:     input.GoldType,
		Amount:   input.Amount,
		Unit:     gold.Unit(input.Unit),
		BuyPrice: input.BuyPrice,
	}
	valuation := gold.EvaluateWith(lot, h.prices.Lookup)
	h.renderBoard(w, r, input, &valuation, "")
}

// historyRanges are the selectable windows for the history view.
var historyRanges = []struct{ Key, Label string }{
	{"15m", "Last 15 minutes"},
	{"1h", "Last hour"},
	{"24h", "Last 24 hours"},
	{"7d", "Last 7 days"},
	{"30d", "Last 30 days"},
	{"all", "All"},
}

// historyWindow maps a range key to its lookback duration. "all" and unknown
// keys report no window.
func historyWindow(key string) (time.Duration, bool) {
	switch key {
	case "15m":
		return 15 * time.Minute, true
	case "1h":
		return time.Hour, true
	case "24h":
		return 24 * time.Hour, true
	case "7d":
		return 7 * 24 * time.Hour, true
	case "30d":
		return 30 * 24 * time.Hour, true
	default:
		return 0, false
	}
}

// historyRow is one priced observation on the history view.
type historyRow struct {
	Name      string
	Time      time.Time
	BuyPrice  float64
	SellPrice float64
	Spread    float64
}

// buildHistoryRows keeps the observations inside the window, oldest first.
// Entries without a parseable timestamp cannot be placed on the time axis
// and are dropped.
func buildHistoryRows(entries []models.GoldPrice, cutoff time.Time) []historyRow {
	rows := make([]historyRow, 0, len(entries))
	for _, e := range entries {
		at, ok := e.ObservedAt()
		if !ok {
			continue
		}
		if !cutoff.IsZero() && at.Before(cutoff) {
			continue
		}
		rows = append(rows, historyRow{
			Name:      e.Name,
			Time:      at,
			BuyPrice:  float64(e.BuyPrice),
			SellPrice: float64(e.SellPrice),
			Spread:    float64(e.SellPrice) - float64(e.BuyPrice),
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Time.Before(rows[j].Time) })
	return rows
}

// averageMid returns the mean of the buy/sell midpoints, the reference line
// of the history view.
func averageMid(rows []historyRow) float64 {
	if len(rows) == 0 {
		return 0
	}
	var sum float64
	for _, r := range rows {
		sum += (r.BuyPrice + r.SellPrice) / 2
	}
	return sum / float64(len(rows))
}

// PriceHistoryPage renders historical quotes, filtered by gold type and
// time range from the query string.
func (h *PricesHandler) PriceHistoryPage(w http.ResponseWriter, r *http.Request) {
	goldType := strings.TrimSpace(r.URL.Query().Get("type"))
	rangeKey := r.URL.Query().Get("range")
	if rangeKey == "" {
		rangeKey = "all"
	}

	var (
		history []models.GoldPrice
		err     error
	)
	if goldType != "" {
		history, err = h.api.PricesByType(r.Context(), goldType)
	} else {
		history, err = h.api.PriceHistory(r.Context())
	}

	var errMsg string
	if err != nil {
		h.log.Warn().Err(err).Msg("fetching price history failed")
		errMsg = errors.UserMessage(err)
		history = nil
	}

	var cutoff time.Time
	if window, ok := historyWindow(rangeKey); ok {
		cutoff = time.Now().Add(-window)
	}
	rows := buildHistoryRows(history, cutoff)

	snap := h.prices.Snapshot()
	data := map[string]any{
		"Title":   "Price history",
		"Rows":    rows,
		"Average": averageMid(rows),
		"Quotes":  snap.Quotes,
		"Type":    goldType,
		"Range":   rangeKey,
		"Ranges":  historyRanges,
		"Error":   errMsg,
	}
	if user, ok := loadUserInfo(h.store, middleware.ClientIDFromContext(r.Context())); ok {
		data["User"] = user
	}
	render(h.log, h.templates, w, "price-history.html", data)
}

// APIGoldPrices serves the current quotes as JSON for the auto-refreshing
// board.
func (h *PricesHandler) APIGoldPrices(w http.ResponseWriter, r *http.Request) {
	snap := h.prices.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"prices":    snap.Quotes,
		"degraded":  snap.Degraded,
		"updatedAt": snap.UpdatedAt,
	})
}

func (h *PricesHandler) renderBoard(w http.ResponseWriter, r *http.Request, input calculatorInput, valuation *gold.Valuation, errMsg string) {
	snap := h.prices.Snapshot()
	clientID := middleware.ClientIDFromContext(r.Context())

	data := map[string]any{
		"Title":    "Gold prices",
		"Quotes":   snap.Quotes,
		"Degraded": snap.Degraded,
		"Updated":  snap.UpdatedAt,
		"Input":    input,
		"Error":    errMsg,
	}
	if user, ok := loadUserInfo(h.store, clientID); ok {
		data["User"] = user
	}
	if valuation != nil {
		data["Result"] = valuation
		if valuation.PriceAvailable {
			advice := gold.Recommend(valuation.ProfitPercent)
			data["Advice"] = advice.String()
			data["AdviceSell"] = advice == gold.AdviceSell
		}
	}
	render(h.log, h.templates, w, "gold-price.html", data)
}

func (h *PricesHandler) loadInput(clientID string) calculatorInput {
	input := calculatorInput{Unit: string(gold.UnitChi)}
	raw, ok, err := h.store.Get("client:"+clientID, calculatorKey)
	if err != nil {
		h.log.Warn().Err(err).Msg("loading calculator input failed")
		return input
	}
	if !ok {
		return input
	}
	if err := json.Unmarshal([]byte(raw), &input); err != nil {
		return calculatorInput{Unit: string(gold.UnitChi)}
	}
	return input
}

func (h *PricesHandler) saveInput(clientID string, input calculatorInput) {
	data, err := json.Marshal(input)
	if err != nil {
		return
	}
	if err := h.store.Set("client:"+clientID, calculatorKey, string(data)); err != nil {
		h.log.Warn().Err(err).Msg("saving calculator input failed")
	}
}
