package handlers

import (
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"goldtracker/internal/assets"
	"goldtracker/internal/errors"
	"goldtracker/internal/gold"
	"goldtracker/internal/goldapi"
	"goldtracker/internal/localstore"
	"goldtracker/internal/logging"
	"goldtracker/internal/middleware"
	"goldtracker/internal/models"
	"goldtracker/internal/prices"
)

// assetRow is an asset joined with its live valuation for the portfolio view.
type assetRow struct {
	Asset     models.Asset
	Valuation gold.Valuation
}

// AssetsHandler handles the portfolio routes.
type AssetsHandler struct {
	templates map[string]*template.Template
	manager   *assets.Manager
	prices    *prices.Service
	store     *localstore.Store
	log       *logging.Logger
}

// NewAssetsHandler creates a new AssetsHandler.
func NewAssetsHandler(
	templates map[string]*template.Template,
	manager *assets.Manager,
	svc *prices.Service,
	store *localstore.Store,
	log *logging.Logger,
) *AssetsHandler {
	return &AssetsHandler{templates: templates, manager: manager, prices: svc, store: store, log: log}
}

func (h *AssetsHandler) storeFor(r *http.Request) *assets.Store {
	return h.manager.For(middleware.ClientIDFromContext(r.Context()))
}

// AssetsPage refreshes the portfolio from the API and renders it with live
// valuations and the holding totals.
func (h *AssetsHandler) AssetsPage(w http.ResponseWriter, r *http.Request) {
	store := h.storeFor(r)
	var errMsg string
	if err := store.Refresh(r.Context()); err != nil {
		if handleExpired(w, r, err) {
			return
		}
		h.log.Warn().Err(err).Msg("refreshing assets failed, rendering cached list")
		errMsg = errors.UserMessage(err)
	}
	h.renderAssets(w, r, store, errMsg)
}

// CreateAsset handles the add-lot form.
func (h *AssetsHandler) CreateAsset(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderAssets(w, r, h.storeFor(r), "Invalid form data")
		return
	}

	req := parseCreateForm(r)
	if _, err := h.storeFor(r).Add(r.Context(), req); err != nil {
		if handleExpired(w, r, err) {
			return
		}
		h.renderAssets(w, r, h.storeFor(r), errors.UserMessage(err))
		return
	}

	http.Redirect(w, r, "/assets", http.StatusSeeOther)
}

// UpdateAsset handles the edit and mark-sold forms.
func (h *AssetsHandler) UpdateAsset(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderAssets(w, r, h.storeFor(r), "Invalid form data")
		return
	}

	id := chi.URLParam(r, "id")
	req := parseUpdateForm(r)
	if _, err := h.storeFor(r).Update(r.Context(), id, req); err != nil {
		if handleExpired(w, r, err) {
			return
		}
		h.renderAssets(w, r, h.storeFor(r), errors.UserMessage(err))
		return
	}

	http.Redirect(w, r, "/assets", http.StatusSeeOther)
}

// DeleteAsset removes a lot.
func (h *AssetsHandler) DeleteAsset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.storeFor(r).Delete(r.Context(), id); err != nil {
		if handleExpired(w, r, err) {
			return
		}
		h.renderAssets(w, r, h.storeFor(r), errors.UserMessage(err))
		return
	}

	http.Redirect(w, r, "/assets", http.StatusSeeOther)
}

// APIValuation serves the portfolio with valuations as JSON.
func (h *AssetsHandler) APIValuation(w http.ResponseWriter, r *http.Request) {
	store := h.storeFor(r)
	if err := store.Refresh(r.Context()); err != nil {
		if errors.IsSessionExpired(err) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": errors.UserMessage(err)})
			return
		}
		writeJSON(w, errors.HTTPStatus(err), map[string]string{"message": errors.UserMessage(err)})
		return
	}

	list := store.List()
	rows := make([]map[string]any, 0, len(list))
	for _, a := range list {
		v := gold.EvaluateAsset(a, h.prices.Lookup)
		rows = append(rows, map[string]any{
			"asset":          a,
			"currentValue":   v.CurrentValue,
			"profit":         v.Profit,
			"profitPercent":  v.ProfitPercent,
			"priceAvailable": v.PriceAvailable,
		})
	}
	summary := gold.Summarize(list, h.prices.Lookup)
	writeJSON(w, http.StatusOK, map[string]any{
		"assets":  rows,
		"summary": summary,
	})
}

func (h *AssetsHandler) renderAssets(w http.ResponseWriter, r *http.Request, store *assets.Store, errMsg string) {
	list := store.List()
	rows := make([]assetRow, 0, len(list))
	for _, a := range list {
		rows = append(rows, assetRow{Asset: a, Valuation: gold.EvaluateAsset(a, h.prices.Lookup)})
	}
	summary := gold.Summarize(list, h.prices.Lookup)
	snap := h.prices.Snapshot()

	data := map[string]any{
		"Title":    "My assets",
		"Rows":     rows,
		"Summary":  summary,
		"Quotes":   snap.Quotes,
		"Degraded": snap.Degraded,
		"Loaded":   store.Loaded(),
		"Error":    errMsg,
	}
	if user, ok := loadUserInfo(h.store, middleware.ClientIDFromContext(r.Context())); ok {
		data["User"] = user
	}
	render(h.log, h.templates, w, "assets.html", data)
}

func parseCreateForm(r *http.Request) goldapi.CreateAssetRequest {
	var req goldapi.CreateAssetRequest
	req.Type = strings.TrimSpace(r.FormValue("type"))
	req.Amount, _ = strconv.ParseFloat(r.FormValue("amount"), 64)
	req.BuyPrice, _ = strconv.ParseFloat(r.FormValue("buy_price"), 64)
	req.Note = strings.TrimSpace(r.FormValue("note"))
	return req
}

// parseUpdateForm builds a partial update from the submitted fields only,
// so an edit form that omits a field leaves it untouched.
func parseUpdateForm(r *http.Request) goldapi.UpdateAssetRequest {
	var req goldapi.UpdateAssetRequest
	if v := strings.TrimSpace(r.FormValue("type")); v != "" {
		req.Type = &v
	}
	if v := r.FormValue("amount"); v != "" {
		if amount, err := strconv.ParseFloat(v, 64); err == nil {
			req.Amount = &amount
		}
	}
	if v := r.FormValue("buy_price"); v != "" {
		if price, err := strconv.ParseFloat(v, 64); err == nil {
			req.BuyPrice = &price
		}
	}
	if v := r.FormValue("sell_price"); v != "" {
		if price, err := strconv.ParseFloat(v, 64); err == nil {
			req.SellPrice = &price
		}
	}
	if v := r.FormValue("is_sold"); v != "" {
		sold := v == "true" || v == "on" || v == "1"
		req.IsSold = &sold
	}
	if v := strings.TrimSpace(r.FormValue("sell_date")); v != "" {
		req.SellDate = &v
	}
	if v := r.FormValue("note"); v != "" {
		note := strings.TrimSpace(v)
		req.Note = &note
	}
	return req
}
