package assets

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"goldtracker/internal/errors"
	"goldtracker/internal/goldapi"
	"goldtracker/internal/localstore"
	"goldtracker/internal/models"
)

const lotsKey = "assets"

// Repository is the standalone-mode asset backend: lots live in the local
// store instead of the remote API. It implements the same API surface as
// the remote client so the Store does not care which one it talks to.
type Repository struct {
	mu        sync.Mutex
	store     *localstore.Store
	namespace string
}

// NewRepository creates a repository scoped to one client namespace.
func NewRepository(store *localstore.Store, clientID string) *Repository {
	return &Repository{store: store, namespace: "client:" + clientID}
}

func (r *Repository) load() ([]models.Asset, error) {
	raw, ok, err := r.store.Get(r.namespace, lotsKey)
	if err != nil {
		return nil, errors.Storage("loading lots failed", err)
	}
	if !ok {
		return []models.Asset{}, nil
	}
	var lots []models.Asset
	if err := json.Unmarshal([]byte(raw), &lots); err != nil {
		return nil, fmt.Errorf("decoding stored lots: %w", err)
	}
	return lots, nil
}

func (r *Repository) save(lots []models.Asset) error {
	data, err := json.Marshal(lots)
	if err != nil {
		return fmt.Errorf("encoding lots: %w", err)
	}
	if err := r.store.Set(r.namespace, lotsKey, string(data)); err != nil {
		return errors.Storage("saving lots failed", err)
	}
	return nil
}

// ListAssets returns the stored lots.
func (r *Repository) ListAssets(_ context.Context) ([]models.Asset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load()
}

// CreateAsset validates and appends a new lot.
func (r *Repository) CreateAsset(_ context.Context, req goldapi.CreateAssetRequest) (*models.Asset, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	lots, err := r.load()
	if err != nil {
		return nil, err
	}
	asset := models.Asset{
		ID:       models.FlexID(uuid.NewString()),
		Type:     req.Type,
		Amount:   req.Amount,
		BuyPrice: req.BuyPrice,
		Note:     req.Note,
	}
	lots = append(lots, asset)
	if err := r.save(lots); err != nil {
		return nil, err
	}
	return &asset, nil
}

// UpdateAsset applies the non-nil fields of the request to a stored lot.
func (r *Repository) UpdateAsset(_ context.Context, id string, req goldapi.UpdateAssetRequest) (*models.Asset, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	lots, err := r.load()
	if err != nil {
		return nil, err
	}
	for i := range lots {
		if string(lots[i].ID) != id {
			continue
		}
		if req.Type != nil {
			lots[i].Type = *req.Type
		}
		if req.Amount != nil {
			lots[i].Amount = *req.Amount
		}
		if req.BuyPrice != nil {
			lots[i].BuyPrice = *req.BuyPrice
		}
		if req.SellPrice != nil {
			lots[i].SellPrice = req.SellPrice
		}
		if req.IsSold != nil {
			lots[i].IsSold = *req.IsSold
		}
		if req.SellDate != nil {
			lots[i].SellDate = req.SellDate
		}
		if req.Note != nil {
			lots[i].Note = *req.Note
		}
		if err := r.save(lots); err != nil {
			return nil, err
		}
		updated := lots[i]
		return &updated, nil
	}
	return nil, errors.NotFound("asset")
}

// DeleteAsset removes a stored lot.
func (r *Repository) DeleteAsset(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	lots, err := r.load()
	if err != nil {
		return err
	}
	kept := lots[:0]
	for _, a := range lots {
		if string(a.ID) != id {
			kept = append(kept, a)
		}
	}
	if len(kept) == len(lots) {
		return errors.NotFound("asset")
	}
	return r.save(kept)
}
