// Package assets caches the user's purchase lots over the remote API.
//
// The cache is fetch-and-replace: every refresh substitutes the whole list
// with the server's answer, and overlapping refreshes resolve to whichever
// response arrived last. The cache is cleared when the session ends.
package assets

import (
	"context"
	"sync"

	"goldtracker/internal/goldapi"
	"goldtracker/internal/models"
)

// API is the slice of the remote client the store depends on.
// Satisfied by *goldapi.Client and by the standalone Repository.
type API interface {
	ListAssets(ctx context.Context) ([]models.Asset, error)
	CreateAsset(ctx context.Context, req goldapi.CreateAssetRequest) (*models.Asset, error)
	UpdateAsset(ctx context.Context, id string, req goldapi.UpdateAssetRequest) (*models.Asset, error)
	DeleteAsset(ctx context.Context, id string) error
}

// Store is the cached asset list for one client.
type Store struct {
	mu     sync.Mutex
	api    API
	assets []models.Asset
	loaded bool
}

// NewStore creates an empty store over an API.
func NewStore(api API) *Store {
	return &Store{api: api}
}

// Refresh replaces the cached list with the server's current state.
// The lock is taken only after the response arrives, so of two overlapping
// refreshes the later response wins wholesale; lists are never merged.
func (s *Store) Refresh(ctx context.Context) error {
	list, err := s.api.ListAssets(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.assets = list
	s.loaded = true
	s.mu.Unlock()
	return nil
}

// Add validates and records a new lot, appending the server's answer to the
// cache.
func (s *Store) Add(ctx context.Context, req goldapi.CreateAssetRequest) (*models.Asset, error) {
	created, err := s.api.CreateAsset(ctx, req)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.assets = append(s.assets, *created)
	s.mu.Unlock()
	return created, nil
}

// Update mutates a lot and swaps the server's answer into the cache.
func (s *Store) Update(ctx context.Context, id string, req goldapi.UpdateAssetRequest) (*models.Asset, error) {
	updated, err := s.api.UpdateAsset(ctx, id, req)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	for i := range s.assets {
		if string(s.assets[i].ID) == id {
			s.assets[i] = *updated
			break
		}
	}
	s.mu.Unlock()
	return updated, nil
}

// Delete removes a lot remotely and from the cache.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.api.DeleteAsset(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	kept := s.assets[:0]
	for _, a := range s.assets {
		if string(a.ID) != id {
			kept = append(kept, a)
		}
	}
	s.assets = kept
	s.mu.Unlock()
	return nil
}

// List returns a copy of the cached lots.
func (s *Store) List() []models.Asset {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Asset, len(s.assets))
	copy(out, s.assets)
	return out
}

// Loaded reports whether at least one refresh has completed.
func (s *Store) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// Clear drops the cached data. Invoked via the session-ended subscription.
func (s *Store) Clear() {
	s.mu.Lock()
	s.assets = nil
	s.loaded = false
	s.mu.Unlock()
}
