package tokenstore

import (
	"goldtracker/internal/localstore"
)

// FallbackLocation is the secondary token tier: the local store, namespaced
// per browser via the client_id cookie.
type FallbackLocation struct {
	store     *localstore.Store
	namespace string
}

// NewFallbackLocation creates the secondary tier for one client namespace.
func NewFallbackLocation(store *localstore.Store, clientID string) *FallbackLocation {
	return &FallbackLocation{store: store, namespace: "client:" + clientID}
}

// Read returns the mirrored token, or "" if absent.
func (f *FallbackLocation) Read() (string, error) {
	value, ok, err := f.store.Get(f.namespace, FallbackKey)
	if err != nil || !ok {
		return "", err
	}
	return value, nil
}

// Write mirrors the token into the local store.
func (f *FallbackLocation) Write(token string) error {
	return f.store.Set(f.namespace, FallbackKey, token)
}

// Clear removes the mirrored token.
func (f *FallbackLocation) Clear() error {
	return f.store.Delete(f.namespace, FallbackKey)
}
