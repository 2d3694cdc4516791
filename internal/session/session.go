// Package session manages the client session lifecycle.
//
// A Service derives its state from the persisted token store, which remains
// the source of truth. It starts in the Bootstrapping state and settles into
// Authenticated or Unauthenticated after the first CheckAuth.
package session

import (
	"sync"

	"goldtracker/internal/tokenstore"
)

// State is the session lifecycle state.
type State int

const (
	// Bootstrapping is the only initial state. IsAuthenticated must not be
	// trusted while in it.
	Bootstrapping State = iota
	// Authenticated means a token is present in the store.
	Authenticated
	// Unauthenticated means no token is present.
	Unauthenticated
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Bootstrapping:
		return "bootstrapping"
	case Authenticated:
		return "authenticated"
	case Unauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Snapshot is a point-in-time view of the session state.
// Invariant: IsAuthenticated == (Token != "") whenever IsLoading is false.
type Snapshot struct {
	Token           string
	IsAuthenticated bool
	IsLoading       bool
}

// Service holds the reactive session state for one client. It must be
// constructed and injected; there is no package-level instance.
type Service struct {
	mu     sync.Mutex
	tokens *tokenstore.Store
	state  State
	token  string
	ended  []func()
}

// New creates a Service in the Bootstrapping state.
func New(tokens *tokenstore.Store) *Service {
	return &Service{tokens: tokens, state: Bootstrapping}
}

// SubscribeEnded registers a listener invoked whenever the session ends:
// on Logout, and on CheckAuth resolving to Unauthenticated. Dependent domain
// stores subscribe at composition time so cached data does not leak across
// sessions.
func (s *Service) SubscribeEnded(fn func()) {
	s.mu.Lock()
	s.ended = append(s.ended, fn)
	s.mu.Unlock()
}

// Snapshot returns the current state.
func (s *Service) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Token:           s.token,
		IsAuthenticated: s.state == Authenticated,
		IsLoading:       s.state == Bootstrapping,
	}
}

// State returns the current lifecycle state.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CheckAuth resynchronizes the session state from the token store. It is
// idempotent; every call is a full resynchronization. An unauthenticated
// result notifies the session-ended subscribers.
func (s *Service) CheckAuth() Snapshot {
	token := s.tokens.Read()

	s.mu.Lock()
	s.token = token
	if token != "" {
		s.state = Authenticated
	} else {
		s.state = Unauthenticated
	}
	snap := Snapshot{Token: s.token, IsAuthenticated: s.state == Authenticated}
	notify := token == ""
	subs := s.subscribers()
	s.mu.Unlock()

	if notify {
		for _, fn := range subs {
			fn()
		}
	}
	return snap
}

// Login persists the token and moves to Authenticated. Safe to call while
// already authenticated (overwrite semantics). It does not navigate; the
// route guard reacts to the state change. If neither storage tier accepted
// the write the state is left Unauthenticated and the error returned, so
// session state and token store never disagree.
func (s *Service) Login(token string) error {
	if err := s.tokens.Write(token); err != nil {
		s.mu.Lock()
		s.token = ""
		s.state = Unauthenticated
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.token = token
	s.state = Authenticated
	s.mu.Unlock()
	return nil
}

// Logout clears the token store, moves to Unauthenticated and notifies the
// session-ended subscribers.
func (s *Service) Logout() error {
	err := s.tokens.Clear()

	s.mu.Lock()
	s.token = ""
	s.state = Unauthenticated
	subs := s.subscribers()
	s.mu.Unlock()

	for _, fn := range subs {
		fn()
	}
	return err
}

// subscribers returns a copy of the listener list. Caller must hold mu.
func (s *Service) subscribers() []func() {
	subs := make([]func(), len(s.ended))
	copy(subs, s.ended)
	return subs
}
