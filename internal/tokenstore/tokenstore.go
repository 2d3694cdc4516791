// Package tokenstore persists the bearer token across two storage tiers.
//
// The primary tier is the access_token cookie; the secondary tier is the
// local fallback store. Reads prefer the cookie and self-heal it from the
// fallback; writes and clears always touch both tiers.
package tokenstore

import (
	"goldtracker/internal/errors"
	"goldtracker/internal/logging"
)

// Token lifetime shared by both tiers.
const (
	// TokenMaxAge is the bearer token cookie lifetime in seconds (7 days).
	TokenMaxAge = 7 * 24 * 60 * 60

	// CookieName is the primary storage location.
	CookieName = "access_token"

	// FallbackKey is the key in the local fallback store.
	FallbackKey = "auth_token"
)

// Location is one storage tier holding a single token string.
// An absent token reads as "".
type Location interface {
	Read() (string, error)
	Write(token string) error
	Clear() error
}

// Store is the two-tier persisted token store. The token it holds is the
// source of truth for authentication state.
type Store struct {
	primary   Location
	secondary Location
	log       *logging.Logger
}

// New creates a Store over a primary and a secondary location.
func New(primary, secondary Location, log *logging.Logger) *Store {
	if log == nil {
		log = logging.NewSilent()
	}
	return &Store{primary: primary, secondary: secondary, log: log}
}

// Read returns the current token, or "" if absent. The primary tier wins;
// a token found only in the secondary tier is replicated back to the
// primary. Storage failures degrade to "absent" and are logged, never
// surfaced.
func (s *Store) Read() string {
	token, err := s.primary.Read()
	if err != nil {
		s.log.Warn().Err(err).Msg("token read from primary failed")
	}
	if token != "" {
		return token
	}

	token, err = s.secondary.Read()
	if err != nil {
		s.log.Warn().Err(err).Msg("token read from fallback failed")
		return ""
	}
	if token == "" {
		return ""
	}

	// Self-healing replication: restore the cookie from the fallback.
	if err := s.primary.Write(token); err != nil {
		s.log.Warn().Err(err).Msg("restoring token to primary failed")
	}
	return token
}

// Write stores the token in both tiers. It fails only when neither tier
// accepted the write; a single-tier failure is logged and tolerated.
func (s *Store) Write(token string) error {
	perr := s.primary.Write(token)
	if perr != nil {
		s.log.Warn().Err(perr).Msg("token write to primary failed")
	}
	serr := s.secondary.Write(token)
	if serr != nil {
		s.log.Warn().Err(serr).Msg("token write to fallback failed")
	}
	if perr != nil && serr != nil {
		return errors.Storage("saving the session failed", perr)
	}
	return nil
}

// Clear removes the token from both tiers unconditionally. Clearing an
// already-absent token is not an error.
func (s *Store) Clear() error {
	perr := s.primary.Clear()
	if perr != nil {
		s.log.Warn().Err(perr).Msg("token clear on primary failed")
	}
	serr := s.secondary.Clear()
	if serr != nil {
		s.log.Warn().Err(serr).Msg("token clear on fallback failed")
	}
	if perr != nil && serr != nil {
		return errors.Storage("clearing the session failed", perr)
	}
	return nil
}

// Memory is a Location held in process memory.
type Memory struct {
	token string
}

// Read returns the stored token.
func (m *Memory) Read() (string, error) { return m.token, nil }

// Write stores the token.
func (m *Memory) Write(token string) error {
	m.token = token
	return nil
}

// Clear removes the token.
func (m *Memory) Clear() error {
	m.token = ""
	return nil
}
