// Package prices maintains the current gold quote list.
//
// Quotes are refreshed from the remote API every five minutes. When the API
// is unreachable or returns nothing, a hardcoded fallback set is applied and
// the snapshot is marked degraded so views can label the data as indicative.
package prices

import (
	"context"
	"sync"
	"time"

	"goldtracker/internal/logging"
	"goldtracker/internal/models"
)

// DefaultInterval is the polling period.
const DefaultInterval = 5 * time.Minute

// Fetcher provides the latest quote list. Satisfied by *goldapi.Client.
type Fetcher interface {
	LatestPrices(ctx context.Context) ([]models.GoldPrice, error)
}

// Snapshot is the current quote list with its provenance.
type Snapshot struct {
	Quotes    []models.GoldPrice
	Degraded  bool // true when the fallback set is being served
	UpdatedAt time.Time
}

// Service polls and caches gold quotes.
type Service struct {
	mu       sync.RWMutex
	fetcher  Fetcher
	interval time.Duration
	log      *logging.Logger

	quotes    []models.GoldPrice
	degraded  bool
	updatedAt time.Time
}

// New creates a Service seeded with the fallback quote set.
func New(fetcher Fetcher, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewSilent()
	}
	return &Service{
		fetcher:   fetcher,
		interval:  DefaultInterval,
		log:       log,
		quotes:    Fallback(),
		degraded:  true,
		updatedAt: time.Now(),
	}
}

// WithInterval overrides the polling period.
func (s *Service) WithInterval(d time.Duration) *Service {
	s.interval = d
	return s
}

// Refresh replaces the cached quotes with the API's current list, or with
// the fallback set when the call fails or yields nothing. Replacement is
// wholesale, so overlapping refreshes stay idempotent.
func (s *Service) Refresh(ctx context.Context) {
	quotes, err := s.fetcher.LatestPrices(ctx)
	if err != nil || len(quotes) == 0 {
		if err != nil {
			s.log.Warn().Err(err).Msg("price refresh failed, serving fallback quotes")
		}
		s.apply(Fallback(), true)
		return
	}
	s.apply(quotes, false)
}

func (s *Service) apply(quotes []models.GoldPrice, degraded bool) {
	s.mu.Lock()
	s.quotes = quotes
	s.degraded = degraded
	s.updatedAt = time.Now()
	s.mu.Unlock()
}

// Start refreshes immediately and then on every tick until the context is
// cancelled.
func (s *Service) Start(ctx context.Context) {
	s.Refresh(ctx)

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Refresh(ctx)
			}
		}
	}()
}

// Snapshot returns the current quotes.
func (s *Service) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quotes := make([]models.GoldPrice, len(s.quotes))
	copy(quotes, s.quotes)
	return Snapshot{Quotes: quotes, Degraded: s.degraded, UpdatedAt: s.updatedAt}
}

// Lookup returns the quote for a gold type, reporting absence explicitly so
// callers can surface "price unavailable" instead of a silent zero.
func (s *Service) Lookup(goldType string) (models.GoldPrice, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, q := range s.quotes {
		if q.ID == goldType {
			return q, true
		}
	}
	return models.GoldPrice{}, false
}

// Fallback returns the hardcoded quote set served when the pricing API is
// unavailable. Prices are VND per chi.
func Fallback() []models.GoldPrice {
	now := time.Now().Format("2006-01-02 15:04:05")
	return []models.GoldPrice{
		{
			ID:        "SJC",
			Name:      "VÀNG MIẾNG SJC (Vàng SJC)",
			Karat:     "24k",
			Purity:    "999.9",
			BuyPrice:  11810000,
			SellPrice: 12100000,
			UpdatedAt: now,
		},
		{
			ID:        "VRTL",
			Name:      "VÀNG MIẾNG VRTL (Vàng Rồng Thăng Long)",
			Karat:     "24k",
			Purity:    "999.9",
			BuyPrice:  11640000,
			SellPrice: 11970000,
			UpdatedAt: now,
		},
		{
			ID:        "BTMC-999.9",
			Name:      "TRANG SỨC BẰNG VÀNG RỒNG THĂNG LONG 999.9 (Vàng BTMC)",
			Karat:     "24k",
			Purity:    "999.9",
			BuyPrice:  11560000,
			SellPrice: 11950000,
			UpdatedAt: now,
		},
		{
			ID:        "BTMC-99.9",
			Name:      "TRANG SỨC BẰNG VÀNG RỒNG THĂNG LONG 99.9 (Vàng BTMC)",
			Karat:     "24k",
			Purity:    "99.9",
			BuyPrice:  11550000,
			SellPrice: 11940000,
			UpdatedAt: now,
		},
	}
}
