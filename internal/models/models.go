// Package models contains the domain models for the gold tracker.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// UserSummary is the display-only user profile cached client-side.
// It is never authoritative; staleness is tolerated.
type UserSummary struct {
	ID        int64  `json:"id,omitempty"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Picture   string `json:"picture,omitempty"`
}

// DisplayName returns the best available name for the header.
func (u UserSummary) DisplayName() string {
	if u.FirstName != "" {
		return strings.TrimSpace(u.FirstName + " " + u.LastName)
	}
	if u.Username != "" {
		return u.Username
	}
	if at := strings.Index(u.Email, "@"); at > 0 {
		return u.Email[:at]
	}
	return u.Email
}

// Price is a VND amount that the API serves either as a JSON number or as a
// string, with or without thousands separators ("118100000", "11,810,000").
type Price float64

// UnmarshalJSON accepts both encodings.
func (p *Price) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*p = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
		if s == "" {
			*p = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("parsing price %q: %w", s, err)
		}
		*p = Price(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*p = Price(v)
	return nil
}

// MarshalJSON always emits a plain number.
func (p Price) MarshalJSON() ([]byte, error) {
	return json.Marshal(float64(p))
}

// GoldPrice is a buy/sell quote for one gold product. Prices are VND per chi.
// History entries carry Timestamp; the latest-price list carries UpdatedAt.
type GoldPrice struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Karat     string `json:"karat,omitempty"`
	Purity    string `json:"purity,omitempty"`
	BuyPrice  Price  `json:"buyPrice"`
	SellPrice Price  `json:"sellPrice"`
	Timestamp string `json:"timestamp,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// ObservedAt parses when the quote was taken, tolerating the formats the API
// emits. Timestamp wins over UpdatedAt.
func (g GoldPrice) ObservedAt() (time.Time, bool) {
	for _, raw := range []string{g.Timestamp, g.UpdatedAt} {
		if raw == "" {
			continue
		}
		for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, raw); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// FlexID is an identifier the API serves either as a JSON number or a string.
type FlexID string

// UnmarshalJSON accepts both encodings.
func (f *FlexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexID(n.String())
	return nil
}

// MarshalJSON emits the string form.
func (f FlexID) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(f))
}

// Asset is a user-recorded purchase lot of a gold product.
// The client-side list is a cache of server state, never authoritative.
type Asset struct {
	ID        FlexID       `json:"id"`
	User      *UserSummary `json:"user,omitempty"`
	Type      string       `json:"type"`
	Amount    float64      `json:"amount"` // quantity in chi
	BuyPrice  float64      `json:"buyPrice"`
	SellPrice *float64     `json:"sellPrice"`
	IsSold    bool         `json:"isSold"`
	BuyDate   string       `json:"buyDate,omitempty"`
	SellDate  *string      `json:"sellDate,omitempty"`
	Note      string       `json:"note"`
}

// BuyDateTime parses the buy date, tolerating the formats the API emits.
func (a Asset) BuyDateTime() (time.Time, bool) {
	for _, layout := range []string{time.RFC3339, "2006-01-02", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, a.BuyDate); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
