// Package gold holds the pure profit/loss arithmetic for gold lots.
package gold

import (
	"goldtracker/internal/models"
)

// Vietnamese gold mass units. Quotes are quoted per chi.
const (
	// ChiPerTael is the chi in one tael (lượng).
	ChiPerTael = 10
	// GramsPerChi is the mass of one chi.
	GramsPerChi = 3.75
	// GramsPerTael is the mass of one tael.
	GramsPerTael = GramsPerChi * ChiPerTael
)

// Unit is the mass unit a lot is recorded in.
type Unit string

const (
	// UnitChi is one chi (3.75 g).
	UnitChi Unit = "chi"
	// UnitTael is one tael/lượng (10 chi).
	UnitTael Unit = "taels"
)

// PerUnit converts a per-chi price into this unit.
func (u Unit) PerUnit(pricePerChi float64) float64 {
	if u == UnitTael {
		return pricePerChi * ChiPerTael
	}
	return pricePerChi
}

// Label returns the Vietnamese unit name for display.
func (u Unit) Label() string {
	if u == UnitTael {
		return "lượng"
	}
	return "chỉ"
}

// Lot is a purchase to evaluate. BuyPrice is per Unit.
type Lot struct {
	Type     string
	Amount   float64
	Unit     Unit
	BuyPrice float64
}

// Valuation is the outcome of evaluating one lot against the current quote.
type Valuation struct {
	CurrentPrice   float64 // sell price converted to the lot's unit
	CurrentValue   float64
	InvestedValue  float64
	Profit         float64
	ProfitPercent  float64
	PriceAvailable bool
}

// Evaluate prices a lot against a quote. The quote's sell price (per chi)
// is converted to the lot's unit before multiplying.
func Evaluate(lot Lot, quote models.GoldPrice) Valuation {
	unit := lot.Unit
	if unit == "" {
		unit = UnitChi
	}
	sell := unit.PerUnit(float64(quote.SellPrice))

	v := Valuation{
		CurrentPrice:   sell,
		CurrentValue:   sell * lot.Amount,
		InvestedValue:  lot.BuyPrice * lot.Amount,
		PriceAvailable: true,
	}
	v.Profit = v.CurrentValue - v.InvestedValue
	if v.InvestedValue != 0 {
		v.ProfitPercent = (sell - lot.BuyPrice) / lot.BuyPrice * 100
	}
	return v
}

// EvaluateWith prices a lot using a quote lookup. A lot whose type has no
// quote contributes zero value and profit, and the valuation carries
// PriceAvailable=false so callers can surface the missing price instead of
// a silent zero.
func EvaluateWith(lot Lot, lookup func(goldType string) (models.GoldPrice, bool)) Valuation {
	quote, ok := lookup(lot.Type)
	if !ok {
		return Valuation{InvestedValue: lot.BuyPrice * lot.Amount}
	}
	return Evaluate(lot, quote)
}

// EvaluateAsset prices a recorded asset; asset amounts are stored in chi.
func EvaluateAsset(a models.Asset, lookup func(goldType string) (models.GoldPrice, bool)) Valuation {
	return EvaluateWith(Lot{
		Type:     a.Type,
		Amount:   a.Amount,
		Unit:     UnitChi,
		BuyPrice: a.BuyPrice,
	}, lookup)
}

// Summary aggregates valuations over a whole holding.
type Summary struct {
	TotalCurrent  float64
	TotalInvested float64
	TotalProfit   float64
	ProfitPercent float64
	// Unpriced counts lots whose type had no quote; their value is
	// excluded from TotalCurrent rather than reported as zero profit.
	Unpriced int
}

// Summarize evaluates every unsold asset and totals the results.
func Summarize(lots []models.Asset, lookup func(goldType string) (models.GoldPrice, bool)) Summary {
	var sum Summary
	for _, a := range lots {
		if a.IsSold {
			continue
		}
		v := EvaluateAsset(a, lookup)
		if !v.PriceAvailable {
			sum.Unpriced++
			continue
		}
		sum.TotalCurrent += v.CurrentValue
		sum.TotalInvested += v.InvestedValue
		sum.TotalProfit += v.Profit
	}
	if sum.TotalInvested != 0 {
		sum.ProfitPercent = sum.TotalProfit / sum.TotalInvested * 100
	}
	return sum
}

// Advice is the sell recommendation derived from the profit percentage.
type Advice int

const (
	// AdviceHold: selling now would realize a loss.
	AdviceHold Advice = iota
	// AdviceWait: a small profit exists but a better price may come.
	AdviceWait
	// AdviceSell: the profit target (5%) is met.
	AdviceSell
)

// Recommend maps a profit percentage onto an advice.
func Recommend(profitPercent float64) Advice {
	switch {
	case profitPercent >= 5:
		return AdviceSell
	case profitPercent > 0:
		return AdviceWait
	default:
		return AdviceHold
	}
}

// String returns the advice text shown under the calculator result.
func (a Advice) String() string {
	switch a {
	case AdviceSell:
		return "Good time to sell: your profit is above 5%."
	case AdviceWait:
		return "You could sell for a small profit, but a better price may come."
	default:
		return "Selling now would realize a loss; consider holding."
	}
}
