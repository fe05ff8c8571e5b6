package models

import (
	"fmt"
	"time"
)

// MarketType identifies the market a simulation or decision refers to.
// The set is closed: switches over MarketType should handle every constant
// and treat anything else as a programming error.
type MarketType string

const (
	MarketSpread     MarketType = "spread"
	MarketTotal      MarketType = "total"
	MarketMoneyline  MarketType = "moneyline"
	MarketPlayerProp MarketType = "player_prop"
)

// Valid reports whether the market type is one of the known constants.
func (m MarketType) Valid() bool {
	switch m {
	case MarketSpread, MarketTotal, MarketMoneyline, MarketPlayerProp:
		return true
	}
	return false
}

// ParseMarketType converts a string into a MarketType or fails.
func ParseMarketType(s string) (MarketType, error) {
	m := MarketType(s)
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownMarketType, s)
	}
	return m, nil
}

// Volatility is a qualitative volatility label attached to a simulation.
type Volatility string

const (
	VolatilityLow    Volatility = "low"
	VolatilityMedium Volatility = "medium"
	VolatilityHigh   Volatility = "high"
)

// Index maps the label to the numeric index used by the confidence engine.
func (v Volatility) Index() float64 {
	switch v {
	case VolatilityLow:
		return 0
	case VolatilityMedium:
		return 1
	case VolatilityHigh:
		return 2
	default:
		// Unknown labels are treated as high volatility.
		return 2
	}
}

// SimStatus tracks the lifecycle of a SimulationResult.
type SimStatus string

const (
	SimPending     SimStatus = "pending"
	SimRunning     SimStatus = "running"
	SimCompleted   SimStatus = "completed"
	SimCached      SimStatus = "cached"
	SimPriceMoved  SimStatus = "price_moved"
	SimInvalidated SimStatus = "invalidated"
	SimFailed      SimStatus = "failed"
)

// Frozen reports whether the result's numeric fields may no longer change.
// Later market movement is a status transition, never a field mutation.
func (s SimStatus) Frozen() bool {
	return s == SimCompleted || s == SimCached
}

// ReleaseStatus is the publish/block state of a market decision.
type ReleaseStatus string

const (
	ReleaseApproved          ReleaseStatus = "approved"
	BlockedByIntegrity       ReleaseStatus = "blocked_by_integrity"
	BlockedByOddsMismatch    ReleaseStatus = "blocked_by_odds_mismatch"
	BlockedByStaleData       ReleaseStatus = "blocked_by_stale_data"
	BlockedByMissingSim      ReleaseStatus = "blocked_by_missing_sim"
)

// Blocked reports whether the status is any of the blocked_by variants.
func (r ReleaseStatus) Blocked() bool {
	return r != ReleaseApproved
}

// Classification grades how far the model and the market disagree.
type Classification string

const (
	ClassMarketAligned Classification = "market_aligned"
	ClassLean          Classification = "lean"
	ClassEdge          Classification = "edge"
)

// Grade is the letter grade assigned from edge magnitude.
type Grade string

const (
	GradeS Grade = "S"
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
)

// MarketSnapshot is one point-in-time view of a market used as simulation input.
type MarketSnapshot struct {
	Type         MarketType `json:"type" validate:"required"`
	Selection    string     `json:"selection" validate:"required"`
	Line         float64    `json:"line"`
	AmericanOdds int        `json:"american_odds" validate:"required"`
	DecimalOdds  float64    `json:"decimal_odds" validate:"gt=1"`
	ImpliedProb  float64    `json:"implied_prob" validate:"gte=0,lte=1"`
	DevigProb    float64    `json:"devig_prob" validate:"gte=0,lte=1"`
	BookID       string     `json:"book_id" validate:"required"`
	CapturedAt   time.Time  `json:"captured_at" validate:"required"`
}

// InjurySnapshot is one player's status at simulation time.
type InjurySnapshot struct {
	PlayerID          string    `json:"player_id" validate:"required"`
	Team              string    `json:"team"`
	Status            string    `json:"status" validate:"required"`
	MinutesProjection float64   `json:"minutes_projection" validate:"gte=0"`
	UpdatedAt         time.Time `json:"updated_at"`
}
