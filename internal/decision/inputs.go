package decision

import (
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/edge-engine/internal/models"
)

// SpreadSim is the spread-market slice of a completed simulation, in the home
// team's coordinate system (negative line = home favored).
type SpreadSim struct {
	ContextHash string
	SimRunID    uuid.UUID

	// AssumedHomeLine is the market line the simulation priced against.
	AssumedHomeLine float64
	AssumedHomeOdds int
	AssumedAwayOdds int

	// FairHomeMargin is the model's expected home margin of victory.
	FairHomeMargin       float64
	HomeCoverProbability float64
	HomeDevigProbability float64

	Volatility         models.Volatility
	InjuryImpactPoints float64
	ComputedAt         time.Time
}

// FairHomeLine converts the fair margin to line coordinates: a team expected
// to win by 6 has a fair line of -6.
func (s SpreadSim) FairHomeLine() float64 {
	return -s.FairHomeMargin
}

// TotalSim is the total-market slice of a completed simulation.
type TotalSim struct {
	ContextHash string
	SimRunID    uuid.UUID

	AssumedTotal     float64
	AssumedOverOdds  int
	AssumedUnderOdds int

	FairTotal            float64
	OverProbability      float64
	OverDevigProbability float64

	Volatility         models.Volatility
	InjuryImpactPoints float64
	ComputedAt         time.Time
}

// LiveOdds is the current market view used for gate evaluation.
type LiveOdds struct {
	HomeLine  float64
	HomeOdds  int
	AwayOdds  int
	Total     float64
	OverOdds  int
	UnderOdds int

	CapturedAt time.Time
}

// GameInput is one game's inputs for a decision cycle. Nil sims produce
// blocked decisions for their market; the cycle still emits a record per
// requested market so consumers see an explicit outcome for each.
type GameInput struct {
	LeagueID string
	GameID   string
	HomeTeam string
	AwayTeam string

	Spread *SpreadSim
	Total  *TotalSim
	Live   LiveOdds
}

// Config tunes gates and classification.
type Config struct {
	// Profile names the threshold set for the debug block.
	Profile string

	// Classification thresholds in line points.
	LeanThresholdPoints float64
	EdgeThresholdPoints float64

	// Gate B tolerances.
	MaxLineDelta      float64
	PickemLineEpsilon float64
	PickemProbDelta   float64

	// Gate A near-zero margin tolerance and its cover-probability slack.
	MarginEpsilon   float64
	PickemCoverSlop float64

	// Gate C freshness window; older sims fail closed.
	FreshnessWindow time.Duration

	// ConvictionBand is the model-probability bar (0.55 means the picked
	// side must be at or beyond 55%, i.e. the other side at or below 45%).
	ConvictionBand float64

	// StrictInvariants makes direction/preference disagreement fatal
	// (test/staging); production converts it to a blocked decision.
	StrictInvariants bool
}

// DefaultConfig returns the reference decision profile.
func DefaultConfig() Config {
	return Config{
		Profile:             "default",
		LeanThresholdPoints: 1.0,
		EdgeThresholdPoints: 2.5,
		MaxLineDelta:        0.25,
		PickemLineEpsilon:   0.01,
		PickemProbDelta:     0.0200,
		MarginEpsilon:       0.01,
		PickemCoverSlop:     0.02,
		FreshnessWindow:     120 * time.Minute,
		ConvictionBand:      0.55,
	}
}
