// Package decision converts simulation output and live odds into canonical
// market decision records through ordered validation gates. A gate failure
// produces a fully nulled blocked record with a reason, never a half-filled
// object and never an error escaping to the caller.
package decision

import (
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/edge-engine/internal/models"
)

// Cycle carries the identity shared by every market computed together: one
// trace id, one version counter, one computed-at timestamp. It is allocated
// once per cycle and passed by value, so all markets in the cycle are
// provably simultaneous for audit purposes.
type Cycle struct {
	TraceID    uuid.UUID `json:"trace_id"`
	Version    int64     `json:"version"`
	ComputedAt time.Time `json:"computed_at"`
}

// NewCycle allocates the shared identity for one decision cycle.
func NewCycle(version int64) Cycle {
	return Cycle{
		TraceID:    uuid.New(),
		Version:    version,
		ComputedAt: time.Now().UTC(),
	}
}

// Pick is the recommended selection.
type Pick struct {
	TeamID    string  `json:"team_id"`
	Selection string  `json:"selection"`
	Line      float64 `json:"line"`
	Label     string  `json:"label"`
}

// Model is the model's fair value for the picked selection.
type Model struct {
	FairLine float64 `json:"fair_line"`
}

// Probabilities pairs the model probability with the de-vigged market
// probability for the picked selection.
type Probabilities struct {
	Model       float64 `json:"model"`
	MarketDevig float64 `json:"market_devig"`
}

// Edge is the quantitative gap between market and model.
type Edge struct {
	Points float64      `json:"points"`
	Grade  models.Grade `json:"grade"`
}

// Risk carries the risk block of a decision. BlockedReason is set exactly
// when the release status is a blocked_by variant.
type Risk struct {
	VolatilityFlag     bool    `json:"volatility_flag"`
	InjuryImpactPoints float64 `json:"injury_impact_points"`
	BlockedReason      *string `json:"blocked_reason,omitempty"`
}

// Debug is the audit block attached to every decision.
type Debug struct {
	InputsHash      string    `json:"inputs_hash"`
	OddsTimestamp   time.Time `json:"odds_timestamp"`
	SimRunID        uuid.UUID `json:"sim_run_id"`
	TraceID         uuid.UUID `json:"trace_id"`
	ConfigProfile   string    `json:"config_profile"`
	DecisionVersion int64     `json:"decision_version"`
	ComputedAt      time.Time `json:"computed_at"`
}

// MarketDecision is the output record for one market. When ReleaseStatus is
// any blocked_by value, Pick/Model/FairSelection/Probabilities/Edge/
// Classification are all explicitly null and Reasons is empty; partial
// decisions never reach consumers.
type MarketDecision struct {
	DecisionID uuid.UUID         `json:"decision_id"`
	TraceID    uuid.UUID         `json:"trace_id"`
	LeagueID   string            `json:"league_id"`
	GameID     string            `json:"game_id"`
	MarketType models.MarketType `json:"market_type"`

	Pick          *Pick   `json:"pick"`
	HomeSelection string  `json:"home_selection"`
	AwaySelection string  `json:"away_selection"`
	Model         *Model  `json:"model"`
	FairSelection *string `json:"fair_selection"`

	Probabilities  *Probabilities         `json:"probabilities"`
	Edge           *Edge                  `json:"edge"`
	Classification *models.Classification `json:"classification"`

	ReleaseStatus models.ReleaseStatus `json:"release_status"`
	Reasons       []string             `json:"reasons"`
	Risk          Risk                 `json:"risk"`
	Debug         Debug                `json:"debug"`
}

// Blocked reports whether the decision carries a blocked release status.
func (d MarketDecision) Blocked() bool {
	return d.ReleaseStatus.Blocked()
}
