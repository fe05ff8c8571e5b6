// Package classifier maps simulation edge, confidence, volatility, and sample
// size onto a three-state exposure outcome with promotion/demotion hysteresis.
// The classifier is a pure function: the previous state is an explicit input,
// not hidden mutable state.
package classifier

import (
	"fmt"
	"strings"

	"github.com/yourusername/edge-engine/internal/models"
)

// State is the exposure level of a recommendation.
type State int

const (
	// StateSuppressed permits no betting language at all.
	StateSuppressed State = iota
	// StateInformational is shown but explicitly non-actionable.
	StateInformational
	// StateActionable is consumer facing and postable.
	StateActionable
)

// String returns string representation of the state
func (s State) String() string {
	switch s {
	case StateSuppressed:
		return "SUPPRESSED"
	case StateInformational:
		return "INFORMATIONAL"
	case StateActionable:
		return "ACTIONABLE"
	default:
		return "UNKNOWN"
	}
}

// ParseState converts a stored state label back to a State.
func ParseState(s string) (State, error) {
	switch strings.ToUpper(s) {
	case "SUPPRESSED", "":
		return StateSuppressed, nil
	case "INFORMATIONAL":
		return StateInformational, nil
	case "ACTIONABLE":
		return StateActionable, nil
	default:
		return StateSuppressed, fmt.Errorf("unknown classifier state %q", s)
	}
}

// Config defines the classification thresholds.
type Config struct {
	// PromoteConfidence is required to enter ACTIONABLE; DemoteConfidence
	// is the lower bar for staying there (hysteresis).
	PromoteConfidence int     `json:"promote_confidence"`
	DemoteConfidence  int     `json:"demote_confidence"`
	MinConfidence     int     `json:"min_confidence"`
	MinEdgePct        float64 `json:"min_edge_pct"`
	ActionableEdgePct float64 `json:"actionable_edge_pct"`
	MinTrials         int     `json:"min_trials"`
	MinModelProb      float64 `json:"min_model_prob"`
	MaxInjuryImpact   float64 `json:"max_injury_impact"`
	HighVolConfidence int     `json:"high_vol_confidence"`
}

// DefaultConfig returns the reference thresholds.
func DefaultConfig() Config {
	return Config{
		PromoteConfidence: 50,
		DemoteConfidence:  40,
		MinConfidence:     25,
		MinEdgePct:        2.0,
		ActionableEdgePct: 5.0,
		MinTrials:         25000,
		MinModelProb:      0.58,
		MaxInjuryImpact:   1.5,
		HighVolConfidence: 70,
	}
}

// Inputs for one classification pass. Confidence is nil when the confidence
// engine reported unavailable.
type Inputs struct {
	Confidence         *int
	EdgePercent        float64
	Volatility         models.Volatility
	Trials             int
	ModelProbability   float64
	InjuryImpactPoints float64
}

// Outcome is the resulting state plus the reasons that produced it.
type Outcome struct {
	State   State
	Reasons []string
}

// Classify evaluates the transition rules in order; the first match wins.
// prev feeds the hysteresis: demotion out of ACTIONABLE requires a larger
// confidence drop than promotion into it required, so an input oscillating
// around the promotion threshold cannot flip the public state every cycle.
func Classify(in Inputs, prev State, cfg Config) Outcome {
	if in.Confidence == nil {
		return Outcome{State: StateSuppressed, Reasons: []string{"confidence_unavailable"}}
	}
	conf := *in.Confidence

	if conf < cfg.MinConfidence {
		return Outcome{State: StateSuppressed, Reasons: []string{"confidence_below_floor"}}
	}
	if in.InjuryImpactPoints >= cfg.MaxInjuryImpact {
		return Outcome{State: StateSuppressed, Reasons: []string{"injury_impact_excessive"}}
	}
	if in.EdgePercent < cfg.MinEdgePct {
		return Outcome{State: StateSuppressed, Reasons: []string{"edge_below_minimum"}}
	}

	holdThreshold := cfg.PromoteConfidence
	if prev == StateActionable {
		holdThreshold = cfg.DemoteConfidence
	}
	if conf < holdThreshold {
		return Outcome{State: StateInformational, Reasons: []string{"confidence_below_threshold"}}
	}

	if in.Volatility == models.VolatilityHigh && conf < cfg.HighVolConfidence {
		return Outcome{State: StateInformational, Reasons: []string{"high_volatility_low_confidence"}}
	}
	if in.Trials < cfg.MinTrials {
		return Outcome{State: StateInformational, Reasons: []string{"insufficient_trials"}}
	}

	var failed []string
	if in.EdgePercent < cfg.ActionableEdgePct {
		failed = append(failed, "edge_below_actionable")
	}
	if conf < holdThreshold {
		failed = append(failed, "confidence_below_promotion")
	}
	if in.ModelProbability < cfg.MinModelProb {
		failed = append(failed, "model_probability_below_floor")
	}

	if len(failed) == 0 {
		return Outcome{State: StateActionable}
	}
	return Outcome{State: StateInformational, Reasons: failed}
}
