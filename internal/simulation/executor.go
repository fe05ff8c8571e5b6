// Package simulation runs seeded Monte Carlo trials with convergence-aware
// early stopping and derives the edge and uncertainty gates from the outcome.
package simulation

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/edge-engine/internal/metrics"
	"github.com/yourusername/edge-engine/internal/models"
	"github.com/yourusername/edge-engine/internal/simcontext"
)

// TrialGenerator produces one batch of trial outcomes from a seeded random
// source. Outcomes are in [0,1]; binary win/loss generators return 0 or 1.
// The caller supplies this, keeping the executor decoupled from any specific
// sport's scoring model.
type TrialGenerator func(rng *rand.Rand, trials int) []float64

// Config tunes the executor.
type Config struct {
	// ConvergenceInterval is the batch size between confidence-interval
	// checks. Requests at or below one interval run in a single batch.
	ConvergenceInterval int
	// TargetHalfWidth stops the run early once the Wilson half-width
	// tightens below it.
	TargetHalfWidth float64
	// ConfidenceLevel for the Wilson interval (0.90/0.95/0.99).
	ConfidenceLevel float64
	// EdgeThresholdPct is the minimum edge percent for meets_edge_threshold.
	EdgeThresholdPct float64
}

// DefaultConfig returns the reference executor configuration.
func DefaultConfig() Config {
	return Config{
		ConvergenceInterval: 5000,
		TargetHalfWidth:     0.01,
		ConfidenceLevel:     0.95,
		EdgeThresholdPct:    2.0,
	}
}

// Guardrails are playable-line bounds around the simulated line. Moneyline
// guardrails are odds based and computed by the decision layer instead.
type Guardrails struct {
	PlayableLineLow  *float64 `json:"playable_line_low,omitempty"`
	PlayableLineHigh *float64 `json:"playable_line_high,omitempty"`
}

// Result is the immutable outcome of one simulation run, keyed by
// (context hash, game id, market type). Once Status is completed or cached
// the numeric fields are frozen; market movement later becomes a status
// transition applied by the market monitor, never a field mutation.
type Result struct {
	ContextHash string            `json:"context_hash"`
	GameID      string            `json:"game_id"`
	MarketType  models.MarketType `json:"market_type"`
	RunID       uuid.UUID         `json:"run_id"`

	ModelProbability float64  `json:"model_probability"`
	Interval         Interval `json:"confidence_interval"`
	DevigProbability float64  `json:"devig_probability"`

	RawEdge     float64 `json:"raw_edge"`
	EdgePercent float64 `json:"edge_percent"`

	MeetsEdgeThreshold   bool `json:"meets_edge_threshold"`
	MeetsUncertaintyGate bool `json:"meets_uncertainty_gate"`
	IsValidPlay          bool `json:"is_valid_play"`

	Guardrails Guardrails `json:"guardrails"`

	TrialsRun           int              `json:"trials_run"`
	ConvergenceAchieved bool             `json:"convergence_achieved"`
	Seed                int64            `json:"seed"`
	CreatedAt           time.Time        `json:"created_at"`
	Status              models.SimStatus `json:"status"`
}

// Line tolerances for playable guardrails by market family.
const (
	spreadTotalLineTolerance = 0.5
	playerPropLineTolerance  = 1.0
)

// Run executes the full simulation for one context. It is synchronous: the
// caller gets either a completed result or an error, never partial output.
func Run(ctx simcontext.Context, gen TrialGenerator, cfg Config) (*Result, error) {
	if gen == nil {
		return nil, fmt.Errorf("trial generator is required")
	}
	if ctx.Trials <= 0 {
		return nil, fmt.Errorf("%w: trials must be positive", models.ErrInvalidContext)
	}
	if cfg.ConvergenceInterval <= 0 {
		cfg.ConvergenceInterval = DefaultConfig().ConvergenceInterval
	}

	started := time.Now()
	seed := ctx.DeterministicSeed()
	rng := rand.New(rand.NewSource(seed))

	successes := 0.0
	trialsRun := 0
	converged := false
	interval := Interval{}

	if ctx.Trials <= cfg.ConvergenceInterval {
		successes = runBatch(gen, rng, ctx.Trials)
		trialsRun = ctx.Trials
		interval = WilsonInterval(successes, trialsRun, cfg.ConfidenceLevel)
	} else {
		for trialsRun < ctx.Trials {
			batch := cfg.ConvergenceInterval
			if remaining := ctx.Trials - trialsRun; remaining < batch {
				batch = remaining
			}
			successes += runBatch(gen, rng, batch)
			trialsRun += batch

			// Batch boundaries are a synchronization point: whether to
			// continue depends on the aggregate of all prior batches.
			interval = WilsonInterval(successes, trialsRun, cfg.ConfidenceLevel)
			if cfg.TargetHalfWidth > 0 && interval.HalfWidth <= cfg.TargetHalfWidth {
				converged = true
				break
			}
		}
	}

	modelProb := successes / float64(trialsRun)
	devig := ctx.Market.DevigProb
	rawEdge := modelProb - devig
	edgePct := rawEdge * 100

	result := &Result{
		ContextHash:          ctx.Hash(),
		GameID:               ctx.GameID,
		MarketType:           ctx.Market.Type,
		RunID:                uuid.New(),
		ModelProbability:     modelProb,
		Interval:             interval,
		DevigProbability:     devig,
		RawEdge:              rawEdge,
		EdgePercent:          edgePct,
		MeetsEdgeThreshold:   edgePct >= cfg.EdgeThresholdPct,
		MeetsUncertaintyGate: math.Abs(rawEdge) >= 2*interval.HalfWidth,
		Guardrails:           guardrailsFor(ctx.Market),
		TrialsRun:            trialsRun,
		ConvergenceAchieved:  converged,
		Seed:                 seed,
		CreatedAt:            time.Now().UTC(),
		Status:               models.SimCompleted,
	}
	result.IsValidPlay = result.MeetsEdgeThreshold && result.MeetsUncertaintyGate

	metrics.RecordSimulation(time.Since(started).Seconds(), trialsRun, converged)

	return result, nil
}

// runBatch sums clamped outcomes so binary and real-valued generators both
// feed the binomial interval as pseudo-successes.
func runBatch(gen TrialGenerator, rng *rand.Rand, trials int) float64 {
	outcomes := gen(rng, trials)
	total := 0.0
	for _, v := range outcomes {
		if v < 0 {
			v = 0
		} else if v > 1 {
			v = 1
		}
		total += v
	}
	return total
}

func guardrailsFor(market models.MarketSnapshot) Guardrails {
	var tolerance float64
	switch market.Type {
	case models.MarketSpread, models.MarketTotal:
		tolerance = spreadTotalLineTolerance
	case models.MarketPlayerProp:
		tolerance = playerPropLineTolerance
	default:
		return Guardrails{}
	}
	low := market.Line - tolerance
	high := market.Line + tolerance
	return Guardrails{PlayableLineLow: &low, PlayableLineHigh: &high}
}
