// Package confidence combines distribution stability, run-to-run convergence,
// volatility, and market confirmation into a bounded 0-100 score. It never
// substitutes a placeholder: when required inputs are missing the score is
// null and IsAvailable is false.
package confidence

import (
	"math"

	"github.com/yourusername/edge-engine/internal/models"
)

// Component weights. Market alignment is supportive only.
const (
	weightDistribution = 0.40
	weightConvergence  = 0.30
	weightVolatility   = 0.20
	weightMarket       = 0.10
)

// Reference scales for the exponential-decay mappings.
const (
	distributionReference = 3.0
	adaptiveMedianFactor  = 0.08
	rerunSpreadReference  = 1.5
	volatilityReference   = 2.0
)

// convergenceProxyFactor caps the convergence component when no rerun
// evidence exists. Flagged as a potential mis-calibration: it conflates
// within-run stability with across-run reproducibility.
const convergenceProxyFactor = 0.7

// minRerunSamples is the minimum rerun spread sample count before the spread
// standard deviation is trusted directly.
const minRerunSamples = 3

// Reason code bands for component audit codes.
const (
	highBand = 0.7
	lowBand  = 0.3
)

// Inputs carries everything the engine needs. Pointer fields distinguish
// "absent" from zero.
type Inputs struct {
	Variance    *float64
	MedianValue float64

	RerunSpreadStdDev *float64
	RerunSpreads      []float64

	Volatility models.Volatility

	// MarketAligned is nil when no external confirmation exists.
	MarketAligned *bool

	Trials int
}

// Components is the 0-1 breakdown; entries are nil when not computed.
type Components struct {
	Distribution *float64 `json:"distribution"`
	Convergence  *float64 `json:"convergence"`
	Volatility   *float64 `json:"volatility"`
	Market       *float64 `json:"market"`
}

// Result is the engine output. Score is nil exactly when IsAvailable is
// false; callers must treat that as unknown, never as a low score.
type Result struct {
	Score             *int       `json:"score"`
	Components        Components `json:"components"`
	IsAvailable       bool       `json:"is_available"`
	UnavailableReason string     `json:"unavailable_reason,omitempty"`
	Reasons           []string   `json:"reasons,omitempty"`
}

// Compute evaluates the confidence score for one simulation.
func Compute(in Inputs) Result {
	if in.Variance == nil {
		return unavailable("variance missing")
	}
	if *in.Variance < 0 {
		return unavailable("variance negative")
	}
	if in.MedianValue <= 0 {
		return unavailable("median value not positive")
	}

	var reasons []string

	stdDev := math.Sqrt(*in.Variance)
	adaptiveRef := math.Max(distributionReference, adaptiveMedianFactor*in.MedianValue)
	distribution := expDecay(stdDev, adaptiveRef)
	reasons = appendBandReasons(reasons, distribution, "distribution_stable", "distribution_wide")

	convergence, proxied := convergenceScore(in, distribution)
	if proxied {
		reasons = append(reasons, "convergence_proxy")
	} else {
		reasons = appendBandReasons(reasons, convergence, "convergence_strong", "convergence_weak")
	}

	volatility := 1 / (1 + in.Volatility.Index()/volatilityReference)
	reasons = appendBandReasons(reasons, volatility, "volatility_low", "volatility_high")

	market := 0.5
	if in.MarketAligned != nil {
		if *in.MarketAligned {
			market = 1.0
			reasons = append(reasons, "market_confirmed")
		} else {
			market = 0.3
			reasons = append(reasons, "market_conflicting")
		}
	}

	weighted := weightDistribution*distribution +
		weightConvergence*convergence +
		weightVolatility*volatility +
		weightMarket*market

	// Clamp and round only at this final step.
	final := weighted * tierMultiplier(in.Trials) * 100
	if final < 0 {
		final = 0
	}
	if final > 100 {
		final = 100
	}
	score := int(math.Round(final))

	return Result{
		Score: &score,
		Components: Components{
			Distribution: &distribution,
			Convergence:  &convergence,
			Volatility:   &volatility,
			Market:       &market,
		},
		IsAvailable: true,
		Reasons:     reasons,
	}
}

func unavailable(reason string) Result {
	return Result{IsAvailable: false, UnavailableReason: reason}
}

func expDecay(value, reference float64) float64 {
	ratio := value / reference
	return math.Exp(-ratio * ratio)
}

// convergenceScore returns the convergence component and whether the
// penalized proxy was used for lack of rerun evidence.
func convergenceScore(in Inputs, distribution float64) (float64, bool) {
	if in.RerunSpreadStdDev != nil {
		return expDecay(*in.RerunSpreadStdDev, rerunSpreadReference), false
	}
	if len(in.RerunSpreads) >= minRerunSamples {
		return expDecay(sampleStdDev(in.RerunSpreads), rerunSpreadReference), false
	}
	return convergenceProxyFactor * distribution, true
}

func sampleStdDev(values []float64) float64 {
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	variance := 0.0
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	variance /= float64(len(values))
	return math.Sqrt(variance)
}

func appendBandReasons(reasons []string, score float64, highCode, lowCode string) []string {
	if score > highBand {
		return append(reasons, highCode)
	}
	if score < lowBand {
		return append(reasons, lowCode)
	}
	return reasons
}

// tierMultiplier discounts smaller trial-count tiers; larger tiers approach 1.
func tierMultiplier(trials int) float64 {
	switch {
	case trials >= 100000:
		return 1.0
	case trials >= 50000:
		return 0.97
	case trials >= 25000:
		return 0.92
	case trials >= 10000:
		return 0.85
	default:
		return 0.75
	}
}
