package confidence

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/edge-engine/internal/models"
)

func floatPtr(v float64) *float64 { return &v }
func boolPtr(v bool) *bool        { return &v }

func baseInputs() Inputs {
	return Inputs{
		Variance:    floatPtr(4.0),
		MedianValue: 220.0,
		Volatility:  models.VolatilityLow,
		Trials:      100000,
	}
}

func TestMissingVarianceIsUnavailable(t *testing.T) {
	in := baseInputs()
	in.Variance = nil

	result := Compute(in)

	assert.False(t, result.IsAvailable)
	assert.Nil(t, result.Score, "score must be null, never 0 or 1")
	assert.Equal(t, "variance missing", result.UnavailableReason)
}

func TestNegativeVarianceIsUnavailable(t *testing.T) {
	in := baseInputs()
	in.Variance = floatPtr(-1.0)

	result := Compute(in)
	assert.False(t, result.IsAvailable)
	assert.Nil(t, result.Score)
}

func TestNonPositiveMedianIsUnavailable(t *testing.T) {
	in := baseInputs()
	in.MedianValue = 0

	result := Compute(in)
	assert.False(t, result.IsAvailable)
	assert.Nil(t, result.Score)
	assert.Equal(t, "median value not positive", result.UnavailableReason)
}

func TestScoreNullIffUnavailable(t *testing.T) {
	available := Compute(baseInputs())
	require.True(t, available.IsAvailable)
	require.NotNil(t, available.Score)

	unavailable := Compute(Inputs{})
	require.False(t, unavailable.IsAvailable)
	require.Nil(t, unavailable.Score)
}

func TestDistributionComponent(t *testing.T) {
	in := baseInputs()
	result := Compute(in)
	require.True(t, result.IsAvailable)

	// adaptiveRef = max(3.0, 0.08*220) = 17.6; stdDev = 2.
	want := math.Exp(-(2.0 / 17.6) * (2.0 / 17.6))
	assert.InDelta(t, want, *result.Components.Distribution, 1e-9)
	assert.Contains(t, result.Reasons, "distribution_stable")
}

func TestWideDistributionReason(t *testing.T) {
	in := baseInputs()
	in.MedianValue = 10 // adaptiveRef stays at the fixed 3.0 floor
	in.Variance = floatPtr(36.0)

	result := Compute(in)
	require.True(t, result.IsAvailable)
	assert.Less(t, *result.Components.Distribution, 0.3)
	assert.Contains(t, result.Reasons, "distribution_wide")
}

func TestConvergenceProxyWhenNoRerunEvidence(t *testing.T) {
	in := baseInputs()
	result := Compute(in)
	require.True(t, result.IsAvailable)

	assert.InDelta(t, 0.7*(*result.Components.Distribution), *result.Components.Convergence, 1e-9)
	assert.Contains(t, result.Reasons, "convergence_proxy")
}

func TestConvergenceFromExplicitSpread(t *testing.T) {
	in := baseInputs()
	in.RerunSpreadStdDev = floatPtr(0.2)

	result := Compute(in)
	require.True(t, result.IsAvailable)

	want := math.Exp(-(0.2 / 1.5) * (0.2 / 1.5))
	assert.InDelta(t, want, *result.Components.Convergence, 1e-9)
	assert.NotContains(t, result.Reasons, "convergence_proxy")
}

func TestConvergenceFromRerunSamples(t *testing.T) {
	in := baseInputs()
	in.RerunSpreads = []float64{210.1, 210.4, 209.8, 210.2}

	result := Compute(in)
	require.True(t, result.IsAvailable)
	assert.Greater(t, *result.Components.Convergence, 0.9)

	// Two samples are not enough evidence; the proxy kicks back in.
	in.RerunSpreads = in.RerunSpreads[:2]
	result = Compute(in)
	assert.Contains(t, result.Reasons, "convergence_proxy")
}

func TestVolatilityComponent(t *testing.T) {
	low := baseInputs()
	low.Volatility = models.VolatilityLow
	high := baseInputs()
	high.Volatility = models.VolatilityHigh

	lowResult := Compute(low)
	highResult := Compute(high)

	assert.InDelta(t, 1.0, *lowResult.Components.Volatility, 1e-9)
	assert.InDelta(t, 0.5, *highResult.Components.Volatility, 1e-9)
	assert.Greater(t, *lowResult.Score, *highResult.Score)
}

func TestMarketAlignmentComponent(t *testing.T) {
	aligned := baseInputs()
	aligned.MarketAligned = boolPtr(true)
	conflicting := baseInputs()
	conflicting.MarketAligned = boolPtr(false)
	unknown := baseInputs()

	assert.InDelta(t, 1.0, *Compute(aligned).Components.Market, 1e-9)
	assert.InDelta(t, 0.3, *Compute(conflicting).Components.Market, 1e-9)
	assert.InDelta(t, 0.5, *Compute(unknown).Components.Market, 1e-9)
}

func TestTierMultiplierDiscountsSmallRuns(t *testing.T) {
	big := baseInputs()
	big.Trials = 100000
	small := baseInputs()
	small.Trials = 5000

	bigScore := *Compute(big).Score
	smallScore := *Compute(small).Score

	assert.Greater(t, bigScore, smallScore)
}

func TestScoreBounded(t *testing.T) {
	in := baseInputs()
	in.Variance = floatPtr(0.0)
	in.MarketAligned = boolPtr(true)
	result := Compute(in)
	require.True(t, result.IsAvailable)
	assert.LessOrEqual(t, *result.Score, 100)
	assert.GreaterOrEqual(t, *result.Score, 0)
}
