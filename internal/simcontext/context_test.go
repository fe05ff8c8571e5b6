package simcontext

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/edge-engine/internal/models"
)

func baseContext() Context {
	pace := 99.2
	return Context{
		GameID:          "nba-2026-02-11-BOS-NYK",
		LeagueID:        "nba",
		HomeTeam:        "BOS",
		AwayTeam:        "NYK",
		ModelVersion:    "model-3.2.0",
		EngineVersion:   "engine-1.8.1",
		DataFeedVersion: "feed-2026.02",
		Market: models.MarketSnapshot{
			Type:         models.MarketSpread,
			Selection:    "BOS",
			Line:         -6.5,
			AmericanOdds: -110,
			DecimalOdds:  1.9091,
			ImpliedProb:  0.5238,
			DevigProb:    0.5,
			BookID:       "pinnacle",
			CapturedAt:   time.Date(2026, 2, 11, 17, 30, 0, 0, time.UTC),
		},
		Injuries: []models.InjurySnapshot{
			{PlayerID: "p-201", Team: "BOS", Status: "questionable", MinutesProjection: 28.5, UpdatedAt: time.Date(2026, 2, 11, 15, 0, 0, 0, time.UTC)},
			{PlayerID: "p-105", Team: "NYK", Status: "out", MinutesProjection: 0, UpdatedAt: time.Date(2026, 2, 11, 12, 0, 0, 0, time.UTC)},
		},
		Pace:   &pace,
		Trials: 10000,
	}
}

func TestHashIsDeterministic(t *testing.T) {
	a := baseContext()
	b := baseContext()

	require.Equal(t, a.Hash(), b.Hash())
	assert.Len(t, a.Hash(), 64)
	assert.Equal(t, a.Hash()[:ShortHashLen], a.ShortHash())
}

func TestHashRoundTrip(t *testing.T) {
	// Reconstructing an equivalent context from the same inputs yields the
	// identical hash: canonicalization is idempotent.
	a := baseContext()
	hash := a.Hash()

	rebuilt := baseContext()
	assert.Equal(t, hash, rebuilt.Hash())
	assert.Equal(t, hash, rebuilt.Hash())
}

func TestHashChangesWithAnyField(t *testing.T) {
	base := baseContext().Hash()

	line := baseContext()
	line.Market.Line = -7.0
	assert.NotEqual(t, base, line.Hash())

	model := baseContext()
	model.ModelVersion = "model-3.2.1"
	assert.NotEqual(t, base, model.Hash())

	injury := baseContext()
	injury.Injuries[0].Status = "out"
	assert.NotEqual(t, base, injury.Hash())

	trials := baseContext()
	trials.Trials = 25000
	assert.NotEqual(t, base, trials.Hash())
}

func TestHashIgnoresInjuryOrder(t *testing.T) {
	a := baseContext()
	b := baseContext()
	b.Injuries[0], b.Injuries[1] = b.Injuries[1], b.Injuries[0]

	assert.Equal(t, a.Hash(), b.Hash())
}

func TestHashIgnoresSubPrecisionNoise(t *testing.T) {
	a := baseContext()
	b := baseContext()
	b.Market.DevigProb = a.Market.DevigProb + 1e-9

	assert.Equal(t, a.Hash(), b.Hash())
}

func TestDeterministicSeedStable(t *testing.T) {
	a := baseContext()

	seed1 := a.DeterministicSeed()
	seed2 := a.DeterministicSeed()
	require.Equal(t, seed1, seed2)
	assert.GreaterOrEqual(t, seed1, int64(0))

	moved := baseContext()
	moved.Market.Line = -7.5
	assert.NotEqual(t, seed1, moved.DeterministicSeed())
}

func TestSeedOverrideReturnedVerbatim(t *testing.T) {
	override := int64(-42)
	a := baseContext()
	a.SeedOverride = &override

	assert.Equal(t, override, a.DeterministicSeed())
}

func TestEligibleForRerunVersionChanges(t *testing.T) {
	old := baseContext()

	next := baseContext()
	next.ModelVersion = "model-3.3.0"
	ok, reason := EligibleForRerun(old, next)
	assert.True(t, ok)
	assert.Equal(t, "model_version_changed", reason)

	next = baseContext()
	next.DataFeedVersion = "feed-2026.03"
	ok, reason = EligibleForRerun(old, next)
	assert.True(t, ok)
	assert.Equal(t, "data_feed_version_changed", reason)
}

func TestEligibleForRerunInjuryStatus(t *testing.T) {
	old := baseContext()
	next := baseContext()
	next.Injuries[0].Status = "out"

	ok, reason := EligibleForRerun(old, next)
	assert.True(t, ok)
	assert.Equal(t, "injury_status_changed:p-201", reason)
}

func TestEligibleForRerunMinutesDelta(t *testing.T) {
	old := baseContext()

	small := baseContext()
	small.Injuries[0].MinutesProjection += 1.5
	ok, reason := EligibleForRerun(old, small)
	assert.False(t, ok)
	assert.Equal(t, ReasonNoMaterialChange, reason)

	big := baseContext()
	big.Injuries[0].MinutesProjection += 2.0
	ok, reason = EligibleForRerun(old, big)
	assert.True(t, ok)
	assert.Equal(t, "minutes_projection_changed:p-201", reason)
}

func TestEligibleForRerunMarketMoves(t *testing.T) {
	old := baseContext()

	line := baseContext()
	line.Market.Line = -7.0
	ok, reason := EligibleForRerun(old, line)
	assert.True(t, ok)
	assert.Equal(t, "line_moved", reason)

	oddsMove := baseContext()
	oddsMove.Market.AmericanOdds = -120
	ok, reason = EligibleForRerun(old, oddsMove)
	assert.True(t, ok)
	assert.Equal(t, "odds_moved", reason)

	tiny := baseContext()
	tiny.Market.AmericanOdds = -112
	tiny.Market.Line = -6.25
	ok, reason = EligibleForRerun(old, tiny)
	assert.False(t, ok)
	assert.Equal(t, ReasonNoMaterialChange, reason)
}

func TestEligibleForRerunInjurySetChanged(t *testing.T) {
	old := baseContext()
	next := baseContext()
	next.Injuries = next.Injuries[:1]

	ok, reason := EligibleForRerun(old, next)
	assert.True(t, ok)
	assert.Equal(t, "injury_set_changed", reason)
}

func TestEligibleForRerunWithCustomThresholds(t *testing.T) {
	old := baseContext()

	th := DefaultRerunThresholds()
	th.LineDelta = 1.5
	th.OddsDelta = 25

	move := baseContext()
	move.Market.Line = old.Market.Line - 1.0
	move.Market.AmericanOdds = -130
	ok, reason := EligibleForRerunWith(old, move, th)
	assert.False(t, ok)
	assert.Equal(t, ReasonNoMaterialChange, reason)

	// The same deltas are material under the reference thresholds.
	ok, reason = EligibleForRerun(old, move)
	assert.True(t, ok)
	assert.Equal(t, "line_moved", reason)

	big := baseContext()
	big.Market.Line = old.Market.Line - 1.5
	ok, reason = EligibleForRerunWith(old, big, th)
	assert.True(t, ok)
	assert.Equal(t, "line_moved", reason)
}
