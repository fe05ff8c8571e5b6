package direction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEdgePoints(t *testing.T) {
	assert.InDelta(t, 4.1, EdgePoints(10.5, 6.4), 1e-9)
	assert.InDelta(t, -4.1, EdgePoints(-10.5, -6.4), 1e-9)
	assert.InDelta(t, 0.0, EdgePoints(3.5, 3.5), 1e-9)
}

func TestResolvePicksPositiveEdgeSide(t *testing.T) {
	dog := Side{TeamID: "NYK", MarketLine: 10.5, FairLine: 6.4}
	fav := Opposite("BOS", dog)

	require.InDelta(t, -10.5, fav.MarketLine, 1e-9)
	require.InDelta(t, -6.4, fav.FairLine, 1e-9)

	res := Resolve(dog, fav)
	assert.Equal(t, "NYK", res.TeamID)
	assert.InDelta(t, 4.1, res.EdgePoints, 1e-9)
	assert.Equal(t, LabelTakeThePoints, res.Label)
	assert.Equal(t, "take the points", res.Label.DisplayCopy())
}

func TestResolveFavoriteSide(t *testing.T) {
	// Market underrates the favorite: fair line -9, offered -6.5.
	fav := Side{TeamID: "BOS", MarketLine: -6.5, FairLine: -9.0}
	dog := Opposite("NYK", fav)

	res := Resolve(fav, dog)
	assert.Equal(t, "BOS", res.TeamID)
	assert.InDelta(t, 2.5, res.EdgePoints, 1e-9)
	assert.Equal(t, LabelLayThePoints, res.Label)
}

func TestResolvePickem(t *testing.T) {
	a := Side{TeamID: "BOS", MarketLine: 0, FairLine: -1.0}
	b := Opposite("NYK", a)

	res := Resolve(a, b)
	assert.Equal(t, "BOS", res.TeamID)
	assert.Equal(t, LabelPickem, res.Label)
}

func TestResolveTieBreaksByInputOrderDeterministically(t *testing.T) {
	a := Side{TeamID: "BOS", MarketLine: -3.0, FairLine: -3.0}
	b := Opposite("NYK", a)

	first := Resolve(a, b)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Resolve(a, b))
	}
	assert.Equal(t, "BOS", first.TeamID)
}

func TestVerifyAgreement(t *testing.T) {
	res := Resolve(Side{TeamID: "NYK", MarketLine: 10.5, FairLine: 6.4}, Side{TeamID: "BOS", MarketLine: -10.5, FairLine: -6.4})

	pref := res.View()
	dir := View{TeamID: "NYK", Line: 10.5 + 1e-9}
	assert.NoError(t, VerifyAgreement(pref, dir, false))

	wrong := View{TeamID: "BOS", Line: -10.5}
	assert.Error(t, VerifyAgreement(pref, wrong, false))
}

func TestVerifyAgreementStrictPanics(t *testing.T) {
	good := View{TeamID: "NYK", Line: 10.5}
	bad := View{TeamID: "NYK", Line: 9.5}

	assert.Panics(t, func() {
		_ = VerifyAgreement(good, bad, true)
	})
}
