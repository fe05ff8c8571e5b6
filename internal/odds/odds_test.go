package odds

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmericanToDecimal(t *testing.T) {
	tests := []struct {
		american int
		want     float64
	}{
		{+100, 2.0},
		{-110, 1.9091},
		{+150, 2.5},
		{-200, 1.5},
	}
	for _, tt := range tests {
		got, err := AmericanToDecimal(tt.american)
		require.NoError(t, err)
		assert.InDelta(t, tt.want, got, 0.0001, "american %d", tt.american)
	}

	_, err := AmericanToDecimal(0)
	assert.Error(t, err)
}

func TestAmericanToImplied(t *testing.T) {
	p, err := AmericanToImplied(-110)
	require.NoError(t, err)
	assert.InDelta(t, 0.5238, p, 0.0001)

	p, err = AmericanToImplied(+110)
	require.NoError(t, err)
	assert.InDelta(t, 0.4762, p, 0.0001)
}

func TestDevigPairNormalizes(t *testing.T) {
	// Standard -110/-110 market carries ~4.5% overround.
	pA, _ := AmericanToImplied(-110)
	pB, _ := AmericanToImplied(-110)

	fairA, fairB, err := DevigPair(pA, pB)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, fairA, 1e-9)
	assert.InDelta(t, 1.0, fairA+fairB, 1e-9)

	_, _, err = DevigPair(0, 0.5)
	assert.Error(t, err)
}

func TestDevigFromAmericanAsymmetric(t *testing.T) {
	fairFav, err := DevigFromAmerican(-150, +130)
	require.NoError(t, err)
	fairDog, err := DevigFromAmerican(+130, -150)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, fairFav+fairDog, 1e-9)
	assert.Greater(t, fairFav, 0.5)
}

func TestFormatCanonicalStable(t *testing.T) {
	assert.Equal(t, "0.1235", FormatCanonical(0.12345001, 4))
	assert.Equal(t, "-7.5000", FormatCanonical(-7.5, 4))
	assert.Equal(t, FormatCanonical(1.0/3.0, 4), FormatCanonical(0.33331, 4))
}
