// Package odds provides American/decimal odds conversion and de-vig math.
package odds

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// AmericanToDecimal converts American odds to decimal (European) odds.
func AmericanToDecimal(american int) (float64, error) {
	if american == 0 {
		return 0, fmt.Errorf("invalid american odds: 0")
	}
	a := decimal.NewFromInt(int64(american))
	hundred := decimal.NewFromInt(100)
	var d decimal.Decimal
	if american > 0 {
		d = a.Div(hundred).Add(decimal.NewFromInt(1))
	} else {
		d = hundred.Div(a.Abs()).Add(decimal.NewFromInt(1))
	}
	f, _ := d.Round(4).Float64()
	return f, nil
}

// AmericanToImplied converts American odds to the implied win probability,
// vig included.
func AmericanToImplied(american int) (float64, error) {
	if american == 0 {
		return 0, fmt.Errorf("invalid american odds: 0")
	}
	a := decimal.NewFromInt(int64(american))
	hundred := decimal.NewFromInt(100)
	var p decimal.Decimal
	if american > 0 {
		p = hundred.Div(a.Add(hundred))
	} else {
		abs := a.Abs()
		p = abs.Div(abs.Add(hundred))
	}
	f, _ := p.Round(6).Float64()
	return f, nil
}

// DevigPair removes bookmaker margin from a two-way market by proportional
// normalization. Both inputs are vig-inclusive implied probabilities.
func DevigPair(pA, pB float64) (float64, float64, error) {
	if pA <= 0 || pB <= 0 {
		return 0, 0, fmt.Errorf("implied probabilities must be positive, got %v and %v", pA, pB)
	}
	overround := pA + pB
	return pA / overround, pB / overround, nil
}

// DevigFromAmerican de-vigs a two-way market given both sides' American odds
// and returns side A's fair probability.
func DevigFromAmerican(sideA, sideB int) (float64, error) {
	pA, err := AmericanToImplied(sideA)
	if err != nil {
		return 0, err
	}
	pB, err := AmericanToImplied(sideB)
	if err != nil {
		return 0, err
	}
	fairA, _, err := DevigPair(pA, pB)
	if err != nil {
		return 0, err
	}
	return fairA, nil
}

// RoundTo rounds v to the given number of decimal places using exact decimal
// arithmetic, so canonical serializations are platform independent.
func RoundTo(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}

// FormatCanonical renders v rounded to places as a stable string for hashing.
func FormatCanonical(v float64, places int32) string {
	return decimal.NewFromFloat(v).Round(places).StringFixed(places)
}
