package simulation

import "math"

// Interval is a binomial confidence interval around an empirical proportion.
type Interval struct {
	Lower     float64 `json:"lower"`
	Upper     float64 `json:"upper"`
	HalfWidth float64 `json:"half_width"`
	Level     float64 `json:"level"`
}

// zForLevel maps supported confidence levels to normal quantiles.
var zForLevel = map[float64]float64{
	0.90: 1.6449,
	0.95: 1.9600,
	0.99: 2.5758,
}

// WilsonInterval computes the Wilson score interval for successes/trials at
// the given confidence level. Unlike the normal approximation it stays
// accurate at small n and for proportions near 0 or 1.
func WilsonInterval(successes float64, trials int, level float64) Interval {
	z, ok := zForLevel[level]
	if !ok {
		z = zForLevel[0.95]
		level = 0.95
	}
	if trials <= 0 {
		return Interval{Lower: 0, Upper: 1, HalfWidth: 0.5, Level: level}
	}

	n := float64(trials)
	pHat := successes / n
	z2 := z * z

	denom := 1 + z2/n
	center := (pHat + z2/(2*n)) / denom
	margin := (z / denom) * math.Sqrt(pHat*(1-pHat)/n+z2/(4*n*n))

	lower := center - margin
	upper := center + margin
	if lower < 0 {
		lower = 0
	}
	if upper > 1 {
		upper = 1
	}

	return Interval{
		Lower:     lower,
		Upper:     upper,
		HalfWidth: (upper - lower) / 2,
		Level:     level,
	}
}
