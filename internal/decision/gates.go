package decision

import (
	"fmt"
	"math"
	"time"

	"github.com/yourusername/edge-engine/internal/models"
	"github.com/yourusername/edge-engine/internal/odds"
)

// gateResult is nil when the gate passes.
type gateResult struct {
	status models.ReleaseStatus
	reason string
}

// checkDirectionalIntegrity is Gate A: the simulation's cover probability
// must agree with the sign of its own fair margin. A violation means the two
// halves of the simulation output contradict each other.
func (c *Computer) checkDirectionalIntegrity(fairMargin, coverProb float64) *gateResult {
	switch {
	case fairMargin > c.cfg.MarginEpsilon:
		if coverProb <= 0.5 {
			return &gateResult{status: models.BlockedByIntegrity, reason: "directional integrity violation: positive fair margin with cover probability at or below 0.5"}
		}
	case fairMargin < -c.cfg.MarginEpsilon:
		if coverProb >= 0.5 {
			return &gateResult{status: models.BlockedByIntegrity, reason: "directional integrity violation: negative fair margin with cover probability at or above 0.5"}
		}
	default:
		if math.Abs(coverProb-0.5) > c.cfg.PickemCoverSlop {
			return &gateResult{status: models.BlockedByIntegrity, reason: "directional integrity violation: near-zero fair margin with cover probability away from 0.5"}
		}
	}
	return nil
}

// checkOddsAlignment is Gate B: the live market must still resemble the
// market the simulation assumed. Near-zero "pick'em" lines are compared in
// implied-probability space because line deltas are meaningless there.
func (c *Computer) checkOddsAlignment(assumedLine float64, assumedOdds int, liveLine float64, liveOdds int) *gateResult {
	if math.Abs(liveLine) < c.cfg.PickemLineEpsilon {
		assumedProb, err := odds.AmericanToImplied(assumedOdds)
		if err != nil {
			return &gateResult{status: models.BlockedByOddsMismatch, reason: fmt.Sprintf("odds alignment unavailable: %v", err)}
		}
		liveProb, err := odds.AmericanToImplied(liveOdds)
		if err != nil {
			return &gateResult{status: models.BlockedByOddsMismatch, reason: fmt.Sprintf("odds alignment unavailable: %v", err)}
		}
		if delta := math.Abs(assumedProb - liveProb); delta > c.cfg.PickemProbDelta {
			return &gateResult{status: models.BlockedByOddsMismatch, reason: fmt.Sprintf("pick'em implied probability moved %.4f beyond tolerance %.4f", delta, c.cfg.PickemProbDelta)}
		}
		return nil
	}

	if delta := math.Abs(assumedLine - liveLine); delta > c.cfg.MaxLineDelta {
		return &gateResult{status: models.BlockedByOddsMismatch, reason: fmt.Sprintf("line moved %.2f beyond tolerance %.2f", delta, c.cfg.MaxLineDelta)}
	}
	return nil
}

// checkFreshness is Gate C: unparseable/zero timestamps fail closed.
func (c *Computer) checkFreshness(simComputedAt, now time.Time) *gateResult {
	if simComputedAt.IsZero() {
		return &gateResult{status: models.BlockedByStaleData, reason: "simulation timestamp missing or unparseable"}
	}
	if age := now.Sub(simComputedAt); age > c.cfg.FreshnessWindow {
		return &gateResult{status: models.BlockedByStaleData, reason: fmt.Sprintf("simulation is %s old, freshness window is %s", age.Round(time.Minute), c.cfg.FreshnessWindow)}
	}
	return nil
}
