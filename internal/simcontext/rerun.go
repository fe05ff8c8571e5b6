package simcontext

import (
	"fmt"
	"math"
)

// Material-change thresholds for rerun eligibility.
const (
	minutesDeltaThreshold = 2.0
	lineDeltaThreshold    = 0.5
	oddsDeltaThreshold    = 10
)

// ReasonNoMaterialChange is returned when nothing crossed a rerun threshold.
const ReasonNoMaterialChange = "no material change"

// RerunThresholds are the market-movement deltas that count as material.
// Injury and version changes always count and are not tunable.
type RerunThresholds struct {
	MinutesDelta float64
	LineDelta    float64
	OddsDelta    int
}

// DefaultRerunThresholds returns the reference thresholds.
func DefaultRerunThresholds() RerunThresholds {
	return RerunThresholds{
		MinutesDelta: minutesDeltaThreshold,
		LineDelta:    lineDeltaThreshold,
		OddsDelta:    oddsDeltaThreshold,
	}
}

// EligibleForRerun compares two contexts with the reference thresholds.
func EligibleForRerun(old, new Context) (bool, string) {
	return EligibleForRerunWith(old, new, DefaultRerunThresholds())
}

// EligibleForRerunWith compares two contexts and reports whether the newer
// one warrants a fresh simulation, with a machine-readable reason code. This
// is a pure comparison; it consults no external state.
func EligibleForRerunWith(old, new Context, th RerunThresholds) (bool, string) {
	if old.ModelVersion != new.ModelVersion {
		return true, "model_version_changed"
	}
	if old.EngineVersion != new.EngineVersion {
		return true, "engine_version_changed"
	}
	if old.DataFeedVersion != new.DataFeedVersion {
		return true, "data_feed_version_changed"
	}

	oldInjuries := injuryIndex(old)
	newInjuries := injuryIndex(new)
	if len(oldInjuries) != len(newInjuries) {
		return true, "injury_set_changed"
	}
	for playerID, oldInj := range oldInjuries {
		newInj, ok := newInjuries[playerID]
		if !ok {
			return true, "injury_set_changed"
		}
		if oldInj.status != newInj.status {
			return true, fmt.Sprintf("injury_status_changed:%s", playerID)
		}
		if math.Abs(oldInj.minutes-newInj.minutes) >= th.MinutesDelta {
			return true, fmt.Sprintf("minutes_projection_changed:%s", playerID)
		}
	}

	if math.Abs(old.Market.Line-new.Market.Line) >= th.LineDelta {
		return true, "line_moved"
	}
	if abs(old.Market.AmericanOdds-new.Market.AmericanOdds) >= th.OddsDelta {
		return true, "odds_moved"
	}

	return false, ReasonNoMaterialChange
}

type injuryState struct {
	status  string
	minutes float64
}

func injuryIndex(c Context) map[string]injuryState {
	idx := make(map[string]injuryState, len(c.Injuries))
	for _, inj := range c.Injuries {
		idx[inj.PlayerID] = injuryState{status: inj.Status, minutes: inj.MinutesProjection}
	}
	return idx
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
