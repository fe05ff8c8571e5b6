package decision

import (
	"fmt"
	"math"

	"github.com/yourusername/edge-engine/internal/models"
)

// classifyEdge maps edge magnitude and model conviction to the tagged
// classification variant.
func (c *Computer) classifyEdge(edgePoints, pickProbability float64) models.Classification {
	if edgePoints < c.cfg.LeanThresholdPoints {
		return models.ClassMarketAligned
	}
	if edgePoints >= c.cfg.EdgeThresholdPoints && pickProbability >= c.cfg.ConvictionBand {
		return models.ClassEdge
	}
	return models.ClassLean
}

// gradeFor assigns the letter grade from edge magnitude.
func gradeFor(edgePoints float64) models.Grade {
	switch {
	case edgePoints >= 5:
		return models.GradeS
	case edgePoints >= 3:
		return models.GradeA
	case edgePoints >= 2:
		return models.GradeB
	case edgePoints >= 1:
		return models.GradeC
	default:
		return models.GradeD
	}
}

// edgeReasons renders human-readable reasons from magnitude buckets.
func edgeReasons(edgePoints, fairLine, marketLine float64) []string {
	reasons := []string{}
	switch {
	case edgePoints >= 5:
		reasons = append(reasons, fmt.Sprintf("model and market disagree sharply (%.1f points)", edgePoints))
	case edgePoints >= 2.5:
		reasons = append(reasons, fmt.Sprintf("meaningful gap between model fair value %.1f and market %.1f", fairLine, marketLine))
	case edgePoints >= 1:
		reasons = append(reasons, fmt.Sprintf("model leans %.1f points off the market number", edgePoints))
	default:
		reasons = append(reasons, "model agrees with the market number")
	}
	return reasons
}

// edgeBetween is the classification input: the absolute gap between the
// market's number and the model's fair number, same coordinate system.
func edgeBetween(marketValue, fairValue float64) float64 {
	return math.Abs(marketValue - fairValue)
}
