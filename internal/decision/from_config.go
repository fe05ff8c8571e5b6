package decision

import (
	"time"

	"github.com/yourusername/edge-engine/internal/config"
)

// FromConfig builds a decision Config from the application configuration,
// keeping the fixed tolerances of the default profile.
func FromConfig(cfg *config.DecisionConfig) Config {
	out := DefaultConfig()
	out.Profile = cfg.Profile
	out.LeanThresholdPoints = cfg.LeanThresholdPoints
	out.EdgeThresholdPoints = cfg.EdgeThresholdPoints
	out.MaxLineDelta = cfg.MaxLineDeltaPoints
	out.FreshnessWindow = time.Duration(cfg.FreshnessWindowMins) * time.Minute
	out.ConvictionBand = cfg.ConvictionFloor
	out.StrictInvariants = cfg.StrictInvariants
	return out
}
