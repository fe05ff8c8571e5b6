package classifier

import (
	"github.com/yourusername/edge-engine/internal/config"
)

// FromConfig builds a classifier Config from the application configuration.
func FromConfig(cfg *config.ClassifierConfig) Config {
	return Config{
		PromoteConfidence: cfg.PromoteConfidence,
		DemoteConfidence:  cfg.DemoteConfidence,
		MinConfidence:     cfg.ConfidenceFloor,
		MinEdgePct:        cfg.MinEdgePct,
		ActionableEdgePct: cfg.ActionableEdgePct,
		MinTrials:         cfg.MinTrials,
		MinModelProb:      cfg.ProbabilityFloor,
		MaxInjuryImpact:   cfg.MaxInjuryImpact,
		HighVolConfidence: cfg.HighVolConfidence,
	}
}
