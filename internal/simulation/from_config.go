package simulation

import (
	"github.com/yourusername/edge-engine/internal/config"
)

// FromConfig builds an executor Config from the application configuration.
func FromConfig(cfg *config.SimulationConfig) Config {
	return Config{
		ConvergenceInterval: cfg.ConvergenceInterval,
		TargetHalfWidth:     cfg.TargetHalfWidth,
		ConfidenceLevel:     cfg.ConfidenceLevel,
		EdgeThresholdPct:    cfg.EdgeThresholdPct,
	}
}
