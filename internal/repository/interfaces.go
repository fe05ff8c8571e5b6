package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/edge-engine/internal/decision"
	"github.com/yourusername/edge-engine/internal/killswitch"
	"github.com/yourusername/edge-engine/internal/models"
	"github.com/yourusername/edge-engine/internal/simulation"
)

// ResultRepository defines the interface for simulation result data access
type ResultRepository interface {
	Upsert(ctx context.Context, result *simulation.Result) error
	GetByContextHash(ctx context.Context, contextHash, gameID string, marketType models.MarketType) (*simulation.Result, error)
	GetLatestForGame(ctx context.Context, gameID string, marketType models.MarketType) (*simulation.Result, error)
	MarkStatus(ctx context.Context, contextHash, gameID string, marketType models.MarketType, status models.SimStatus) error
}

// DecisionRepository defines the interface for market decision data access
type DecisionRepository interface {
	Save(ctx context.Context, d *decision.MarketDecision) error
	GetByTrace(ctx context.Context, traceID uuid.UUID) ([]*decision.MarketDecision, error)
	GetLatestForGame(ctx context.Context, gameID string, marketType models.MarketType) (*decision.MarketDecision, error)
	ListRecent(ctx context.Context, since time.Time, limit int) ([]*decision.MarketDecision, error)
}

var _ killswitch.Store = (*PostgresKillSwitchStore)(nil)
