package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/yourusername/edge-engine/internal/database"
	"github.com/yourusername/edge-engine/internal/decision"
	"github.com/yourusername/edge-engine/internal/models"
)

const errScanDecision = "failed to scan market decision: %w"

// PostgresDecisionRepository implements DecisionRepository for PostgreSQL
type PostgresDecisionRepository struct {
	db *database.DB
}

// NewPostgresDecisionRepository creates a new market decision repository
func NewPostgresDecisionRepository(db *database.DB) DecisionRepository {
	return &PostgresDecisionRepository{db: db}
}

// Save inserts a market decision. Decisions are immutable once computed; a
// conflict on (trace_id, market_type) means the same cycle was computed
// twice and the first write wins.
func (r *PostgresDecisionRepository) Save(ctx context.Context, d *decision.MarketDecision) error {
	payload, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to marshal market decision: %w", err)
	}

	var classification *models.Classification
	if d.Classification != nil {
		classification = d.Classification
	}

	query := `
		INSERT INTO market_decisions (
			trace_id, game_id, market_type, version,
			release_status, classification, blocked_reason, payload, computed_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (trace_id, market_type) DO NOTHING
	`

	_, err = r.db.Exec(ctx, query,
		d.TraceID, d.GameID, d.MarketType, d.Debug.DecisionVersion,
		d.ReleaseStatus, classification, d.Risk.BlockedReason, payload, d.Debug.ComputedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save market decision: %w", err)
	}
	return nil
}

// GetByTrace retrieves every market decision sharing one cycle trace
func (r *PostgresDecisionRepository) GetByTrace(ctx context.Context, traceID uuid.UUID) ([]*decision.MarketDecision, error) {
	query := `
		SELECT payload FROM market_decisions
		WHERE trace_id = $1 ORDER BY market_type
	`
	rows, err := r.db.Query(ctx, query, traceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query decisions by trace: %w", err)
	}
	defer rows.Close()

	return scanDecisions(rows)
}

// GetLatestForGame retrieves the most recent decision for a market
func (r *PostgresDecisionRepository) GetLatestForGame(ctx context.Context, gameID string, marketType models.MarketType) (*decision.MarketDecision, error) {
	query := `
		SELECT payload FROM market_decisions
		WHERE game_id = $1 AND market_type = $2
		ORDER BY computed_at DESC LIMIT 1
	`

	var payload []byte
	err := r.db.QueryRow(ctx, query, gameID, marketType).Scan(&payload)
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf(errScanDecision, err)
	}

	d := &decision.MarketDecision{}
	if err := json.Unmarshal(payload, d); err != nil {
		return nil, fmt.Errorf(errScanDecision, err)
	}
	return d, nil
}

// ListRecent retrieves decisions computed since a point in time
func (r *PostgresDecisionRepository) ListRecent(ctx context.Context, since time.Time, limit int) ([]*decision.MarketDecision, error) {
	query := `
		SELECT payload FROM market_decisions
		WHERE computed_at >= $1
		ORDER BY computed_at DESC LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent decisions: %w", err)
	}
	defer rows.Close()

	return scanDecisions(rows)
}

func scanDecisions(rows pgx.Rows) ([]*decision.MarketDecision, error) {
	var decisions []*decision.MarketDecision
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf(errScanDecision, err)
		}
		d := &decision.MarketDecision{}
		if err := json.Unmarshal(payload, d); err != nil {
			return nil, fmt.Errorf(errScanDecision, err)
		}
		decisions = append(decisions, d)
	}
	return decisions, rows.Err()
}
