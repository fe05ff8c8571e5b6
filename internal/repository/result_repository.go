package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/yourusername/edge-engine/internal/database"
	"github.com/yourusername/edge-engine/internal/models"
	"github.com/yourusername/edge-engine/internal/simulation"
)

const errScanSimResult = "failed to scan simulation result: %w"

// PostgresResultRepository implements ResultRepository for PostgreSQL
type PostgresResultRepository struct {
	db *database.DB
}

// NewPostgresResultRepository creates a new simulation result repository
func NewPostgresResultRepository(db *database.DB) ResultRepository {
	return &PostgresResultRepository{db: db}
}

// Upsert inserts a simulation result, replacing any previous run of the same
// context. The full result is kept as JSONB alongside the queryable columns.
func (r *PostgresResultRepository) Upsert(ctx context.Context, result *simulation.Result) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal simulation result: %w", err)
	}

	query := `
		INSERT INTO sim_results (
			context_hash, game_id, market_type, run_id,
			model_probability, ci_lower, ci_upper, ci_half_width,
			devig_probability, raw_edge, edge_percent, is_valid_play,
			trials_run, converged, seed, status, payload, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
		ON CONFLICT (context_hash, game_id, market_type) DO UPDATE SET
			run_id = EXCLUDED.run_id,
			model_probability = EXCLUDED.model_probability,
			ci_lower = EXCLUDED.ci_lower,
			ci_upper = EXCLUDED.ci_upper,
			ci_half_width = EXCLUDED.ci_half_width,
			devig_probability = EXCLUDED.devig_probability,
			raw_edge = EXCLUDED.raw_edge,
			edge_percent = EXCLUDED.edge_percent,
			is_valid_play = EXCLUDED.is_valid_play,
			trials_run = EXCLUDED.trials_run,
			converged = EXCLUDED.converged,
			seed = EXCLUDED.seed,
			status = EXCLUDED.status,
			payload = EXCLUDED.payload,
			updated_at = now()
	`

	_, err = r.db.Exec(ctx, query,
		result.ContextHash, result.GameID, result.MarketType, result.RunID,
		result.ModelProbability, result.Interval.Lower, result.Interval.Upper, result.Interval.HalfWidth,
		result.DevigProbability, result.RawEdge, result.EdgePercent, result.IsValidPlay,
		result.TrialsRun, result.ConvergenceAchieved, result.Seed, result.Status, payload, result.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert simulation result: %w", err)
	}
	return nil
}

// GetByContextHash retrieves the stored result for an exact context
func (r *PostgresResultRepository) GetByContextHash(ctx context.Context, contextHash, gameID string, marketType models.MarketType) (*simulation.Result, error) {
	query := `
		SELECT payload, status FROM sim_results
		WHERE context_hash = $1 AND game_id = $2 AND market_type = $3
	`
	return r.scanOne(r.db.QueryRow(ctx, query, contextHash, gameID, marketType))
}

// GetLatestForGame retrieves the most recently updated result for a market
func (r *PostgresResultRepository) GetLatestForGame(ctx context.Context, gameID string, marketType models.MarketType) (*simulation.Result, error) {
	query := `
		SELECT payload, status FROM sim_results
		WHERE game_id = $1 AND market_type = $2
		ORDER BY updated_at DESC LIMIT 1
	`
	return r.scanOne(r.db.QueryRow(ctx, query, gameID, marketType))
}

// MarkStatus updates only the status column of a stored result
func (r *PostgresResultRepository) MarkStatus(ctx context.Context, contextHash, gameID string, marketType models.MarketType, status models.SimStatus) error {
	query := `
		UPDATE sim_results SET status = $4, updated_at = now()
		WHERE context_hash = $1 AND game_id = $2 AND market_type = $3
	`
	tag, err := r.db.Exec(ctx, query, contextHash, gameID, marketType, status)
	if err != nil {
		return fmt.Errorf("failed to update simulation status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *PostgresResultRepository) scanOne(row pgx.Row) (*simulation.Result, error) {
	var payload []byte
	var status models.SimStatus
	err := row.Scan(&payload, &status)
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf(errScanSimResult, err)
	}

	result := &simulation.Result{}
	if err := json.Unmarshal(payload, result); err != nil {
		return nil, fmt.Errorf(errScanSimResult, err)
	}
	// Status transitions bypass the payload, so the column wins.
	result.Status = status
	return result, nil
}
