package database

import (
	"context"
	"fmt"

	"github.com/yourusername/edge-engine/internal/config"
)

// schema holds the engine's tables. Simulation results are keyed by context
// hash so a re-run of an identical context overwrites rather than duplicates;
// decisions are keyed by cycle trace so every market of a cycle shares one row
// group.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS sim_results (
		context_hash      TEXT NOT NULL,
		game_id           TEXT NOT NULL,
		market_type       TEXT NOT NULL,
		run_id            UUID NOT NULL,
		model_probability DOUBLE PRECISION NOT NULL,
		ci_lower          DOUBLE PRECISION NOT NULL,
		ci_upper          DOUBLE PRECISION NOT NULL,
		ci_half_width     DOUBLE PRECISION NOT NULL,
		devig_probability DOUBLE PRECISION NOT NULL,
		raw_edge          DOUBLE PRECISION NOT NULL,
		edge_percent      DOUBLE PRECISION NOT NULL,
		is_valid_play     BOOLEAN NOT NULL,
		trials_run        INTEGER NOT NULL,
		converged         BOOLEAN NOT NULL,
		seed              BIGINT NOT NULL,
		status            TEXT NOT NULL,
		payload           JSONB NOT NULL,
		created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (context_hash, game_id, market_type)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sim_results_game ON sim_results (game_id, market_type)`,
	`CREATE TABLE IF NOT EXISTS market_decisions (
		trace_id       UUID NOT NULL,
		game_id        TEXT NOT NULL,
		market_type    TEXT NOT NULL,
		version        TEXT NOT NULL,
		release_status TEXT NOT NULL,
		classification TEXT,
		blocked_reason TEXT,
		payload        JSONB NOT NULL,
		computed_at    TIMESTAMPTZ NOT NULL,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (trace_id, market_type)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_market_decisions_game ON market_decisions (game_id, computed_at DESC)`,
	`CREATE TABLE IF NOT EXISTS kill_switch (
		scope        TEXT PRIMARY KEY,
		active       BOOLEAN NOT NULL,
		reason       TEXT NOT NULL DEFAULT '',
		activated_by TEXT NOT NULL DEFAULT '',
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// Initialize creates a database connection pool and ensures the schema exists
func Initialize(ctx context.Context, cfg *config.Config) (*DB, error) {
	db, err := NewDB(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	for _, stmt := range schema {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	return db, nil
}
