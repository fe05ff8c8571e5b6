package repository

import (
	"context"
	"fmt"

	"github.com/yourusername/edge-engine/internal/database"
	"github.com/yourusername/edge-engine/internal/killswitch"
)

// PostgresKillSwitchStore implements killswitch.Store for PostgreSQL
type PostgresKillSwitchStore struct {
	db *database.DB
}

// NewPostgresKillSwitchStore creates a new kill switch store
func NewPostgresKillSwitchStore(db *database.DB) *PostgresKillSwitchStore {
	return &PostgresKillSwitchStore{db: db}
}

// GetStates retrieves every kill switch record keyed by scope
func (s *PostgresKillSwitchStore) GetStates(ctx context.Context) (map[string]killswitch.State, error) {
	query := `SELECT scope, active, reason, activated_by, updated_at FROM kill_switch`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query kill switch states: %w", err)
	}
	defer rows.Close()

	states := make(map[string]killswitch.State)
	for rows.Next() {
		var st killswitch.State
		if err := rows.Scan(&st.Scope, &st.Active, &st.Reason, &st.ActivatedBy, &st.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan kill switch state: %w", err)
		}
		states[st.Scope] = st
	}
	return states, rows.Err()
}

// SetState upserts one kill switch record
func (s *PostgresKillSwitchStore) SetState(ctx context.Context, state killswitch.State) error {
	query := `
		INSERT INTO kill_switch (scope, active, reason, activated_by, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (scope) DO UPDATE SET
			active = EXCLUDED.active,
			reason = EXCLUDED.reason,
			activated_by = EXCLUDED.activated_by,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.db.Exec(ctx, query, state.Scope, state.Active, state.Reason, state.ActivatedBy, state.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to set kill switch state: %w", err)
	}
	return nil
}
