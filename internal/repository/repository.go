package repository

import (
	"fmt"

	"github.com/yourusername/edge-engine/internal/database"
)

// Repositories holds all repository implementations
type Repositories struct {
	Results    ResultRepository
	Decisions  DecisionRepository
	KillSwitch *PostgresKillSwitchStore
}

// NewRepositories creates and returns all repository implementations
func NewRepositories(db *database.DB) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &Repositories{
		Results:    NewPostgresResultRepository(db),
		Decisions:  NewPostgresDecisionRepository(db),
		KillSwitch: NewPostgresKillSwitchStore(db),
	}, nil
}
