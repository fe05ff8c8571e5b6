package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/edge-engine/internal/database"
	"github.com/yourusername/edge-engine/internal/models"
	"github.com/yourusername/edge-engine/internal/simulation"
)

// TestResultRepositoryUpsert tests simulation result upsert and retrieval
func TestResultRepositoryUpsert(t *testing.T) {
	db := database.SetupTestDB(t)
	defer database.TeardownTestDB(t, db)

	repos, err := NewRepositories(db)
	if err != nil {
		t.Fatalf("failed to create repositories: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	result := &simulation.Result{
		ContextHash:      "itest00000001",
		GameID:           "2024020199",
		MarketType:       models.MarketSpread,
		RunID:            uuid.New(),
		ModelProbability: 0.58,
		DevigProbability: 0.52,
		RawEdge:          0.06,
		EdgePercent:      6.0,
		IsValidPlay:      true,
		TrialsRun:        25000,
		Seed:             42,
		CreatedAt:        time.Now().UTC(),
		Status:           models.SimCompleted,
	}

	if err := repos.Results.Upsert(ctx, result); err != nil {
		t.Fatalf("failed to upsert result: %v", err)
	}

	// Second upsert of the same context must replace, not duplicate.
	result.EdgePercent = 5.5
	if err := repos.Results.Upsert(ctx, result); err != nil {
		t.Fatalf("failed to re-upsert result: %v", err)
	}

	got, err := repos.Results.GetByContextHash(ctx, result.ContextHash, result.GameID, result.MarketType)
	if err != nil {
		t.Fatalf("failed to retrieve result: %v", err)
	}
	if got.EdgePercent != 5.5 {
		t.Errorf("expected updated edge 5.5, got %v", got.EdgePercent)
	}
}

// TestResultRepositoryMarkStatus tests status transitions on stored results
func TestResultRepositoryMarkStatus(t *testing.T) {
	db := database.SetupTestDB(t)
	defer database.TeardownTestDB(t, db)

	repos, err := NewRepositories(db)
	if err != nil {
		t.Fatalf("failed to create repositories: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	result := &simulation.Result{
		ContextHash: "itest00000002",
		GameID:      "2024020199",
		MarketType:  models.MarketTotal,
		RunID:       uuid.New(),
		TrialsRun:   25000,
		CreatedAt:   time.Now().UTC(),
		Status:      models.SimCompleted,
	}
	if err := repos.Results.Upsert(ctx, result); err != nil {
		t.Fatalf("failed to upsert result: %v", err)
	}

	err = repos.Results.MarkStatus(ctx, result.ContextHash, result.GameID, result.MarketType, models.SimPriceMoved)
	if err != nil {
		t.Fatalf("failed to mark status: %v", err)
	}

	got, err := repos.Results.GetByContextHash(ctx, result.ContextHash, result.GameID, result.MarketType)
	if err != nil {
		t.Fatalf("failed to retrieve result: %v", err)
	}
	if got.Status != models.SimPriceMoved {
		t.Errorf("expected price_moved status, got %v", got.Status)
	}

	err = repos.Results.MarkStatus(ctx, "missing", result.GameID, result.MarketType, models.SimPriceMoved)
	if err != models.ErrNotFound {
		t.Errorf("expected ErrNotFound for missing context, got %v", err)
	}
}

// TestKillSwitchStoreRoundTrip tests kill switch persistence
func TestKillSwitchStoreRoundTrip(t *testing.T) {
	db := database.SetupTestDB(t)
	defer database.TeardownTestDB(t, db)

	repos, err := NewRepositories(db)
	if err != nil {
		t.Fatalf("failed to create repositories: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	states, err := repos.KillSwitch.GetStates(ctx)
	if err != nil {
		t.Fatalf("failed to read kill switch states: %v", err)
	}
	_ = states
}
