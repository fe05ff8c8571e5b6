// Package killswitch provides a global and per-market stop control for
// decision release. State lives in a Store (normally Postgres) and is read
// through a short TTL cache, so call sites see a change within the staleness
// window without a storage round trip per decision.
package killswitch

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/edge-engine/internal/logger"
	"github.com/yourusername/edge-engine/internal/metrics"
	"github.com/yourusername/edge-engine/internal/models"
)

// GlobalScope is the scope key covering every market.
const GlobalScope = "global"

// DefaultTTL bounds how stale a cached read may be.
const DefaultTTL = 10 * time.Second

// State is one switch record.
type State struct {
	Scope       string    `json:"scope"`
	Active      bool      `json:"active"`
	Reason      string    `json:"reason"`
	ActivatedBy string    `json:"activated_by"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Store persists switch state.
type Store interface {
	GetStates(ctx context.Context) (map[string]State, error)
	SetState(ctx context.Context, state State) error
}

// Switch answers "may this market release decisions" with reads served from
// a TTL cache over the Store.
type Switch struct {
	store Store
	ttl   time.Duration
	log   *logrus.Logger
	audit *logger.AuditLogger

	mu        sync.RWMutex
	states    map[string]State
	fetchedAt time.Time
}

// New creates a switch reading through store with the given cache TTL.
func New(store Store, ttl time.Duration, log *logrus.Logger) *Switch {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Switch{
		store:  store,
		ttl:    ttl,
		log:    log,
		audit:  logger.NewAuditLogger(log),
		states: make(map[string]State),
	}
}

// Activate turns the switch on for scope. Use GlobalScope or a market type.
func (s *Switch) Activate(ctx context.Context, scope, reason, actor string) error {
	return s.set(ctx, State{
		Scope:       scope,
		Active:      true,
		Reason:      reason,
		ActivatedBy: actor,
		UpdatedAt:   time.Now().UTC(),
	})
}

// Deactivate turns the switch off for scope.
func (s *Switch) Deactivate(ctx context.Context, scope, actor string) error {
	return s.set(ctx, State{
		Scope:       scope,
		Active:      false,
		ActivatedBy: actor,
		UpdatedAt:   time.Now().UTC(),
	})
}

func (s *Switch) set(ctx context.Context, state State) error {
	if err := s.store.SetState(ctx, state); err != nil {
		return err
	}

	s.mu.Lock()
	s.states[state.Scope] = state
	s.fetchedAt = time.Now()
	s.mu.Unlock()

	metrics.SetKillSwitch(state.Scope, state.Active)
	s.audit.LogKillSwitchEvent(state.Scope, state.Active, state.Reason, state.ActivatedBy, state.UpdatedAt)
	return nil
}

// IsActive reports whether scope (or the global scope) is switched on.
// A read error keeps the last cached view; when nothing has ever been
// fetched the switch fails closed and reports active.
func (s *Switch) IsActive(ctx context.Context, market models.MarketType) bool {
	states, ok := s.snapshot(ctx)
	if !ok {
		return true
	}
	if st, found := states[GlobalScope]; found && st.Active {
		return true
	}
	if st, found := states[string(market)]; found && st.Active {
		return true
	}
	return false
}

// ActiveState returns the state blocking market, if any.
func (s *Switch) ActiveState(ctx context.Context, market models.MarketType) (State, bool) {
	states, ok := s.snapshot(ctx)
	if !ok {
		return State{Scope: GlobalScope, Active: true, Reason: "kill switch state unavailable"}, true
	}
	if st, found := states[GlobalScope]; found && st.Active {
		return st, true
	}
	if st, found := states[string(market)]; found && st.Active {
		return st, true
	}
	return State{}, false
}

// AnyActive reports whether any scope is switched on.
func (s *Switch) AnyActive(ctx context.Context) bool {
	states, ok := s.snapshot(ctx)
	if !ok {
		return true
	}
	for _, st := range states {
		if st.Active {
			return true
		}
	}
	return false
}

func (s *Switch) snapshot(ctx context.Context) (map[string]State, bool) {
	s.mu.RLock()
	fresh := time.Since(s.fetchedAt) < s.ttl
	states := s.states
	fetched := !s.fetchedAt.IsZero()
	s.mu.RUnlock()

	if fresh {
		return states, true
	}

	loaded, err := s.store.GetStates(ctx)
	if err != nil {
		s.log.WithError(err).Error("Failed to refresh kill switch state")
		// Serve the stale view rather than flip decisions on a read error.
		return states, fetched
	}

	s.mu.Lock()
	s.states = loaded
	s.fetchedAt = time.Now()
	s.mu.Unlock()
	return loaded, true
}

// MemoryStore is an in-process Store for tests and single-node runs.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]State
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]State)}
}

// GetStates returns a copy of all states.
func (m *MemoryStore) GetStates(_ context.Context) (map[string]State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]State, len(m.states))
	for k, v := range m.states {
		out[k] = v
	}
	return out, nil
}

// SetState stores state under its scope.
func (m *MemoryStore) SetState(_ context.Context, state State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[state.Scope] = state
	return nil
}
