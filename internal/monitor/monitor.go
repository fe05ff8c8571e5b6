package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/edge-engine/internal/config"
	"github.com/yourusername/edge-engine/internal/logger"
	"github.com/yourusername/edge-engine/internal/metrics"
	"github.com/yourusername/edge-engine/internal/models"
	"github.com/yourusername/edge-engine/internal/simcache"
	"github.com/yourusername/edge-engine/internal/simcontext"
)

// ResultMarker records status transitions on persisted simulation results.
type ResultMarker interface {
	MarkStatus(ctx context.Context, contextHash, gameID string, marketType models.MarketType, status models.SimStatus) error
}

// entry is one watched market, keyed by the context its cached result was
// priced against. Stream updates are always compared to this original
// context, never to the last line seen.
type entry struct {
	simCtx simcontext.Context
}

// Monitor holds registered simulation contexts and demotes their cached
// results when the live market moves materially away from them, or when the
// odds snapshot ages past the freshness window. Demotion only transitions
// status; numbers computed from the original context are never rewritten.
type Monitor struct {
	cfg    *config.MonitorConfig
	stream *StreamClient
	cache  *simcache.Cache
	marker ResultMarker
	cron   *cron.Cron
	log    *logrus.Logger
	audit  *logger.AuditLogger

	mu      sync.RWMutex
	entries map[string]*entry

	freshness time.Duration
}

// New creates a market monitor.
func New(cfg *config.MonitorConfig, cache *simcache.Cache, marker ResultMarker, freshness time.Duration, log *logrus.Logger) *Monitor {
	m := &Monitor{
		cfg:       cfg,
		stream:    NewStreamClient(cfg.StreamURL, "", cfg.ReconnectDelay(), log),
		cache:     cache,
		marker:    marker,
		cron:      cron.New(cron.WithLocation(time.UTC)),
		log:       log,
		audit:     logger.NewAuditLogger(log),
		entries:   make(map[string]*entry),
		freshness: freshness,
	}
	m.stream.AddHandler(m.handleUpdate)
	return m
}

func entryKey(gameID string, marketType models.MarketType) string {
	return gameID + ":" + string(marketType)
}

// Register watches the market a simulation context was priced against.
// Re-registering the same market replaces the previous context.
func (m *Monitor) Register(simCtx simcontext.Context) {
	m.mu.Lock()
	m.entries[entryKey(simCtx.GameID, simCtx.Market.Type)] = &entry{simCtx: simCtx}
	count := len(m.entries)
	m.mu.Unlock()

	metrics.MonitoredMarkets.Set(float64(count))
}

// Unregister stops watching a market.
func (m *Monitor) Unregister(gameID string, marketType models.MarketType) {
	m.mu.Lock()
	delete(m.entries, entryKey(gameID, marketType))
	count := len(m.entries)
	m.mu.Unlock()

	metrics.MonitoredMarkets.Set(float64(count))
}

// Start connects the stream, subscribes to registered games, and schedules
// the freshness sweep.
func (m *Monitor) Start(ctx context.Context) error {
	if err := m.stream.Connect(ctx); err != nil {
		return err
	}

	m.mu.RLock()
	gameIDs := make([]string, 0, len(m.entries))
	seen := make(map[string]bool)
	for _, e := range m.entries {
		if !seen[e.simCtx.GameID] {
			seen[e.simCtx.GameID] = true
			gameIDs = append(gameIDs, e.simCtx.GameID)
		}
	}
	m.mu.RUnlock()

	if err := m.stream.Subscribe(gameIDs, m.cfg.Markets); err != nil {
		return err
	}

	if _, err := m.cron.AddFunc(m.cfg.FreshnessSweepCron, m.sweepStale); err != nil {
		return fmt.Errorf("failed to schedule freshness sweep: %w", err)
	}
	m.cron.Start()

	return nil
}

// Stop shuts down the stream and the sweep scheduler.
func (m *Monitor) Stop() {
	stopCtx := m.cron.Stop()
	<-stopCtx.Done()
	if err := m.stream.Close(); err != nil {
		m.log.WithError(err).Warn("Failed to close stream")
	}
}

// handleUpdate applies one stream line update to the watched entry, if any.
func (m *Monitor) handleUpdate(update LineUpdate) error {
	marketType := models.MarketType(update.MarketType)
	if !marketType.Valid() {
		return fmt.Errorf("unknown market type %q in stream update", update.MarketType)
	}

	m.mu.RLock()
	e, ok := m.entries[entryKey(update.GameID, marketType)]
	m.mu.RUnlock()
	if !ok {
		return nil
	}

	moved, reason := m.evaluate(e.simCtx, update)
	if !moved {
		return nil
	}

	m.demote(e.simCtx, models.SimPriceMoved, reason)
	return nil
}

// evaluate builds the candidate context implied by the update and asks the
// rerun policy whether the stored result still stands. Line and odds deltas
// come from the monitor config; non-market thresholds stay at the reference
// values.
func (m *Monitor) evaluate(simCtx simcontext.Context, update LineUpdate) (bool, string) {
	candidate := simCtx
	candidate.Market.Line = update.Line
	if update.HomeOdds != 0 {
		candidate.Market.AmericanOdds = update.HomeOdds
	}

	th := simcontext.DefaultRerunThresholds()
	if m.cfg.LineMoveThreshold > 0 {
		th.LineDelta = m.cfg.LineMoveThreshold
	}
	if m.cfg.OddsMoveThreshold > 0 {
		th.OddsDelta = m.cfg.OddsMoveThreshold
	}
	return simcontext.EligibleForRerunWith(simCtx, candidate, th)
}

// sweepStale demotes every entry whose odds snapshot has aged out.
func (m *Monitor) sweepStale() {
	cutoff := time.Now().Add(-m.freshness)

	m.mu.RLock()
	var stale []simcontext.Context
	for _, e := range m.entries {
		if e.simCtx.Market.CapturedAt.Before(cutoff) {
			stale = append(stale, e.simCtx)
		}
	}
	m.mu.RUnlock()

	for _, simCtx := range stale {
		m.demote(simCtx, models.SimInvalidated, "odds snapshot stale")
		m.Unregister(simCtx.GameID, simCtx.Market.Type)
	}
}

// demote transitions the cached and persisted result for a context.
func (m *Monitor) demote(simCtx simcontext.Context, status models.SimStatus, reason string) {
	hash := simCtx.Hash()
	key := simcache.Key{
		ContextHash: hash,
		GameID:      simCtx.GameID,
		MarketType:  simCtx.Market.Type,
	}
	oldStatus, _ := m.cache.Transition(key, status)

	if m.marker != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := m.marker.MarkStatus(ctx, hash, simCtx.GameID, simCtx.Market.Type, status); err != nil && err != models.ErrNotFound {
			m.log.WithError(err).Warn("Failed to persist status transition")
		}
		cancel()
	}

	if status == models.SimPriceMoved {
		metrics.PriceMovedTransitionsTotal.Inc()
	}

	m.audit.LogStatusTransition(hash, simCtx.GameID, string(simCtx.Market.Type), string(oldStatus), string(status), reason)
}

// Watched returns the number of markets currently being monitored.
func (m *Monitor) Watched() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
