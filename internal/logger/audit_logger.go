// Package logger provides audit logging.
package logger

import (
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Stage event names written to the audit sink.
const (
	StageInputPayload  = "input_payload"
	StageOutputPayload = "output_payload"
)

// AuditLogger provides the dedicated audit trail for the decision engine.
type AuditLogger struct {
	*logrus.Entry
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(baseLogger *logrus.Logger) *AuditLogger {
	return &AuditLogger{
		Entry: baseLogger.WithField("component", "audit"),
	}
}

// LogStageEvent records one structured stage event. Every evaluation writes
// an input_payload event before computing and an output_payload event after.
func (al *AuditLogger) LogStageEvent(stage string, traceID uuid.UUID, contextHash string, payload interface{}) {
	al.WithFields(logrus.Fields{
		"stage":        stage,
		"trace_id":     traceID.String(),
		"context_hash": contextHash,
		"payload":      payload,
	}).Info("Stage event recorded")
}

// LogDecisionComputed logs an approved market decision.
func (al *AuditLogger) LogDecisionComputed(decisionID, traceID uuid.UUID, gameID, marketType string, classification string, edgePoints float64, grade string) {
	al.WithFields(logrus.Fields{
		"decision_id":    decisionID.String(),
		"trace_id":       traceID.String(),
		"game_id":        gameID,
		"market_type":    marketType,
		"classification": classification,
		"edge_points":    edgePoints,
		"grade":          grade,
	}).Info("Market decision computed")
}

// LogDecisionBlocked logs a gate failure producing a blocked decision.
func (al *AuditLogger) LogDecisionBlocked(decisionID, traceID uuid.UUID, gameID, marketType, releaseStatus, blockedReason string) {
	al.WithFields(logrus.Fields{
		"decision_id":    decisionID.String(),
		"trace_id":       traceID.String(),
		"game_id":        gameID,
		"market_type":    marketType,
		"release_status": releaseStatus,
		"blocked_reason": blockedReason,
	}).Warn("Market decision blocked")
}

// LogStatusTransition logs a simulation result status change, e.g. the market
// monitor flipping a cached result to price_moved.
func (al *AuditLogger) LogStatusTransition(contextHash, gameID, marketType, oldStatus, newStatus, reason string) {
	al.WithFields(logrus.Fields{
		"context_hash": contextHash,
		"game_id":      gameID,
		"market_type":  marketType,
		"old_status":   oldStatus,
		"new_status":   newStatus,
		"reason":       reason,
	}).Info("Simulation status transition")
}

// LogKillSwitchEvent logs kill switch activation and deactivation.
func (al *AuditLogger) LogKillSwitchEvent(scope string, active bool, reason, actor string, changedAt time.Time) {
	al.WithFields(logrus.Fields{
		"scope":      scope,
		"active":     active,
		"reason":     reason,
		"actor":      actor,
		"changed_at": changedAt.Unix(),
	}).Warn("Kill switch state changed")
}
