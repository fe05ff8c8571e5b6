package decision

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/edge-engine/internal/direction"
	"github.com/yourusername/edge-engine/internal/logger"
	"github.com/yourusername/edge-engine/internal/metrics"
	"github.com/yourusername/edge-engine/internal/models"
)

// Computer turns simulation output plus live odds into decision records.
type Computer struct {
	cfg   Config
	log   *logrus.Logger
	audit *logger.AuditLogger
}

// NewComputer creates a decision computer.
func NewComputer(cfg Config, log *logrus.Logger) *Computer {
	return &Computer{
		cfg:   cfg,
		log:   log,
		audit: logger.NewAuditLogger(log),
	}
}

// ComputeCycle produces the full slate of market decisions for one game.
// Every decision in the returned slice shares the cycle's trace id, version,
// and computed-at timestamp.
func (c *Computer) ComputeCycle(cycle Cycle, in GameInput) []MarketDecision {
	c.audit.LogStageEvent(logger.StageInputPayload, cycle.TraceID, inputsHash(in), in)

	decisions := []MarketDecision{
		c.ComputeSpread(cycle, in),
		c.ComputeTotal(cycle, in),
	}

	c.audit.LogStageEvent(logger.StageOutputPayload, cycle.TraceID, inputsHash(in), decisions)
	return decisions
}

// ComputeSpread evaluates the spread market through the ordered gates.
// Gate order (integrity -> odds alignment -> freshness) decides which
// blocked_by reason surfaces first and must not be reordered.
func (c *Computer) ComputeSpread(cycle Cycle, in GameInput) MarketDecision {
	sim := in.Spread
	if sim == nil {
		return c.blocked(cycle, in, models.MarketSpread, Debug{}, models.BlockedByMissingSim, "no completed spread simulation for this game")
	}

	debug := Debug{
		InputsHash:      sim.ContextHash,
		OddsTimestamp:   in.Live.CapturedAt,
		SimRunID:        sim.SimRunID,
		TraceID:         cycle.TraceID,
		ConfigProfile:   c.cfg.Profile,
		DecisionVersion: cycle.Version,
		ComputedAt:      cycle.ComputedAt,
	}

	if g := c.checkDirectionalIntegrity(sim.FairHomeMargin, sim.HomeCoverProbability); g != nil {
		return c.blockedWithRisk(cycle, in, models.MarketSpread, debug, g, sim.Volatility, sim.InjuryImpactPoints)
	}
	if g := c.checkOddsAlignment(sim.AssumedHomeLine, sim.AssumedHomeOdds, in.Live.HomeLine, in.Live.HomeOdds); g != nil {
		return c.blockedWithRisk(cycle, in, models.MarketSpread, debug, g, sim.Volatility, sim.InjuryImpactPoints)
	}
	if g := c.checkFreshness(sim.ComputedAt, cycle.ComputedAt); g != nil {
		return c.blockedWithRisk(cycle, in, models.MarketSpread, debug, g, sim.Volatility, sim.InjuryImpactPoints)
	}

	// Higher-probability side gets the pick; ties go to home.
	fairHomeLine := sim.FairHomeLine()
	pickHome := sim.HomeCoverProbability >= 0.5

	homeSide := direction.Side{TeamID: in.HomeTeam, MarketLine: in.Live.HomeLine, FairLine: fairHomeLine}
	awaySide := direction.Opposite(in.AwayTeam, homeSide)
	resolution := direction.Resolve(homeSide, awaySide)

	pickTeam, pickLine, pickFairLine, pickProb := in.HomeTeam, in.Live.HomeLine, fairHomeLine, sim.HomeCoverProbability
	pickDevig := sim.HomeDevigProbability
	if !pickHome {
		pickTeam, pickLine, pickFairLine = in.AwayTeam, -in.Live.HomeLine, -fairHomeLine
		pickProb = 1 - sim.HomeCoverProbability
		pickDevig = 1 - sim.HomeDevigProbability
	}

	// The probability-selected view and the direction resolver's view are
	// two renderings of the same recommendation and must agree.
	if err := direction.VerifyAgreement(
		direction.View{TeamID: pickTeam, Line: pickLine},
		resolution.View(),
		c.cfg.StrictInvariants,
	); err != nil {
		c.log.WithError(err).Error("direction resolver disagrees with probability pick")
		g := &gateResult{status: models.BlockedByIntegrity, reason: "direction and preference views disagree"}
		return c.blockedWithRisk(cycle, in, models.MarketSpread, debug, g, sim.Volatility, sim.InjuryImpactPoints)
	}

	edgePoints := edgeBetween(pickLine, pickFairLine)
	classification := c.classifyEdge(edgePoints, pickProb)
	fairSelection := fmt.Sprintf("%s %+.1f fair", pickTeam, pickFairLine)

	d := MarketDecision{
		DecisionID:    uuid.New(),
		TraceID:       cycle.TraceID,
		LeagueID:      in.LeagueID,
		GameID:        in.GameID,
		MarketType:    models.MarketSpread,
		Pick:          &Pick{TeamID: pickTeam, Selection: fmt.Sprintf("%s %+.1f", pickTeam, pickLine), Line: pickLine, Label: resolution.Label.DisplayCopy()},
		HomeSelection: in.HomeTeam,
		AwaySelection: in.AwayTeam,
		Model:         &Model{FairLine: pickFairLine},
		FairSelection: &fairSelection,
		Probabilities: &Probabilities{Model: pickProb, MarketDevig: pickDevig},
		Edge:          &Edge{Points: edgePoints, Grade: gradeFor(edgePoints)},
		Classification: &classification,
		ReleaseStatus:  models.ReleaseApproved,
		Reasons:        edgeReasons(edgePoints, pickFairLine, pickLine),
		Risk: Risk{
			VolatilityFlag:     sim.Volatility == models.VolatilityHigh,
			InjuryImpactPoints: sim.InjuryImpactPoints,
		},
		Debug: debug,
	}

	d = c.validateStructure(d)
	if d.Blocked() {
		return d
	}

	metrics.DecisionsComputedTotal.Inc()
	c.audit.LogDecisionComputed(d.DecisionID, d.TraceID, d.GameID, string(d.MarketType), string(classification), edgePoints, string(d.Edge.Grade))
	return d
}

// ComputeTotal evaluates the total market; the gate set is analogous to the
// spread's with over/under in place of home/away.
func (c *Computer) ComputeTotal(cycle Cycle, in GameInput) MarketDecision {
	sim := in.Total
	if sim == nil {
		return c.blocked(cycle, in, models.MarketTotal, Debug{}, models.BlockedByMissingSim, "no completed total simulation for this game")
	}

	debug := Debug{
		InputsHash:      sim.ContextHash,
		OddsTimestamp:   in.Live.CapturedAt,
		SimRunID:        sim.SimRunID,
		TraceID:         cycle.TraceID,
		ConfigProfile:   c.cfg.Profile,
		DecisionVersion: cycle.Version,
		ComputedAt:      cycle.ComputedAt,
	}

	// Gate A for totals: the over probability must agree with the sign of
	// (fair total - assumed total).
	if g := c.checkDirectionalIntegrity(sim.FairTotal-sim.AssumedTotal, sim.OverProbability); g != nil {
		return c.blockedWithRisk(cycle, in, models.MarketTotal, debug, g, sim.Volatility, sim.InjuryImpactPoints)
	}
	if g := c.checkOddsAlignment(sim.AssumedTotal, sim.AssumedOverOdds, in.Live.Total, in.Live.OverOdds); g != nil {
		return c.blockedWithRisk(cycle, in, models.MarketTotal, debug, g, sim.Volatility, sim.InjuryImpactPoints)
	}
	if g := c.checkFreshness(sim.ComputedAt, cycle.ComputedAt); g != nil {
		return c.blockedWithRisk(cycle, in, models.MarketTotal, debug, g, sim.Volatility, sim.InjuryImpactPoints)
	}

	pickOver := sim.OverProbability >= 0.5
	selection, label := "over", "take the over"
	pickProb, pickDevig := sim.OverProbability, sim.OverDevigProbability
	if !pickOver {
		selection, label = "under", "take the under"
		pickProb = 1 - sim.OverProbability
		pickDevig = 1 - sim.OverDevigProbability
	}

	edgePoints := edgeBetween(in.Live.Total, sim.FairTotal)
	classification := c.classifyEdge(edgePoints, pickProb)
	fairSelection := fmt.Sprintf("%s %.1f fair", selection, sim.FairTotal)

	d := MarketDecision{
		DecisionID:    uuid.New(),
		TraceID:       cycle.TraceID,
		LeagueID:      in.LeagueID,
		GameID:        in.GameID,
		MarketType:    models.MarketTotal,
		Pick:          &Pick{TeamID: selection, Selection: fmt.Sprintf("%s %.1f", selection, in.Live.Total), Line: in.Live.Total, Label: label},
		HomeSelection: in.HomeTeam,
		AwaySelection: in.AwayTeam,
		Model:         &Model{FairLine: sim.FairTotal},
		FairSelection: &fairSelection,
		Probabilities: &Probabilities{Model: pickProb, MarketDevig: pickDevig},
		Edge:          &Edge{Points: edgePoints, Grade: gradeFor(edgePoints)},
		Classification: &classification,
		ReleaseStatus:  models.ReleaseApproved,
		Reasons:        edgeReasons(edgePoints, sim.FairTotal, in.Live.Total),
		Risk: Risk{
			VolatilityFlag:     sim.Volatility == models.VolatilityHigh,
			InjuryImpactPoints: sim.InjuryImpactPoints,
		},
		Debug: debug,
	}

	d = c.validateStructure(d)
	if d.Blocked() {
		return d
	}

	metrics.DecisionsComputedTotal.Inc()
	c.audit.LogDecisionComputed(d.DecisionID, d.TraceID, d.GameID, string(d.MarketType), string(classification), edgePoints, string(d.Edge.Grade))
	return d
}

func (c *Computer) blocked(cycle Cycle, in GameInput, mt models.MarketType, debug Debug, status models.ReleaseStatus, reason string) MarketDecision {
	debug.TraceID = cycle.TraceID
	debug.ConfigProfile = c.cfg.Profile
	debug.DecisionVersion = cycle.Version
	debug.ComputedAt = cycle.ComputedAt

	d := MarketDecision{
		DecisionID:    uuid.New(),
		TraceID:       cycle.TraceID,
		LeagueID:      in.LeagueID,
		GameID:        in.GameID,
		MarketType:    mt,
		HomeSelection: in.HomeTeam,
		AwaySelection: in.AwayTeam,
		ReleaseStatus: status,
		Reasons:       []string{},
		Risk:          Risk{BlockedReason: &reason},
		Debug:         debug,
	}

	metrics.DecisionsBlockedTotal.WithLabelValues(string(status)).Inc()
	c.audit.LogDecisionBlocked(d.DecisionID, d.TraceID, d.GameID, string(mt), string(status), reason)
	return d
}

func (c *Computer) blockedWithRisk(cycle Cycle, in GameInput, mt models.MarketType, debug Debug, g *gateResult, vol models.Volatility, injuryImpact float64) MarketDecision {
	d := c.blocked(cycle, in, mt, debug, g.status, g.reason)
	d.Risk.VolatilityFlag = vol == models.VolatilityHigh
	d.Risk.InjuryImpactPoints = injuryImpact
	return d
}

// validateStructure is the post-hoc structural check: an approved decision
// whose pick references a selection outside the market is downgraded to
// blocked_by_integrity even though classification succeeded.
func (c *Computer) validateStructure(d MarketDecision) MarketDecision {
	if d.Blocked() || d.Pick == nil {
		return d
	}

	valid := false
	switch d.MarketType {
	case models.MarketSpread:
		valid = d.Pick.TeamID == d.HomeSelection || d.Pick.TeamID == d.AwaySelection
	case models.MarketTotal:
		valid = d.Pick.TeamID == "over" || d.Pick.TeamID == "under"
	default:
		valid = true
	}
	if valid {
		return d
	}

	c.log.WithFields(logrus.Fields{
		"decision_id": d.DecisionID.String(),
		"pick_team":   d.Pick.TeamID,
	}).Error("structural validation failed after classification")

	reason := fmt.Sprintf("structural validation failed: pick %q is not a market selection", d.Pick.TeamID)
	return c.blocked(Cycle{TraceID: d.TraceID, Version: d.Debug.DecisionVersion, ComputedAt: d.Debug.ComputedAt},
		GameInput{LeagueID: d.LeagueID, GameID: d.GameID, HomeTeam: d.HomeSelection, AwayTeam: d.AwaySelection},
		d.MarketType, d.Debug, models.BlockedByIntegrity, reason)
}

// inputsHash gives the audit sink a stable short identifier for the cycle's
// inputs without re-serializing the whole payload.
func inputsHash(in GameInput) string {
	if in.Spread != nil {
		return in.Spread.ContextHash
	}
	if in.Total != nil {
		return in.Total.ContextHash
	}
	return ""
}
