// Package direction resolves which side of a two-sided market carries the
// edge and derives display copy that cannot contradict the decision side.
//
// Sign convention: negative line = favorite (laying points), positive line =
// underdog (receiving points). The opposite side's lines are always the
// arithmetic negation of the first side's; they are never independently
// supplied or computed.
package direction

import (
	"fmt"
	"math"
)

// agreementTolerance is the floating-point slack allowed between two views of
// the same resolution.
const agreementTolerance = 1e-6

// Label is derived purely from the sign of the winning side's market line.
type Label string

const (
	LabelTakeThePoints Label = "take_the_points"
	LabelLayThePoints  Label = "lay_the_points"
	LabelPickem        Label = "pickem"
)

// DisplayCopy returns the human-readable rendering of the label.
func (l Label) DisplayCopy() string {
	switch l {
	case LabelTakeThePoints:
		return "take the points"
	case LabelLayThePoints:
		return "lay the points"
	case LabelPickem:
		return "pick'em / no edge"
	default:
		return string(l)
	}
}

// Side is one team's view of the market, both lines in the same coordinate
// system.
type Side struct {
	TeamID     string
	MarketLine float64
	FairLine   float64
}

// EdgePoints is the signed gap between what the market offers and what the
// model considers fair, in the side's own coordinate system.
func EdgePoints(marketLine, fairLine float64) float64 {
	return marketLine - fairLine
}

// Resolution is the winning side plus its derived label.
type Resolution struct {
	TeamID     string
	MarketLine float64
	FairLine   float64
	EdgePoints float64
	Label      Label
}

// Resolve picks the side with the strictly larger edge. Ties resolve to the
// first side, identically on every call with identical inputs.
func Resolve(a, b Side) Resolution {
	edgeA := EdgePoints(a.MarketLine, a.FairLine)
	edgeB := EdgePoints(b.MarketLine, b.FairLine)

	winner, edge := a, edgeA
	if edgeB > edgeA {
		winner, edge = b, edgeB
	}

	return Resolution{
		TeamID:     winner.TeamID,
		MarketLine: winner.MarketLine,
		FairLine:   winner.FairLine,
		EdgePoints: edge,
		Label:      labelFor(winner.MarketLine),
	}
}

// Opposite derives the other side of a market by negation.
func Opposite(teamID string, s Side) Side {
	return Side{TeamID: teamID, MarketLine: -s.MarketLine, FairLine: -s.FairLine}
}

func labelFor(marketLine float64) Label {
	switch {
	case marketLine > 0:
		return LabelTakeThePoints
	case marketLine < 0:
		return LabelLayThePoints
	default:
		return LabelPickem
	}
}

// View is any downstream rendering of a resolution: a "preference" view, a
// "direction" view, a message template, and so on.
type View struct {
	TeamID string
	Line   float64
}

// View returns the resolution's own canonical view.
func (r Resolution) View() View {
	return View{TeamID: r.TeamID, Line: r.MarketLine}
}

// VerifyAgreement asserts that two views built from the same resolution
// reference the same team and the same signed line. A mismatch is a
// programmer error: with strict set (test/staging builds) it panics,
// otherwise it returns the error for the caller to convert into a blocked
// output.
func VerifyAgreement(a, b View, strict bool) error {
	if a.TeamID == b.TeamID && math.Abs(a.Line-b.Line) <= agreementTolerance {
		return nil
	}
	err := fmt.Errorf("direction views disagree: %s %.2f vs %s %.2f", a.TeamID, a.Line, b.TeamID, b.Line)
	if strict {
		panic(err)
	}
	return err
}
