// Package simcontext defines the immutable simulation context and its
// content-addressed identity: canonical hash, deterministic seed, and
// rerun-eligibility comparison.
package simcontext

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/yourusername/edge-engine/internal/models"
	"github.com/yourusername/edge-engine/internal/odds"
)

// Float precision used in canonical serialization. Inputs that differ below
// this precision hash identically on purpose.
const canonicalPlaces = 4

// ShortHashLen is the display prefix length; equality always uses the full digest.
const ShortHashLen = 12

// Context is an immutable snapshot of every input a simulation depends on.
// Construct one per evaluation request and never mutate it; any changed field
// means a new Context.
type Context struct {
	GameID   string `json:"game_id" validate:"required"`
	LeagueID string `json:"league_id" validate:"required"`
	HomeTeam string `json:"home_team" validate:"required"`
	AwayTeam string `json:"away_team" validate:"required"`

	ModelVersion    string `json:"model_version" validate:"required"`
	EngineVersion   string `json:"engine_version" validate:"required"`
	DataFeedVersion string `json:"data_feed_version" validate:"required"`

	Market   models.MarketSnapshot   `json:"market" validate:"required"`
	Injuries []models.InjurySnapshot `json:"injuries"`

	Pace    *float64 `json:"pace,omitempty"`
	Fatigue *float64 `json:"fatigue,omitempty"`
	Weather *string  `json:"weather,omitempty"`

	Trials       int    `json:"trials" validate:"required,gt=0"`
	SeedOverride *int64 `json:"seed_override,omitempty"`
}

// canonical builds the deterministic serialization the hash is defined over.
// Keys are emitted in fixed sorted order, floats at fixed precision, and
// timestamps as UTC RFC3339. Market and injury timestamps participate; no
// other wall-clock value does.
func (c Context) canonical() string {
	var b strings.Builder

	writeKV := func(k, v string) {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(v)
		b.WriteByte('\n')
	}
	writeF := func(k string, v float64) {
		writeKV(k, odds.FormatCanonical(v, canonicalPlaces))
	}

	writeKV("away_team", c.AwayTeam)
	writeKV("data_feed_version", c.DataFeedVersion)
	writeKV("engine_version", c.EngineVersion)
	if c.Fatigue != nil {
		writeF("fatigue", *c.Fatigue)
	}
	writeKV("game_id", c.GameID)
	writeKV("home_team", c.HomeTeam)

	injuries := append([]models.InjurySnapshot(nil), c.Injuries...)
	sort.Slice(injuries, func(i, j int) bool { return injuries[i].PlayerID < injuries[j].PlayerID })
	for _, inj := range injuries {
		prefix := "injury." + inj.PlayerID
		writeKV(prefix+".status", inj.Status)
		writeF(prefix+".minutes", inj.MinutesProjection)
		writeKV(prefix+".team", inj.Team)
		writeKV(prefix+".updated_at", inj.UpdatedAt.UTC().Format(time.RFC3339))
	}

	writeKV("league_id", c.LeagueID)
	writeKV("market.book_id", c.Market.BookID)
	writeKV("market.captured_at", c.Market.CapturedAt.UTC().Format(time.RFC3339))
	writeF("market.decimal_odds", c.Market.DecimalOdds)
	writeF("market.devig_prob", c.Market.DevigProb)
	writeF("market.implied_prob", c.Market.ImpliedProb)
	writeF("market.line", c.Market.Line)
	writeKV("market.odds", fmt.Sprintf("%d", c.Market.AmericanOdds))
	writeKV("market.selection", c.Market.Selection)
	writeKV("market.type", string(c.Market.Type))
	writeKV("model_version", c.ModelVersion)
	if c.Pace != nil {
		writeF("pace", *c.Pace)
	}
	writeKV("trials", fmt.Sprintf("%d", c.Trials))
	if c.Weather != nil {
		writeKV("weather", *c.Weather)
	}

	return b.String()
}

// Hash returns the full hex digest of the canonical serialization. Identical
// inputs (down to canonical float precision) always hash identically.
func (c Context) Hash() string {
	sum := sha256.Sum256([]byte(c.canonical()))
	return hex.EncodeToString(sum[:])
}

// ShortHash returns the display prefix of Hash.
func (c Context) ShortHash() string {
	return c.Hash()[:ShortHashLen]
}

// DeterministicSeed derives the RNG seed for this context. An explicit
// override is returned verbatim (test/debug escape hatch). Otherwise the seed
// is a fixed-width non-negative reduction of
// gameId : marketType : contextHash : modelVersion.
func (c Context) DeterministicSeed() int64 {
	if c.SeedOverride != nil {
		return *c.SeedOverride
	}
	material := fmt.Sprintf("%s:%s:%s:%s", c.GameID, c.Market.Type, c.Hash(), c.ModelVersion)
	sum := sha256.Sum256([]byte(material))
	return int64(binary.BigEndian.Uint64(sum[:8]) & math.MaxInt64)
}
