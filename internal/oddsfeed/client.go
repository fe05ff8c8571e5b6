package oddsfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/edge-engine/internal/config"
	"github.com/yourusername/edge-engine/internal/decision"
)

const (
	dateLayout = time.RFC3339
)

// Client fetches live odds from the provider's REST API
type Client struct {
	httpClient *RateLimitedHTTPClient
	baseURL    string
	apiKey     string
	log        *logrus.Logger
}

// marketOddsResponse is the provider's wire format for one game's markets
type marketOddsResponse struct {
	GameID    string `json:"gameId"`
	LeagueID  string `json:"leagueId"`
	Timestamp string `json:"timestamp"`
	Spread    struct {
		HomeLine float64 `json:"homeLine"`
		HomeOdds int     `json:"homeOdds"`
		AwayOdds int     `json:"awayOdds"`
	} `json:"spread"`
	Total struct {
		Line      float64 `json:"line"`
		OverOdds  int     `json:"overOdds"`
		UnderOdds int     `json:"underOdds"`
	} `json:"total"`
}

// NewClient creates a new odds feed client from configuration
func NewClient(cfg *config.OddsFeedConfig, log *logrus.Logger) *Client {
	httpCfg := DefaultHTTPClientConfig()
	httpCfg.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	httpCfg.MaxRetries = cfg.RetryAttempts
	httpCfg.RateLimit = cfg.RequestsPerSecond
	httpCfg.Burst = cfg.BurstSize

	return &Client{
		httpClient: NewRateLimitedHTTPClient(httpCfg, log),
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		log:        log,
	}
}

// FetchGameOdds retrieves the current odds snapshot for one game
func (c *Client) FetchGameOdds(ctx context.Context, gameID string) (*decision.LiveOdds, error) {
	endpoint := fmt.Sprintf("%s/v1/games/%s/odds", c.baseURL, url.PathEscape(gameID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch odds for game %s: %w", gameID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("no odds available for game %s", gameID)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("odds feed returned status %d for game %s", resp.StatusCode, gameID)
	}

	var payload marketOddsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode odds response: %w", err)
	}

	return toLiveOdds(&payload)
}

// toLiveOdds converts the wire payload to the engine's odds view. The
// provider timestamp is authoritative; a missing timestamp yields a zero
// CapturedAt so the capture time is visibly unknown rather than defaulting
// to fetch time.
func toLiveOdds(payload *marketOddsResponse) (*decision.LiveOdds, error) {
	odds := &decision.LiveOdds{
		HomeLine:  payload.Spread.HomeLine,
		HomeOdds:  payload.Spread.HomeOdds,
		AwayOdds:  payload.Spread.AwayOdds,
		Total:     payload.Total.Line,
		OverOdds:  payload.Total.OverOdds,
		UnderOdds: payload.Total.UnderOdds,
	}

	if payload.Timestamp != "" {
		ts, err := time.Parse(dateLayout, payload.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("invalid odds timestamp %q: %w", payload.Timestamp, err)
		}
		odds.CapturedAt = ts.UTC()
	}

	return odds, nil
}

// Close releases the underlying HTTP client resources
func (c *Client) Close() error {
	return c.httpClient.Close()
}
