package espn

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/strideline/gridiron-live/internal/domain/feed"
	"github.com/strideline/gridiron-live/internal/platform/logging"
	"github.com/strideline/gridiron-live/internal/platform/resilience"
	"github.com/strideline/gridiron-live/internal/usecase"
)

const (
	defaultScoreboardURL = "https://site.api.espn.com/apis/site/v2/sports/football/nfl/scoreboard"
	defaultSummaryURL    = "https://site.api.espn.com/apis/site/v2/sports/football/nfl/summary"
)

// defaultLiveStatusNames are the scoreboard status type names that mark a
// game as worth polling for details.
var defaultLiveStatusNames = []string{
	"STATUS_IN_PROGRESS",
	"STATUS_HALFTIME",
	"STATUS_END_PERIOD",
}

var errESPNTransient = crerr.New("espn transient failure")

type ClientConfig struct {
	HTTPClient      *http.Client
	ScoreboardURL   string
	SummaryURL      string
	Timeout         time.Duration
	MaxRetries      int
	LiveStatusNames []string
	Logger          *logging.Logger
	CircuitBreaker  resilience.CircuitBreakerConfig
}

// Client fetches NFL scoreboard and game summary documents from the public
// ESPN site API. It satisfies usecase.GameFeed.
type Client struct {
	httpClient      *http.Client
	scoreboardURL   string
	summaryURL      string
	maxRetries      int
	liveStatusNames map[string]struct{}
	logger          *logging.Logger
	breaker         *resilience.CircuitBreaker
	circuitEnabled  bool
	flight          resilience.SingleFlight
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 10 * time.Second
	}

	scoreboardURL := strings.TrimSpace(cfg.ScoreboardURL)
	if scoreboardURL == "" {
		scoreboardURL = defaultScoreboardURL
	}
	summaryURL := strings.TrimSpace(cfg.SummaryURL)
	if summaryURL == "" {
		summaryURL = defaultSummaryURL
	}

	liveNames := cfg.LiveStatusNames
	if len(liveNames) == 0 {
		liveNames = defaultLiveStatusNames
	}
	liveSet := make(map[string]struct{}, len(liveNames))
	for _, name := range liveNames {
		name = strings.TrimSpace(name)
		if name != "" {
			liveSet[name] = struct{}{}
		}
	}

	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:      httpClient,
		scoreboardURL:   scoreboardURL,
		summaryURL:      summaryURL,
		maxRetries:      maxInt(cfg.MaxRetries, 0),
		liveStatusNames: liveSet,
		logger:          logger,
		breaker:         resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled:  breakerCfg.Enabled,
	}
}

// FetchScoreboard returns the current NFL scoreboard listing.
func (c *Client) FetchScoreboard(ctx context.Context) (feed.Scoreboard, error) {
	var scoreboard feed.Scoreboard
	if err := c.doJSON(ctx, c.scoreboardURL, nil, &scoreboard); err != nil {
		return feed.Scoreboard{}, fmt.Errorf("fetch scoreboard: %w", err)
	}
	return scoreboard, nil
}

// FetchGameSummary returns the boxscore/drives/winprobability document for
// one game.
func (c *Client) FetchGameSummary(ctx context.Context, gameID string) (feed.GameSummary, error) {
	gameID = strings.TrimSpace(gameID)
	if gameID == "" {
		return feed.GameSummary{}, fmt.Errorf("game id is required")
	}

	var summary feed.GameSummary
	if err := c.doJSON(ctx, c.summaryURL, map[string]string{"event": gameID}, &summary); err != nil {
		return feed.GameSummary{}, fmt.Errorf("fetch summary game_id=%s: %w", gameID, err)
	}
	return summary, nil
}

// LiveGameIDs filters the scoreboard down to games whose status type name is
// in the configured live set.
func (c *Client) LiveGameIDs(scoreboard feed.Scoreboard) []string {
	ids := make([]string, 0, len(scoreboard.Events))
	for _, event := range scoreboard.Events {
		if event.ID == "" || len(event.Competitions) == 0 {
			continue
		}
		statusName := event.Competitions[0].Status.Type.Name
		if _, ok := c.liveStatusNames[statusName]; ok {
			ids = append(ids, event.ID)
		}
	}
	return ids
}

func (c *Client) doJSON(ctx context.Context, endpoint string, query map[string]string, target any) error {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "espn circuit breaker rejected request", "state", c.breaker.State())
			return fmt.Errorf("%w: game feed is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	fullURL := endpoint
	if len(query) > 0 {
		values := url.Values{}
		for key, value := range query {
			values.Set(key, value)
		}
		fullURL += "?" + values.Encode()
	}

	out, err, _ := c.flight.Do(fullURL, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL)
		if c.circuitEnabled {
			if reqErr != nil && isESPNCircuitFailure(reqErr) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return fmt.Errorf("%w: %v", usecase.ErrFetchFailed, err)
	}

	raw, ok := out.([]byte)
	if !ok {
		return fmt.Errorf("unexpected response payload type %T", out)
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("%w: decode feed payload: %v", usecase.ErrFetchFailed, err)
	}

	return nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %v", errESPNTransient, err)
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
			_ = resp.Body.Close()
			if readErr != nil {
				lastErr = fmt.Errorf("%w: read response body: %v", errESPNTransient, readErr)
			} else if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return raw, nil
			} else if isRetryableStatus(resp.StatusCode) {
				lastErr = fmt.Errorf("%w: feed status=%d body=%s", errESPNTransient, resp.StatusCode, abbreviateBody(raw))
			} else {
				return nil, fmt.Errorf("feed status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("feed request failed")
	}
	c.logger.WarnContext(ctx, "espn request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}

func isESPNCircuitFailure(err error) bool {
	if err == nil {
		return false
	}
	return stderrors.Is(err, errESPNTransient)
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}

func maxInt(left, right int) int {
	if left > right {
		return left
	}
	return right
}
