package frcevents

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/frc-sh/scores-api/internal/domain/match"
	"github.com/frc-sh/scores-api/internal/platform/logging"
	"github.com/frc-sh/scores-api/internal/platform/resilience"
	"github.com/frc-sh/scores-api/internal/usecase"
)

const defaultBaseURL = "https://frc-api.firstinspires.org/v3.0"

// Events without a posted game manifest answer score requests with a 500
// carrying this marker instead of an empty list.
const unregisteredEventMarker = "has not been registered"

const (
	levelQualification = "Qualification"
	levelPlayoff       = "Playoff"
)

var errFRCTransient = crerr.New("frc events transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Username       string
	APIKey         string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client reads match schedules and scores from the FIRST Events API.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	username       string
	apiKey         string
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
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
		httpClient.Timeout = 20 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		username:       strings.TrimSpace(cfg.Username),
		apiKey:         strings.TrimSpace(cfg.APIKey),
		maxRetries:     maxRetries,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

type scheduleEnvelope struct {
	Schedule []apiScheduleMatch `json:"Schedule"`
}

type apiScheduleMatch struct {
	MatchNumber     int               `json:"matchNumber"`
	TournamentLevel string            `json:"tournamentLevel"`
	StartTime       *string           `json:"startTime"`
	Teams           []apiScheduleTeam `json:"teams"`
}

type apiScheduleTeam struct {
	TeamNumber *int   `json:"teamNumber"`
	Station    string `json:"station"`
}

type scoresEnvelope struct {
	MatchScores []apiMatchScore `json:"MatchScores"`
}

type apiMatchScore struct {
	MatchLevel      string             `json:"matchLevel"`
	MatchNumber     int                `json:"matchNumber"`
	WinningAlliance *int               `json:"winningAlliance"`
	Alliances       []apiAllianceScore `json:"alliances"`
}

type apiAllianceScore struct {
	Alliance    string `json:"alliance"`
	TotalPoints int    `json:"totalPoints"`
	FoulPoints  int    `json:"foulPoints"`
}

// GetSchedule returns the qualification and playoff schedules merged into
// one list.
func (c *Client) GetSchedule(ctx context.Context, year int, eventCode string) ([]usecase.ExternalScheduleMatch, error) {
	var out []usecase.ExternalScheduleMatch
	for _, tournamentLevel := range []string{levelQualification, levelPlayoff} {
		path := fmt.Sprintf("/%d/schedule/%s?tournamentLevel=%s", year, eventCode, tournamentLevel)

		var envelope scheduleEnvelope
		if err := c.doJSON(ctx, path, &envelope); err != nil {
			return nil, fmt.Errorf("fetch %s schedule year=%d event=%s: %w", strings.ToLower(tournamentLevel), year, eventCode, err)
		}

		for _, item := range envelope.Schedule {
			sched, err := mapScheduleMatch(item, tournamentLevel)
			if err != nil {
				return nil, fmt.Errorf("schedule year=%d event=%s: %w", year, eventCode, err)
			}
			out = append(out, sched)
		}
	}
	return out, nil
}

// ListScores returns the scored matches for one tournament level. An event
// whose game manifest is not registered yet reports no scores.
func (c *Client) ListScores(ctx context.Context, year int, eventCode string, level match.Level) ([]usecase.ExternalMatchScore, error) {
	tournamentLevel := levelQualification
	if level == match.LevelPlayoffs {
		tournamentLevel = levelPlayoff
	}
	path := fmt.Sprintf("/%d/scores/%s/%s", year, eventCode, tournamentLevel)

	var envelope scoresEnvelope
	if err := c.doJSON(ctx, path, &envelope); err != nil {
		if isUnregisteredEvent(err) {
			c.logger.DebugContext(ctx, "event has no registered score manifest", "year", year, "event", eventCode)
			return nil, nil
		}
		return nil, fmt.Errorf("fetch %s scores year=%d event=%s: %w", string(level), year, eventCode, err)
	}

	out := make([]usecase.ExternalMatchScore, 0, len(envelope.MatchScores))
	for _, item := range envelope.MatchScores {
		// The reported winner is authoritative: playoff ties on points can
		// still have a winner through tiebreaker criteria. Nil means a tie.
		score := usecase.ExternalMatchScore{
			Level:           level,
			Number:          item.MatchNumber,
			WinningAlliance: item.WinningAlliance,
		}
		for _, alliance := range item.Alliances {
			score.Alliances = append(score.Alliances, usecase.ExternalAllianceScore{
				Alliance:    alliance.Alliance,
				TotalPoints: alliance.TotalPoints,
				FoulPoints:  alliance.FoulPoints,
			})
		}
		out = append(out, score)
	}
	return out, nil
}

func mapScheduleMatch(item apiScheduleMatch, tournamentLevel string) (usecase.ExternalScheduleMatch, error) {
	level := match.LevelQuals
	if tournamentLevel == levelPlayoff {
		level = match.LevelPlayoffs
	}

	sched := usecase.ExternalScheduleMatch{
		Number: item.MatchNumber,
		Level:  level,
		Teams:  make([]usecase.ExternalScheduleTeam, 0, len(item.Teams)),
	}

	if item.StartTime != nil && strings.TrimSpace(*item.StartTime) != "" {
		parsed, err := parseStartTime(*item.StartTime)
		if err != nil {
			return usecase.ExternalScheduleMatch{}, fmt.Errorf("match %s %d: %w", string(level), item.MatchNumber, err)
		}
		sched.StartTime = &parsed
	}

	for _, team := range item.Teams {
		number := 0
		if team.TeamNumber != nil {
			number = *team.TeamNumber
		}
		sched.Teams = append(sched.Teams, usecase.ExternalScheduleTeam{
			TeamNumber: number,
			Station:    team.Station,
		})
	}

	return sched, nil
}

// parseStartTime accepts the API's zone-less local timestamps as well as
// full RFC 3339 values.
func parseStartTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed.UTC(), nil
	}
	parsed, err := time.Parse("2006-01-02T15:04:05", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse start time %q: %w", value, err)
	}
	return parsed.UTC(), nil
}

func isUnregisteredEvent(err error) bool {
	return err != nil && strings.Contains(err.Error(), unregisteredEventMarker)
}

func (c *Client) doJSON(ctx context.Context, path string, target any) error {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "frc events circuit breaker rejected request", "state", c.breaker.State())
			return fmt.Errorf("%w: match results source is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	fullURL := c.baseURL + path
	out, err, _ := c.flight.Do(path, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL)
		if c.circuitEnabled {
			if reqErr != nil && stderrors.Is(reqErr, errFRCTransient) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return err
	}

	raw, ok := out.([]byte)
	if !ok {
		return fmt.Errorf("unexpected response payload type %T", out)
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode match payload: %w", err)
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
		req.Header.Set("Accept", "application/json")
		req.SetBasicAuth(c.username, c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %v", errFRCTransient, err)
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 6<<20))
			_ = resp.Body.Close()
			if readErr != nil {
				lastErr = fmt.Errorf("%w: read response body: %v", errFRCTransient, readErr)
			} else if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return raw, nil
			} else if strings.Contains(string(raw), unregisteredEventMarker) {
				// Not a real failure, the event has nothing to score yet.
				return nil, fmt.Errorf("source status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
			} else if isRetryableStatus(resp.StatusCode) {
				lastErr = fmt.Errorf("%w: source status=%d body=%s", errFRCTransient, resp.StatusCode, abbreviateBody(raw))
			} else {
				return nil, fmt.Errorf("source status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
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
		lastErr = fmt.Errorf("source request failed")
	}
	c.logger.WarnContext(ctx, "frc events request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
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
