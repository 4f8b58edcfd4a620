package tba

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
	"github.com/frc-sh/scores-api/internal/platform/logging"
	"github.com/frc-sh/scores-api/internal/platform/resilience"
	"github.com/frc-sh/scores-api/internal/usecase"
)

const defaultBaseURL = "https://www.thebluealliance.com/api/v3"

var errTBATransient = crerr.New("tba transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	AuthKey        string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client reads the event catalog from The Blue Alliance read API.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	authKey        string
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
		authKey:        strings.TrimSpace(cfg.AuthKey),
		maxRetries:     maxRetries,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

type apiEvent struct {
	Year           int     `json:"year"`
	Name           string  `json:"name"`
	ShortName      string  `json:"short_name"`
	EventCode      string  `json:"event_code"`
	EventType      int     `json:"event_type"`
	Week           *int    `json:"week"`
	FirstEventCode *string `json:"first_event_code"`
}

// ListEvents returns the raw catalog entries for one season.
func (c *Client) ListEvents(ctx context.Context, year int) ([]usecase.ExternalEvent, error) {
	var events []apiEvent
	if err := c.doJSON(ctx, fmt.Sprintf("/events/%d", year), &events); err != nil {
		return nil, fmt.Errorf("fetch events year=%d: %w", year, err)
	}

	out := make([]usecase.ExternalEvent, 0, len(events))
	for _, item := range events {
		out = append(out, usecase.ExternalEvent{
			Year:           item.Year,
			Name:           item.Name,
			ShortName:      item.ShortName,
			EventCode:      item.EventCode,
			EventType:      item.EventType,
			Week:           item.Week,
			FirstEventCode: item.FirstEventCode,
		})
	}
	return out, nil
}

func (c *Client) doJSON(ctx context.Context, path string, target any) error {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "tba circuit breaker rejected request", "state", c.breaker.State())
			return fmt.Errorf("%w: event catalog is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	fullURL := c.baseURL + path
	out, err, _ := c.flight.Do(path, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL)
		if c.circuitEnabled {
			if reqErr != nil && stderrors.Is(reqErr, errTBATransient) {
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
		return fmt.Errorf("decode catalog payload: %w", err)
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
		req.Header.Set("X-TBA-Auth-Key", c.authKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %v", errTBATransient, err)
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 6<<20))
			_ = resp.Body.Close()
			if readErr != nil {
				lastErr = fmt.Errorf("%w: read response body: %v", errTBATransient, readErr)
			} else if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return raw, nil
			} else if isRetryableStatus(resp.StatusCode) {
				lastErr = fmt.Errorf("%w: catalog status=%d body=%s", errTBATransient, resp.StatusCode, abbreviateBody(raw))
			} else {
				return nil, fmt.Errorf("catalog status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
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
		lastErr = fmt.Errorf("catalog request failed")
	}
	c.logger.WarnContext(ctx, "tba request failed", "url", fullURL, "error", lastErr)
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
