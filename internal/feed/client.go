// Package feed implements the HTTP client for the water-level feed. The
// feed publishes a reservoir catalogue as JSON and one JSONL stream of
// daily readings per reservoir. All methods are context-aware, respect the
// shared rate limiter, and retry on transient errors (429, 5xx).
package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/derickschaefer/hws/internal/model"
	"github.com/derickschaefer/hws/internal/pipeline"
)

const maxRetries = 4

// ErrNotFound is returned when the feed has no data for a reservoir.
var ErrNotFound = errors.New("not found in feed")

// Client is the feed HTTP client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	backoff    time.Duration
	debug      bool
}

// NewClient creates a Client for the feed rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration, ratePerSec float64, debug bool) *Client {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	burst := int(ratePerSec)
	if burst < 1 {
		burst = 1
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(ratePerSec), burst),
		backoff: 500 * time.Millisecond,
		debug:   debug,
	}
}

// SetBackoff changes the base retry delay. Tests use a tiny value.
func (c *Client) SetBackoff(d time.Duration) {
	c.backoff = d
}

// ─── Reservoirs ───────────────────────────────────────────────────────────────

// GetReservoirs fetches the reservoir catalogue.
func (c *Client) GetReservoirs(ctx context.Context) ([]model.Reservoir, error) {
	body, err := c.get(ctx, "reservoirs.json", nil)
	if err != nil {
		return nil, fmt.Errorf("reservoirs: %w", err)
	}
	var raw []struct {
		ID       string  `json:"id"`
		Name     string  `json:"name"`
		River    string  `json:"river"`
		Region   string  `json:"region"`
		Capacity float64 `json:"capacity_hm3"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decoding reservoirs: %w", err)
	}
	out := make([]model.Reservoir, 0, len(raw))
	now := time.Now().UTC()
	for _, r := range raw {
		if r.ID == "" {
			continue
		}
		out = append(out, model.Reservoir{
			ID:          strings.ToUpper(r.ID),
			Name:        r.Name,
			River:       r.River,
			Region:      r.Region,
			CapacityHm3: r.Capacity,
			UpdatedAt:   now,
		})
	}
	return out, nil
}

// ─── Levels ───────────────────────────────────────────────────────────────────

// LevelOptions restricts a level request to a date range.
type LevelOptions struct {
	Start string // YYYY-MM-DD
	End   string // YYYY-MM-DD
}

// GetLevels fetches the daily readings of one reservoir.
func (c *Client) GetLevels(ctx context.Context, id string, opts LevelOptions) (*model.LevelSeries, error) {
	id = strings.ToUpper(id)
	params := url.Values{}
	if opts.Start != "" {
		params.Set("start", opts.Start)
	}
	if opts.End != "" {
		params.Set("end", opts.End)
	}

	body, err := c.get(ctx, "levels/"+url.PathEscape(id)+".jsonl", params)
	if err != nil {
		return nil, fmt.Errorf("levels %s: %w", id, err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return &model.LevelSeries{ReservoirID: id}, nil
	}
	series, err := pipeline.ReadReadings(bytes.NewReader(body), id)
	if err != nil {
		return nil, fmt.Errorf("levels %s: %w", id, err)
	}
	for _, s := range series {
		if strings.EqualFold(s.ReservoirID, id) {
			s.ReservoirID = id
			return &s, nil
		}
	}
	return &model.LevelSeries{ReservoirID: id}, nil
}

// ─── Low-level HTTP ───────────────────────────────────────────────────────────

// get performs a GET request against the feed, handling rate limiting and
// retries, and returns the response body.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqURL := c.baseURL + endpoint
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}
	if c.debug {
		slog.Debug("feed request", "url", reqURL)
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1)) * float64(c.backoff))
			slog.Debug("retrying after backoff", "attempt", attempt, "backoff", backoff)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("building request: %w", err)
		}
		req.Header.Set("Accept", "application/json, application/x-ndjson")
		req.Header.Set("User-Agent", "hws-cli/0.1")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http: %w", err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("reading body: %w", err)
			continue
		}

		if c.debug {
			slog.Debug("feed response", "status", resp.StatusCode, "bytes", len(body))
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
			continue
		}
		if resp.StatusCode == http.StatusNotFound {
			return nil, ErrNotFound
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}
		return body, nil
	}
	return nil, fmt.Errorf("after %d attempts: %w", maxRetries, lastErr)
}
