// Package gradefetch performs the single grades request behind a dashboard load.
//
// A Client issues exactly one GET per call. It does not retry, cache, or
// validate beyond JSON decoding; absent optional fields decode to nil/zero
// and are handled by the derivation stage.
package gradefetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dalemusser/stratagrades/internal/domain/models"
	"go.uber.org/zap"
)

// UserMessage is the only failure text shown to users, whatever went wrong.
const UserMessage = "We could not load your grades right now."

var (
	// ErrUnavailable covers transport failures and non-2xx responses.
	ErrUnavailable = errors.New("grades endpoint unavailable")
	// ErrMalformed is returned when the body is not a JSON grades payload.
	ErrMalformed = errors.New("grades payload malformed")
)

// Config configures a Client.
type Config struct {
	URL        string       // absolute grades endpoint URL
	Token      string       // optional bearer token
	HTTPClient *http.Client // nil uses http.DefaultClient
	Logger     *zap.Logger
}

// Client fetches grade payloads.
type Client struct {
	url    string
	token  string
	http   *http.Client
	logger *zap.Logger
}

// New creates a Client.
func New(cfg Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		url:    cfg.URL,
		token:  cfg.Token,
		http:   hc,
		logger: logger,
	}
}

// URL returns the configured endpoint.
func (c *Client) URL() string { return c.url }

// Fetch issues one GET to the endpoint with query merged into its query
// string and decodes the body.
func (c *Client) Fetch(ctx context.Context, query url.Values) (*models.GradesResponse, error) {
	target, err := c.target(query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("grades fetch failed",
			zap.String("url", target),
			zap.Duration("took", time.Since(start)),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused.
		_, _ = io.CopyN(io.Discard, resp.Body, 4<<10)
		c.logger.Warn("grades fetch returned error status",
			zap.String("url", target),
			zap.Int("status", resp.StatusCode),
			zap.Duration("took", time.Since(start)))
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	payload, err := decodePayload(resp.Body)
	if err != nil {
		c.logger.Warn("grades payload did not decode",
			zap.String("url", target),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	c.logger.Debug("grades fetched",
		zap.String("url", target),
		zap.Int("grades", len(payload.Grades)),
		zap.Duration("took", time.Since(start)))
	return payload, nil
}

// decodePayload requires the body to be exactly one JSON value.
func decodePayload(r io.Reader) (*models.GradesResponse, error) {
	dec := json.NewDecoder(r)
	var payload models.GradesResponse
	if err := dec.Decode(&payload); err != nil {
		return nil, err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, errors.New("unexpected data after JSON payload")
	}
	return &payload, nil
}

func (c *Client) target(query url.Values) (string, error) {
	u, err := url.Parse(c.url)
	if err != nil {
		return "", err
	}
	if !strings.EqualFold(u.Scheme, "http") && !strings.EqualFold(u.Scheme, "https") {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if len(query) > 0 {
		q := u.Query()
		for k, vs := range query {
			for _, v := range vs {
				if v != "" {
					q.Set(k, v)
				}
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}
