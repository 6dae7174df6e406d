// Package remote implements the sync gateway against the sightings HTTP store.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/marine-sighting/internal/domain"
	"github.com/couchcryptid/marine-sighting/internal/observability"
	"github.com/google/uuid"
)

const (
	opCreate = "create"
	opFetch  = "fetch"

	// IdempotencyHeader carries a key derived from the sighting's LocalSeq, so
	// a server can recognise a second create of the same local entry.
	IdempotencyHeader = "Idempotency-Key"

	maxErrorBody = 512
)

// Client is the sync gateway. Both operations are one-shot: no retries
// happen at this layer.
type Client struct {
	httpClient *http.Client
	baseURL    string
	instance   string // unique per client, prefixes LocalSeq-derived keys
	newKey     func() string
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a gateway for the store at baseURL (e.g. http://localhost:8080).
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:  strings.TrimRight(baseURL, "/"),
		instance: uuid.NewString(),
		newKey:   func() string { return uuid.NewString() },
		logger:   logger,
		metrics:  metrics,
	}
}

// Create submits s and returns the server-confirmed sighting. The returned
// sighting keeps s.LocalSeq so the caller can correlate it.
func (c *Client) Create(ctx context.Context, s domain.Sighting) (domain.Sighting, error) {
	body, err := json.Marshal(sightingPayload{
		Species:     s.Species,
		Description: s.Description,
		Latitude:    s.Latitude,
		Longitude:   s.Longitude,
	})
	if err != nil {
		return domain.Sighting{}, c.fail(opCreate, domain.Malformed(opCreate, fmt.Errorf("encode sighting: %w", err)))
	}

	start := time.Now()
	var confirmed sightingPayload
	if err := c.do(ctx, http.MethodPost, c.keyFor(s), body, &confirmed, opCreate); err != nil {
		return domain.Sighting{}, c.fail(opCreate, err)
	}
	c.observe(opCreate, start)

	out := confirmed.toDomain()
	if out.ID == nil {
		return domain.Sighting{}, c.fail(opCreate, domain.Malformed(opCreate, errors.New("response has no id")))
	}
	if err := out.Validate(); err != nil {
		return domain.Sighting{}, c.fail(opCreate, domain.Malformed(opCreate, err))
	}
	out.LocalSeq = s.LocalSeq

	c.succeed(opCreate)
	c.logger.Info("sighting created", "id", *out.ID, "species", out.Species)
	return out, nil
}

// FetchAll retrieves every sighting held by the remote store, in server order.
func (c *Client) FetchAll(ctx context.Context) ([]domain.Sighting, error) {
	start := time.Now()
	var payloads []sightingPayload
	if err := c.do(ctx, http.MethodGet, "", nil, &payloads, opFetch); err != nil {
		return nil, c.fail(opFetch, err)
	}
	c.observe(opFetch, start)

	out := make([]domain.Sighting, 0, len(payloads))
	for i, p := range payloads {
		s := p.toDomain()
		if err := s.Validate(); err != nil {
			return nil, c.fail(opFetch, domain.Malformed(opFetch, fmt.Errorf("sighting %d: %w", i, err)))
		}
		out = append(out, s)
	}

	c.succeed(opFetch)
	c.logger.Debug("sightings fetched", "count", len(out))
	return out, nil
}

// keyFor returns the same key for every create of one stored sighting. A
// sighting that was never stored gets a fresh key.
func (c *Client) keyFor(s domain.Sighting) string {
	if s.LocalSeq == 0 {
		return c.newKey()
	}
	return c.instance + "-" + strconv.FormatUint(s.LocalSeq, 10)
}

func (c *Client) do(ctx context.Context, method, key string, body []byte, into any, op string) *domain.SyncError {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/sightings", reader)
	if err != nil {
		return domain.Unreachable(op, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if key != "" {
		req.Header.Set(IdempotencyHeader, key)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Unreachable(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return domain.Unreachable(op, fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(msg)))
	}

	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		return domain.Malformed(op, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func (c *Client) fail(op string, err *domain.SyncError) error {
	if c.metrics != nil {
		c.metrics.GatewayRequests.WithLabelValues(op, err.Kind.String()).Inc()
	}
	c.logger.Warn("sync gateway request failed", "op", op, "kind", err.Kind.String(), "error", err.Err)
	return err
}

func (c *Client) succeed(op string) {
	if c.metrics != nil {
		c.metrics.GatewayRequests.WithLabelValues(op, "success").Inc()
	}
}

func (c *Client) observe(op string, start time.Time) {
	if c.metrics != nil {
		c.metrics.GatewayDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}
}

// Wire format shared with the sightings server.

type sightingPayload struct {
	ID          *int64  `json:"id,omitempty"`
	Species     string  `json:"species"`
	Description string  `json:"description"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	PlaceName   string  `json:"place_name,omitempty"`
}

func (p sightingPayload) toDomain() domain.Sighting {
	return domain.Sighting{
		ID:          p.ID,
		Species:     p.Species,
		Description: p.Description,
		Latitude:    p.Latitude,
		Longitude:   p.Longitude,
		PlaceName:   p.PlaceName,
	}
}
