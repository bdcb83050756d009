package neighborhoods

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/platepicker/backend/internal/domain"
	"github.com/platepicker/backend/pkg/logger"
)

// Client looks up neighborhoods by postal code.
// It performs exactly one HTTP request per call; retry and fallback belong to the caller.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	rateLimiter *rate.Limiter
	logger      *zap.Logger
}

// Options configures a neighborhoods Client
type Options struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	Logger            *zap.Logger
}

// NewClient creates a new neighborhood directory client
func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		rateLimiter: limiter,
		logger:      logger.OrNop(opts.Logger),
	}
}

// ByPostalCode returns the neighborhoods registered for postalCode
func (c *Client) ByPostalCode(ctx context.Context, postalCode string) ([]domain.NeighborhoodInfo, error) {
	if c.rateLimiter != nil {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}
	}

	reqURL := fmt.Sprintf("%s/by-zipcode/%s", c.baseURL, url.PathEscape(postalCode))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrNeighborhoodAPIFailure, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", domain.ErrNeighborhoodAPIFailure, err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.ErrNeighborhoodNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", domain.ErrNeighborhoodAPIFailure, resp.StatusCode)
	}

	records, err := decodeNeighborhoods(body)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("neighborhood lookup",
		zap.String("postal_code", postalCode),
		zap.Int("records", len(records)))

	if len(records) == 0 {
		return nil, domain.ErrNeighborhoodNotFound
	}
	return records, nil
}

// wireNeighborhood tolerates numeric or string identifiers
type wireNeighborhood struct {
	ID    json.RawMessage `json:"id"`
	Name  string          `json:"name"`
	City  string          `json:"city"`
	State string          `json:"state"`
}

func (w wireNeighborhood) toDomain() domain.NeighborhoodInfo {
	return domain.NeighborhoodInfo{ID: decodeID(w.ID), Name: w.Name, City: w.City, State: w.State}
}

// decodeID reads a JSON string or number identifier; anything else is no id
func decodeID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// decodeNeighborhoods accepts a bare array or an object wrapping the array
// under "neighborhoods" or "data"
func decodeNeighborhoods(body []byte) ([]domain.NeighborhoodInfo, error) {
	trimmed := bytes.TrimSpace(body)

	var wire []wireNeighborhood
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &wire); err != nil {
			return nil, fmt.Errorf("%w: decoding response: %v", domain.ErrNeighborhoodAPIFailure, err)
		}
	} else {
		var envelope struct {
			Neighborhoods []wireNeighborhood `json:"neighborhoods"`
			Data          []wireNeighborhood `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, fmt.Errorf("%w: decoding response: %v", domain.ErrNeighborhoodAPIFailure, err)
		}
		wire = envelope.Neighborhoods
		if len(wire) == 0 {
			wire = envelope.Data
		}
	}

	records := make([]domain.NeighborhoodInfo, 0, len(wire))
	for _, w := range wire {
		info := w.toDomain()
		if info.ID == "" {
			continue
		}
		records = append(records, info)
	}
	return records, nil
}
