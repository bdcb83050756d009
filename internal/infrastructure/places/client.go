package places

import (
	"context"
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

// autocompleteTypes restricts suggestions to businesses
const autocompleteTypes = "establishment"

// Client handles communication with the places directory API.
// It performs exactly one HTTP request per call; retry policy belongs to the caller.
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	rateLimiter *rate.Limiter
	logger      *zap.Logger
}

// Options configures a places Client
type Options struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	// RequestsPerSecond is shared by every worker using this client. <=0 disables limiting.
	RequestsPerSecond float64
	Logger            *zap.Logger
}

// NewClient creates a new places API client
func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		apiKey:      opts.APIKey,
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		rateLimiter: limiter,
		logger:      logger.OrNop(opts.Logger),
	}
}

// Autocomplete returns the ranked matches for input
func (c *Client) Autocomplete(ctx context.Context, input string) ([]domain.PlaceMatch, error) {
	params := url.Values{}
	params.Set("input", input)
	params.Set("types", autocompleteTypes)

	body, err := c.get(ctx, "/autocomplete", params)
	if err != nil {
		return nil, err
	}

	matches, err := decodeMatches(body)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("places autocomplete",
		zap.String("input", input),
		zap.Int("matches", len(matches)))

	if len(matches) == 0 {
		return nil, domain.ErrPlaceNotFound
	}
	return matches, nil
}

// GetDetails retrieves the raw place-details payload for placeID
func (c *Client) GetDetails(ctx context.Context, placeID string) (*domain.RawPlaceDetails, error) {
	params := url.Values{}
	params.Set("place_id", placeID)

	body, err := c.get(ctx, "/details", params)
	if err != nil {
		return nil, err
	}

	details, err := decodeDetails(body)
	if err != nil {
		return nil, err
	}
	if details.PlaceID == "" {
		details.PlaceID = placeID
	}
	return details, nil
}

// get executes an HTTP GET request and returns the body of a 200 response
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if c.rateLimiter != nil {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}
	}

	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "PlatePicker/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPlacesAPIFailure, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", domain.ErrPlacesAPIFailure, err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.ErrPlaceNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d, body: %s", domain.ErrPlacesAPIFailure, resp.StatusCode, truncate(body, 200))
	}

	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
