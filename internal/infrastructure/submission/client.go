package submission

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/platepicker/backend/internal/domain"
	"github.com/platepicker/backend/pkg/logger"
)

// Client posts batches to the bulk-add endpoint. It never retries.
type Client struct {
	httpClient *http.Client
	url        string
	authToken  string
	logger     *zap.Logger
}

// Options configures a submission Client
type Options struct {
	URL       string
	AuthToken string
	Timeout   time.Duration
	Logger    *zap.Logger
}

// NewClient creates a new bulk submission client
func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		url:        opts.URL,
		authToken:  opts.AuthToken,
		logger:     logger.OrNop(opts.Logger),
	}
}

// SubmitBatch posts the whole batch in a single request and decodes the reply.
// Interpreting the reply's success indicator is left to the caller.
func (c *Client) SubmitBatch(ctx context.Context, batch *domain.SubmitRequest) (*domain.SubmitResponse, error) {
	payload, err := json.Marshal(batch)
	if err != nil {
		return nil, fmt.Errorf("failed to encode batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	c.logger.Info("submitting batch", zap.Int("items", len(batch.Items)), zap.String("url", c.url))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSubmissionUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", domain.ErrSubmissionUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: endpoint does not exist (status 404)", domain.ErrSubmissionUnavailable)
	case resp.StatusCode == http.StatusBadGateway,
		resp.StatusCode == http.StatusServiceUnavailable,
		resp.StatusCode == http.StatusGatewayTimeout:
		return nil, fmt.Errorf("%w: status %d", domain.ErrSubmissionUnavailable, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("%w: status %d, body: %s", domain.ErrSubmissionRejected, resp.StatusCode, truncate(body, 200))
	}

	var out domain.SubmitResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSubmissionContract, err)
	}
	return &out, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
