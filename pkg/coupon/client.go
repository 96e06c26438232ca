package coupon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ikkim/storefront/pkg/logger"
)

// Client calls the remote coupon validation endpoint
type Client struct {
	config     Config
	url        string
	httpClient *http.Client
}

// NewClient creates a new coupon client with the given configuration
func NewClient(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if config.Path == "" {
		config.Path = defaultPath
	}
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}

	return &Client{
		config:     config,
		url:        strings.TrimRight(config.BaseURL, "/") + "/" + strings.TrimLeft(config.Path, "/"),
		httpClient: &http.Client{Timeout: config.Timeout},
	}, nil
}

// Timeout returns the per-request timeout
func (c *Client) Timeout() time.Duration {
	return c.config.Timeout
}

// Apply asks the endpoint whether code is a valid discount code. The body is
// decoded whatever the status code; a non-success answer is not an error.
func (c *Client) Apply(ctx context.Context, code string) (*ApplyResponse, error) {
	reqBody, err := json.Marshal(ApplyRequest{Code: code})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	logger.Debug("Sending coupon request", map[string]interface{}{
		"url": c.url,
	})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %v", ErrNetworkError, err)
	}

	var applyResp ApplyResponse
	if err := json.Unmarshal(body, &applyResp); err != nil {
		return nil, fmt.Errorf("%w: status %d: %v", ErrInvalidResponse, resp.StatusCode, err)
	}
	if applyResp.Discount < 0 {
		return nil, fmt.Errorf("%w: negative discount %d", ErrInvalidResponse, applyResp.Discount)
	}

	logger.Debug("Coupon response received", map[string]interface{}{
		"status_code": resp.StatusCode,
		"success":     applyResp.Success,
		"discount":    applyResp.Discount,
	})

	return &applyResp, nil
}
