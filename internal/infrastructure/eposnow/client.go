// Package eposnow implements the REST gateway to the ePOS Now backend.
package eposnow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/erp/pos-bridge/internal/domain/integration"
	"github.com/erp/pos-bridge/internal/infrastructure/config"
	"github.com/erp/pos-bridge/internal/infrastructure/synclog"
)

// maxResponseSize is the maximum allowed response size from the POS API (10MB)
const maxResponseSize = 10 * 1024 * 1024

// Client talks to the POS REST API. The credential is loaded once at
// construction and never refreshed; every call is one synchronous attempt
// with a bounded timeout and no retries.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	audit      *synclog.Logger
	logger     *zap.Logger
}

// NewClient creates a new POS API client
func NewClient(cfg *config.POSConfig, audit *synclog.Logger, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/") + "/",
		token:   cfg.Token,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		audit:  audit,
		logger: logger,
	}
}

// Send issues one authenticated request and returns the parsed result.
// The status code travels with the parsed body so callers can tell a
// rejection apart from a success; only transport failures and unparsable
// bodies surface as errors.
func (c *Client) Send(ctx context.Context, method, endpoint string, body map[string]any) (*integration.Result, error) {
	raw, status, err := c.do(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}

	var parsed map[string]any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		c.audit.Logf(integration.DirectionOutgoing, "Failed to JSON parse response: %s", string(raw))
		return nil, fmt.Errorf("%w: %v", integration.ErrPOSInvalidResponse, err)
	}

	if status != http.StatusOK && status != http.StatusCreated {
		c.audit.Logf(integration.DirectionOutgoing, "ERR: %s", prettyJSON(parsed))
	}

	return &integration.Result{StatusCode: status, Body: parsed}, nil
}

// ListStock fetches one page of the paginated stock listing. Page 0 is the
// unnumbered first page; an empty slice means the listing is exhausted.
func (c *Client) ListStock(ctx context.Context, page int) ([]integration.StockListing, error) {
	endpoint := integration.EndpointProductStock
	if page > 0 {
		endpoint = fmt.Sprintf("%s?page=%d", integration.EndpointProductStock, page)
	}

	raw, status, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK && status != http.StatusCreated {
		c.audit.Logf(integration.DirectionOutgoing, "ERR: %s", string(raw))
		return nil, fmt.Errorf("%w: HTTP %d", integration.ErrPOSRequestRejected, status)
	}

	var listings []integration.StockListing
	if err := json.Unmarshal(raw, &listings); err != nil {
		c.audit.Logf(integration.DirectionOutgoing, "Failed to JSON parse response: %s", string(raw))
		return nil, fmt.Errorf("%w: %v", integration.ErrPOSInvalidResponse, err)
	}

	return listings, nil
}

// do performs the HTTP exchange and the per-request audit logging. The
// "about to send" entry always precedes the result entry for the same call.
func (c *Client) do(ctx context.Context, method, endpoint string, body map[string]any) ([]byte, int, error) {
	url := c.baseURL + endpoint

	if body != nil {
		c.audit.Logf(integration.DirectionOutgoing, "Requesting {%s} %s with params:", method, url)
		c.audit.Log(integration.DirectionOutgoing, prettyJSON(body))
	} else {
		c.audit.Logf(integration.DirectionOutgoing, "Requesting {%s} %s", method, url)
	}

	if body == nil {
		body = map[string]any{}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, 0, fmt.Errorf("eposnow: failed to encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(payload))
	if err != nil {
		return nil, 0, fmt.Errorf("eposnow: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Basic "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.audit.Logf(integration.DirectionOutgoing, "Response ERR: %v!", err)
		c.logger.Warn("POS request failed",
			zap.String("method", method),
			zap.String("endpoint", endpoint),
			zap.Error(err),
		)
		return nil, 0, fmt.Errorf("%w: %v", integration.ErrPOSUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		c.audit.Logf(integration.DirectionOutgoing, "Response ERR: %v!", err)
		return nil, 0, fmt.Errorf("%w: %v", integration.ErrPOSUnavailable, err)
	}

	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated {
		c.audit.Log(integration.DirectionOutgoing, "Response OK!")
	} else {
		c.audit.Logf(integration.DirectionOutgoing, "Response ERR: %d!", resp.StatusCode)
	}

	return raw, resp.StatusCode, nil
}

// prettyJSON renders a value as indented JSON for the audit log
func prettyJSON(v any) string {
	out, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(out)
}

// Ensure Client implements the gateway interface
var _ integration.POSGateway = (*Client)(nil)
