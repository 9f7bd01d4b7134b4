// Package mcpserver exposes ChainCheck over the Model Context Protocol so
// LLM agents can run fraud checks and file reports as tools.
package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Config holds the configuration for connecting to the ChainCheck API.
type Config struct {
	APIURL      string // Base URL, e.g. "http://localhost:8080"
	AdminSecret string // Optional; unlocks the admin list tools
}

// ChainCheckClient is a pure HTTP client for the ChainCheck API.
type ChainCheckClient struct {
	cfg        Config
	httpClient *http.Client
}

// NewChainCheckClient creates a new client for the ChainCheck API.
func NewChainCheckClient(cfg Config) *ChainCheckClient {
	return &ChainCheckClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// apiError represents an error response from the API.
type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// doRequest makes an HTTP request to the API and returns the response body.
func (c *ChainCheckClient) doRequest(ctx context.Context, method, path string, query url.Values, body any) (json.RawMessage, error) {
	u, err := url.Parse(c.cfg.APIURL + path)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if c.cfg.AdminSecret != "" {
		req.Header.Set("X-Admin-Secret", c.cfg.AdminSecret)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr apiError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Message != "" {
			return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, apiErr.Message)
		}
		return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, string(respBody))
	}

	return json.RawMessage(respBody), nil
}

// CheckEntity runs a fraud check on a raw entity value.
func (c *ChainCheckClient) CheckEntity(ctx context.Context, value string) (json.RawMessage, error) {
	path := "/api/v1/check/" + url.PathEscape(value)
	return c.doRequest(ctx, http.MethodGet, path, nil, nil)
}

// SubmitReport files a fraud report for an entity.
func (c *ChainCheckClient) SubmitReport(ctx context.Context, value, category, description, reporter string) (json.RawMessage, error) {
	body := map[string]string{
		"value":       value,
		"category":    category,
		"description": description,
		"reporter":    reporter,
	}
	return c.doRequest(ctx, http.MethodPost, "/api/v1/reports", nil, body)
}

// GetReports lists recent fraud reports for an entity.
func (c *ChainCheckClient) GetReports(ctx context.Context, value string, limit int) (json.RawMessage, error) {
	path := "/api/v1/reports/" + url.PathEscape(value)
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", fmt.Sprintf("%d", limit))
	}
	return c.doRequest(ctx, http.MethodGet, path, q, nil)
}

// ListBlacklist lists blacklist entries. Requires the admin secret.
func (c *ChainCheckClient) ListBlacklist(ctx context.Context, limit int) (json.RawMessage, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", fmt.Sprintf("%d", limit))
	}
	return c.doRequest(ctx, http.MethodGet, "/admin/blacklist", q, nil)
}
