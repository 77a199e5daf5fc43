// Package rollin exposes the ROLLIN accessibility API as MCP tools and resources.
//
// Client is a thin authenticated shim over the HTTP API. Tools builds the five
// MCP tools on top of it and APIInfoResource returns the static overview
// document.
package rollin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/joinrollin/rollin-mcp/safeunmarshal"
)

const (
	// DefaultBaseURL is the production API root.
	DefaultBaseURL = "https://joinrollin.com/api/v1"

	// ServerName and ServerVersion identify this adapter to MCP clients.
	ServerName    = "rollin"
	ServerVersion = "1.0.0"

	apiKeyHeader = "X-API-Key"
)

// ClientConfig configures a Client. APIKey is required.
type ClientConfig struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	UserAgent  string
	Logger     *slog.Logger
}

// Client issues authenticated requests against the ROLLIN API. It holds no
// mutable state and is safe for concurrent use.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	userAgent  string
	logger     *slog.Logger
}

// NewClient validates cfg and returns a Client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("rollin: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("rollin: invalid base URL: %w", err)
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = ServerName + "-mcp/" + ServerVersion
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: cfg.HTTPClient,
		userAgent:  cfg.UserAgent,
		logger:     cfg.Logger,
	}, nil
}

// Get fetches path with the given query parameters. Parameters with an empty
// value are left out of the query string.
func (c *Client) Get(ctx context.Context, path string, params map[string]string) (json.RawMessage, error) {
	target := c.baseURL + path
	if len(params) > 0 {
		query := url.Values{}
		for k, v := range params {
			if v == "" {
				continue
			}
			query.Set(k, v)
		}
		if encoded := query.Encode(); encoded != "" {
			target += "?" + encoded
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	return c.do(req, path)
}

// Post sends body as JSON to path.
func (c *Client) Post(ctx context.Context, path string, body any) (json.RawMessage, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, path)
}

func (c *Client) do(req *http.Request, path string) (json.RawMessage, error) {
	req.Header.Set(apiKeyHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("rollin request failed", "method", req.Method, "path", path, "error", err)
		return nil, err
	}
	defer resp.Body.Close()

	// one byte past the ceiling so oversized bodies fail to decode
	body, err := io.ReadAll(io.LimitReader(resp.Body, safeunmarshal.DefaultMaxInputSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	c.logger.Debug("rollin request",
		"method", req.Method,
		"path", path,
		"status_code", resp.StatusCode,
		"bytes", len(body))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &RemoteAPIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	data, err := safeunmarshal.To[json.RawMessage](body)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return data, nil
}

// SearchLocations calls GET /locations.
func (c *Client) SearchLocations(ctx context.Context, in SearchLocationsInput) (json.RawMessage, error) {
	return c.Get(ctx, "/locations", in.query())
}

// LocationDetails calls GET /locations/{id}.
func (c *Client) LocationDetails(ctx context.Context, id string) (json.RawMessage, error) {
	return c.Get(ctx, "/locations/"+url.PathEscape(id), nil)
}

// ScoreBreakdown calls GET /score/{id}.
func (c *Client) ScoreBreakdown(ctx context.Context, id string) (json.RawMessage, error) {
	return c.Get(ctx, "/score/"+url.PathEscape(id), nil)
}

// Regions calls GET /regions.
func (c *Client) Regions(ctx context.Context) (json.RawMessage, error) {
	return c.Get(ctx, "/regions", nil)
}

// SubmitFeedback calls POST /feedback.
func (c *Client) SubmitFeedback(ctx context.Context, in SubmitFeedbackInput) (json.RawMessage, error) {
	return c.Post(ctx, "/feedback", in)
}

// Health calls GET /health. Non-2xx statuses are errors like any other call.
func (c *Client) Health(ctx context.Context) (json.RawMessage, error) {
	return c.Get(ctx, "/health", nil)
}
