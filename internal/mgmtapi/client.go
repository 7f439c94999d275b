// Package mgmtapi is a small client for the Supabase Management API.
package mgmtapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	DefaultBaseURL = "https://api.supabase.com"
	BaseURLEnv     = "SUPABASE_API_URL"

	requestIDHeader = "X-Request-Id"
)

// ErrNetwork wraps transport failures, as opposed to API error responses.
var ErrNetwork = errors.New("network error")

type Client struct {
	baseURL    string
	token      string
	userAgent  string
	httpClient *http.Client
	log        *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// New builds a client for base, DefaultBaseURL when empty. Requests carry
// token as a bearer credential.
func New(base, token string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(base)
	if trimmed == "" {
		trimmed = DefaultBaseURL
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("invalid api base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid api base url %q: scheme must be http or https", trimmed)
	}
	if strings.TrimSpace(token) == "" {
		return nil, errors.New("access token is empty")
	}

	c := &Client{
		baseURL:   strings.TrimRight(trimmed, "/"),
		token:     strings.TrimSpace(token),
		userAgent: "supa",
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		log: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// APIError is a non-2xx response.
type APIError struct {
	Status    int
	Message   string
	RequestID string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api request failed with status %d", e.Status)
	}
	return fmt.Sprintf("api request failed (%d): %s", e.Status, e.Message)
}

// Unauthorized reports a rejected or insufficient token.
func (e *APIError) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
}

func (c *Client) do(ctx context.Context, method, path string, body any, v any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(requestIDHeader, requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrNetwork, method, path, err)
	}
	defer resp.Body.Close()
	c.log.Debug("api request", "method", method, "path", path, "status", resp.StatusCode, "request_id", requestID)

	if resp.StatusCode >= http.StatusBadRequest {
		return &APIError{Status: resp.StatusCode, Message: extractError(resp.Body), RequestID: requestID}
	}
	if v == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func extractError(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 64<<10))
	if err != nil || len(data) == 0 {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return strings.TrimSpace(string(data))
	}
	if payload.Message != "" {
		return strings.TrimSpace(payload.Message)
	}
	if payload.Error != "" {
		return strings.TrimSpace(payload.Error)
	}
	return strings.TrimSpace(string(data))
}

func projectPath(ref, suffix string) string {
	return "/v1/projects/" + url.PathEscape(ref) + suffix
}

// GetAuthConfig returns the flat auth configuration of a project.
func (c *Client) GetAuthConfig(ctx context.Context, ref string) (map[string]any, error) {
	var out map[string]any
	if err := c.do(ctx, http.MethodGet, projectPath(ref, "/config/auth"), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateAuthConfig PATCHes the given flat keys and returns the new config.
func (c *Client) UpdateAuthConfig(ctx context.Context, ref string, patch map[string]any) (map[string]any, error) {
	var out map[string]any
	if err := c.do(ctx, http.MethodPatch, projectPath(ref, "/config/auth"), patch, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetPostgrestConfig(ctx context.Context, ref string) (map[string]any, error) {
	var out map[string]any
	if err := c.do(ctx, http.MethodGet, projectPath(ref, "/postgrest"), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
