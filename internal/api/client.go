// Package api is the transport layer against the finance backend: it
// translates domain values into the backend's query strings and JSON
// bodies, and reshapes responses into core types with display fields
// attached. Everything the backend needs that used to be ambient in
// the UI (base URL, auth token, org id, user id, timezone) arrives via
// an explicit Config so tests can inject alternates.
package api

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
	"time"

	"github.com/google/uuid"

	"cashbook/internal/timeutil"
)

// Config carries the connection settings for a Client.
type Config struct {
	// BaseURL includes the versioned path prefix,
	// e.g. "http://localhost:8081/api/v1".
	BaseURL string

	// AuthToken is sent as the Authorization header on transaction
	// and financial endpoints.
	AuthToken string

	// OrgID is stamped onto created transactions.
	OrgID string

	// UserID is sent as the userId header on event endpoints.
	UserID string

	// Timezone is the fixed display zone; defaults to Asia/Kolkata.
	Timezone *time.Location

	// HTTPClient overrides the default client (15s timeout).
	HTTPClient *http.Client
}

// Client issues typed requests against the backend.
type Client struct {
	base      *url.URL
	httpc     *http.Client
	authToken string
	orgID     string
	userID    string
	zone      *time.Location
}

// APIError is a non-2xx response converted to an error. The message is
// surfaced verbatim to the caller.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

// New validates the config and returns a ready client.
func New(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base URL %q: %w", cfg.BaseURL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base URL %q: scheme must be http or https", cfg.BaseURL)
	}

	zone := cfg.Timezone
	if zone == nil {
		zone, err = timeutil.LoadZone("")
		if err != nil {
			return nil, err
		}
	}

	httpc := cfg.HTTPClient
	if httpc == nil {
		httpc = &http.Client{Timeout: 15 * time.Second}
	}

	return &Client{
		base:      base,
		httpc:     httpc,
		authToken: cfg.AuthToken,
		orgID:     cfg.OrgID,
		userID:    cfg.UserID,
		zone:      zone,
	}, nil
}

// Zone returns the fixed display timezone the client normalizes to.
func (c *Client) Zone() *time.Location {
	return c.zone
}

type headerScope int

const (
	scopeFinancial headerScope = iota // Authorization header
	scopeEvents                       // userId header
)

// do builds, issues and decodes one request. A nil out discards the
// response body. Failures are logged and returned, never swallowed.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any, scope headerScope) error {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	switch scope {
	case scopeEvents:
		if c.userID != "" {
			req.Header.Set("userId", c.userID)
		}
	default:
		if c.authToken != "" {
			req.Header.Set("Authorization", c.authToken)
		}
	}
	requestID := uuid.New().String()
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.httpc.Do(req)
	if err != nil {
		slog.ErrorContext(ctx, "Request failed",
			"request_id", requestID,
			"method", method,
			"path", path,
			"error", err)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	slog.DebugContext(ctx, "Request completed",
		"request_id", requestID,
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{
			Status:  resp.StatusCode,
			Message: errorMessage(resp.Body, method, path),
		}
		slog.ErrorContext(ctx, "Backend returned error",
			"request_id", requestID,
			"method", method,
			"path", path,
			"status", resp.StatusCode,
			"message", apiErr.Message)
		return apiErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

// errorMessage extracts the backend's message field when the error
// body is JSON, falling back to a generic description.
func errorMessage(r io.Reader, method, path string) string {
	raw, err := io.ReadAll(io.LimitReader(r, 4096))
	if err == nil && len(raw) > 0 {
		var payload struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(raw, &payload) == nil && payload.Message != "" {
			return payload.Message
		}
	}
	return fmt.Sprintf("request %s %s failed", method, path)
}

func rangeQuery(startMs, endMs int64) url.Values {
	q := url.Values{}
	q.Set("startDate", fmt.Sprintf("%d", startMs))
	q.Set("endDate", fmt.Sprintf("%d", endMs))
	return q
}
