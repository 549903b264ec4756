// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Configuration constants for the backend API.
const (
	// DefaultBaseURL is the base URL of a locally running backend.
	DefaultBaseURL = "http://localhost:8000"

	// DefaultTimeout is the default timeout for non-streaming requests.
	DefaultTimeout = 60 * time.Second

	// MaxResponseSize is the maximum allowed response body size.
	// Bounded reads prevent memory exhaustion on a misbehaving server.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB limit
)

var (
	// Shared HTTP client with connection pooling for all plain requests.
	sharedHTTPClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
		Timeout: DefaultTimeout,
	}

	// sharedStreamingClient is used for streaming requests.
	// No timeout: stream lifetime is controlled via context.
	sharedStreamingClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
	}
)

// =============================================================================
// CLIENT
// =============================================================================

// Client communicates with the PDF chat backend.
//
// All methods are safe for concurrent use; the zero timeout on the
// streaming path is intentional (callers cancel via context).
type Client struct {
	baseURL      string
	httpClient   *http.Client
	streamClient *http.Client
	userAgent    string
}

// NewClient creates a client for the backend at baseURL.
// An empty baseURL falls back to DefaultBaseURL.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		httpClient:   sharedHTTPClient,
		streamClient: sharedStreamingClient,
		userAgent:    "pdfchat-tui/0.1.0",
	}
}

// WithBaseURL sets a custom base URL for the API.
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = strings.TrimSuffix(u, "/")
	return c
}

// WithTimeout sets the request timeout for non-streaming calls.
// A private client is allocated so the shared pool keeps its default.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	clone := *sharedHTTPClient
	clone.Timeout = timeout
	c.httpClient = &clone
	return c
}

// WithHTTPClient replaces both underlying HTTP clients. Intended for tests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	c.streamClient = hc
	return c
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// endpoint joins the base URL with an API path, escaping path segments.
func (c *Client) endpoint(parts ...string) string {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = url.PathEscape(p)
	}
	return c.baseURL + "/" + strings.Join(escaped, "/")
}

// =============================================================================
// REQUEST PLUMBING
// =============================================================================

// logRequest logs an API request without the body.
func logRequest(req *http.Request) {
	log.Printf("API request: %s %s", req.Method, req.URL.Path)
}

// logResponse logs an API response status with duration.
func logResponse(resp *http.Response, duration time.Duration) {
	log.Printf("API response: %d (%v)", resp.StatusCode, duration)
}

// readResponse reads the response body with a size limit.
func readResponse(resp *http.Response) ([]byte, error) {
	limited := io.LimitReader(resp.Body, MaxResponseSize)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) == MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

// doJSON performs a request with an optional JSON body and decodes the
// JSON response into out (when out is non-nil). Non-success statuses are
// converted by handleErrorResponse. No retries at this layer.
func (c *Client) doJSON(ctx context.Context, method, requestURL string, reqBody, out any) error {
	var bodyReader io.Reader
	if reqBody != nil {
		bodyBytes, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	logRequest(req)
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	logResponse(resp, time.Since(start))

	body, err := readResponse(resp)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return handleErrorResponse(resp.StatusCode, body)
	}

	if out == nil {
		return nil
	}
	return decodeJSON(body, out)
}

// decodeJSON unmarshals a success-status body, flagging shape mismatches
// instead of silently tolerating them.
func decodeJSON(body []byte, out any) error {
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

// =============================================================================
// SESSION OPERATIONS
// =============================================================================

// CreateSession creates a new chat session.
// The returned session ID scopes all subsequent requests.
func (c *Client) CreateSession(ctx context.Context) (*Session, error) {
	var sess Session
	if err := c.doJSON(ctx, http.MethodPost, c.endpoint("api", "session", "create"), nil, &sess); err != nil {
		return nil, err
	}
	if sess.SessionID == "" {
		return nil, fmt.Errorf("%w: missing session_id", ErrMalformedResponse)
	}
	return &sess, nil
}

// CloseSession closes a session and deletes all server-side data for it.
func (c *Client) CloseSession(ctx context.Context, sessionID string) (*SessionClose, error) {
	var closed SessionClose
	if err := c.doJSON(ctx, http.MethodDelete, c.endpoint("api", "session", "close", sessionID), nil, &closed); err != nil {
		return nil, err
	}
	return &closed, nil
}

// SessionStatus fetches the current status of a session.
func (c *Client) SessionStatus(ctx context.Context, sessionID string) (*SessionStatus, error) {
	var status SessionStatus
	if err := c.doJSON(ctx, http.MethodGet, c.endpoint("api", "session", "status", sessionID), nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// =============================================================================
// DOCUMENT OPERATIONS
// =============================================================================

// JobStatus fetches the processing status of an upload job.
func (c *Client) JobStatus(ctx context.Context, jobID string) (*JobStatus, error) {
	var job JobStatus
	if err := c.doJSON(ctx, http.MethodGet, c.endpoint("api", "documents", "status", jobID), nil, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// ListDocuments lists the document IDs uploaded to a session.
func (c *Client) ListDocuments(ctx context.Context, sessionID string) (*DocumentList, error) {
	var list DocumentList
	if err := c.doJSON(ctx, http.MethodGet, c.endpoint("api", "documents", "list", sessionID), nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// =============================================================================
// CHAT OPERATIONS
// =============================================================================

// SendMessage sends a chat message and waits for the full answer.
func (c *Client) SendMessage(ctx context.Context, sessionID, message string) (*ChatAnswer, error) {
	req := chatRequest{SessionID: sessionID, Message: message}
	var answer ChatAnswer
	if err := c.doJSON(ctx, http.MethodPost, c.endpoint("api", "chat", "message"), req, &answer); err != nil {
		return nil, err
	}
	return &answer, nil
}

// History retrieves the most recent chat messages for a session, newest
// last, up to limit (0 means the server default).
func (c *Client) History(ctx context.Context, sessionID string, limit int) (*ChatHistory, error) {
	u := c.endpoint("api", "chat", "history", sessionID)
	if limit > 0 {
		u += fmt.Sprintf("?limit=%d", limit)
	}
	var history ChatHistory
	if err := c.doJSON(ctx, http.MethodGet, u, nil, &history); err != nil {
		return nil, err
	}
	return &history, nil
}

// ClearHistory clears the chat history for a session, keeping documents.
func (c *Client) ClearHistory(ctx context.Context, sessionID string) error {
	return c.doJSON(ctx, http.MethodDelete, c.endpoint("api", "chat", "history", sessionID), nil, nil)
}
