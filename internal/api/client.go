// Package api is the HTTP transport to the webmail backend. A single Client
// instance is shared process-wide: its base URL can be swapped at runtime
// when the user reconfigures the server address, and the session token it
// holds is attached to every request.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/webmail/internal/logging"
)

// Client is a thin HTTP client for the webmail REST API. It handles Bearer
// token authentication, JSON marshaling, and response classification into
// the transport error taxonomy. Every call is attempted exactly once; there
// is no retry policy at this layer.
type Client struct {
	mu         sync.RWMutex
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a new API client. The baseURL should be the API root
// (e.g. http://localhost:8080/api).
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetBaseURL swaps the target address for all subsequent calls. Requests
// already in flight keep the address they were issued with.
func (c *Client) SetBaseURL(baseURL string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.baseURL = strings.TrimRight(baseURL, "/")
}

// BaseURL returns the current effective base address.
func (c *Client) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

// SetToken installs the session token attached to subsequent requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// ClearToken removes the session token; subsequent requests go out
// unauthenticated.
func (c *Client) ClearToken() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
}

// HasToken reports whether a session token is currently installed.
func (c *Client) HasToken() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token != ""
}

// Get performs an HTTP GET request and unmarshals the JSON response.
func (c *Client) Get(ctx context.Context, path string, result interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, result)
}

// Post performs an HTTP POST request with an optional JSON body and
// unmarshals the JSON response.
func (c *Client) Post(ctx context.Context, path string, body, result interface{}) error {
	return c.do(ctx, http.MethodPost, path, body, result)
}

// Put performs an HTTP PUT request with a JSON body and unmarshals the
// JSON response.
func (c *Client) Put(ctx context.Context, path string, body, result interface{}) error {
	return c.do(ctx, http.MethodPut, path, body, result)
}

// Delete performs an HTTP DELETE request.
func (c *Client) Delete(ctx context.Context, path string, result interface{}) error {
	return c.do(ctx, http.MethodDelete, path, nil, result)
}

// do is the core HTTP method that builds the request, attaches auth, and
// classifies the response.
func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	body interface{},
	result interface{},
) error {
	c.mu.RLock()
	url := c.baseURL + path
	token := c.token
	c.mu.RUnlock()

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	requestID := uuid.New().String()
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	logging.Log().WithFields(map[string]interface{}{
		"method":     method,
		"path":       path,
		"request_id": requestID,
	}).Debug("api request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Err: fmt.Errorf("executing request %s %s: %w", method, path, err)}
	}

	respBody, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	if readErr != nil {
		return &NetworkError{Err: fmt.Errorf("reading response body: %w", readErr)}
	}

	if err := classifyStatus(resp.StatusCode, method, path, respBody); err != nil {
		return err
	}

	if result == nil || resp.StatusCode == http.StatusNoContent || len(respBody) == 0 {
		return nil
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("unmarshaling response from %s %s: %w", method, path, err)
	}

	return nil
}

// classifyStatus maps a non-2xx status code onto the transport error
// taxonomy. The server's message field, when present, is carried along so
// callers can show it verbatim.
func classifyStatus(status int, method, path string, respBody []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}

	var envelope errorEnvelope
	_ = json.Unmarshal(respBody, &envelope)

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &AuthError{StatusCode: status, Message: envelope.Message}
	case status == http.StatusNotFound:
		return &NotFoundError{Method: method, Path: path}
	case status >= 500:
		return &ServerError{StatusCode: status, Method: method, Path: path}
	default:
		return &ValidationError{StatusCode: status, Message: envelope.Message}
	}
}
