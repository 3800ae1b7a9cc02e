// Package api is the JSON-over-HTTP client for the scrape backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultTimeout bounds a single request.
const DefaultTimeout = 30 * time.Second

// maxBody caps response bodies; archives arrive base64 encoded in JSON.
const maxBody = 512 << 20

// Client talks to the backend. It holds no state between requests.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	log     logrus.FieldLogger
}

// NewClient returns a client rooted at baseURL (for example
// http://127.0.0.1:5000/api). A zero timeout uses DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration, logger logrus.FieldLogger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		timeout: timeout,
		log:     logger.WithField("component", "api_client"),
	}
}

// WithHTTPClient swaps the underlying http.Client.
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	c.http = h
	return c
}

// BaseURL returns the configured root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// envelope holds the fields every backend response may carry.
type envelope struct {
	Status  string `json:"status"`
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (e envelope) text() string {
	if e.Error != "" {
		return e.Error
	}
	return e.Message
}

// RequestJSON sends body (if non-nil) as JSON and decodes the response
// into out (if non-nil). The call is bounded by the client timeout.
// Transport failures and timeouts return an error wrapping
// ErrUnreachable; backend-reported failures return *APIError.
func (c *Client) RequestJSON(ctx context.Context, method, endpoint string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	log := c.log.WithFields(logrus.Fields{"endpoint": endpoint, "method": method})

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", endpoint, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/"+strings.TrimLeft(endpoint, "/"), reader)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		log.WithError(err).Warn("Request failed before a response arrived")
		return fmt.Errorf("%w: %s: %v", ErrUnreachable, endpoint, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		log.WithError(err).Warn("Response body interrupted")
		return fmt.Errorf("%w: %s: reading body: %v", ErrUnreachable, endpoint, err)
	}
	log = log.WithFields(logrus.Fields{
		"status":     resp.StatusCode,
		"elapsed_ms": time.Since(started).Milliseconds(),
	})

	var env envelope
	envErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Unparsable error bodies are treated as an empty object.
		if envErr != nil {
			env = envelope{}
		}
		log.WithField("code", env.Code).Warn("Backend returned an error status")
		return &APIError{
			Endpoint: endpoint,
			Status:   resp.StatusCode,
			Message:  env.text(),
			Code:     env.Code,
		}
	}
	if envErr == nil && env.Status == "error" {
		log.WithField("code", env.Code).Warn("Backend reported an error in a 2xx body")
		return &APIError{
			Endpoint: endpoint,
			Status:   resp.StatusCode,
			Message:  env.text(),
			Code:     env.Code,
		}
	}

	log.Debug("Request completed")
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("invalid JSON from %s: %w", endpoint, err)
	}
	return nil
}

// Health probes /health. Any 2xx is healthy.
func (c *Client) Health(ctx context.Context) error {
	return c.RequestJSON(ctx, http.MethodGet, "health", nil, nil)
}
