// Package httputil wraps net/http with request logging and an optional
// retry policy for transient upstream failures.
package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"gmpwatch/pkg/logger"
)

const (
	defaultTimeout = 30 * time.Second
	defaultRetries = 3
	defaultBackoff = 1 * time.Second
	maxBackoff     = 10 * time.Second
)

// Client executes HTTP requests with per-request logging. Retries apply
// to transport errors and retryable status codes, with the initial
// backoff doubling per attempt up to a cap.
type Client struct {
	hc      *http.Client
	log     *logger.Logger
	retries int // additional attempts after the first
	backoff time.Duration
}

// New returns a client with the default timeout and retry policy.
func New(log *logger.Logger) *Client {
	return &Client{
		hc:      &http.Client{Timeout: defaultTimeout},
		log:     log,
		retries: defaultRetries,
		backoff: defaultBackoff,
	}
}

// NewWithTimeout returns a client with a custom request timeout.
func NewWithTimeout(log *logger.Logger, timeout time.Duration) *Client {
	c := New(log)
	c.hc.Timeout = timeout
	return c
}

// WithRetry overrides the retry count and initial backoff.
func (c *Client) WithRetry(retries int, backoff time.Duration) *Client {
	c.retries = retries
	c.backoff = backoff
	return c
}

// DisableRetry makes every request single-attempt. The report fetch and
// the gateway send both want this: a failed fetch fails the run, and a
// failed send must not risk a duplicate message.
func (c *Client) DisableRetry() *Client {
	c.retries = 0
	return c
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build GET %s: %w", url, err)
	}
	return c.do(req)
}

// PostJSON issues a POST request with a JSON-encoded body and any extra
// headers on top of Content-Type.
func (c *Client) PostJSON(ctx context.Context, url string, body interface{}, headers map[string]string) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode POST %s body: %w", url, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build POST %s: %w", url, err)
	}

	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return c.do(req)
}

// do runs the request through the retry loop and logs the outcome. The
// response body of a failed attempt is closed before retrying; request
// bodies are replayed via GetBody, which NewRequest provides for the
// in-memory readers this package uses.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	start := time.Now()

	var resp *http.Response
	var err error

	delay := c.backoff
	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			if resp != nil {
				resp.Body.Close()
			}
			if req.GetBody != nil {
				if req.Body, err = req.GetBody(); err != nil {
					return nil, fmt.Errorf("replay %s %s body: %w", req.Method, req.URL, err)
				}
			}

			c.log.WithFields(map[string]interface{}{
				"method":  req.Method,
				"url":     req.URL.String(),
				"attempt": attempt,
				"delay":   delay,
			}).Warn("Retrying HTTP request")

			time.Sleep(delay)
			delay *= 2
			if delay > maxBackoff {
				delay = maxBackoff
			}
		}

		resp, err = c.hc.Do(req)
		if err == nil && !retryable(resp.StatusCode) {
			break
		}
		if attempt == c.retries {
			break
		}
	}

	duration := time.Since(start)

	if err != nil {
		c.log.WithFields(map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"duration": duration,
			"error":    err.Error(),
		}).Error("HTTP request failed")
		return nil, err
	}

	c.log.WithFields(map[string]interface{}{
		"method":   req.Method,
		"url":      req.URL.String(),
		"status":   resp.StatusCode,
		"duration": duration,
	}).Debug("HTTP request completed")

	return resp, nil
}

// retryable reports whether a status code is worth another attempt:
// server errors and 429 Too Many Requests.
func retryable(status int) bool {
	return status >= 500 || status == http.StatusTooManyRequests
}
