package investorgain

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"gmpwatch/pkg/httputil"
	"gmpwatch/pkg/logger"
)

// Client handles communication with the live IPO GMP report page.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a report page client. Callers construct the HTTP
// client single-attempt (DisableRetry): a failed pull fails the whole run
// and the re-run policy lives with whoever schedules the runs.
func NewClient(httpClient *httputil.Client, log *logger.Logger, baseURL string) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    baseURL,
	}
}

// SourceError reports a failed or unusable report fetch. Any SourceError
// aborts the run; individually malformed rows are skipped instead.
type SourceError struct {
	URL    string
	Reason string
	Err    error
}

func (e *SourceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("investorgain: %s: %s: %v", e.URL, e.Reason, e.Err)
	}
	return fmt.Sprintf("investorgain: %s: %s", e.URL, e.Reason)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// fetchHTML fetches the report page body
func (c *Client) fetchHTML(ctx context.Context) (string, error) {
	resp, err := c.httpClient.Get(ctx, c.baseURL)
	if err != nil {
		return "", &SourceError{URL: c.baseURL, Reason: "HTTP request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &SourceError{URL: c.baseURL, Reason: fmt.Sprintf("unexpected status code: %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &SourceError{URL: c.baseURL, Reason: "failed to read response body", Err: err}
	}

	return string(body), nil
}
