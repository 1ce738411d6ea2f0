package httputil

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gmpwatch/pkg/logger"
)

func TestNewDefaults(t *testing.T) {
	c := New(logger.NewNop())

	if c.hc.Timeout != defaultTimeout {
		t.Errorf("Timeout = %v, want %v", c.hc.Timeout, defaultTimeout)
	}
	if c.retries != defaultRetries {
		t.Errorf("retries = %d, want %d", c.retries, defaultRetries)
	}
	if c.backoff != defaultBackoff {
		t.Errorf("backoff = %v, want %v", c.backoff, defaultBackoff)
	}
}

func TestNewWithTimeout(t *testing.T) {
	c := NewWithTimeout(logger.NewNop(), 5*time.Second)

	if c.hc.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", c.hc.Timeout)
	}
}

func TestDisableRetry(t *testing.T) {
	c := New(logger.NewNop()).DisableRetry()

	if c.retries != 0 {
		t.Errorf("retries = %d, want 0 after DisableRetry", c.retries)
	}
}

func TestGet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("Expected GET request, got %s", r.Method)
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	resp, err := New(logger.NewNop()).Get(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("GET request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
}

func TestPostJSON(t *testing.T) {
	var got map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST request, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", ct)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-token" {
			t.Errorf("Authorization = %q, want Bearer test-token", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	body := map[string]string{"to": "group-42", "body": "hello"}
	headers := map[string]string{"Authorization": "Bearer test-token"}

	resp, err := New(logger.NewNop()).PostJSON(context.Background(), server.URL, body, headers)
	if err != nil {
		t.Fatalf("POST request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Errorf("Expected status 201, got %d", resp.StatusCode)
	}
	if got["to"] != "group-42" || got["body"] != "hello" {
		t.Errorf("server received %v, want the posted payload", got)
	}
}

func TestRetryOn5xx(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := New(logger.NewNop()).WithRetry(3, 10*time.Millisecond)

	resp, err := c.Get(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Request failed after retries: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestRetryReplaysPostBody(t *testing.T) {
	var bodies []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var m map[string]string
		if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
			t.Errorf("decoding body on attempt %d: %v", len(bodies)+1, err)
		}
		bodies = append(bodies, m["body"])
		if len(bodies) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := New(logger.NewNop()).WithRetry(1, 10*time.Millisecond)

	resp, err := c.PostJSON(context.Background(), server.URL, map[string]string{"body": "again"}, nil)
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	defer resp.Body.Close()

	if len(bodies) != 2 {
		t.Fatalf("attempts = %d, want 2", len(bodies))
	}
	if bodies[0] != "again" || bodies[1] != "again" {
		t.Errorf("bodies = %v, want the payload on every attempt", bodies)
	}
}

func TestRetriesExhaustedReturnsLastResponse(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := New(logger.NewNop()).WithRetry(2, 10*time.Millisecond)

	resp, err := c.Get(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("Expected the final 503 back, got %d", resp.StatusCode)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3 (1 + 2 retries)", attempts)
	}
}

func TestNoRetryWhenDisabled(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	resp, err := New(logger.NewNop()).DisableRetry().Get(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", resp.StatusCode)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want a single attempt", attempts)
	}
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		status int
		want   bool
	}{
		{200, false},
		{201, false},
		{400, false},
		{404, false},
		{429, true},
		{500, true},
		{502, true},
		{503, true},
		{504, true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.status), func(t *testing.T) {
			if got := retryable(tt.status); got != tt.want {
				t.Errorf("retryable(%d) = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}
