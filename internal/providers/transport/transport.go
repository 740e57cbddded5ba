// Package transport provides the shared HTTP plumbing for the upstream data
// providers: a pooled, optionally proxied client and a JSON request helper
// with bounded retries.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/finagent-ir/finagent/internal/common"
)

const (
	// DefaultTimeout is the total per-request deadline.
	DefaultTimeout = 30 * time.Second

	// MaxAttempts bounds retries per request.
	MaxAttempts = 3

	initialBackoff = 1 * time.Second
	maxBackoff     = 10 * time.Second
)

// APIError represents a non-200 response from an upstream provider.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("provider API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// NewHTTPClient builds the pooled HTTP client shared by provider instances.
// An empty proxy URL means direct connections.
func NewHTTPClient(cfg *common.ProviderConfig) (*http.Client, error) {
	maxConns := cfg.MaxConnections
	if maxConns <= 0 {
		maxConns = 100
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	transport := &http.Transport{
		MaxIdleConns:        maxConns,
		MaxIdleConnsPerHost: maxConns,
		IdleConnTimeout:     90 * time.Second,
	}
	if cfg.ProxyURL != "" {
		proxyURL, err := url.Parse(cfg.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL: %w", err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}, nil
}

// Request describes one JSON API call.
type Request struct {
	Method   string
	URL      string
	Headers  map[string]string
	Body     any    // JSON-encoded when non-nil
	Endpoint string // short name for errors and logs
}

// DoJSON executes the request with retries and decodes the JSON response into
// result. Transport errors, timeouts and non-200 statuses are retried with
// exponential backoff; the final failure is returned typed.
func DoJSON(ctx context.Context, client *http.Client, logger arbor.ILogger, req *Request, result any) error {
	var lastErr error

	backoff := initialBackoff
	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		}

		lastErr = doOnce(ctx, client, req, result)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return lastErr
		}

		if logger != nil {
			logger.Warn().
				Str("endpoint", req.Endpoint).
				Int("attempt", attempt).
				Err(lastErr).
				Msg("Provider request failed")
		}
	}

	return fmt.Errorf("request to %s failed after %d attempts: %w", req.Endpoint, MaxAttempts, lastErr)
}

func doOnce(ctx context.Context, client *http.Client, req *Request, result any) error {
	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(data),
			Endpoint:   req.Endpoint,
		}
	}

	if result == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
