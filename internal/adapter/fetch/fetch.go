// Package fetch retrieves remote resources over HTTP with bounded retries
// and exponential backoff. Coverage and shoreline downloads are the only
// long-blocking operations in the pipeline, so transient failures here are
// retried before the run is declared dead.
package fetch

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"go.ngs.io/oresund-charts/internal/domain"
)

// Func retrieves the payload of one remote resource. The cache invokes it
// on a miss.
type Func func() ([]byte, error)

// Client wraps an http.Client with retry policy.
type Client struct {
	hc          *http.Client
	maxAttempts int
	baseBackoff time.Duration
	log         *zap.Logger
}

// New creates a fetch client. Downloads can reach ~150 MB (GSHHG archive),
// hence the generous request timeout.
func New(log *zap.Logger) *Client {
	return &Client{
		hc:          &http.Client{Timeout: 5 * time.Minute},
		maxAttempts: 4,
		baseBackoff: time.Second,
		log:         log,
	}
}

// Get downloads url, retrying transient failures with exponential backoff.
// Every failure mode wraps domain.ErrFetch.
func (c *Client) Get(url string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			delay := c.baseBackoff << (attempt - 1)
			c.log.Warn("retrying download",
				zap.String("url", url),
				zap.Int("attempt", attempt+1),
				zap.Duration("backoff", delay),
				zap.Error(lastErr))
			time.Sleep(delay)
		}
		body, err := c.getOnce(url)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable(err) {
			break
		}
	}
	return nil, fmt.Errorf("%w: %s: %v", domain.ErrFetch, url, lastErr)
}

// URL returns a fetch.Func bound to one URL, for handing to the cache.
func (c *Client) URL(url string) Func {
	return func() ([]byte, error) { return c.Get(url) }
}

type httpStatusError struct {
	code int
	body string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("http status %d: %.200s", e.code, e.body)
}

func (c *Client) getOnce(url string) ([]byte, error) {
	resp, err := c.hc.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &httpStatusError{code: resp.StatusCode, body: string(snippet)}
	}
	return io.ReadAll(resp.Body)
}

// retryable reports whether another attempt could succeed. Network errors
// and 5xx/429 responses are retryable; other HTTP statuses are not.
func retryable(err error) bool {
	if se, ok := err.(*httpStatusError); ok {
		return se.code >= 500 || se.code == http.StatusTooManyRequests
	}
	return true
}
