package httputil

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/wonny/movers/pkg/logger"
)

const (
	defaultTimeout    = 30 * time.Second
	defaultMaxRetries = 3
	defaultInitDelay  = 1 * time.Second
	defaultMaxDelay   = 10 * time.Second
)

// RetryConfig controls the backoff loop in doWithRetry.
type RetryConfig struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Enabled      bool
}

// Client is an HTTP client with retries on transient failures and
// request logging. Methods returning *Client mutate and return the
// receiver for chained setup.
type Client struct {
	hc    *http.Client
	log   *logger.Logger
	retry RetryConfig
}

func New(log *logger.Logger) *Client {
	return &Client{
		hc:  &http.Client{Timeout: defaultTimeout},
		log: log,
		retry: RetryConfig{
			MaxRetries:   defaultMaxRetries,
			InitialDelay: defaultInitDelay,
			MaxDelay:     defaultMaxDelay,
			Enabled:      true,
		},
	}
}

// NewWithTimeout creates a client with a custom request timeout.
func NewWithTimeout(log *logger.Logger, timeout time.Duration) *Client {
	c := New(log)
	c.hc.Timeout = timeout
	return c
}

// WithRetry overrides the retry count and initial backoff delay.
func (c *Client) WithRetry(maxRetries int, initialDelay time.Duration) *Client {
	c.retry.MaxRetries = maxRetries
	c.retry.InitialDelay = initialDelay
	c.retry.Enabled = true
	return c
}

// DisableRetry makes every request single-shot.
func (c *Client) DisableRetry() *Client {
	c.retry.Enabled = false
	return c
}

// Get issues a GET request, retrying per the client's retry config.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build GET %s: %w", url, err)
	}
	return c.do(req)
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	started := time.Now()
	reqLog := c.log.WithFields(map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})
	reqLog.Debug("HTTP request started")

	var resp *http.Response
	var err error
	if c.retry.Enabled {
		resp, err = c.doWithRetry(req)
	} else {
		resp, err = c.hc.Do(req)
	}

	if err != nil {
		reqLog.WithFields(map[string]interface{}{
			"duration": time.Since(started),
			"error":    err.Error(),
		}).Error("HTTP request failed")
		return nil, err
	}

	reqLog.WithFields(map[string]interface{}{
		"status_code": resp.StatusCode,
		"duration":    time.Since(started),
	}).Debug("HTTP request completed")
	return resp, nil
}

// doWithRetry retries transport errors and retryable statuses with
// doubling delay, capped at MaxDelay. The response from the final
// attempt is returned as-is.
func (c *Client) doWithRetry(req *http.Request) (*http.Response, error) {
	delay := c.retry.InitialDelay

	var resp *http.Response
	var err error
	for attempt := 0; ; attempt++ {
		resp, err = c.hc.Do(req)
		if err == nil && !IsRetryableStatus(resp.StatusCode) {
			return resp, nil
		}
		if attempt == c.retry.MaxRetries {
			return resp, err
		}

		if resp != nil {
			resp.Body.Close()
		}
		c.log.WithFields(map[string]interface{}{
			"attempt": attempt + 1,
			"delay":   delay,
			"url":     req.URL.String(),
		}).Warn("Retrying HTTP request")

		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(delay):
		}

		delay *= 2
		if delay > c.retry.MaxDelay {
			delay = c.retry.MaxDelay
		}
	}
}

// IsRetryableStatus reports whether a response status warrants a retry:
// server errors and rate-limit rejections.
func IsRetryableStatus(status int) bool {
	return status >= 500 || status == http.StatusTooManyRequests
}
