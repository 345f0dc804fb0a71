// Package connectivity probes whether the remote side is reachable.
package connectivity

import (
	"context"
	"net/http"
	"time"

	"github.com/cesargomez89/toonshelf/internal/logger"
)

// Checker issues a HEAD request against a known endpoint. Any response
// below 500 counts as online.
type Checker struct {
	url     string
	client  *http.Client
	timeout time.Duration
	logger  *logger.Logger
}

func NewChecker(url string, timeout time.Duration, log *logger.Logger) *Checker {
	return &Checker{
		url:     url,
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
		logger:  log.WithComponent("connectivity"),
	}
}

func (c *Checker) HasInternetAvailable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.url, nil)
	if err != nil {
		c.logger.Warn("Invalid connectivity URL", "url", c.url, "error", err)
		return false
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debug("Connectivity probe failed", "error", err)
		return false
	}
	_ = resp.Body.Close()
	return resp.StatusCode < http.StatusInternalServerError
}

// Static always reports the same answer. Used when probing is disabled
// and in tests.
type Static bool

func (s Static) HasInternetAvailable(context.Context) bool {
	return bool(s)
}
