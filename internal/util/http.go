package util

import (
	"log/slog"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// NewRetryClient returns a retrying HTTP client. retryMax is the number of
// extra attempts made on connection errors and 5xx/429 responses.
func NewRetryClient(retryMax int, timeout time.Duration, logger *slog.Logger) *retryablehttp.Client {
	c := retryablehttp.NewClient()
	c.RetryMax = retryMax
	c.RetryWaitMin = 100 * time.Millisecond
	c.RetryWaitMax = time.Second
	c.HTTPClient.Timeout = timeout
	c.Logger = nil
	if logger != nil {
		c.Logger = logger
	}
	return c
}
