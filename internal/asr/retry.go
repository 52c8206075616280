package asr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/markupr/markupr/internal/logging"
)

// DefaultRetryCount is the default number of retry attempts.
const DefaultRetryCount = 3

// DefaultBaseDelay is the initial delay for exponential backoff.
const DefaultBaseDelay = 1 * time.Second

// RetryClient wraps a Client with retry logic and exponential backoff.
// Connection errors and 5xx responses are retried; 4xx client errors are
// not.
type RetryClient struct {
	client    Client
	maxRetry  int
	baseDelay time.Duration
	logger    logging.Logger
}

// RetryOption configures the RetryClient.
type RetryOption func(*RetryClient)

// WithRetryCount sets the maximum number of retry attempts.
func WithRetryCount(n int) RetryOption {
	return func(c *RetryClient) {
		c.maxRetry = n
	}
}

// WithBaseDelay sets the initial delay for exponential backoff.
func WithBaseDelay(d time.Duration) RetryOption {
	return func(c *RetryClient) {
		c.baseDelay = d
	}
}

// WithLogger sets the logger used for retry attempts.
func WithLogger(l logging.Logger) RetryOption {
	return func(c *RetryClient) {
		c.logger = l
	}
}

// NewRetryClient creates a RetryClient wrapping the given Client.
func NewRetryClient(client Client, opts ...RetryOption) *RetryClient {
	c := &RetryClient{
		client:    client,
		maxRetry:  DefaultRetryCount,
		baseDelay: DefaultBaseDelay,
		logger:    logging.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Transcribe sends an audio file for transcription, retrying transient
// failures with exponential backoff.
func (c *RetryClient) Transcribe(ctx context.Context, audioPath string, opts Options) (*Transcription, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetry; attempt++ {
		if attempt > 0 {
			delay := c.baseDelay * (1 << (attempt - 1))
			c.logger.Info("retrying transcription",
				logging.Int("attempt", attempt),
				logging.Int("max", c.maxRetry),
				logging.Duration("delay", delay),
			)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		result, err := c.client.Transcribe(ctx, audioPath, opts)
		if err == nil {
			return result, nil
		}
		if !isRetryable(err) {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("transcription failed after %d retries: %w", c.maxRetry, lastErr)
}

// isRetryable reports whether an error should trigger a retry.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	errStr := err.Error()
	if strings.Contains(errStr, "API error: status ") {
		var status int
		if _, scanErr := fmt.Sscanf(errStr, "API error: status %d", &status); scanErr == nil {
			if status >= 400 && status < 500 {
				return false
			}
			if status >= 500 && status < 600 {
				return true
			}
		}
	}

	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "send request:") {
		return true
	}

	return false
}
