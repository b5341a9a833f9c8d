package llm

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/visionmark/visionmark/internal/domain"
)

const (
	maxAttempts    = 3
	initialBackoff = 4 * time.Second
	maxBackoff     = 10 * time.Second
)

// RetryConfig holds retry configuration for external model calls.
type RetryConfig struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryConfig returns the default retry policy: 3 attempts total with
// exponential backoff starting at 4s and capped at 10s.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:    maxAttempts,
		InitialBackoff: initialBackoff,
		MaxBackoff:     maxBackoff,
	}
}

// shouldRetry determines if an HTTP status is retryable.
func shouldRetry(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// calculateBackoff calculates the exponential backoff duration for an attempt.
func calculateBackoff(attempt int, config *RetryConfig) time.Duration {
	backoff := float64(config.InitialBackoff) * math.Pow(2, float64(attempt))
	if backoff > float64(config.MaxBackoff) {
		backoff = float64(config.MaxBackoff)
	}
	return time.Duration(backoff)
}

// retryWithBackoff wraps an HTTP request with retry logic. Transport errors
// and retryable statuses are retried; other statuses are returned to the
// caller as-is. Exhaustion surfaces as a single ModelError wrapping the last
// failure.
func (c *GeminiClient) retryWithBackoff(ctx context.Context, reqFunc func() (*http.Response, error)) (*http.Response, error) {
	config := c.retry
	if config == nil {
		config = DefaultRetryConfig()
	}
	var lastErr error

	for attempt := 0; attempt < config.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		resp, err := reqFunc()

		if err == nil && resp.StatusCode == http.StatusOK {
			return resp, nil
		}

		if err != nil {
			lastErr = err
		} else {
			lastErr = fmt.Errorf("HTTP %d", resp.StatusCode)

			if !shouldRetry(resp.StatusCode) {
				return resp, nil
			}

			if resp.Body != nil {
				resp.Body.Close()
			}
		}

		if attempt == config.MaxAttempts-1 {
			break
		}

		backoff := calculateBackoff(attempt, config)
		c.logger.Warn().
			Int("attempt", attempt+1).
			Int("max_attempts", config.MaxAttempts).
			Dur("backoff", backoff).
			Err(lastErr).
			Msg("model call failed, retrying")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}

	return nil, domain.ModelError(fmt.Sprintf("request failed after %d attempts", config.MaxAttempts), lastErr)
}
