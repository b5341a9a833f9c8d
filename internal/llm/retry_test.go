package llm

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestShouldRetry(t *testing.T) {
	retryable := []int{
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout,
	}
	for _, code := range retryable {
		assert.True(t, shouldRetry(code), "status %d", code)
	}

	terminal := []int{
		http.StatusBadRequest,
		http.StatusUnauthorized,
		http.StatusForbidden,
		http.StatusNotFound,
	}
	for _, code := range terminal {
		assert.False(t, shouldRetry(code), "status %d", code)
	}
}

func TestCalculateBackoff(t *testing.T) {
	config := DefaultRetryConfig()

	assert.Equal(t, 4*time.Second, calculateBackoff(0, config))
	assert.Equal(t, 8*time.Second, calculateBackoff(1, config))
	// 16s exceeds the cap.
	assert.Equal(t, 10*time.Second, calculateBackoff(2, config))
	assert.Equal(t, 10*time.Second, calculateBackoff(5, config))
}

func TestDefaultRetryConfig(t *testing.T) {
	config := DefaultRetryConfig()

	assert.Equal(t, 3, config.MaxAttempts)
	assert.Equal(t, 4*time.Second, config.InitialBackoff)
	assert.Equal(t, 10*time.Second, config.MaxBackoff)
}
