package llm

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsRateLimitError(t *testing.T) {
	assert.True(t, IsRateLimitError(errors.New("Error 429, Message: Too Many Requests")))
	assert.True(t, IsRateLimitError(errors.New("Status: RESOURCE_EXHAUSTED")))
	assert.True(t, IsRateLimitError(errors.New("rate_limit_error: slow down")))
	assert.False(t, IsRateLimitError(errors.New("connection refused")))
	assert.False(t, IsRateLimitError(nil))
}

func TestExtractRetryDelay(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want time.Duration
	}{
		{"please retry", errors.New("Please retry in 45.5s., Status: RESOURCE_EXHAUSTED"), 45500 * time.Millisecond},
		{"retry delay field", errors.New("retryDelay: 12s"), 12 * time.Second},
		{"none", errors.New("429"), 0},
		{"nil", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractRetryDelay(tt.err))
		})
	}
}

func TestCalculateBackoff(t *testing.T) {
	config := NewDefaultRetryConfig()

	assert.Equal(t, DefaultInitialBackoff, config.CalculateBackoff(0, 0))
	assert.Equal(t, 15*time.Second, config.CalculateBackoff(0, 10*time.Second))
	assert.Equal(t, DefaultMaxBackoff, config.CalculateBackoff(5, 0), "capped at max backoff")
}

func TestBackoffFor(t *testing.T) {
	config := NewDefaultRetryConfig()

	assert.Equal(t, 2*DefaultTransientBackoff, config.BackoffFor(1, errors.New("connection reset")))
	assert.Equal(t, DefaultInitialBackoff, config.BackoffFor(0, errors.New("429 Too Many Requests")))
}
