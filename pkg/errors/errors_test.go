package errors

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTooManyRequestsCarriesRetryHint(t *testing.T) {
	err := TooManyRequests("Rate limit exceeded", 90*time.Second)
	assert.Equal(t, http.StatusTooManyRequests, err.Status)
	assert.Contains(t, err.Message, "retry in 1m30s")

	// Sub-second waits still produce a usable hint.
	err = TooManyRequests("Rate limit exceeded", 200*time.Millisecond)
	assert.Contains(t, err.Message, "retry in 1s")

	err = TooManyRequests("Rate limit exceeded", 0)
	assert.Equal(t, "Rate limit exceeded", err.Message)
}

func TestIsMatchesWrappedCode(t *testing.T) {
	err := fmt.Errorf("lookup failed: %w", NotFound("Conversation", nil))
	assert.True(t, Is(err, "NOT_FOUND"))
	assert.False(t, Is(err, "FORBIDDEN"))
	assert.True(t, IsAppError(err))
	assert.False(t, IsAppError(fmt.Errorf("plain")))
}
