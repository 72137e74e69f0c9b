package agentauth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAgentAuthError_Error(t *testing.T) {
	err := NewAgentAuthError(404, "not found", "not_found")
	assert.Equal(t, "not_found: not found", err.Error())
}

func TestSentinelErrors_HaveExpectedStatusCodes(t *testing.T) {
	assert.Equal(t, 404, ErrChallengeNotFound.StatusCode)
	assert.Equal(t, 503, ErrStoreUnavailable.StatusCode)
	assert.Equal(t, 500, ErrInvalidConfig.StatusCode)
	assert.Equal(t, 500, ErrNoDriverAvailable.StatusCode)
}
