package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeForStatus(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorType
	}{
		{0, ErrorTypeNetwork},
		{400, ErrorTypeBadRequest},
		{401, ErrorTypeAuth},
		{403, ErrorTypePermission},
		{404, ErrorTypeNotFound},
		{409, ErrorTypeConflict},
		{429, ErrorTypeRateLimit},
		{500, ErrorTypeServerError},
		{503, ErrorTypeServerError},
		{302, ErrorTypeUnknown},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, TypeForStatus(tt.status), "status %d", tt.status)
	}
}

func TestIsRetryableStatusCode(t *testing.T) {
	assert.True(t, IsRetryableStatusCode(0))
	assert.True(t, IsRetryableStatusCode(429))
	assert.True(t, IsRetryableStatusCode(502))
	assert.False(t, IsRetryableStatusCode(401))
	assert.False(t, IsRetryableStatusCode(403))
	assert.False(t, IsRetryableStatusCode(409))
}

func TestErrorMessage(t *testing.T) {
	err := New(ErrorTypeAuth, 401, "invalid token for %s", "org/model")
	assert.Equal(t, "auth error (code 401): invalid token for org/model", err.Error())

	netErr := New(ErrorTypeNetwork, 0, "connection refused")
	assert.Equal(t, "network error: connection refused", netErr.Error())
}
