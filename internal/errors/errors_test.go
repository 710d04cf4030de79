package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorCodes(t *testing.T) {
	codes := []string{
		ErrConfig,
		ErrFeed,
		ErrAuth,
		ErrStore,
	}

	seen := make(map[string]bool)
	for _, code := range codes {
		assert.NotEmpty(t, code, "error code should not be empty")
		assert.False(t, seen[code], "error code %q should be unique", code)
		seen[code] = true
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name       string
		code       string
		message    string
		suggestion string
	}{
		{
			name:       "config error",
			code:       ErrConfig,
			message:    "Invalid configuration in .commandcenter.yaml",
			suggestion: "Check your configuration file syntax",
		},
		{
			name:       "feed error",
			code:       ErrFeed,
			message:    "Cannot reach gateway ws://gw1:8000/snmp",
			suggestion: "Check the gateway URL and that the management service is running",
		},
		{
			name:       "auth error",
			code:       ErrAuth,
			message:    "Login cancelled for ws://gw1:8000/snmp",
			suggestion: "Reconnect to try again",
		},
		{
			name:       "store error",
			code:       ErrStore,
			message:    "jvm stores cannot be shut down",
			suggestion: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, tt.message, tt.suggestion)

			require.NotNil(t, err)
			assert.Equal(t, tt.code, err.Code)
			assert.Equal(t, tt.message, err.Message)
			assert.Equal(t, tt.suggestion, err.Suggestion)
			assert.Nil(t, err.Cause)
		})
	}
}

func TestError_Format(t *testing.T) {
	t.Run("message only", func(t *testing.T) {
		err := New(ErrFeed, "Gateway went away", "")
		assert.Equal(t, "✗ Gateway went away\n", err.Error())
	})

	t.Run("with cause and suggestion", func(t *testing.T) {
		err := WrapWithCode(fmt.Errorf("connection refused"), ErrFeed,
			"Cannot reach gateway", "Check the gateway URL")
		out := err.Error()

		lines := strings.Split(out, "\n")
		assert.Equal(t, "✗ Cannot reach gateway", lines[0])
		assert.Contains(t, out, "  connection refused")
		assert.Contains(t, out, "  Check the gateway URL")
		assert.Less(t, strings.Index(out, "connection refused"), strings.Index(out, "Check the gateway URL"))
	})
}

func TestWrap_DefaultsToFeedCode(t *testing.T) {
	cause := fmt.Errorf("EOF")
	err := Wrap(cause, "Stream closed")

	assert.Equal(t, ErrFeed, err.Code)
	assert.Same(t, cause, errors.Unwrap(err))
}

func TestIsCode(t *testing.T) {
	base := New(ErrAuth, "Login cancelled", "")
	wrapped := fmt.Errorf("connect: %w", base)

	assert.True(t, IsCode(base, ErrAuth))
	assert.True(t, IsCode(wrapped, ErrAuth))
	assert.False(t, IsCode(wrapped, ErrConfig))
	assert.False(t, IsCode(fmt.Errorf("plain"), ErrAuth))
	assert.False(t, IsCode(nil, ErrAuth))
}

func TestErrorsIs_ThroughCause(t *testing.T) {
	sentinel := errors.New("sentinel")
	err := WrapWithCode(sentinel, ErrConfig, "Failed to read config file", "")

	assert.True(t, errors.Is(err, sentinel))
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     string
		exitCode int
	}{
		{"config", New(ErrConfig, "bad interval", ""), ErrConfig, 2},
		{"wrapped auth", fmt.Errorf("gw1: %w", New(ErrAuth, "Login refused", "")), ErrAuth, 3},
		{"feed", Wrap(fmt.Errorf("EOF"), "Stream closed"), ErrFeed, 1},
		{"store", New(ErrStore, "cpu stores cannot be shut down", ""), ErrStore, 1},
		{"plain", fmt.Errorf("plain"), "", 1},
		{"nil", nil, "", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, CodeOf(tt.err))
			assert.Equal(t, tt.exitCode, ExitCode(tt.err))
		})
	}
}
