package login

import (
	"encoding/base64"
	"strings"
	"sync"

	"github.com/rileyhilliard/commandcenter/internal/errors"
)

// EncodeCredentials joins username and password with a colon and base64
// encodes the UTF-8 bytes. This is an encoding, not protection: the
// connection itself is expected to be encrypted.
func EncodeCredentials(username, password string) string {
	return base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
}

// DecodeCredentials reverses EncodeCredentials.
func DecodeCredentials(encoded string) (username, password string, err error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", "", errors.WrapWithCode(err, errors.ErrAuth,
			"Credentials are not valid base64", "")
	}
	user, pass, ok := strings.Cut(string(raw), ":")
	if !ok {
		return "", "", errors.New(errors.ErrAuth,
			"Credentials are missing the ':' separator", "")
	}
	return user, pass, nil
}

// SharedCredentials is the process-wide fallback credential slot. The first
// connection to authenticate publishes into it; later publishes are ignored.
type SharedCredentials struct {
	mu    sync.Mutex
	value string
}

// Publish stores encoded credentials if the slot is still empty. Returns
// whether this call set the value.
func (s *SharedCredentials) Publish(encoded string) bool {
	if encoded == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.value != "" {
		return false
	}
	s.value = encoded
	return true
}

// Get returns the shared credentials, or "" when none were published.
func (s *SharedCredentials) Get() string {
	if s == nil {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}
