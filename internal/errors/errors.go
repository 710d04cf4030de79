package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Codes group failures by the part of commandcenter that raised them.
const (
	// ErrConfig covers the config file, flags and environment.
	ErrConfig = "CONFIG"
	// ErrFeed covers gateway connections and feed messages, live or replayed.
	ErrFeed = "FEED"
	// ErrAuth is a login that was cancelled or refused.
	ErrAuth = "AUTH"
	// ErrStore is a summary store asked for something its kind can't do.
	ErrStore = "STORE"
)

// Error is a failure worth showing to the person at the terminal. Message
// says what failed, Cause why, Suggestion what to try next:
//
//	✗ Login to ws://gw1:8000/snmp was cancelled or refused
//
//	  Check the gateway credentials, then reconnect
type Error struct {
	Code       string
	Message    string
	Suggestion string
	Cause      error
}

// New returns an Error with no cause.
func New(code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
	}
}

// Wrap attaches message to err as a feed failure, the most common kind
// raised while talking to gateways.
func Wrap(err error, message string) *Error {
	return &Error{
		Code:    ErrFeed,
		Message: message,
		Cause:   err,
	}
}

// WrapWithCode attaches message and suggestion to err under code.
func WrapWithCode(err error, code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
		Cause:      err,
	}
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "✗ %s\n", e.Message)
	if e.Cause != nil {
		fmt.Fprintf(&b, "\n  %s\n", e.Cause)
	}
	if e.Suggestion != "" {
		fmt.Fprintf(&b, "\n  %s\n", e.Suggestion)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// CodeOf returns the code of the first Error in err's chain, or "".
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsCode reports whether err's chain holds an Error with code.
func IsCode(err error, code string) bool {
	return err != nil && CodeOf(err) == code
}

// ExitCode maps err to the process exit status: 2 for config problems,
// 3 for refused logins, 1 for anything else.
func ExitCode(err error) int {
	switch CodeOf(err) {
	case ErrConfig:
		return 2
	case ErrAuth:
		return 3
	default:
		return 1
	}
}
