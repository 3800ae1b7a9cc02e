package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// CodeAntiBot is the backend's machine code for a target site refusing
// automated access.
const CodeAntiBot = "ANTI_BOT_BLOCKED"

var (
	// ErrUnreachable means the request never completed: connection
	// failure, timeout or cancellation.
	ErrUnreachable = errors.New("endpoint unreachable")

	// ErrNoArchive is returned when /package answers without zip_data.
	ErrNoArchive = errors.New("no archive produced")
)

// APIError is an error reported by the backend, either through a non-2xx
// status or a {"status":"error"} body.
type APIError struct {
	Endpoint string
	Status   int
	Message  string
	Code     string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Code != "" {
		return fmt.Sprintf("%s: %s (status %d, code %s)", e.Endpoint, msg, e.Status, e.Code)
	}
	return fmt.Sprintf("%s: %s (status %d)", e.Endpoint, msg, e.Status)
}

// IsAntiBot reports whether err carries the anti-bot code.
func IsAntiBot(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && strings.EqualFold(apiErr.Code, CodeAntiBot)
}

// IsUnreachable reports whether err is a network-level failure.
func IsUnreachable(err error) bool {
	return errors.Is(err, ErrUnreachable)
}
