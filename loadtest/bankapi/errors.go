package bankapi

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidBaseURL is returned when the client is created with a base URL that is not absolute.
	ErrInvalidBaseURL = errors.New("bank api base url must be an absolute http(s) url")

	// ErrUnexpectedStatus is matched by every *StatusError.
	ErrUnexpectedStatus = errors.New("unexpected response status")

	// ErrDecodingResponseFailed is returned when a 200 reply cannot be decoded or lacks a required field.
	ErrDecodingResponseFailed = errors.New("decoding response failed")

	// ErrRequestFailed is returned when a request could not be built or the round trip failed.
	ErrRequestFailed = errors.New("request failed")
)

// StatusError reports a non-200 reply for one API operation.
type StatusError struct {
	Op         string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s %d", e.Op, ErrUnexpectedStatus.Error(), e.StatusCode)
}

// Is makes errors.Is(err, ErrUnexpectedStatus) true for any *StatusError.
func (e *StatusError) Is(target error) bool {
	return target == ErrUnexpectedStatus
}

// StatusCode extracts the HTTP status code from err, or 0 if err carries none.
func StatusCode(err error) int {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}

	return 0
}

func missingField(name string) error {
	return fmt.Errorf("missing required field %q", name)
}
