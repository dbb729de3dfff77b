package api

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable covers transport failures and responses that cannot be decoded.
	ErrUnavailable = errors.New("backend unavailable")
	// ErrRejected is returned when the backend answers with success=false.
	ErrRejected = errors.New("backend rejected request")
)

// RejectedError carries the message of a success=false response.
type RejectedError struct {
	Op      string
	Message string
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: %s", e.Op, ErrRejected)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, ErrRejected, e.Message)
}

// Is lets errors.Is(err, ErrRejected) match.
func (e *RejectedError) Is(target error) bool {
	return target == ErrRejected
}
