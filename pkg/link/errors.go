package link

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConnected indicates an operation is attempted without an open transport.
	ErrNotConnected = errors.New("transport not connected")
)

// SchemeError indicates the link URL uses an unknown scheme.
type SchemeError struct {
	Scheme string
}

// Error implements error.
func (e *SchemeError) Error() string {
	return fmt.Sprintf("unknown link scheme: %q", e.Scheme)
}
