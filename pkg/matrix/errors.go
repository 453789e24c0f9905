package matrix

import "fmt"

// ReadError wraps a transport read failure surfaced to the caller.
type ReadError struct {
	// Count is the number of consecutive failures including this one.
	Count int
	Err   error
}

// Error implements error.
func (e *ReadError) Error() string {
	return fmt.Sprintf("read error (%d consecutive): %v", e.Count, e.Err)
}

// Unwrap returns the transport error.
func (e *ReadError) Unwrap() error {
	return e.Err
}
