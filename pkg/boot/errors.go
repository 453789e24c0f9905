package boot

import (
	"fmt"

	"github.com/pkg/errors"
)

// Errors decoding a frame.
var (
	ErrFrameTooShort = errors.New("frame too short")
	ErrFrameLength   = errors.New("frame length mismatch")
	ErrFrameChecksum = errors.New("frame checksum mismatch")
)

// FileError reports a firmware image which could not be read.
type FileError struct {
	Path string
	Err  error
}

// Error implements error.
func (e *FileError) Error() string {
	return fmt.Sprintf("firmware %s: %v", e.Path, e.Err)
}

// Cause returns the underlying error.
func (e *FileError) Cause() error {
	return e.Err
}

// Unwrap returns the underlying error.
func (e *FileError) Unwrap() error {
	return e.Err
}

// WriteError reports a frame which could not be written to the device.
type WriteError struct {
	Seq  byte
	Func byte
	Err  error
}

// Error implements error.
func (e *WriteError) Error() string {
	return fmt.Sprintf("write frame seq=%d func=%02X: %v", e.Seq, e.Func, e.Err)
}

// Cause returns the underlying error.
func (e *WriteError) Cause() error {
	return e.Err
}

// Unwrap returns the underlying error.
func (e *WriteError) Unwrap() error {
	return e.Err
}
