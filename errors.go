package asyncfs

import (
	"errors"
	"fmt"
	"syscall"

	"golang.org/x/sys/unix"
)

// ErrInternal marks a dispatch-table bug: a completed request whose kind has
// no decoder. It is delivered through the normal error channel.
var ErrInternal = errors.New("asyncfs: internal dispatch error")

// Error is an OS-level failure of a filesystem operation, either rejected at
// submission or reported as a negative result on completion.
type Error struct {
	Code int    // negative errno
	Name string // errno symbol, e.g. "ENOENT"
	Op   string // operation name, e.g. "open"
	Path string // empty for fd-based operations
}

// NewError builds an Error from a negative result code.
func NewError(code int, op, path string) *Error {
	name := unix.ErrnoName(syscall.Errno(-code))
	if name == "" {
		name = fmt.Sprintf("E%d", -code)
	}
	return &Error{Code: code, Name: name, Op: op, Path: path}
}

// Errno returns the positive OS error number.
func (e *Error) Errno() syscall.Errno {
	return syscall.Errno(-e.Code)
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s, %s '%s'", e.Op, e.Name, e.Errno().Error(), e.Path)
	}
	return fmt.Sprintf("%s: %s, %s", e.Op, e.Name, e.Errno().Error())
}

// Unwrap exposes the errno so errors.Is(err, fs.ErrNotExist) works.
func (e *Error) Unwrap() error {
	return e.Errno()
}

// InputError reports a malformed argument. No request is submitted.
type InputError struct {
	Op     string
	Arg    string
	Value  any
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s: bad argument %s (%v): %s", e.Op, e.Arg, e.Value, e.Reason)
}
