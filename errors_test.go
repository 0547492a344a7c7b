package asyncfs

import (
	"errors"
	"io/fs"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError(t *testing.T) {
	t.Parallel()
	err := NewError(-int(syscall.ENOENT), "open", "/tmp/x")
	assert.Equal(t, "ENOENT", err.Name)
	assert.Equal(t, syscall.ENOENT, err.Errno())
	assert.Equal(t, "open: ENOENT, no such file or directory '/tmp/x'", err.Error())
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	noPath := NewError(-int(syscall.EBADF), "close", "")
	assert.Equal(t, "close: EBADF, bad file descriptor", noPath.Error())
}

func TestErrorUnknownCode(t *testing.T) {
	t.Parallel()
	err := NewError(-4000, "read", "")
	assert.Equal(t, "E4000", err.Name)
}

func TestInputError(t *testing.T) {
	t.Parallel()
	err := &InputError{Op: "open", Arg: "flags", Value: "rw", Reason: "unknown file open flag"}
	assert.Equal(t, "open: bad argument flags (rw): unknown file open flag", err.Error())
}
