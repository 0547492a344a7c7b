//go:build !linux

package watcher

import (
	"errors"

	"github.com/brettbedarf/asyncfs"
	"golang.org/x/sys/unix"
)

var errBackendClosed = errors.New("watcher backend closed")

func newBackend(path string) (backend, error) {
	return nil, asyncfs.NewError(-int(unix.ENOSYS), StartOp, path)
}
