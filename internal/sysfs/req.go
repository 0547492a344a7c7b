//go:build linux || darwin

// Package sysfs executes single filesystem syscalls described by a [Req]
// token and records the raw result: a non-negative value on success or a
// negative errno on failure, plus any kind-specific output (stat buffer,
// link target, directory cursor).
package sysfs

import (
	"github.com/brettbedarf/asyncfs"
	"github.com/hanwen/go-fuse/v2/fuse"
)

// Req is the OS-level request token. Inputs are set by the dispatcher before
// Do; outputs are filled by Do and released by Cleanup.
type Req struct {
	Kind    asyncfs.OpKind
	Path    string
	NewPath string
	File    int // fd; the input fd for sendfile
	OutFile int // output fd for sendfile
	Flags   int
	Mode    uint32
	Offset  int64 // negative means the current file position for read/write
	Length  int
	Buf     []byte
	Atime   float64
	Mtime   float64
	Uid     int
	Gid     int

	Result  int64
	Statbuf RawStat
	Link    string
	cursor  Cursor
}

// Cursor returns the directory cursor produced by a successful scandir.
func (r *Req) Cursor() Cursor {
	return r.cursor
}

// Cleanup releases everything Do attached to the request. Safe to call more
// than once.
func Cleanup(r *Req) {
	if r.cursor != nil {
		r.cursor.Close()
		r.cursor = nil
	}
	r.Buf = nil
	r.Link = ""
}

// errCode converts a Go error into a negative errno result.
func errCode(err error) int64 {
	return -int64(fuse.ToStatus(err))
}
