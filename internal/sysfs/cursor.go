//go:build linux || darwin

package sysfs

import (
	"io"
	"io/fs"
)

// Dirent is one raw entry pulled from a scandir cursor.
type Dirent struct {
	Name string
	Type fs.FileMode // type bits only
}

// Cursor iterates the entries of a completed scandir. Next returns io.EOF
// once every entry has been produced.
type Cursor interface {
	Next() (Dirent, error)
	Close()
}

type sliceCursor struct {
	entries []fs.DirEntry
	pos     int
}

func newSliceCursor(entries []fs.DirEntry) *sliceCursor {
	return &sliceCursor{entries: entries}
}

func (c *sliceCursor) Next() (Dirent, error) {
	if c.pos >= len(c.entries) {
		return Dirent{}, io.EOF
	}
	e := c.entries[c.pos]
	c.pos++
	return Dirent{Name: e.Name(), Type: e.Type()}, nil
}

func (c *sliceCursor) Close() {
	c.entries = nil
	c.pos = 0
}
