package watcher

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"
	"unsafe"

	"github.com/brettbedarf/asyncfs"
	"github.com/brettbedarf/asyncfs/eventloop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func runLoop(t *testing.T, loop *eventloop.Loop) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, loop.Run(ctx))
}

func newLoop(t *testing.T) *eventloop.Loop {
	loop := eventloop.New(eventloop.Options{Workers: 1})
	t.Cleanup(loop.Close)
	return loop
}

func TestWatchDirectoryCreate(t *testing.T) {
	t.Parallel()
	loop := newLoop(t)
	dir := t.TempDir()

	var got []Event
	var w *Watcher
	w, err := Start(loop, dir, func(ev Event, err error) {
		require.NoError(t, err)
		got = append(got, ev)
		if ev.Filename == "created" {
			require.NoError(t, w.Close())
		}
	})
	require.NoError(t, err)
	assert.NotEmpty(t, w.ID())
	assert.Equal(t, dir, w.Path())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "created"), nil, 0o644))
	runLoop(t, loop)

	require.NotEmpty(t, got)
	assert.Equal(t, Event{Kind: Rename, Filename: "created"}, got[0])
}

func TestWatchFileChange(t *testing.T) {
	t.Parallel()
	loop := newLoop(t)
	path := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(path, []byte("a"), 0o644))

	var got Event
	var w *Watcher
	w, err := Start(loop, path, func(ev Event, err error) {
		require.NoError(t, err)
		got = ev
		require.NoError(t, w.Close())
	})
	require.NoError(t, err)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0)
	require.NoError(t, err)
	_, err = f.Write([]byte("b"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	runLoop(t, loop)
	assert.Equal(t, Change, got.Kind)
	assert.Equal(t, "file", got.Filename)
}

func TestStartMissingPath(t *testing.T) {
	t.Parallel()
	loop := newLoop(t)
	missing := filepath.Join(t.TempDir(), "missing")

	w, err := Start(loop, missing, func(Event, error) { t.Fatal("listener invoked") })
	assert.Nil(t, w)
	var fsErr *asyncfs.Error
	require.ErrorAs(t, err, &fsErr)
	assert.Equal(t, StartOp, fsErr.Op)
	assert.Equal(t, missing, fsErr.Path)
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	// no reference was taken
	runLoop(t, loop)
}

func TestCloseBeforeRun(t *testing.T) {
	t.Parallel()
	loop := newLoop(t)
	dir := t.TempDir()

	w, err := Start(loop, dir, func(Event, error) { t.Fatal("listener invoked after close") })
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "x"), nil, 0o644))
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	runLoop(t, loop)
}

func TestClassify(t *testing.T) {
	t.Parallel()
	tests := []struct {
		mask uint32
		want EventKind
	}{
		{unix.IN_MODIFY, Change},
		{unix.IN_ATTRIB, Change},
		{unix.IN_CREATE, Rename},
		{unix.IN_CREATE | unix.IN_ISDIR, Rename},
		{unix.IN_DELETE, Rename},
		{unix.IN_MOVED_FROM, Rename},
		{unix.IN_MOVED_TO, Rename},
		{unix.IN_DELETE_SELF, Rename},
		{unix.IN_MODIFY | unix.IN_MOVE_SELF, None},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, classify(tt.mask), "mask %#x", tt.mask)
	}
}

func TestQueueOverflowReportsNone(t *testing.T) {
	t.Parallel()
	b := &inotifyBackend{path: "/tmp/dir", base: "dir"}
	events := []unix.InotifyEvent{
		{Wd: -1, Mask: unix.IN_Q_OVERFLOW},
		{Wd: 1, Mask: unix.IN_IGNORED},
		{Wd: 1, Mask: unix.IN_MODIFY},
	}
	var buf []byte
	for i := range events {
		buf = append(buf, (*[unix.SizeofInotifyEvent]byte)(unsafe.Pointer(&events[i]))[:]...)
	}

	got := b.parse(buf)
	require.Len(t, got, 2)
	assert.Equal(t, Event{Kind: None, Filename: "dir"}, got[0])
	assert.Equal(t, Event{Kind: Change, Filename: "dir"}, got[1])
}

func TestEventKindString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "rename", Rename.String())
	assert.Equal(t, "change", Change.String())
	assert.Equal(t, "", None.String())
}

func TestErrorFor(t *testing.T) {
	t.Parallel()
	err := errorFor(-int(unix.ENOSPC), "/x")
	assert.Equal(t, ErrorOp, err.Op)
	assert.Equal(t, "ENOSPC", err.Name)
}
