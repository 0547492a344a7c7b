package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"unsafe"

	"github.com/brettbedarf/asyncfs"
	"github.com/brettbedarf/asyncfs/internal/util"
	"github.com/hanwen/go-fuse/v2/fuse"
	"golang.org/x/sys/unix"
)

var errBackendClosed = errors.New("watcher backend closed")

const (
	changeMask = unix.IN_ATTRIB | unix.IN_MODIFY
	watchMask  = changeMask | unix.IN_CREATE | unix.IN_DELETE | unix.IN_DELETE_SELF |
		unix.IN_MOVE_SELF | unix.IN_MOVED_FROM | unix.IN_MOVED_TO
)

type inotifyBackend struct {
	file *os.File // nonblocking inotify fd, read through the runtime poller
	path string
	base string
	buf  []byte
}

func newBackend(path string) (backend, error) {
	fd, err := unix.InotifyInit1(unix.IN_NONBLOCK | unix.IN_CLOEXEC)
	if err != nil {
		return nil, asyncfs.NewError(-int(fuse.ToStatus(err)), StartOp, path)
	}
	if _, err := unix.InotifyAddWatch(fd, path, watchMask); err != nil {
		unix.Close(fd)
		return nil, asyncfs.NewError(-int(fuse.ToStatus(err)), StartOp, path)
	}
	return &inotifyBackend{
		file: os.NewFile(uintptr(fd), "inotify"),
		path: path,
		base: filepath.Base(path),
		buf:  make([]byte, 64*(unix.SizeofInotifyEvent+unix.NAME_MAX+1)),
	}, nil
}

func (b *inotifyBackend) next() ([]Event, error) {
	for {
		n, err := b.file.Read(b.buf)
		if errors.Is(err, os.ErrClosed) {
			return nil, errBackendClosed
		}
		if err != nil {
			return nil, errorFor(-int(fuse.ToStatus(err)), b.path)
		}
		if events := b.parse(b.buf[:n]); len(events) > 0 {
			return events, nil
		}
	}
}

func (b *inotifyBackend) parse(buf []byte) []Event {
	var events []Event
	for off := 0; off+unix.SizeofInotifyEvent <= len(buf); {
		raw := (*unix.InotifyEvent)(unsafe.Pointer(&buf[off]))
		nameLen := int(raw.Len)
		name := ""
		if nameLen > 0 {
			nameBytes := buf[off+unix.SizeofInotifyEvent : off+unix.SizeofInotifyEvent+nameLen]
			name = string(trimNul(nameBytes))
		}
		off += unix.SizeofInotifyEvent + nameLen

		if raw.Mask&unix.IN_Q_OVERFLOW != 0 {
			logger := util.GetLogger("Watcher.inotify")
			logger.Warn().Str("path", b.path).Msg("Event queue overflowed, events were lost")
			events = append(events, Event{Kind: None, Filename: b.base})
			continue
		}
		if raw.Mask&unix.IN_IGNORED != 0 {
			continue
		}
		if name == "" {
			name = b.base
		}
		events = append(events, Event{Kind: classify(raw.Mask), Filename: name})
	}
	return events
}

// classify maps attribute or content changes to Change and everything else
// to Rename. A mask carrying both is None.
func classify(mask uint32) EventKind {
	changed := mask&changeMask != 0
	renamed := mask&^uint32(changeMask|unix.IN_ISDIR) != 0
	switch {
	case changed && renamed:
		return None
	case changed:
		return Change
	case renamed:
		return Rename
	}
	return None
}

func trimNul(b []byte) []byte {
	for i, c := range b {
		if c == 0 {
			return b[:i]
		}
	}
	return b
}

func (b *inotifyBackend) close() error {
	return b.file.Close()
}
