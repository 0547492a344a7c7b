package filesystem

import (
	"errors"
	"io"
	"io/fs"
	"iter"

	"github.com/brettbedarf/asyncfs"
	"github.com/brettbedarf/asyncfs/internal/sysfs"
	"github.com/brettbedarf/asyncfs/internal/util"
)

// entryStream lazily pulls directory entries from a scandir cursor. It can
// be ranged over once; later ranges yield nothing.
type entryStream struct {
	cur  sysfs.Cursor
	done bool
	err  error
}

func newEntryStream(cur sysfs.Cursor) *entryStream {
	return &entryStream{cur: cur, done: cur == nil}
}

// All yields entries in cursor order until the cursor reports io.EOF.
func (s *entryStream) All() iter.Seq[asyncfs.DirEntry] {
	return func(yield func(asyncfs.DirEntry) bool) {
		for !s.done {
			d, err := s.cur.Next()
			if err != nil {
				s.done = true
				if !errors.Is(err, io.EOF) {
					s.err = err
				}
				return
			}
			if !yield(asyncfs.DirEntry{Name: d.Name, Type: direntType(d.Type)}) {
				return
			}
		}
	}
}

// Err returns the cursor error that stopped iteration, if any.
func (s *entryStream) Err() error {
	return s.err
}

// drainEntries collects the whole stream.
func drainEntries(cur sysfs.Cursor) []asyncfs.DirEntry {
	s := newEntryStream(cur)
	entries := []asyncfs.DirEntry{}
	for e := range s.All() {
		entries = append(entries, e)
	}
	if s.Err() != nil {
		logger := util.GetLogger("FS.scandir")
		logger.Warn().Err(s.Err()).Int("entries", len(entries)).Msg("Directory cursor stopped early")
	}
	return entries
}

func direntType(m fs.FileMode) asyncfs.DirentType {
	switch {
	case m.IsRegular():
		return asyncfs.DirentFile
	case m&fs.ModeDir != 0:
		return asyncfs.DirentDir
	case m&fs.ModeSymlink != 0:
		return asyncfs.DirentLink
	case m&fs.ModeNamedPipe != 0:
		return asyncfs.DirentFIFO
	case m&fs.ModeSocket != 0:
		return asyncfs.DirentSocket
	case m&fs.ModeCharDevice != 0:
		return asyncfs.DirentChar
	case m&fs.ModeDevice != 0:
		return asyncfs.DirentBlock
	}
	return asyncfs.DirentUnknown
}
