package filesystem

import (
	"time"

	"github.com/brettbedarf/asyncfs"
	"github.com/brettbedarf/asyncfs/internal/sysfs"
)

// POSIX file type bits of st_mode.
const (
	S_IFMT   = 0o170000
	S_IFSOCK = 0o140000
	S_IFLNK  = 0o120000
	S_IFREG  = 0o100000
	S_IFBLK  = 0o060000
	S_IFDIR  = 0o040000
	S_IFCHR  = 0o020000
	S_IFIFO  = 0o010000
)

// DecodeStat converts a raw stat buffer into an attribute record. Exactly one
// of the Is* predicates is set for any known file type.
func DecodeStat(raw *sysfs.RawStat) *asyncfs.Stat {
	st := &asyncfs.Stat{
		Dev:   raw.Dev,
		Ino:   raw.Ino,
		Mode:  raw.Mode,
		Nlink: raw.Nlink,
		Uid:   raw.Uid,
		Gid:   raw.Gid,
		Rdev:  raw.Rdev,
		Size:  raw.Size,
		Atime: toTime(raw.Atime),
		Mtime: toTime(raw.Mtime),
		Ctime: toTime(raw.Ctime),
	}
	if raw.HasBirthtime {
		st.Birthtime = toTime(raw.Birthtime)
	}
	if raw.HasBlocks {
		blksize, blocks := raw.Blksize, raw.Blocks
		st.Blksize = &blksize
		st.Blocks = &blocks
	}

	switch raw.Mode & S_IFMT {
	case S_IFREG:
		st.IsFile = true
	case S_IFDIR:
		st.IsDirectory = true
	case S_IFCHR:
		st.IsCharDevice = true
	case S_IFBLK:
		st.IsBlockDevice = true
	case S_IFIFO:
		st.IsFIFO = true
	case S_IFLNK:
		st.IsSymlink = true
	case S_IFSOCK:
		st.IsSocket = true
	}
	return st
}

func toTime(ts sysfs.Timespec) time.Time {
	return time.Unix(ts.Sec, ts.Nsec)
}
