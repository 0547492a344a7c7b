//go:build linux || darwin

package sysfs

// Timespec is a seconds/nanoseconds timestamp as reported by the OS.
type Timespec struct {
	Sec  int64
	Nsec int64
}

// RawStat is the platform-neutral copy of the OS stat structure. HasBlocks
// is false where the platform does not report Blksize/Blocks; HasBirthtime
// is false when the filesystem does not report a creation time.
type RawStat struct {
	Dev       uint64
	Ino       uint64
	Mode      uint32
	Nlink     uint64
	Uid       uint32
	Gid       uint32
	Rdev      uint64
	Size      int64
	Atime     Timespec
	Mtime     Timespec
	Ctime     Timespec
	Birthtime Timespec
	Blksize   int64
	Blocks    int64

	HasBlocks    bool
	HasBirthtime bool
}
