package sysfs

import "golang.org/x/sys/unix"

func stat(path string, follow bool, st *RawStat) error {
	var s unix.Stat_t
	var err error
	if follow {
		err = unix.Stat(path, &s)
	} else {
		err = unix.Lstat(path, &s)
	}
	if err != nil {
		return err
	}
	fillStat(&s, st)
	return nil
}

func fstat(fd int, st *RawStat) error {
	var s unix.Stat_t
	if err := unix.Fstat(fd, &s); err != nil {
		return err
	}
	fillStat(&s, st)
	return nil
}

func fillStat(s *unix.Stat_t, st *RawStat) {
	*st = RawStat{
		Dev:          uint64(s.Dev),
		Ino:          s.Ino,
		Mode:         uint32(s.Mode),
		Nlink:        uint64(s.Nlink),
		Uid:          s.Uid,
		Gid:          s.Gid,
		Rdev:         uint64(s.Rdev),
		Size:         s.Size,
		Atime:        Timespec{Sec: s.Atim.Sec, Nsec: s.Atim.Nsec},
		Mtime:        Timespec{Sec: s.Mtim.Sec, Nsec: s.Mtim.Nsec},
		Ctime:        Timespec{Sec: s.Ctim.Sec, Nsec: s.Ctim.Nsec},
		Birthtime:    Timespec{Sec: s.Btim.Sec, Nsec: s.Btim.Nsec},
		Blksize:      int64(s.Blksize),
		Blocks:       s.Blocks,
		HasBlocks:    true,
		HasBirthtime: true,
	}
}

// darwin has no fdatasync(2)
func fdatasync(fd int) error {
	return unix.Fsync(fd)
}

// darwin sendfile(2) only targets sockets
func sendfile(out, in int, offset int64, length int) (int, error) {
	return sendfileEmulated(out, in, offset, length)
}
