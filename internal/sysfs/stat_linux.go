package sysfs

import "golang.org/x/sys/unix"

const statxMask = unix.STATX_BASIC_STATS | unix.STATX_BTIME

func stat(path string, follow bool, st *RawStat) error {
	flags := unix.AT_STATX_SYNC_AS_STAT
	if !follow {
		flags |= unix.AT_SYMLINK_NOFOLLOW
	}
	var sx unix.Statx_t
	if err := unix.Statx(unix.AT_FDCWD, path, flags, statxMask, &sx); err != nil {
		return err
	}
	fillStatx(&sx, st)
	return nil
}

func fstat(fd int, st *RawStat) error {
	var sx unix.Statx_t
	if err := unix.Statx(fd, "", unix.AT_EMPTY_PATH|unix.AT_STATX_SYNC_AS_STAT, statxMask, &sx); err != nil {
		return err
	}
	fillStatx(&sx, st)
	return nil
}

func fillStatx(sx *unix.Statx_t, st *RawStat) {
	*st = RawStat{
		Dev:       unix.Mkdev(sx.Dev_major, sx.Dev_minor),
		Ino:       sx.Ino,
		Mode:      uint32(sx.Mode),
		Nlink:     uint64(sx.Nlink),
		Uid:       sx.Uid,
		Gid:       sx.Gid,
		Rdev:      unix.Mkdev(sx.Rdev_major, sx.Rdev_minor),
		Size:      int64(sx.Size),
		Atime:     fromStatxTime(sx.Atime),
		Mtime:     fromStatxTime(sx.Mtime),
		Ctime:     fromStatxTime(sx.Ctime),
		Blksize:   int64(sx.Blksize),
		Blocks:    int64(sx.Blocks),
		HasBlocks: true,
	}
	if sx.Mask&unix.STATX_BTIME != 0 {
		st.Birthtime = fromStatxTime(sx.Btime)
		st.HasBirthtime = true
	}
}

func fromStatxTime(ts unix.StatxTimestamp) Timespec {
	return Timespec{Sec: ts.Sec, Nsec: int64(ts.Nsec)}
}

func fdatasync(fd int) error {
	return unix.Fdatasync(fd)
}

func sendfile(out, in int, offset int64, length int) (int, error) {
	off := offset
	n, err := ignoringEINTR(func() (int, error) { return unix.Sendfile(out, in, &off, length) })
	if err == unix.EINVAL || err == unix.ENOSYS {
		return sendfileEmulated(out, in, offset, length)
	}
	return n, err
}
