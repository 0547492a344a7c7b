//go:build linux || darwin

package sysfs

import (
	"os"

	"github.com/brettbedarf/asyncfs"
	"golang.org/x/sys/unix"
)

const readlinkInitial = 256

// Do performs the syscall described by r and stores the outcome in r.Result.
// It blocks the calling goroutine.
func Do(r *Req) {
	var (
		n   int
		err error
	)
	switch r.Kind {
	case asyncfs.OpOpen:
		n, err = ignoringEINTR(func() (int, error) { return unix.Open(r.Path, r.Flags|unix.O_CLOEXEC, r.Mode) })
	case asyncfs.OpClose:
		err = unix.Close(r.File)
	case asyncfs.OpRead:
		n, err = ignoringEINTR(func() (int, error) {
			if r.Offset < 0 {
				return unix.Read(r.File, r.Buf)
			}
			return unix.Pread(r.File, r.Buf, r.Offset)
		})
	case asyncfs.OpWrite:
		n, err = ignoringEINTR(func() (int, error) {
			if r.Offset < 0 {
				return unix.Write(r.File, r.Buf)
			}
			return unix.Pwrite(r.File, r.Buf, r.Offset)
		})
	case asyncfs.OpUnlink:
		err = unix.Unlink(r.Path)
	case asyncfs.OpMkdir:
		err = unix.Mkdir(r.Path, r.Mode)
	case asyncfs.OpRmdir:
		err = unix.Rmdir(r.Path)
	case asyncfs.OpScandir:
		n, err = r.scandir()
	case asyncfs.OpStat:
		err = stat(r.Path, true, &r.Statbuf)
	case asyncfs.OpLstat:
		err = stat(r.Path, false, &r.Statbuf)
	case asyncfs.OpFstat:
		err = fstat(r.File, &r.Statbuf)
	case asyncfs.OpRename:
		err = unix.Rename(r.Path, r.NewPath)
	case asyncfs.OpFsync:
		err = unix.Fsync(r.File)
	case asyncfs.OpFdatasync:
		err = fdatasync(r.File)
	case asyncfs.OpFtruncate:
		err = unix.Ftruncate(r.File, r.Offset)
	case asyncfs.OpSendfile:
		n, err = sendfile(r.OutFile, r.File, r.Offset, r.Length)
	case asyncfs.OpChmod:
		err = unix.Chmod(r.Path, r.Mode)
	case asyncfs.OpFchmod:
		err = unix.Fchmod(r.File, r.Mode)
	case asyncfs.OpChown:
		err = unix.Chown(r.Path, r.Uid, r.Gid)
	case asyncfs.OpFchown:
		err = unix.Fchown(r.File, r.Uid, r.Gid)
	case asyncfs.OpUtime:
		err = unix.UtimesNano(r.Path, []unix.Timespec{toTimespec(r.Atime), toTimespec(r.Mtime)})
	case asyncfs.OpFutime:
		err = unix.Futimes(r.File, []unix.Timeval{toTimeval(r.Atime), toTimeval(r.Mtime)})
	case asyncfs.OpLink:
		err = unix.Link(r.Path, r.NewPath)
	case asyncfs.OpSymlink:
		err = unix.Symlink(r.Path, r.NewPath)
	case asyncfs.OpReadlink:
		r.Link, err = readlink(r.Path)
	default:
		err = unix.ENOSYS
	}
	if err != nil {
		r.Result = errCode(err)
		return
	}
	r.Result = int64(n)
}

func (r *Req) scandir() (int, error) {
	f, err := os.Open(r.Path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	entries, err := f.ReadDir(-1)
	if err != nil {
		return 0, err
	}
	r.cursor = newSliceCursor(entries)
	return len(entries), nil
}

func readlink(path string) (string, error) {
	for size := readlinkInitial; ; size *= 2 {
		buf := make([]byte, size)
		n, err := unix.Readlink(path, buf)
		if err != nil {
			return "", err
		}
		if n < size {
			return string(buf[:n]), nil
		}
	}
}

// sendfileEmulated copies length bytes from in at offset to out's current
// position with pread/write.
func sendfileEmulated(out, in int, offset int64, length int) (int, error) {
	buf := make([]byte, min(length, 64*1024))
	total := 0
	for total < length {
		chunk := buf[:min(len(buf), length-total)]
		n, err := ignoringEINTR(func() (int, error) { return unix.Pread(in, chunk, offset+int64(total)) })
		if err != nil {
			return total, err
		}
		if n == 0 {
			break
		}
		w, err := ignoringEINTR(func() (int, error) { return unix.Write(out, chunk[:n]) })
		total += w
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func toTimespec(sec float64) unix.Timespec {
	return unix.NsecToTimespec(int64(sec * 1e9))
}

func toTimeval(sec float64) unix.Timeval {
	return unix.NsecToTimeval(int64(sec * 1e9))
}

func ignoringEINTR(fn func() (int, error)) (int, error) {
	for {
		n, err := fn()
		if err != unix.EINTR {
			return n, err
		}
	}
}
