package filesystem

import (
	"github.com/brettbedarf/asyncfs"
)

// newPathReq acquires a context for a path-based operation. errPath is the
// path reported when the operation fails.
func (fs *FS) newPathReq(kind asyncfs.OpKind, path, errPath string) *reqContext {
	rc := fs.acquire(kind, decoderFor(kind))
	rc.req.Path = path
	rc.errPath = errPath
	return rc
}

func (fs *FS) newFdReq(kind asyncfs.OpKind, fd int) *reqContext {
	rc := fs.acquire(kind, decoderFor(kind))
	rc.req.File = fd
	return rc
}

// Open opens path with a symbolic flag string ("r", "w+", ...) and a numeric
// creation mode. The outcome carries the new descriptor in N.
func (fs *FS) Open(path, flags string, mode int, cb asyncfs.Callback) (*asyncfs.Outcome, error) {
	f, err := StringToFlags(flags)
	if err != nil {
		return nil, err
	}
	if err := checkMode(asyncfs.OpOpen, mode); err != nil {
		return nil, err
	}
	rc := fs.newPathReq(asyncfs.OpOpen, path, path)
	rc.req.Flags = f
	rc.req.Mode = uint32(mode)
	return fs.call(rc, cb)
}

func (fs *FS) Close(fd int, cb asyncfs.Callback) (*asyncfs.Outcome, error) {
	if err := checkFd(asyncfs.OpClose, "fd", fd); err != nil {
		return nil, err
	}
	return fs.call(fs.newFdReq(asyncfs.OpClose, fd), cb)
}

// Read reads up to length bytes at offset. A negative offset reads from the
// current file position. The outcome's Data is trimmed to the bytes read.
func (fs *FS) Read(fd int, offset int64, length int, cb asyncfs.Callback) (*asyncfs.Outcome, error) {
	if err := checkFd(asyncfs.OpRead, "fd", fd); err != nil {
		return nil, err
	}
	if err := checkLength(asyncfs.OpRead, "length", length); err != nil {
		return nil, err
	}
	rc := fs.newFdReq(asyncfs.OpRead, fd)
	rc.req.Offset = offset
	rc.own(length)
	return fs.call(rc, cb)
}

// Write writes data at offset, or at the current position when offset is
// negative. data is only referenced until the request completes and must not
// be modified before then.
func (fs *FS) Write(fd int, offset int64, data []byte, cb asyncfs.Callback) (*asyncfs.Outcome, error) {
	if err := checkFd(asyncfs.OpWrite, "fd", fd); err != nil {
		return nil, err
	}
	rc := fs.newFdReq(asyncfs.OpWrite, fd)
	rc.req.Offset = offset
	rc.pin(data)
	return fs.call(rc, cb)
}

func (fs *FS) Unlink(path string, cb asyncfs.Callback) (*asyncfs.Outcome, error) {
	return fs.call(fs.newPathReq(asyncfs.OpUnlink, path, path), cb)
}

// Mkdir creates a directory; mode is octal text such as "0755".
func (fs *FS) Mkdir(path, mode string, cb asyncfs.Callback) (*asyncfs.Outcome, error) {
	m, err := parseMode(asyncfs.OpMkdir, mode)
	if err != nil {
		return nil, err
	}
	rc := fs.newPathReq(asyncfs.OpMkdir, path, path)
	rc.req.Mode = m
	return fs.call(rc, cb)
}

func (fs *FS) Rmdir(path string, cb asyncfs.Callback) (*asyncfs.Outcome, error) {
	return fs.call(fs.newPathReq(asyncfs.OpRmdir, path, path), cb)
}

// Scandir lists the names in path in the order the OS returns them.
func (fs *FS) Scandir(path string, cb asyncfs.Callback) (*asyncfs.Outcome, error) {
	return fs.call(fs.newPathReq(asyncfs.OpScandir, path, path), cb)
}

func (fs *FS) Stat(path string, cb asyncfs.Callback) (*asyncfs.Outcome, error) {
	return fs.call(fs.newPathReq(asyncfs.OpStat, path, path), cb)
}

// Lstat is Stat without following a final symlink.
func (fs *FS) Lstat(path string, cb asyncfs.Callback) (*asyncfs.Outcome, error) {
	return fs.call(fs.newPathReq(asyncfs.OpLstat, path, path), cb)
}

func (fs *FS) Fstat(fd int, cb asyncfs.Callback) (*asyncfs.Outcome, error) {
	if err := checkFd(asyncfs.OpFstat, "fd", fd); err != nil {
		return nil, err
	}
	return fs.call(fs.newFdReq(asyncfs.OpFstat, fd), cb)
}

func (fs *FS) Rename(path, newPath string, cb asyncfs.Callback) (*asyncfs.Outcome, error) {
	rc := fs.newPathReq(asyncfs.OpRename, path, path)
	rc.req.NewPath = newPath
	return fs.call(rc, cb)
}

func (fs *FS) Fsync(fd int, cb asyncfs.Callback) (*asyncfs.Outcome, error) {
	if err := checkFd(asyncfs.OpFsync, "fd", fd); err != nil {
		return nil, err
	}
	return fs.call(fs.newFdReq(asyncfs.OpFsync, fd), cb)
}

func (fs *FS) Fdatasync(fd int, cb asyncfs.Callback) (*asyncfs.Outcome, error) {
	if err := checkFd(asyncfs.OpFdatasync, "fd", fd); err != nil {
		return nil, err
	}
	return fs.call(fs.newFdReq(asyncfs.OpFdatasync, fd), cb)
}

func (fs *FS) Ftruncate(fd int, offset int64, cb asyncfs.Callback) (*asyncfs.Outcome, error) {
	if err := checkFd(asyncfs.OpFtruncate, "fd", fd); err != nil {
		return nil, err
	}
	if err := checkNonNegative(asyncfs.OpFtruncate, "offset", offset); err != nil {
		return nil, err
	}
	rc := fs.newFdReq(asyncfs.OpFtruncate, fd)
	rc.req.Offset = offset
	return fs.call(rc, cb)
}

// Sendfile copies length bytes starting at inOffset of inFd to outFd. The
// outcome carries the number of bytes copied.
func (fs *FS) Sendfile(outFd, inFd int, inOffset int64, length int, cb asyncfs.Callback) (*asyncfs.Outcome, error) {
	if err := checkFd(asyncfs.OpSendfile, "outFd", outFd); err != nil {
		return nil, err
	}
	if err := checkFd(asyncfs.OpSendfile, "inFd", inFd); err != nil {
		return nil, err
	}
	if err := checkNonNegative(asyncfs.OpSendfile, "inOffset", inOffset); err != nil {
		return nil, err
	}
	if err := checkNonNegative(asyncfs.OpSendfile, "length", int64(length)); err != nil {
		return nil, err
	}
	rc := fs.newFdReq(asyncfs.OpSendfile, inFd)
	rc.req.OutFile = outFd
	rc.req.Offset = inOffset
	rc.req.Length = length
	return fs.call(rc, cb)
}

func (fs *FS) Chmod(path, mode string, cb asyncfs.Callback) (*asyncfs.Outcome, error) {
	m, err := parseMode(asyncfs.OpChmod, mode)
	if err != nil {
		return nil, err
	}
	rc := fs.newPathReq(asyncfs.OpChmod, path, path)
	rc.req.Mode = m
	return fs.call(rc, cb)
}

func (fs *FS) Fchmod(fd int, mode string, cb asyncfs.Callback) (*asyncfs.Outcome, error) {
	if err := checkFd(asyncfs.OpFchmod, "fd", fd); err != nil {
		return nil, err
	}
	m, err := parseMode(asyncfs.OpFchmod, mode)
	if err != nil {
		return nil, err
	}
	rc := fs.newFdReq(asyncfs.OpFchmod, fd)
	rc.req.Mode = m
	return fs.call(rc, cb)
}

// Chown changes ownership of path. An id of -1 leaves it unchanged.
func (fs *FS) Chown(path string, uid, gid int, cb asyncfs.Callback) (*asyncfs.Outcome, error) {
	if err := checkOwner(asyncfs.OpChown, "uid", uid); err != nil {
		return nil, err
	}
	if err := checkOwner(asyncfs.OpChown, "gid", gid); err != nil {
		return nil, err
	}
	rc := fs.newPathReq(asyncfs.OpChown, path, path)
	rc.req.Uid, rc.req.Gid = uid, gid
	return fs.call(rc, cb)
}

func (fs *FS) Fchown(fd, uid, gid int, cb asyncfs.Callback) (*asyncfs.Outcome, error) {
	if err := checkFd(asyncfs.OpFchown, "fd", fd); err != nil {
		return nil, err
	}
	if err := checkOwner(asyncfs.OpFchown, "uid", uid); err != nil {
		return nil, err
	}
	if err := checkOwner(asyncfs.OpFchown, "gid", gid); err != nil {
		return nil, err
	}
	rc := fs.newFdReq(asyncfs.OpFchown, fd)
	rc.req.Uid, rc.req.Gid = uid, gid
	return fs.call(rc, cb)
}

// Utime sets access and modification times, given in seconds since the epoch.
func (fs *FS) Utime(path string, atime, mtime float64, cb asyncfs.Callback) (*asyncfs.Outcome, error) {
	if err := checkTimes(asyncfs.OpUtime, atime, mtime); err != nil {
		return nil, err
	}
	rc := fs.newPathReq(asyncfs.OpUtime, path, path)
	rc.req.Atime, rc.req.Mtime = atime, mtime
	return fs.call(rc, cb)
}

func (fs *FS) Futime(fd int, atime, mtime float64, cb asyncfs.Callback) (*asyncfs.Outcome, error) {
	if err := checkFd(asyncfs.OpFutime, "fd", fd); err != nil {
		return nil, err
	}
	if err := checkTimes(asyncfs.OpFutime, atime, mtime); err != nil {
		return nil, err
	}
	rc := fs.newFdReq(asyncfs.OpFutime, fd)
	rc.req.Atime, rc.req.Mtime = atime, mtime
	return fs.call(rc, cb)
}

// Link creates newPath as a hard link to path.
func (fs *FS) Link(path, newPath string, cb asyncfs.Callback) (*asyncfs.Outcome, error) {
	rc := fs.newPathReq(asyncfs.OpLink, path, path)
	rc.req.NewPath = newPath
	return fs.call(rc, cb)
}

// Symlink creates newPath pointing at path. flags is an optional type hint
// in open-flag notation; "" means none. Errors report newPath.
func (fs *FS) Symlink(path, newPath, flags string, cb asyncfs.Callback) (*asyncfs.Outcome, error) {
	f, err := symlinkFlags(flags)
	if err != nil {
		return nil, err
	}
	rc := fs.newPathReq(asyncfs.OpSymlink, path, newPath)
	rc.req.NewPath = newPath
	rc.req.Flags = f
	return fs.call(rc, cb)
}

func (fs *FS) Readlink(path string, cb asyncfs.Callback) (*asyncfs.Outcome, error) {
	return fs.call(fs.newPathReq(asyncfs.OpReadlink, path, path), cb)
}
