package filesystem

import (
	"math"
	"strconv"

	"github.com/brettbedarf/asyncfs"
	"golang.org/x/sys/unix"
)

var openFlags = map[string]int{
	"r":   unix.O_RDONLY,
	"rs":  unix.O_RDONLY | unix.O_SYNC,
	"r+":  unix.O_RDWR,
	"rs+": unix.O_RDWR | unix.O_SYNC,
	"w":   unix.O_TRUNC | unix.O_CREAT | unix.O_WRONLY,
	"w+":  unix.O_TRUNC | unix.O_CREAT | unix.O_RDWR,
	"a":   unix.O_APPEND | unix.O_CREAT | unix.O_WRONLY,
	"a+":  unix.O_APPEND | unix.O_CREAT | unix.O_RDWR,
}

// StringToFlags translates a symbolic open mode ("r", "w+", "a", ...) into
// open(2) flags. Matching is exact; anything else is an *asyncfs.InputError.
func StringToFlags(s string) (int, error) {
	if f, ok := openFlags[s]; ok {
		return f, nil
	}
	return 0, &asyncfs.InputError{Op: "open", Arg: "flags", Value: s, Reason: "unknown file open flag"}
}

// symlinkFlags is StringToFlags with "" meaning no hint.
func symlinkFlags(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	f, err := StringToFlags(s)
	if err != nil {
		err.(*asyncfs.InputError).Op = asyncfs.OpSymlink.String()
	}
	return f, err
}

// parseMode reads a permission mode written in octal, e.g. "0755" or "644".
func parseMode(op asyncfs.OpKind, s string) (uint32, error) {
	m, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return 0, &asyncfs.InputError{Op: op.String(), Arg: "mode", Value: s, Reason: "not an octal mode"}
	}
	return uint32(m), nil
}

func checkFd(op asyncfs.OpKind, arg string, fd int) error {
	if fd < 0 {
		return &asyncfs.InputError{Op: op.String(), Arg: arg, Value: fd, Reason: "negative file descriptor"}
	}
	return nil
}

func checkNonNegative(op asyncfs.OpKind, arg string, v int64) error {
	if v < 0 {
		return &asyncfs.InputError{Op: op.String(), Arg: arg, Value: v, Reason: "must not be negative"}
	}
	return nil
}

// maxIOLength bounds a single read; the kernel never transfers more at once.
const maxIOLength = math.MaxInt32

func checkLength(op asyncfs.OpKind, arg string, n int) error {
	if n < 0 {
		return &asyncfs.InputError{Op: op.String(), Arg: arg, Value: n, Reason: "must not be negative"}
	}
	if int64(n) > maxIOLength {
		return &asyncfs.InputError{Op: op.String(), Arg: arg, Value: n, Reason: "exceeds maximum read size"}
	}
	return nil
}

func checkMode(op asyncfs.OpKind, mode int) error {
	if mode < 0 || mode > 0o7777 {
		return &asyncfs.InputError{Op: op.String(), Arg: "mode", Value: mode, Reason: "not a permission mode"}
	}
	return nil
}

func checkTime(op asyncfs.OpKind, arg string, sec float64) error {
	if math.IsNaN(sec) || math.IsInf(sec, 0) {
		return &asyncfs.InputError{Op: op.String(), Arg: arg, Value: sec, Reason: "not a finite time"}
	}
	return nil
}

func checkTimes(op asyncfs.OpKind, atime, mtime float64) error {
	if err := checkTime(op, "atime", atime); err != nil {
		return err
	}
	return checkTime(op, "mtime", mtime)
}

// checkOwner accepts -1, which leaves the id unchanged.
func checkOwner(op asyncfs.OpKind, arg string, id int) error {
	if id < -1 {
		return &asyncfs.InputError{Op: op.String(), Arg: arg, Value: id, Reason: "invalid id"}
	}
	return nil
}
