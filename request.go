package asyncfs

// OpKind identifies one filesystem operation. The set is closed; every kind
// has a fixed success payload shape (see [OpKind.Shape]).
type OpKind uint8

const (
	OpUnknown OpKind = iota
	OpOpen
	OpClose
	OpRead
	OpWrite
	OpUnlink
	OpMkdir
	OpRmdir
	OpScandir
	OpStat
	OpLstat
	OpFstat
	OpRename
	OpFsync
	OpFdatasync
	OpFtruncate
	OpSendfile
	OpChmod
	OpFchmod
	OpChown
	OpFchown
	OpUtime
	OpFutime
	OpLink
	OpSymlink
	OpReadlink
)

// PayloadShape describes what a successful operation returns.
type PayloadShape uint8

const (
	ShapeNone    PayloadShape = iota // no values
	ShapeInt                         // fd or byte count
	ShapeStat                        // *Stat
	ShapeString                      // symlink target
	ShapeBytes                       // data + count (read)
	ShapeDirents                     // []DirEntry (scandir)
)

type opInfo struct {
	name  string
	shape PayloadShape
	path  bool // error context carries a path
}

var opTable = [...]opInfo{
	OpUnknown:   {"unknown", ShapeNone, false},
	OpOpen:      {"open", ShapeInt, true},
	OpClose:     {"close", ShapeNone, false},
	OpRead:      {"read", ShapeBytes, false},
	OpWrite:     {"write", ShapeInt, false},
	OpUnlink:    {"unlink", ShapeNone, true},
	OpMkdir:     {"mkdir", ShapeNone, true},
	OpRmdir:     {"rmdir", ShapeNone, true},
	OpScandir:   {"scandir", ShapeDirents, true},
	OpStat:      {"stat", ShapeStat, true},
	OpLstat:     {"lstat", ShapeStat, true},
	OpFstat:     {"fstat", ShapeStat, false},
	OpRename:    {"rename", ShapeNone, true},
	OpFsync:     {"fsync", ShapeNone, false},
	OpFdatasync: {"fdatasync", ShapeNone, false},
	OpFtruncate: {"ftruncate", ShapeNone, false},
	OpSendfile:  {"sendfile", ShapeInt, false},
	OpChmod:     {"chmod", ShapeNone, true},
	OpFchmod:    {"fchmod", ShapeNone, false},
	OpChown:     {"chown", ShapeNone, true},
	OpFchown:    {"fchown", ShapeNone, false},
	OpUtime:     {"utime", ShapeNone, true},
	OpFutime:    {"futime", ShapeNone, false},
	OpLink:      {"link", ShapeNone, true},
	OpSymlink:   {"symlink", ShapeNone, true},
	OpReadlink:  {"readlink", ShapeString, true},
}

// Valid reports whether k is one of the known operations.
func (k OpKind) Valid() bool {
	return k > OpUnknown && int(k) < len(opTable)
}

// String returns the lowercase operation name, e.g. "open".
func (k OpKind) String() string {
	if int(k) >= len(opTable) {
		return "unknown"
	}
	return opTable[k].name
}

// Shape returns the success payload shape of the operation.
func (k OpKind) Shape() PayloadShape {
	if !k.Valid() {
		return ShapeNone
	}
	return opTable[k].shape
}

// PathBased reports whether errors for this operation carry a path.
func (k OpKind) PathBased() bool {
	if !k.Valid() {
		return false
	}
	return opTable[k].path
}

// AllOps returns every valid operation kind in declaration order.
func AllOps() []OpKind {
	ops := make([]OpKind, 0, len(opTable)-1)
	for k := OpOpen; int(k) < len(opTable); k++ {
		ops = append(ops, k)
	}
	return ops
}
