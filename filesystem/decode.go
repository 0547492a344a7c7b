package filesystem

import (
	"github.com/brettbedarf/asyncfs"
	"golang.org/x/sys/unix"
)

func decodeNone(rc *reqContext) (*asyncfs.Outcome, error) {
	return &asyncfs.Outcome{Kind: rc.req.Kind}, nil
}

// decodeInt reports the raw result: an fd for open, a byte count otherwise.
func decodeInt(rc *reqContext) (*asyncfs.Outcome, error) {
	return &asyncfs.Outcome{Kind: rc.req.Kind, N: rc.req.Result}, nil
}

func decodeStat(rc *reqContext) (*asyncfs.Outcome, error) {
	return &asyncfs.Outcome{Kind: rc.req.Kind, Stat: DecodeStat(&rc.req.Statbuf)}, nil
}

func decodeLink(rc *reqContext) (*asyncfs.Outcome, error) {
	return &asyncfs.Outcome{Kind: rc.req.Kind, Target: rc.req.Link}, nil
}

// decodeRead hands the owned buffer, trimmed to the bytes read, to the caller.
func decodeRead(rc *reqContext) (*asyncfs.Outcome, error) {
	n := rc.req.Result
	buf := rc.takeBuf()
	if int64(len(buf)) < n {
		return nil, asyncfs.NewError(-int(unix.EIO), rc.req.Kind.String(), rc.errPath)
	}
	return &asyncfs.Outcome{Kind: rc.req.Kind, N: n, Data: buf[:n:n]}, nil
}

func decodeScandir(rc *reqContext) (*asyncfs.Outcome, error) {
	return &asyncfs.Outcome{Kind: rc.req.Kind, Entries: drainEntries(rc.req.Cursor())}, nil
}

// decoderFor returns the decoder matching the payload shape of kind, or nil
// for kinds outside the operation set.
func decoderFor(kind asyncfs.OpKind) decoder {
	if !kind.Valid() {
		return nil
	}
	switch kind.Shape() {
	case asyncfs.ShapeNone:
		return decodeNone
	case asyncfs.ShapeInt:
		return decodeInt
	case asyncfs.ShapeStat:
		return decodeStat
	case asyncfs.ShapeString:
		return decodeLink
	case asyncfs.ShapeBytes:
		return decodeRead
	case asyncfs.ShapeDirents:
		return decodeScandir
	}
	return nil
}
