package filesystem

import (
	"sync"
	"time"

	"github.com/brettbedarf/asyncfs"
	"github.com/brettbedarf/asyncfs/internal/sysfs"
	"github.com/brettbedarf/asyncfs/internal/util"
)

// decoder turns a successful request into its outcome. It is chosen when the
// request is built, so completion never branches on the operation kind.
type decoder func(rc *reqContext) (*asyncfs.Outcome, error)

// reqContext is everything one in-flight request needs until its outcome has
// been delivered: the callback, the OS request token, the bound decoder and
// any buffer the request owns or borrows.
//
// NOTE: a reqContext belongs to one request at a time. After release it goes
// back to the pool and must not be touched.
type reqContext struct {
	req      sysfs.Req
	cb       asyncfs.Callback
	decode   decoder
	errPath  string // path reported in errors; empty for fd-based ops
	buf      []byte // owned read buffer
	pinned   []byte // caller's write data, never freed here
	start    time.Time
	closeFns []func()
	released bool
}

var ctxPool = sync.Pool{
	New: func() any { return new(reqContext) },
}

// acquire takes a zeroed context from the pool and counts it as live.
func (fs *FS) acquire(kind asyncfs.OpKind, decode decoder) *reqContext {
	rc := ctxPool.Get().(*reqContext)
	*rc = reqContext{decode: decode, start: time.Now()}
	rc.req.Kind = kind
	rc.AddClose(func() { sysfs.Cleanup(&rc.req) })
	fs.live.Add(1)
	return rc
}

// AddClose pushes a cleanup callback onto the end of the stack.
func (rc *reqContext) AddClose(fn func()) {
	rc.closeFns = append(rc.closeFns, fn)
}

// own allocates a read buffer of n bytes held by the context.
func (rc *reqContext) own(n int) {
	rc.buf = make([]byte, n)
	rc.req.Buf = rc.buf
	rc.AddClose(func() { rc.buf = nil })
}

// pin references caller data for the lifetime of the request.
func (rc *reqContext) pin(data []byte) {
	rc.pinned = data
	rc.req.Buf = data
	rc.AddClose(func() { rc.pinned = nil })
}

// takeBuf moves the owned buffer out; a second call returns nil.
func (rc *reqContext) takeBuf() []byte {
	b := rc.buf
	rc.buf = nil
	rc.req.Buf = nil
	return b
}

// takeCallback returns the stored callback and clears it.
func (rc *reqContext) takeCallback() asyncfs.Callback {
	cb := rc.cb
	rc.cb = nil
	return cb
}

// release unwinds all cleanup callbacks in reverse order and returns the
// context to the pool. Releasing twice is logged and otherwise ignored.
func (fs *FS) release(rc *reqContext) {
	if rc.released {
		logger := util.GetLogger("FS.release")
		logger.Error().Str("op", rc.req.Kind.String()).Msg("Request context released twice")
		return
	}
	for i := len(rc.closeFns) - 1; i >= 0; i-- {
		rc.closeFns[i]()
	}
	rc.closeFns = nil
	rc.cb = nil
	rc.decode = nil
	rc.released = true
	fs.live.Add(-1)
	ctxPool.Put(rc)
}
