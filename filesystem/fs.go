// Package filesystem issues filesystem operations against an event loop and
// decodes their results.
//
// Every operation takes a trailing [asyncfs.Callback]. With a callback the
// request is submitted to the loop and the call returns (nil, nil); the
// callback later runs on the loop goroutine. With a nil callback the
// operation runs on the calling goroutine and the outcome is returned
// directly.
package filesystem

import (
	"errors"
	"fmt"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/brettbedarf/asyncfs"
	"github.com/brettbedarf/asyncfs/internal/sysfs"
	"github.com/brettbedarf/asyncfs/internal/util"
	"github.com/brettbedarf/asyncfs/metrics"
)

type FS struct {
	loop    asyncfs.Submitter
	metrics *metrics.Metrics // nil disables instrumentation
	live    atomic.Int64     // request contexts not yet released
}

// New returns an FS submitting asynchronous work to loop. m may be nil.
func New(loop asyncfs.Submitter, m *metrics.Metrics) *FS {
	return &FS{loop: loop, metrics: m}
}

// Outstanding returns the number of requests whose context has not been
// released yet. It drops back to zero once every callback has run.
func (fs *FS) Outstanding() int64 {
	return fs.live.Load()
}

// call runs rc either inline (cb == nil) or through the loop.
func (fs *FS) call(rc *reqContext, cb asyncfs.Callback) (*asyncfs.Outcome, error) {
	kind, path := rc.req.Kind, rc.errPath
	logger := util.GetLogger("FS." + kind.String())

	if cb == nil {
		defer fs.release(rc)
		fs.metrics.ObserveSubmit(kind, false)
		sysfs.Do(&rc.req)
		out, err := fs.process(rc)
		fs.metrics.ObserveComplete(kind, err, time.Since(rc.start))
		logger.Trace().Str("path", path).Int64("result", rc.req.Result).Msg("Request done")
		return out, err
	}

	rc.cb = cb
	token, err := fs.loop.Submit(
		func() { sysfs.Do(&rc.req) },
		func() { fs.afterFS(rc) },
	)
	if err != nil {
		subErr := submitError(kind, path, err)
		logger.Error().Err(err).Str("path", path).Msg("Failed to submit request")
		fs.release(rc)
		return nil, subErr
	}
	// rc may already be released here
	fs.metrics.ObserveSubmit(kind, true)
	logger.Trace().Uint64("token", token).Str("path", path).Msg("Request submitted")
	return nil, nil
}

// afterFS completes an asynchronous request on the loop goroutine. The
// context is released even when the callback panics.
func (fs *FS) afterFS(rc *reqContext) {
	defer fs.release(rc)

	cb := rc.takeCallback()
	out, err := fs.process(rc)
	fs.metrics.ObserveComplete(rc.req.Kind, err, time.Since(rc.start))
	if cb == nil {
		logger := util.GetLogger("FS.afterFS")
		logger.Error().Str("op", rc.req.Kind.String()).Msg("Completed request has no callback")
		return
	}
	cb(out, err)
}

// process decodes a finished request. A negative result always becomes an
// *asyncfs.Error, before any kind-specific decoding.
func (fs *FS) process(rc *reqContext) (*asyncfs.Outcome, error) {
	if rc.req.Result < 0 {
		return nil, asyncfs.NewError(int(rc.req.Result), rc.req.Kind.String(), rc.errPath)
	}
	if rc.decode == nil {
		logger := util.GetLogger("FS.process")
		logger.Error().Str("op", rc.req.Kind.String()).Int64("result", rc.req.Result).Msg("No decoder bound to request")
		return nil, fmt.Errorf("%s: %w", rc.req.Kind, asyncfs.ErrInternal)
	}
	return rc.decode(rc)
}

// submitError reports a loop rejection the same way as an OS failure when it
// carries an errno.
func submitError(kind asyncfs.OpKind, path string, err error) error {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return asyncfs.NewError(-int(errno), kind.String(), path)
	}
	return fmt.Errorf("%s: %w", kind, err)
}
