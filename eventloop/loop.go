// Package eventloop runs blocking filesystem work on a worker pool and
// delivers completions on a single goroutine, the one calling [Loop.Run].
//
// Everything handed to Submit's after argument, and everything scheduled with
// Post, executes on that goroutine only, so code running there needs no
// locking against other completions.
package eventloop

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/brettbedarf/asyncfs/internal/util"
	"github.com/gammazero/workerpool"
	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v4"
	"golang.org/x/sync/semaphore"
)

var (
	// ErrClosed is returned by Submit and Post once Close has been called.
	ErrClosed = fmt.Errorf("event loop closed: %w", syscall.ECANCELED)
	// ErrBusy is returned by Submit when MaxInFlight requests are already queued.
	ErrBusy = fmt.Errorf("too many requests in flight: %w", syscall.EAGAIN)
	// ErrRunning is returned by Run when another goroutine is already running the loop.
	ErrRunning = errors.New("event loop already running")
)

// Options configures a Loop. Zero values fall back to sane defaults.
type Options struct {
	Workers         int // worker goroutines (Default 4)
	MaxInFlight     int // 0 means unbounded
	CompletionQueue int // initial completion queue capacity
}

// Loop is a single-threaded completion loop backed by a worker pool.
type Loop struct {
	id       string
	pool     *workerpool.WorkerPool
	sem      *semaphore.Weighted // nil when unbounded
	inflight *xsync.Map[uint64, *task]
	nextID   atomic.Uint64

	mu     sync.RWMutex // guards closed against concurrent Submit
	closed bool

	qmu   sync.Mutex
	queue []func()
	wake  chan struct{}

	pending atomic.Int64 // submitted or posted, not yet dispatched
	refs    atomic.Int64
	panics  atomic.Int64
	running atomic.Bool
}

type task struct {
	id        uint64
	after     func()
	submitted time.Time
}

// New creates a Loop. The caller must eventually call Close.
func New(opts Options) *Loop {
	if opts.Workers < 1 {
		opts.Workers = 4
	}
	if opts.CompletionQueue < 0 {
		opts.CompletionQueue = 0
	}
	l := &Loop{
		id:       uuid.NewString(),
		pool:     workerpool.New(opts.Workers),
		inflight: xsync.NewMap[uint64, *task](),
		queue:    make([]func(), 0, opts.CompletionQueue),
		wake:     make(chan struct{}, 1),
	}
	if opts.MaxInFlight > 0 {
		l.sem = semaphore.NewWeighted(int64(opts.MaxInFlight))
	}
	logger := util.GetLogger("Loop.New")
	logger.Debug().Str("loop", l.id).Int("workers", opts.Workers).Int("maxInFlight", opts.MaxInFlight).Msg("Event loop created")
	return l
}

// ID returns the loop's unique identifier, used to correlate log lines.
func (l *Loop) ID() string {
	return l.id
}

// Submit runs work on the worker pool and, once it returns, queues after to
// run on the loop goroutine. It never blocks. The returned token identifies
// the request until after has run.
func (l *Loop) Submit(work func(), after func()) (uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return 0, ErrClosed
	}
	if l.sem != nil && !l.sem.TryAcquire(1) {
		return 0, ErrBusy
	}

	t := &task{id: l.nextID.Add(1), after: after, submitted: time.Now()}
	l.inflight.Store(t.id, t)
	l.pending.Add(1)
	l.pool.Submit(func() {
		work()
		l.enqueue(func() { l.complete(t) })
	})
	return t.id, nil
}

func (l *Loop) complete(t *task) {
	l.inflight.Delete(t.id)
	if l.sem != nil {
		l.sem.Release(1)
	}
	logger := util.GetLogger("Loop.complete")
	logger.Trace().Str("loop", l.id).Uint64("token", t.id).Dur("elapsed", time.Since(t.submitted)).Msg("Request completed")
	t.after()
}

// Post schedules fn to run on the loop goroutine.
func (l *Loop) Post(fn func()) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return ErrClosed
	}
	l.pending.Add(1)
	l.enqueue(fn)
	return nil
}

func (l *Loop) enqueue(fn func()) {
	l.qmu.Lock()
	l.queue = append(l.queue, fn)
	l.qmu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *Loop) drain() []func() {
	l.qmu.Lock()
	defer l.qmu.Unlock()
	if len(l.queue) == 0 {
		return nil
	}
	fns := l.queue
	l.queue = make([]func(), 0, cap(fns))
	return fns
}

// Ref keeps Run alive without pending requests, e.g. for a watcher.
func (l *Loop) Ref() {
	l.refs.Add(1)
}

// Unref releases a Ref and wakes Run so it can re-check liveness.
func (l *Loop) Unref() {
	if l.refs.Add(-1) < 0 {
		l.refs.Store(0)
	}
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *Loop) alive() bool {
	return l.pending.Load() > 0 || l.refs.Load() > 0
}

// Run dispatches completions on the calling goroutine until nothing is
// pending and no refs are held, or ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer l.running.Store(false)

	for {
		fns := l.drain()
		for _, fn := range fns {
			l.dispatch(fn)
		}
		if len(fns) > 0 {
			continue
		}
		if !l.alive() {
			return nil
		}
		select {
		case <-l.wake:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// dispatch runs one completion. A panicking handler is logged and the loop
// keeps going.
func (l *Loop) dispatch(fn func()) {
	defer l.pending.Add(-1)
	defer func() {
		if r := recover(); r != nil {
			l.panics.Add(1)
			logger := util.GetLogger("Loop.dispatch")
			logger.Error().Str("loop", l.id).Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Completion handler panicked")
		}
	}()
	fn()
}

// Pending returns the number of submitted or posted callbacks not yet dispatched.
func (l *Loop) Pending() int {
	return int(l.pending.Load())
}

// InFlight returns the number of submitted requests whose completion has not run.
func (l *Loop) InFlight() int {
	return l.inflight.Size()
}

// Panics returns how many completion handlers panicked.
func (l *Loop) Panics() int64 {
	return l.panics.Load()
}

// Close stops accepting work and waits for running work to finish. Completions
// of already submitted requests stay queued for the next Run.
func (l *Loop) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	l.mu.Unlock()

	l.pool.StopWait()
	logger := util.GetLogger("Loop.Close")
	logger.Debug().Str("loop", l.id).Int("pending", l.Pending()).Msg("Event loop closed")
}
