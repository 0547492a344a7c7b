// Package watcher reports changes to a file or directory on an event loop.
//
// Events are delivered on the loop goroutine through the listener passed to
// Start. A running watcher holds a reference on the loop, so Run keeps going
// until the watcher is closed.
package watcher

import (
	"sync"
	"sync/atomic"

	"github.com/brettbedarf/asyncfs"
	"github.com/brettbedarf/asyncfs/internal/util"
	"github.com/google/uuid"
)

// ErrorOp is the operation name carried by errors delivered to a listener.
const ErrorOp = "on_fs_event"

// StartOp is the operation name of errors returned by Start.
const StartOp = "fs_event"

type EventKind uint8

const (
	// None means the change could not be classified, e.g. a single event
	// that both renamed and modified.
	None EventKind = iota
	Rename
	Change
)

func (k EventKind) String() string {
	switch k {
	case Rename:
		return "rename"
	case Change:
		return "change"
	}
	return ""
}

// Event is one change notification. Filename is relative to the watched
// directory, or the base name of the watched file.
type Event struct {
	Kind     EventKind
	Filename string
}

// Listener receives events, or a terminal error after which no further
// events arrive. The watcher still holds its loop reference after an error
// until Close is called.
type Listener func(ev Event, err error)

// Loop is the subset of the event loop a watcher needs.
type Loop interface {
	Post(fn func()) error
	Ref()
	Unref()
}

// Watcher watches one path until Close is called.
type Watcher struct {
	id       string
	path     string
	loop     Loop
	listener Listener
	backend  backend

	closed    atomic.Bool
	closeOnce sync.Once
	done      chan struct{}
}

// backend is the platform notification source.
type backend interface {
	// next blocks until events are available or the backend is closed, in
	// which case it returns errBackendClosed.
	next() ([]Event, error)
	close() error
}

// Start begins watching path. The listener runs on the loop goroutine.
func Start(loop Loop, path string, listener Listener) (*Watcher, error) {
	logger := util.GetLogger("Watcher.Start")

	b, err := newBackend(path)
	if err != nil {
		logger.Debug().Err(err).Str("path", path).Msg("Failed to start watcher")
		return nil, err
	}
	w := &Watcher{
		id:       uuid.NewString(),
		path:     path,
		loop:     loop,
		listener: listener,
		backend:  b,
		done:     make(chan struct{}),
	}
	loop.Ref()
	go w.readLoop()
	logger.Debug().Str("watcher", w.id).Str("path", path).Msg("Watcher started")
	return w, nil
}

// ID returns the watcher's unique identifier.
func (w *Watcher) ID() string {
	return w.id
}

// Path returns the watched path.
func (w *Watcher) Path() string {
	return w.path
}

func (w *Watcher) readLoop() {
	defer close(w.done)
	logger := util.GetLogger("Watcher.readLoop")
	for {
		events, err := w.backend.next()
		if err == errBackendClosed || w.closed.Load() {
			return
		}
		if err != nil {
			logger.Error().Err(err).Str("watcher", w.id).Msg("Watch failed")
			w.deliver(Event{}, err)
			return
		}
		for _, ev := range events {
			if !w.deliver(ev, nil) {
				return
			}
		}
	}
}

// deliver posts one listener call to the loop. It reports false once the
// loop no longer accepts work.
func (w *Watcher) deliver(ev Event, err error) bool {
	postErr := w.loop.Post(func() {
		if w.closed.Load() {
			return
		}
		w.listener(ev, err)
	})
	if postErr != nil {
		logger := util.GetLogger("Watcher.deliver")
		logger.Warn().Err(postErr).Str("watcher", w.id).Msg("Dropping event")
		return false
	}
	return true
}

// Close stops the watcher and releases its loop reference. No listener call
// happens after Close returns. Safe to call from the listener.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		w.closed.Store(true)
		err = w.backend.close()
		<-w.done
		w.loop.Unref()
		logger := util.GetLogger("Watcher.Close")
		logger.Debug().Str("watcher", w.id).Msg("Watcher closed")
	})
	return err
}

// errorFor wraps an OS failure as a listener error.
func errorFor(code int, path string) *asyncfs.Error {
	return asyncfs.NewError(code, ErrorOp, path)
}
