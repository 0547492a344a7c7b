package mocks

import (
	"github.com/brettbedarf/asyncfs"
	"github.com/stretchr/testify/mock"
)

// MockSubmitter implements asyncfs.Submitter for testing across packages
type MockSubmitter struct {
	mock.Mock
}

func (m *MockSubmitter) Submit(work func(), after func()) (uint64, error) {
	args := m.Called(work, after)

	// Handle function return types (for tests that drive work/after themselves)
	if fn, ok := args.Get(0).(func(func(), func()) uint64); ok {
		return fn(work, after), args.Error(1)
	}

	if args.Get(0) == nil {
		return 0, args.Error(1)
	}
	return args.Get(0).(uint64), args.Error(1)
}

var _ asyncfs.Submitter = (*MockSubmitter)(nil)

// Deferred is a Submit implementation that records submissions without
// running them. Flush later runs each work and after pair in order, the way
// an event loop would.
type Deferred struct {
	queue [][2]func()
	next  uint64
}

func (d *Deferred) Submit(work func(), after func()) uint64 {
	d.queue = append(d.queue, [2]func(){work, after})
	d.next++
	return d.next
}

// Len returns the number of submissions not yet flushed.
func (d *Deferred) Len() int {
	return len(d.queue)
}

// Flush runs every queued submission.
func (d *Deferred) Flush() {
	q := d.queue
	d.queue = nil
	for _, p := range q {
		p[0]()
		p[1]()
	}
}
