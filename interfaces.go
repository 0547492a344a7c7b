package asyncfs

// Callback receives the result of an asynchronous operation. err is checked
// first; out is nil whenever err is non-nil.
type Callback func(out *Outcome, err error)

// Submitter queues blocking work off the calling goroutine and runs after on
// the loop goroutine once work has finished. A non-nil error means nothing
// was queued and after will never run.
type Submitter interface {
	Submit(work func(), after func()) (uint64, error)
}
