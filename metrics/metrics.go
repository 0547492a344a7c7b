// Package metrics holds the Prometheus collectors for filesystem requests.
//
// A nil *Metrics is valid and records nothing, so the filesystem can run
// without instrumentation.
package metrics

import (
	"errors"
	"time"

	"github.com/brettbedarf/asyncfs"
	"github.com/prometheus/client_golang/prometheus"
)

const subsystem = "fs"

// Result label values that are not errno names.
const (
	ResultOK       = "ok"
	ResultInput    = "input"
	ResultInternal = "internal"
	ResultError    = "error"
)

// Metrics holds all filesystem request collectors.
type Metrics struct {
	Submitted *prometheus.CounterVec
	Completed *prometheus.CounterVec
	Latency   *prometheus.HistogramVec

	reg prometheus.Registerer
	ns  string
}

// New creates the collectors and registers them with reg. A nil reg skips
// registration, which is what tests usually want.
func New(namespace string, reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Submitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "requests_submitted_total",
				Help:      "Filesystem requests handed to the event loop or run inline",
			},
			[]string{"op", "mode"},
		),
		Completed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "requests_completed_total",
				Help:      "Filesystem requests whose result has been decoded",
			},
			[]string{"op", "result"},
		),
		Latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "request_duration_seconds",
				Help:      "Time from submission to completion callback",
				Buckets:   []float64{.00005, .0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5},
			},
			[]string{"op"},
		),
		reg: reg,
		ns:  namespace,
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.Submitted, m.Completed, m.Latency} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// TrackInFlight registers a gauge reading fn on every scrape, typically the
// event loop's InFlight.
func (m *Metrics) TrackInFlight(fn func() int) error {
	if m == nil || m.reg == nil {
		return nil
	}
	g := prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: m.ns,
			Subsystem: subsystem,
			Name:      "requests_in_flight",
			Help:      "Submitted requests whose completion has not run",
		},
		func() float64 { return float64(fn()) },
	)
	return m.reg.Register(g)
}

// ObserveSubmit counts one request. async distinguishes loop submissions
// from inline calls.
func (m *Metrics) ObserveSubmit(op asyncfs.OpKind, async bool) {
	if m == nil {
		return
	}
	mode := "sync"
	if async {
		mode = "async"
	}
	m.Submitted.WithLabelValues(op.String(), mode).Inc()
}

// ObserveComplete records the outcome and latency of one request.
func (m *Metrics) ObserveComplete(op asyncfs.OpKind, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Completed.WithLabelValues(op.String(), ResultLabel(err)).Inc()
	m.Latency.WithLabelValues(op.String()).Observe(elapsed.Seconds())
}

// ResultLabel maps a request error onto a low-cardinality label value.
func ResultLabel(err error) string {
	if err == nil {
		return ResultOK
	}
	var fsErr *asyncfs.Error
	if errors.As(err, &fsErr) {
		return fsErr.Name
	}
	var inErr *asyncfs.InputError
	if errors.As(err, &inErr) {
		return ResultInput
	}
	if errors.Is(err, asyncfs.ErrInternal) {
		return ResultInternal
	}
	return ResultError
}
