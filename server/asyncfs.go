package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/brettbedarf/asyncfs/config"
	"github.com/brettbedarf/asyncfs/eventloop"
	"github.com/brettbedarf/asyncfs/filesystem"
	"github.com/brettbedarf/asyncfs/internal/util"
	"github.com/brettbedarf/asyncfs/metrics"
	"github.com/brettbedarf/asyncfs/watcher"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 5 * time.Second

// AsyncFs wires an event loop, the filesystem operations and their metrics
// together from a single Config.
type AsyncFs struct {
	*filesystem.FS
	cfg      *config.Config
	loop     *eventloop.Loop
	metrics  *metrics.Metrics
	registry *prometheus.Registry

	mu       sync.Mutex
	http     *http.Server
	httpAddr string
	closed   bool
}

// New creates an AsyncFs instance given your config.
func New(cfg *config.Config) (*AsyncFs, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	loop := eventloop.New(eventloop.Options{
		Workers:         cfg.Workers,
		MaxInFlight:     cfg.MaxInFlight,
		CompletionQueue: cfg.CompletionQueue,
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.New(cfg.MetricsNamespace, reg)
	if err != nil {
		loop.Close()
		return nil, fmt.Errorf("register metrics: %w", err)
	}
	if err := m.TrackInFlight(loop.InFlight); err != nil {
		loop.Close()
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	logger := util.GetLogger("AsyncFs.New")
	logger.Debug().Str("loop", loop.ID()).Int("workers", cfg.Workers).Msg("AsyncFs created")
	return &AsyncFs{
		FS:       filesystem.New(loop, m),
		cfg:      cfg,
		loop:     loop,
		metrics:  m,
		registry: reg,
	}, nil
}

func (a *AsyncFs) Loop() *eventloop.Loop {
	return a.loop
}

func (a *AsyncFs) Metrics() *metrics.Metrics {
	return a.metrics
}

func (a *AsyncFs) Registry() *prometheus.Registry {
	return a.registry
}

// Watch starts a change watcher on this instance's loop.
func (a *AsyncFs) Watch(path string, listener watcher.Listener) (*watcher.Watcher, error) {
	return watcher.Start(a.loop, path, listener)
}

// Run dispatches completions until no work is left or ctx is done.
func (a *AsyncFs) Run(ctx context.Context) error {
	return a.loop.Run(ctx)
}

// ServeMetrics exposes the Prometheus registry on addr under /metrics. It
// returns once the listener is bound.
func (a *AsyncFs) ServeMetrics(addr string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return eventloop.ErrClosed
	}
	if a.http != nil {
		return fmt.Errorf("metrics already served on %s", a.httpAddr)
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	errLog := util.NewLogLogger("MetricsServer", util.ErrorLevel)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{
		ErrorLog:      errLog,
		ErrorHandling: promhttp.ContinueOnError,
	}))
	a.http = &http.Server{Handler: mux, ErrorLog: errLog, ReadHeaderTimeout: 10 * time.Second}
	a.httpAddr = ln.Addr().String()

	srv := a.http
	go func() {
		logger := util.GetLogger("AsyncFs.ServeMetrics")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("Metrics server stopped")
		}
	}()
	logger := util.GetLogger("AsyncFs.ServeMetrics")
	logger.Info().Str("addr", a.httpAddr).Msg("Serving metrics")
	return nil
}

// MetricsAddr returns the bound metrics address, or "" when not serving.
func (a *AsyncFs) MetricsAddr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.httpAddr
}

// Close stops the metrics endpoint and the loop. Completions already queued
// are dropped unless Run is called again.
func (a *AsyncFs) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	srv := a.http
	a.mu.Unlock()

	var err error
	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err = srv.Shutdown(ctx)
	}
	a.loop.Close()
	return err
}
