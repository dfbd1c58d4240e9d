package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"go.jacobcolvin.com/shoot/flamegraph"
	"go.jacobcolvin.com/shoot/load"
	"go.jacobcolvin.com/shoot/proc"
	"go.jacobcolvin.com/shoot/profile"
)

var (
	// ErrNoServer indicates that no server command was given.
	ErrNoServer = errors.New("no server command")
	// ErrInvalidSettle indicates a negative settle delay.
	ErrInvalidSettle = errors.New("invalid settle delay")
)

// Option configures a [Harness].
type Option func(*Harness)

// WithLogger sets the logger passed to every component.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) {
		h.logger = l
	}
}

// WithServerOutput connects the server's standard output to w.
// By default it is discarded.
func WithServerOutput(w io.Writer) Option {
	return func(h *Harness) {
		h.serverOut = w
	}
}

// WithReport writes a final "Job done" line to w when a run completes.
// Unlike the "job done" log record it is not subject to log level filtering.
func WithReport(w io.Writer) Option {
	return func(h *Harness) {
		h.report = w
	}
}

// WithObserver registers fn to be called after every completed shot.
func WithObserver(fn func(load.Shot)) Option {
	return func(h *Harness) {
		h.observe = fn
	}
}

// WithSource replaces the seeded target selection source.
func WithSource(src load.Source) Option {
	return func(h *Harness) {
		h.src = src
	}
}

// Harness runs one profiling session.
//
// Create instances with [Config.NewHarness].
type Harness struct {
	serverOut io.Writer
	report    io.Writer
	src       load.Source
	logger    *slog.Logger
	observe   func(load.Shot)
	recorder  *profile.Recorder
	driver    *load.Driver
	generator *flamegraph.Generator
	server    string
	settle    time.Duration
	stopPerf  bool
}

// NewHarness validates the configuration and creates a [Harness] for the
// given server command line. An empty server falls back to [Config.Server].
func (c *Config) NewHarness(server string, opts ...Option) (*Harness, error) {
	if strings.TrimSpace(server) == "" {
		server = c.Server
	}

	if strings.TrimSpace(server) == "" {
		return nil, ErrNoServer
	}

	if c.Settle < 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSettle, c.Settle)
	}

	h := &Harness{
		logger:   slog.Default(),
		server:   server,
		settle:   c.Settle,
		stopPerf: c.StopProfiler,
	}
	for _, opt := range opts {
		opt(h)
	}

	if h.src == nil {
		h.src = load.NewMT19937(c.Load.Seed)
	}

	driver, err := c.Load.NewDriver(h.src,
		load.WithLogger(h.logger),
		load.WithObserver(h.observe),
	)
	if err != nil {
		return nil, err
	}

	h.driver = driver
	h.recorder = c.Profile.NewRecorder(profile.WithLogger(h.logger))
	h.generator = c.Flamegraph.NewGenerator(c.Profile.Output, flamegraph.WithLogger(h.logger))

	return h, nil
}

// Run executes the session. See the package documentation for the order of
// steps. Only spawn failures and context cancellation are returned as
// errors.
func (h *Harness) Run(ctx context.Context) error {
	server, err := proc.StartCommand(ctx, h.server,
		proc.WithStdout(h.serverOut),
		proc.WithLogger(h.logger),
	)
	if err != nil {
		return fmt.Errorf("launching server: %w", err)
	}

	defer h.release(server)

	h.logger.Info("server started",
		slog.String("command", h.server),
		slog.Int("pid", server.PID()),
	)

	perf, err := h.recorder.Attach(ctx, server.PID())
	if err != nil {
		return err
	}

	defer h.release(perf)

	err = h.driver.Run(ctx)
	if err != nil {
		return err
	}

	err = server.Stop(false)
	if err != nil {
		h.logger.Warn("stopping server", slog.Any("err", err))
	}

	h.logger.Info("server stopped", slog.Int("pid", server.PID()))

	if h.stopPerf {
		h.stopProfiler(perf)
	}

	err = sleep(ctx, h.settle)
	if err != nil {
		return err
	}

	err = h.generator.Generate(ctx)

	switch {
	case errors.Is(err, flamegraph.ErrEmptyProfile):
		// Already reported by the generator.
	case err != nil:
		h.logger.Error("generating flamegraph", slog.Any("err", err))
	}

	h.logger.Info("job done")

	if h.report != nil {
		_, err = fmt.Fprintln(h.report, "Job done")
		if err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
	}

	return nil
}

func (h *Harness) stopProfiler(perf *proc.Process) {
	err := perf.Interrupt()
	if err != nil {
		h.logger.Warn("interrupting profiler", slog.Any("err", err))

		return
	}

	//nolint:errcheck // The profiler's exit status is not inspected.
	perf.Wait()

	h.logger.Info("profiler stopped", slog.Int("pid", perf.PID()))
}

func (h *Harness) release(p *proc.Process) {
	err := p.Close()
	if err != nil {
		h.logger.Warn("releasing process",
			slog.String("name", p.Name()),
			slog.Any("err", err),
		)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
