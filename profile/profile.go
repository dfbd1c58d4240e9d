package profile

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/shirou/gopsutil/v4/process"

	"go.jacobcolvin.com/shoot/proc"
)

// Option configures a [Recorder].
type Option func(*Recorder)

// WithLogger sets the logger used by the [Recorder].
func WithLogger(l *slog.Logger) Option {
	return func(r *Recorder) {
		r.logger = l
	}
}

// Recorder attaches the configured profiler to processes.
//
// Create instances with [Config.NewRecorder].
type Recorder struct {
	logger *slog.Logger
	Config
}

// Args returns the profiler command line for pid.
func (r *Recorder) Args(pid int) []string {
	args := []string{r.Profiler, "record", "-p", strconv.Itoa(pid)}

	if r.CallGraph {
		args = append(args, "-g")
	}

	if r.Frequency > 0 {
		args = append(args, "-F", strconv.Itoa(r.Frequency))
	}

	return append(args, "-o", r.Output)
}

// Attach starts the profiler against pid and returns without waiting.
//
// Attach does not require pid to be alive: a process that has already
// exited is only reported with a warning, and the profiler is started
// regardless.
func (r *Recorder) Attach(ctx context.Context, pid int) (*proc.Process, error) {
	r.logger.Info("starting profiler",
		slog.String("profiler", r.Profiler),
		slog.Int("pid", pid),
		slog.String("output", r.Output),
	)

	r.checkTarget(ctx, pid)

	p, err := proc.Start(ctx, r.Args(pid), proc.WithLogger(r.logger))
	if err != nil {
		return nil, fmt.Errorf("attaching profiler to pid %d: %w", pid, err)
	}

	return p, nil
}

func (r *Recorder) checkTarget(ctx context.Context, pid int) {
	//nolint:gosec // PIDs fit in int32 on every supported platform.
	pid32 := int32(pid)

	exists, err := process.PidExistsWithContext(ctx, pid32)
	if err != nil {
		r.logger.Debug("checking profiler target", slog.Int("pid", pid), slog.Any("err", err))

		return
	}

	if !exists {
		r.logger.Warn("profiler target is not running", slog.Int("pid", pid))

		return
	}

	target, err := process.NewProcessWithContext(ctx, pid32)
	if err != nil {
		return
	}

	name, err := target.NameWithContext(ctx)
	if err == nil {
		r.logger.Debug("profiler target", slog.Int("pid", pid), slog.String("name", name))
	}
}
