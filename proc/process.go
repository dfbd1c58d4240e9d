package proc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"syscall"
	"time"
)

// DefaultGracePeriod is how long [Process.Close] waits after SIGTERM before
// sending SIGKILL.
const DefaultGracePeriod = 2 * time.Second

// Option configures a [Process] before it is started.
type Option func(*options)

type options struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	logger *slog.Logger
	grace  time.Duration
}

// WithStdin connects the process's standard input to r.
// By default standard input is the null device.
func WithStdin(r io.Reader) Option {
	return func(o *options) {
		o.stdin = r
	}
}

// WithStdout connects the process's standard output to w.
// By default standard output is discarded.
func WithStdout(w io.Writer) Option {
	return func(o *options) {
		o.stdout = w
	}
}

// WithStderr connects the process's standard error to w.
// By default standard error is discarded.
func WithStderr(w io.Writer) Option {
	return func(o *options) {
		o.stderr = w
	}
}

// WithLogger sets the logger used for lifecycle messages.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithGracePeriod sets how long [Process.Close] and context cancellation
// wait after SIGTERM before killing the process. Non-positive values use
// [DefaultGracePeriod].
func WithGracePeriod(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.grace = d
		}
	}
}

// Process is an owned handle to a running (or exited) child process.
//
// Create instances with [Start] or [StartCommand].
type Process struct {
	cmd    *exec.Cmd
	logger *slog.Logger
	done   chan struct{}
	err    error
	name   string
	grace  time.Duration
}

// Start spawns argv[0] with the remaining arguments and returns without
// waiting for it. Cancelling ctx sends SIGTERM, then SIGKILL after the grace
// period. Failures to spawn wrap [ErrSpawn].
func Start(ctx context.Context, argv []string, opts ...Option) (*Process, error) {
	if len(argv) == 0 {
		return nil, ErrEmptyCommand
	}

	o := options{
		logger: slog.Default(),
		grace:  DefaultGracePeriod,
	}
	for _, opt := range opts {
		opt(&o)
	}

	//nolint:gosec // Commands come from the operator's command line.
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = o.stdin
	cmd.Stdout = o.stdout
	cmd.Stderr = o.stderr
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = o.grace

	err := cmd.Start()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSpawn, argv[0], err)
	}

	p := &Process{
		cmd:    cmd,
		logger: o.logger,
		done:   make(chan struct{}),
		name:   argv[0],
		grace:  o.grace,
	}

	p.logger.Debug("process started",
		slog.String("name", p.name),
		slog.Int("pid", p.PID()),
	)

	go p.reap()

	return p, nil
}

func (p *Process) reap() {
	p.err = p.cmd.Wait()
	close(p.done)

	p.logger.Debug("process exited",
		slog.String("name", p.name),
		slog.Int("pid", p.PID()),
		slog.Int("code", p.cmd.ProcessState.ExitCode()),
	)
}

// PID returns the OS process ID.
func (p *Process) PID() int {
	return p.cmd.Process.Pid
}

// Name returns the executable name the process was started with.
func (p *Process) Name() string {
	return p.name
}

// Done returns a channel that is closed once the process has exited and
// been reaped.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Running reports whether the process has not exited yet.
func (p *Process) Running() bool {
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

// Wait blocks until the process exits and returns its exit error, if any.
// It is safe to call repeatedly and from multiple goroutines.
func (p *Process) Wait() error {
	<-p.done

	return p.err
}

// ExitCode returns the exit code of an exited process, or -1 if it is still
// running or was terminated by a signal.
func (p *Process) ExitCode() int {
	if p.Running() {
		return -1
	}

	return p.cmd.ProcessState.ExitCode()
}

// Terminate sends SIGTERM. It is a no-op if the process has already exited.
func (p *Process) Terminate() error {
	return p.signal(syscall.SIGTERM)
}

// Interrupt sends SIGINT. It is a no-op if the process has already exited.
func (p *Process) Interrupt() error {
	return p.signal(os.Interrupt)
}

// Stop sends SIGTERM to the process. When wait is true and the process is
// still running, Stop first blocks until it exits; the signal is sent
// regardless. The process's own exit status is not inspected.
func (p *Process) Stop(wait bool) error {
	if wait && p.Running() {
		<-p.done
	}

	return p.Terminate()
}

// Close terminates the process if it is still running and waits for it to
// exit, sending SIGKILL if it outlives the grace period. Close on an exited
// process returns nil.
func (p *Process) Close() error {
	if !p.Running() {
		return nil
	}

	err := p.Terminate()
	if err != nil {
		return err
	}

	timer := time.NewTimer(p.grace)
	defer timer.Stop()

	select {
	case <-p.done:
		return nil
	case <-timer.C:
	}

	p.logger.Warn("process ignored SIGTERM, killing",
		slog.String("name", p.name),
		slog.Int("pid", p.PID()),
		slog.Duration("grace", p.grace),
	)

	err = p.signal(syscall.SIGKILL)
	if err != nil {
		return err
	}

	<-p.done

	return nil
}

func (p *Process) signal(sig os.Signal) error {
	if !p.Running() {
		return nil
	}

	err := p.cmd.Process.Signal(sig)
	if err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("signal %s to %s (pid %d): %w", sig, p.name, p.PID(), err)
	}

	return nil
}
