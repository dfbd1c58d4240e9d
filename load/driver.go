package load

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"go.jacobcolvin.com/shoot/proc"
)

var (
	// ErrNoTargets indicates an empty ammunition list.
	ErrNoTargets = errors.New("no targets")
	// ErrInvalidPlan indicates a shot count or random limit out of range.
	ErrInvalidPlan = errors.New("invalid shot plan")
)

// Shot describes one completed request cycle.
type Shot struct {
	URL string
	// Number is the 1-based position of the shot in the run.
	Number int
	// Target is the index of URL in the ammunition list.
	Target  int
	Elapsed time.Duration
}

// Option configures a [Driver].
type Option func(*Driver)

// WithLogger sets the logger used by the [Driver] and its client processes.
func WithLogger(l *slog.Logger) Option {
	return func(d *Driver) {
		d.logger = l
	}
}

// WithObserver registers fn to be called after every completed shot.
func WithObserver(fn func(Shot)) Option {
	return func(d *Driver) {
		d.observe = fn
	}
}

// Driver fires the shot sequence described by a [Config].
//
// Create instances with [Config.NewDriver].
type Driver struct {
	src      Source
	logger   *slog.Logger
	observe  func(Shot)
	client   []string
	targets  []string
	shots    int
	limit    int
	cooldown time.Duration
}

// NewDriver creates a [Driver] that draws target indices from src.
// The driver owns src from then on.
func (c *Config) NewDriver(src Source, opts ...Option) (*Driver, error) {
	if len(c.Targets) == 0 {
		return nil, ErrNoTargets
	}

	if c.Shots < 0 {
		return nil, fmt.Errorf("%w: shots must not be negative, got %d", ErrInvalidPlan, c.Shots)
	}

	if c.RandomLimit < 1 {
		return nil, fmt.Errorf("%w: random limit must be positive, got %d", ErrInvalidPlan, c.RandomLimit)
	}

	if c.Cooldown < 0 {
		return nil, fmt.Errorf("%w: cooldown must not be negative, got %s", ErrInvalidPlan, c.Cooldown)
	}

	client, err := proc.Split(c.Client)
	if err != nil {
		return nil, fmt.Errorf("client command: %w", err)
	}

	d := &Driver{
		src:      src,
		logger:   slog.Default(),
		client:   client,
		targets:  slices.Clone(c.Targets),
		shots:    c.Shots,
		limit:    c.RandomLimit,
		cooldown: c.Cooldown,
	}
	for _, opt := range opts {
		opt(d)
	}

	return d, nil
}

// Next draws the next target and returns its index and URL.
func (d *Driver) Next() (int, string) {
	i := Below(d.src, d.limit) % len(d.targets)

	return i, d.targets[i]
}

// Run fires every shot in order. A shot starts only after the previous
// client process has exited and been terminated. Client exit statuses are
// not inspected; a client that cannot be spawned aborts the run.
func (d *Driver) Run(ctx context.Context) error {
	d.logger.Info("shooting started",
		slog.Int("shots", d.shots),
		slog.Duration("cooldown", d.cooldown),
	)

	for n := 1; n <= d.shots; n++ {
		err := ctx.Err()
		if err != nil {
			return fmt.Errorf("shot %d: %w", n, err)
		}

		target, url := d.Next()

		shot, err := d.shoot(ctx, n, target, url)
		if err != nil {
			return fmt.Errorf("shot %d: %w", n, err)
		}

		if d.observe != nil {
			d.observe(shot)
		}
	}

	d.logger.Info("shooting complete", slog.Int("shots", d.shots))

	return nil
}

func (d *Driver) shoot(ctx context.Context, n, target int, url string) (Shot, error) {
	start := time.Now()

	argv := append(slices.Clone(d.client), url)

	hit, err := proc.Start(ctx, argv, proc.WithLogger(d.logger))
	if err != nil {
		return Shot{}, err
	}

	defer func() {
		closeErr := hit.Close()
		if closeErr != nil {
			d.logger.Warn("stopping client", slog.Any("err", closeErr))
		}
	}()

	d.logger.Debug("shot fired",
		slog.Int("shot", n),
		slog.String("url", url),
		slog.Int("pid", hit.PID()),
	)

	err = sleep(ctx, d.cooldown)
	if err != nil {
		return Shot{}, err
	}

	err = hit.Stop(true)
	if err != nil {
		return Shot{}, err
	}

	return Shot{
		URL:     url,
		Number:  n,
		Target:  target,
		Elapsed: time.Since(start),
	}, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
