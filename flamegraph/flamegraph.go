package flamegraph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"go.jacobcolvin.com/shoot/proc"
)

// ErrEmptyProfile indicates the raw profile file is missing or empty.
var ErrEmptyProfile = errors.New("profile data is empty")

// Option configures a [Generator].
type Option func(*Generator)

// WithLogger sets the logger used by the [Generator].
func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) {
		g.logger = l
	}
}

// Generator renders one raw profile file into a flamegraph.
//
// Create instances with [Config.NewGenerator].
type Generator struct {
	logger *slog.Logger
	input  string
	Config
}

// Stages returns the argv of each pipeline stage, in order. The profile is
// named to the script stage with -i: perf script only reads stdin when it
// is a pipe, and otherwise falls back to ./perf.data.
func (g *Generator) Stages() ([][]string, error) {
	script, err := proc.Split(g.ScriptCommand)
	if err != nil {
		return nil, fmt.Errorf("script command: %w", err)
	}

	script = append(script, "-i", g.input)

	return [][]string{
		script,
		{g.Perl, filepath.Join(g.ToolDir, "stackcollapse-perf.pl")},
		{g.Perl, filepath.Join(g.ToolDir, "flamegraph.pl")},
	}, nil
}

// Generate renders the profile into [Config.Output].
//
// A missing or empty profile is logged and reported as [ErrEmptyProfile];
// in that case nothing is spawned and no output file is created.
func (g *Generator) Generate(ctx context.Context) error {
	info, err := os.Stat(g.input)
	if err != nil || info.Size() == 0 {
		g.logger.Error(g.input+" is empty, no data to generate flamegraph",
			slog.String("profile", g.input),
		)

		return fmt.Errorf("%w: %s", ErrEmptyProfile, g.input)
	}

	stages, err := g.Stages()
	if err != nil {
		return err
	}

	out, err := os.Create(g.Output)
	if err != nil {
		return fmt.Errorf("creating flamegraph: %w", err)
	}

	g.logger.Debug("rendering flamegraph",
		slog.String("profile", g.input),
		slog.Int64("bytes", info.Size()),
		slog.String("tools", g.ToolDir),
	)

	err = proc.RunPipeline(ctx, nil, out, stages...)
	if err != nil {
		//nolint:errcheck // The pipeline error takes precedence.
		out.Close()

		return fmt.Errorf("rendering flamegraph: %w", err)
	}

	err = out.Close()
	if err != nil {
		return fmt.Errorf("writing flamegraph: %w", err)
	}

	g.logger.Info("flamegraph generated", slog.String("output", g.Output))

	return nil
}
