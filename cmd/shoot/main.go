// Command shoot profiles a server under a seeded request load and renders
// the samples as a flamegraph.
//
// It starts the server command, attaches perf record to its PID, fires a
// fixed sequence of curl requests at it, stops the server and pipes
// perf.data through the FlameGraph scripts into graph.svg.
//
// # Usage
//
//	shoot [flags] <server command>
//	shoot schema
//
// The server command is a single argument, split with shell quoting rules:
//
//	shoot "./game_server -c data/config.json -w static"
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"go.jacobcolvin.com/shoot/harness"
	"go.jacobcolvin.com/shoot/load"
	"go.jacobcolvin.com/shoot/log"
	"go.jacobcolvin.com/shoot/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newRootCmd().ExecuteContext(ctx)

	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

type options struct {
	logCfg *log.Config
	cfg    *harness.Config
	tui    bool
	dryRun bool
}

func newRootCmd() *cobra.Command {
	opts := &options{
		logCfg: log.NewConfig(),
		cfg:    harness.NewConfig(),
	}

	rootCmd := &cobra.Command{
		Use:   "shoot [flags] <server command>",
		Short: "Profile a server under a seeded request load and render a flamegraph",
		Long: `shoot starts a server, attaches a sampling profiler to it, fires a fixed,
seeded sequence of HTTP requests at it, then renders the recorded samples
into a flamegraph with the FlameGraph scripts.

With no flags the run is fully deterministic: 100 requests against two
localhost:8080 endpoints, chosen by a generator seeded with 123456789.`,
		Example: `  shoot "./game_server -c data/config.json -w static"
  shoot --shots 20 --cooldown 50ms "./server --port 8080"
  shoot --config plan.yaml`,
		Args:          cobra.MaximumNArgs(1),
		Version:       version.String(),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := opts.cfg.ApplyPlanFile(cmd.Flags())
			if err != nil {
				return err
			}

			if opts.dryRun {
				return printPlan(cmd.OutOrStdout(), opts.cfg.Load)
			}

			var server string
			if len(args) == 1 {
				server = args[0]
			}

			return run(cmd.Context(), opts, server, cmd.OutOrStdout())
		},
	}

	opts.logCfg.RegisterFlags(rootCmd.PersistentFlags())
	opts.cfg.RegisterFlags(rootCmd.Flags())

	rootCmd.Flags().BoolVar(&opts.tui, "tui", false,
		"show a live view of the run when stdout is a terminal")
	rootCmd.Flags().BoolVar(&opts.dryRun, "dry-run", false,
		"print the shot sequence without starting anything")

	for _, register := range []func(*cobra.Command) error{
		opts.logCfg.RegisterCompletions,
		opts.cfg.RegisterCompletions,
	} {
		err := register(rootCmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "register completions: %v\n", err)
		}
	}

	rootCmd.AddCommand(newSchemaCmd())

	return rootCmd
}

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of the plan file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			schema, err := harness.PlanSchema()
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(schema, "", "  ")
			if err != nil {
				return fmt.Errorf("encoding schema: %w", err)
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\n", out)
			if err != nil {
				return fmt.Errorf("writing schema: %w", err)
			}

			return nil
		},
	}
}

// run executes the session, logging to stderr. A final "Job done" line is
// written to out regardless of the log level.
func run(ctx context.Context, opts *options, server string, out io.Writer) error {
	if opts.tui && term.IsTerminal(int(os.Stdout.Fd())) {
		return runTUI(ctx, opts, server, out)
	}

	handler, err := opts.logCfg.NewHandler(os.Stderr)
	if err != nil {
		return err
	}

	logger := slog.New(handler)

	if opts.tui {
		logger.Warn("stdout is not a terminal, ignoring --tui")
	}

	h, err := opts.cfg.NewHarness(server,
		harness.WithLogger(logger),
		harness.WithServerOutput(os.Stdout),
		harness.WithReport(out),
	)
	if err != nil {
		return err
	}

	return h.Run(ctx)
}

// printPlan writes the shot sequence cfg would fire, one shot per line.
func printPlan(w io.Writer, cfg *load.Config) error {
	d, err := cfg.NewDriver(load.NewMT19937(cfg.Seed))
	if err != nil {
		return err
	}

	for n := 1; n <= cfg.Shots; n++ {
		target, url := d.Next()

		_, err := fmt.Fprintf(w, "%d\t%d\t%s\n", n, target, url)
		if err != nil {
			return fmt.Errorf("writing plan: %w", err)
		}
	}

	return nil
}
