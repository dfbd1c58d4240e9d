package harness

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"go.jacobcolvin.com/shoot/flamegraph"
	"go.jacobcolvin.com/shoot/load"
	"go.jacobcolvin.com/shoot/profile"
)

// DefaultSettle is the pause between stopping the server and rendering, so
// the profiler can flush its output.
const DefaultSettle = time.Second

// Flags holds CLI flag names for harness configuration.
type Flags struct {
	PlanFile     string
	Settle       string
	StopProfiler string
}

// NewConfig creates a new [Config] embedding these flag names and the
// default component configurations.
func (f Flags) NewConfig() *Config {
	return &Config{
		Flags:      f,
		Profile:    profile.NewConfig(),
		Load:       load.NewConfig(),
		Flamegraph: flamegraph.NewConfig(),
		Settle:     DefaultSettle,
	}
}

// Config holds the configuration of a whole session.
//
// Create instances with [NewConfig] and register CLI flags with
// [Config.RegisterFlags]. Use [Config.NewHarness] to create a [Harness].
type Config struct {
	Profile    *profile.Config
	Load       *load.Config
	Flamegraph *flamegraph.Config
	Flags      Flags
	PlanFile   string
	// Server is the server command line, when set by a plan file.
	Server       string
	Settle       time.Duration
	StopProfiler bool
}

// NewConfig returns a new [Config] with default flag names and values.
func NewConfig() *Config {
	f := Flags{
		PlanFile:     "config",
		Settle:       "settle",
		StopProfiler: "stop-profiler",
	}

	return f.NewConfig()
}

// RegisterFlags adds harness and component flags to the given
// [*pflag.FlagSet].
func (c *Config) RegisterFlags(flags *pflag.FlagSet) {
	flags.StringVarP(&c.PlanFile, c.Flags.PlanFile, "c", "",
		"YAML plan file; explicitly set flags take precedence")
	flags.DurationVar(&c.Settle, c.Flags.Settle, DefaultSettle,
		"pause between stopping the server and rendering the flamegraph")
	flags.BoolVar(&c.StopProfiler, c.Flags.StopProfiler, false,
		"interrupt the profiler after stopping the server instead of letting it exit with the server")

	c.Profile.RegisterFlags(flags)
	c.Load.RegisterFlags(flags)
	c.Flamegraph.RegisterFlags(flags)
}

// RegisterCompletions registers shell completions for harness and component
// flags on cmd.
func (c *Config) RegisterCompletions(cmd *cobra.Command) error {
	err := cmd.MarkFlagFilename(c.Flags.PlanFile, "yaml", "yml")
	if err != nil {
		return fmt.Errorf("registering %s completion: %w", c.Flags.PlanFile, err)
	}

	err = cmd.RegisterFlagCompletionFunc(c.Flags.Settle,
		cobra.FixedCompletions([]string{"0s", "500ms", "1s", "2s"}, cobra.ShellCompDirectiveNoFileComp))
	if err != nil {
		return fmt.Errorf("registering %s completion: %w", c.Flags.Settle, err)
	}

	err = c.Profile.RegisterCompletions(cmd)
	if err != nil {
		return err
	}

	err = c.Load.RegisterCompletions(cmd)
	if err != nil {
		return err
	}

	return c.Flamegraph.RegisterCompletions(cmd)
}

// ApplyPlanFile loads [Config.PlanFile], if set, and applies it to c.
// Values whose flag was explicitly set on flags are left untouched.
func (c *Config) ApplyPlanFile(flags *pflag.FlagSet) error {
	if c.PlanFile == "" {
		return nil
	}

	plan, err := LoadPlan(c.PlanFile)
	if err != nil {
		return err
	}

	return plan.Apply(c, flags.Changed)
}
