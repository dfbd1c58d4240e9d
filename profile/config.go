package profile

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	// DefaultProfiler is the profiler executable.
	DefaultProfiler = "perf"
	// DefaultOutput is where raw samples are written.
	DefaultOutput = "perf.data"
)

// Flags holds CLI flag names for profiler configuration, allowing callers to
// customize flag names while keeping sensible defaults via [NewConfig].
type Flags struct {
	Profiler  string
	Output    string
	CallGraph string
	Frequency string
}

// NewConfig creates a new [Config] embedding these flag names.
func (f Flags) NewConfig() *Config {
	return &Config{
		Flags:     f,
		Profiler:  DefaultProfiler,
		Output:    DefaultOutput,
		CallGraph: true,
	}
}

// Config holds profiler configuration: which executable to run, where it
// writes samples, and how it samples.
//
// Create instances with [NewConfig] and register CLI flags with
// [Config.RegisterFlags]. Use [Config.NewRecorder] to create a [Recorder].
type Config struct {
	Flags Flags

	Profiler string
	Output   string

	// Sampling frequency in Hz; zero keeps the profiler's default.
	Frequency int
	CallGraph bool
}

// NewConfig creates a new [Config] with default flag names and values.
func NewConfig() *Config {
	f := Flags{
		Profiler:  "profiler",
		Output:    "profile-output",
		CallGraph: "call-graph",
		Frequency: "profile-frequency",
	}

	return f.NewConfig()
}

// RegisterFlags adds profiler flags to the given [*pflag.FlagSet].
func (c *Config) RegisterFlags(flags *pflag.FlagSet) {
	flags.StringVar(&c.Profiler, c.Flags.Profiler, DefaultProfiler, "profiler executable")
	flags.StringVar(&c.Output, c.Flags.Output, DefaultOutput, "write raw profile samples to file")
	flags.BoolVar(&c.CallGraph, c.Flags.CallGraph, true, "record call graphs")
	flags.IntVar(&c.Frequency, c.Flags.Frequency, 0, "sampling frequency in Hz (0 = profiler default)")
}

// RegisterCompletions registers shell completions for profiler flags on cmd.
// Integer flags disable file completion; path flags use default file completion.
func (c *Config) RegisterCompletions(cmd *cobra.Command) error {
	err := cmd.RegisterFlagCompletionFunc(c.Flags.Frequency,
		cobra.FixedCompletions([]string{"99", "499", "999", "4999"}, cobra.ShellCompDirectiveNoFileComp))
	if err != nil {
		return fmt.Errorf("registering %s completion: %w", c.Flags.Frequency, err)
	}

	err = cmd.RegisterFlagCompletionFunc(c.Flags.Profiler,
		cobra.FixedCompletions([]string{DefaultProfiler}, cobra.ShellCompDirectiveDefault))
	if err != nil {
		return fmt.Errorf("registering %s completion: %w", c.Flags.Profiler, err)
	}

	return nil
}

// NewRecorder creates a new [Recorder] using this [Config].
func (c *Config) NewRecorder(opts ...Option) *Recorder {
	r := &Recorder{
		Config: *c,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}
