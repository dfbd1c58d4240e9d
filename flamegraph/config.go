package flamegraph

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	// DefaultToolDir is the FlameGraph checkout holding the perl scripts.
	DefaultToolDir = "./FlameGraph"
	// DefaultOutput is the rendered image path.
	DefaultOutput = "graph.svg"
	// DefaultScriptCommand converts the raw profile into text stacks.
	DefaultScriptCommand = "perf script"
	// DefaultPerl is the interpreter for the FlameGraph scripts.
	DefaultPerl = "perl"
)

// Flags holds CLI flag names for flamegraph configuration.
type Flags struct {
	ToolDir       string
	Output        string
	ScriptCommand string
	Perl          string
}

// NewConfig creates a new [Config] embedding these flag names.
func (f Flags) NewConfig() *Config {
	return &Config{
		Flags:         f,
		ToolDir:       DefaultToolDir,
		Output:        DefaultOutput,
		ScriptCommand: DefaultScriptCommand,
		Perl:          DefaultPerl,
	}
}

// Config holds flamegraph rendering configuration.
//
// Create instances with [NewConfig] and register CLI flags with
// [Config.RegisterFlags]. Use [Config.NewGenerator] to create a [Generator].
type Config struct {
	Flags         Flags
	ToolDir       string
	Output        string
	ScriptCommand string
	Perl          string
}

// NewConfig creates a new [Config] with default flag names and values.
func NewConfig() *Config {
	f := Flags{
		ToolDir:       "flamegraph-dir",
		Output:        "graph-output",
		ScriptCommand: "script-command",
		Perl:          "perl",
	}

	return f.NewConfig()
}

// RegisterFlags adds flamegraph flags to the given [*pflag.FlagSet].
func (c *Config) RegisterFlags(flags *pflag.FlagSet) {
	flags.StringVar(&c.ToolDir, c.Flags.ToolDir, DefaultToolDir,
		"directory containing stackcollapse-perf.pl and flamegraph.pl")
	flags.StringVar(&c.Output, c.Flags.Output, DefaultOutput,
		"write the rendered flamegraph to file")
	flags.StringVar(&c.ScriptCommand, c.Flags.ScriptCommand, DefaultScriptCommand,
		"command converting the raw profile on stdin to text stacks")
	flags.StringVar(&c.Perl, c.Flags.Perl, DefaultPerl,
		"perl interpreter")
}

// RegisterCompletions registers shell completions for flamegraph flags on cmd.
func (c *Config) RegisterCompletions(cmd *cobra.Command) error {
	err := cmd.MarkFlagDirname(c.Flags.ToolDir)
	if err != nil {
		return fmt.Errorf("registering %s completion: %w", c.Flags.ToolDir, err)
	}

	err = cmd.MarkFlagFilename(c.Flags.Output, "svg")
	if err != nil {
		return fmt.Errorf("registering %s completion: %w", c.Flags.Output, err)
	}

	return nil
}

// NewGenerator creates a [Generator] that renders the profile at input.
func (c *Config) NewGenerator(input string, opts ...Option) *Generator {
	g := &Generator{
		Config: *c,
		input:  input,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}

	return g
}
