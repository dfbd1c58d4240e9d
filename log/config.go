package log

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	// DefaultLevel is the level used when no flag is given.
	DefaultLevel = LevelInfo
	// DefaultFormat is the format used when no flag is given.
	DefaultFormat = FormatText
)

// Flags holds CLI flag names for log configuration.
type Flags struct {
	Level  string
	Format string
}

// NewConfig creates a new [Config] with default values, using these flag
// names.
func (f Flags) NewConfig() *Config {
	return &Config{
		Level:  DefaultLevel,
		Format: DefaultFormat,
		Flags:  f,
	}
}

// Config holds log configuration.
//
// Level and Format implement [pflag.Value], so unknown values are rejected
// while flags are parsed rather than when the handler is built.
type Config struct {
	Level  Level
	Format Format
	Flags  Flags
}

// NewConfig returns a [Config] using the flag names log-level and
// log-format.
func NewConfig() *Config {
	f := Flags{
		Level:  "log-level",
		Format: "log-format",
	}

	return f.NewConfig()
}

// RegisterFlags adds logging flags to the given [*pflag.FlagSet].
func (c *Config) RegisterFlags(flags *pflag.FlagSet) {
	flags.Var(&c.Level, c.Flags.Level,
		fmt.Sprintf("log level, one of: %s", GetAllLevelStrings()))
	flags.Var(&c.Format, c.Flags.Format,
		fmt.Sprintf("log format, one of: %s", GetAllFormatStrings()))
}

// RegisterCompletions registers shell completions for log flags on cmd.
func (c *Config) RegisterCompletions(cmd *cobra.Command) error {
	err := cmd.RegisterFlagCompletionFunc(c.Flags.Level,
		cobra.FixedCompletions(GetAllLevelStrings(), cobra.ShellCompDirectiveNoFileComp))
	if err != nil {
		return fmt.Errorf("registering %s completion: %w", c.Flags.Level, err)
	}

	err = cmd.RegisterFlagCompletionFunc(c.Flags.Format,
		cobra.FixedCompletions(GetAllFormatStrings(), cobra.ShellCompDirectiveNoFileComp))
	if err != nil {
		return fmt.Errorf("registering %s completion: %w", c.Flags.Format, err)
	}

	return nil
}

// NewHandler creates a [Handler] writing to w. Values assigned directly to
// the struct are validated here, so a zero [Config] is rejected.
func (c *Config) NewHandler(w io.Writer) (Handler, error) {
	return NewHandlerFromStrings(w, string(c.Level), string(c.Format))
}
