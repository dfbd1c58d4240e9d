package load

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	// DefaultShots is the number of requests fired per run.
	DefaultShots = 100
	// DefaultCooldown is the pause between spawning a request and waiting
	// for it.
	DefaultCooldown = 100 * time.Millisecond
	// DefaultSeed seeds the target selection sequence.
	DefaultSeed uint64 = 123456789
	// DefaultRandomLimit is the exclusive upper bound of each random draw.
	DefaultRandomLimit = 1000
	// DefaultClient is the HTTP client command; the target URL is appended.
	DefaultClient = "curl"
)

// DefaultTargets returns the default ammunition list.
func DefaultTargets() []string {
	return []string{
		"localhost:8080/api/v1/maps/map1",
		"localhost:8080/api/v1/maps",
	}
}

// Flags holds CLI flag names for load configuration.
type Flags struct {
	Shots       string
	Cooldown    string
	Seed        string
	RandomLimit string
	Targets     string
	Client      string
}

// NewConfig creates a new [Config] embedding these flag names.
func (f Flags) NewConfig() *Config {
	return &Config{
		Flags:       f,
		Shots:       DefaultShots,
		Cooldown:    DefaultCooldown,
		Seed:        DefaultSeed,
		RandomLimit: DefaultRandomLimit,
		Targets:     DefaultTargets(),
		Client:      DefaultClient,
	}
}

// Config holds the shot plan: how many requests, against which targets,
// with which client and seed.
//
// Create instances with [NewConfig]; the defaults are 100 shots of seed
// 123456789 against [DefaultTargets]. Use [Config.NewDriver] to create a [Driver].
type Config struct {
	Flags       Flags
	Client      string
	Targets     []string
	Seed        uint64
	Shots       int
	RandomLimit int
	Cooldown    time.Duration
}

// NewConfig returns a new [Config] with default flag names and values.
func NewConfig() *Config {
	f := Flags{
		Shots:       "shots",
		Cooldown:    "cooldown",
		Seed:        "seed",
		RandomLimit: "random-limit",
		Targets:     "target",
		Client:      "client",
	}

	return f.NewConfig()
}

// RegisterFlags adds load flags to the given [*pflag.FlagSet].
func (c *Config) RegisterFlags(flags *pflag.FlagSet) {
	flags.IntVar(&c.Shots, c.Flags.Shots, DefaultShots,
		"number of requests to fire")
	flags.DurationVar(&c.Cooldown, c.Flags.Cooldown, DefaultCooldown,
		"pause between spawning a request and waiting for it")
	flags.Uint64Var(&c.Seed, c.Flags.Seed, DefaultSeed,
		"seed of the target selection sequence")
	flags.IntVar(&c.RandomLimit, c.Flags.RandomLimit, DefaultRandomLimit,
		"exclusive upper bound of each random draw")
	flags.StringArrayVar(&c.Targets, c.Flags.Targets, DefaultTargets(),
		"ammunition URL (repeatable)")
	flags.StringVar(&c.Client, c.Flags.Client, DefaultClient,
		"HTTP client command; the target URL is appended")
}

// RegisterCompletions registers shell completions for load flags on cmd.
func (c *Config) RegisterCompletions(cmd *cobra.Command) error {
	noFileComp := func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	for _, flag := range []string{c.Flags.Shots, c.Flags.Seed, c.Flags.RandomLimit, c.Flags.Targets} {
		err := cmd.RegisterFlagCompletionFunc(flag, noFileComp)
		if err != nil {
			return fmt.Errorf("registering %s completion: %w", flag, err)
		}
	}

	err := cmd.RegisterFlagCompletionFunc(c.Flags.Cooldown,
		cobra.FixedCompletions([]string{"50ms", "100ms", "250ms", "1s"}, cobra.ShellCompDirectiveNoFileComp))
	if err != nil {
		return fmt.Errorf("registering %s completion: %w", c.Flags.Cooldown, err)
	}

	return nil
}
