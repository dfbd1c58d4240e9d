package harness

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/google/jsonschema-go/jsonschema"
)

var (
	// ErrReadPlan indicates the plan file could not be read.
	ErrReadPlan = errors.New("read plan")
	// ErrParsePlan indicates the plan file is not a valid plan.
	ErrParsePlan = errors.New("parse plan")
)

// Plan is the YAML plan file format. Unset fields keep their defaults.
type Plan struct {
	Seed         *uint64         `json:"seed,omitempty"         jsonschema:"seed of the target selection sequence"                yaml:"seed,omitempty"`
	Shots        *int            `json:"shots,omitempty"        jsonschema:"number of requests to fire"                           yaml:"shots,omitempty"`
	RandomLimit  *int            `json:"randomLimit,omitempty"  jsonschema:"exclusive upper bound of each random draw"            yaml:"randomLimit,omitempty"`
	StopProfiler *bool           `json:"stopProfiler,omitempty" jsonschema:"interrupt the profiler after stopping the server"     yaml:"stopProfiler,omitempty"`
	Profiler     *ProfilerPlan   `json:"profiler,omitempty"     jsonschema:"profiler settings"                                    yaml:"profiler,omitempty"`
	Flamegraph   *FlamegraphPlan `json:"flamegraph,omitempty"   jsonschema:"flamegraph rendering settings"                        yaml:"flamegraph,omitempty"`
	Server       string          `json:"server,omitempty"       jsonschema:"command line that starts the server under test"       yaml:"server,omitempty"`
	Client       string          `json:"client,omitempty"       jsonschema:"HTTP client command; the target URL is appended"      yaml:"client,omitempty"`
	Cooldown     string          `json:"cooldown,omitempty"     jsonschema:"pause between spawning a request and waiting for it" yaml:"cooldown,omitempty"`
	Settle       string          `json:"settle,omitempty"       jsonschema:"pause between stopping the server and rendering"      yaml:"settle,omitempty"`
	Targets      []string        `json:"targets,omitempty"      jsonschema:"ammunition URLs"                                      yaml:"targets,omitempty"`
}

// ProfilerPlan holds the profiler section of a [Plan].
type ProfilerPlan struct {
	Frequency *int   `json:"frequency,omitempty" jsonschema:"sampling frequency in Hz"         yaml:"frequency,omitempty"`
	CallGraph *bool  `json:"callGraph,omitempty" jsonschema:"record call graphs"               yaml:"callGraph,omitempty"`
	Command   string `json:"command,omitempty"   jsonschema:"profiler executable"              yaml:"command,omitempty"`
	Output    string `json:"output,omitempty"    jsonschema:"raw profile samples output file" yaml:"output,omitempty"`
}

// FlamegraphPlan holds the flamegraph section of a [Plan].
type FlamegraphPlan struct {
	ToolDir       string `json:"toolDir,omitempty"       jsonschema:"directory containing the FlameGraph scripts"   yaml:"toolDir,omitempty"`
	Output        string `json:"output,omitempty"        jsonschema:"rendered flamegraph output file"               yaml:"output,omitempty"`
	ScriptCommand string `json:"scriptCommand,omitempty" jsonschema:"command converting the raw profile to stacks" yaml:"scriptCommand,omitempty"`
	Perl          string `json:"perl,omitempty"          jsonschema:"perl interpreter"                              yaml:"perl,omitempty"`
}

// LoadPlan reads and strictly decodes the plan file at path.
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Plan path from CLI flag is expected.
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadPlan, err)
	}

	return ParsePlan(data)
}

// ParsePlan strictly decodes a YAML plan. Unknown fields are rejected.
func ParsePlan(data []byte) (*Plan, error) {
	var p Plan

	err := yaml.UnmarshalWithOptions(data, &p, yaml.DisallowUnknownField())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParsePlan, err)
	}

	return &p, nil
}

// Apply copies every value set in p into cfg, except those whose flag name
// changed reports as explicitly set.
func (p *Plan) Apply(cfg *Config, changed func(name string) bool) error {
	set := func(name string) bool {
		return changed == nil || !changed(name)
	}

	if p.Server != "" {
		cfg.Server = p.Server
	}

	if p.Seed != nil && set(cfg.Load.Flags.Seed) {
		cfg.Load.Seed = *p.Seed
	}

	if p.Shots != nil && set(cfg.Load.Flags.Shots) {
		cfg.Load.Shots = *p.Shots
	}

	if p.RandomLimit != nil && set(cfg.Load.Flags.RandomLimit) {
		cfg.Load.RandomLimit = *p.RandomLimit
	}

	if len(p.Targets) > 0 && set(cfg.Load.Flags.Targets) {
		cfg.Load.Targets = p.Targets
	}

	if p.Client != "" && set(cfg.Load.Flags.Client) {
		cfg.Load.Client = p.Client
	}

	if p.StopProfiler != nil && set(cfg.Flags.StopProfiler) {
		cfg.StopProfiler = *p.StopProfiler
	}

	err := applyDuration(p.Cooldown, "cooldown", &cfg.Load.Cooldown, set(cfg.Load.Flags.Cooldown))
	if err != nil {
		return err
	}

	err = applyDuration(p.Settle, "settle", &cfg.Settle, set(cfg.Flags.Settle))
	if err != nil {
		return err
	}

	if p.Profiler != nil {
		p.Profiler.apply(cfg, set)
	}

	if p.Flamegraph != nil {
		p.Flamegraph.apply(cfg, set)
	}

	return nil
}

func (pp *ProfilerPlan) apply(cfg *Config, set func(string) bool) {
	c := cfg.Profile

	if pp.Command != "" && set(c.Flags.Profiler) {
		c.Profiler = pp.Command
	}

	if pp.Output != "" && set(c.Flags.Output) {
		c.Output = pp.Output
	}

	if pp.Frequency != nil && set(c.Flags.Frequency) {
		c.Frequency = *pp.Frequency
	}

	if pp.CallGraph != nil && set(c.Flags.CallGraph) {
		c.CallGraph = *pp.CallGraph
	}
}

func (fp *FlamegraphPlan) apply(cfg *Config, set func(string) bool) {
	c := cfg.Flamegraph

	if fp.ToolDir != "" && set(c.Flags.ToolDir) {
		c.ToolDir = fp.ToolDir
	}

	if fp.Output != "" && set(c.Flags.Output) {
		c.Output = fp.Output
	}

	if fp.ScriptCommand != "" && set(c.Flags.ScriptCommand) {
		c.ScriptCommand = fp.ScriptCommand
	}

	if fp.Perl != "" && set(c.Flags.Perl) {
		c.Perl = fp.Perl
	}
}

func applyDuration(s, field string, dst *time.Duration, set bool) error {
	if s == "" || !set {
		return nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrParsePlan, field, err)
	}

	*dst = d

	return nil
}

// PlanSchema returns the JSON Schema of the plan file format.
func PlanSchema() (*jsonschema.Schema, error) {
	schema, err := jsonschema.For[Plan](nil)
	if err != nil {
		return nil, fmt.Errorf("generating plan schema: %w", err)
	}

	schema.Title = "shoot plan"
	schema.Description = "Load and profiling plan for the shoot harness."

	return schema, nil
}
