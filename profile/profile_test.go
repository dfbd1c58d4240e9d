package profile_test

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.jacobcolvin.com/shoot/proc"
	"go.jacobcolvin.com/shoot/proctest"
	"go.jacobcolvin.com/shoot/profile"
)

func TestRecorder_Args(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		mutate func(*profile.Config)
		want   []string
	}{
		"defaults": {
			mutate: func(*profile.Config) {},
			want:   []string{"perf", "record", "-p", "4242", "-g", "-o", "perf.data"},
		},
		"no call graph": {
			mutate: func(c *profile.Config) { c.CallGraph = false },
			want:   []string{"perf", "record", "-p", "4242", "-o", "perf.data"},
		},
		"frequency and output": {
			mutate: func(c *profile.Config) {
				c.Frequency = 99
				c.Output = "server.data"
			},
			want: []string{"perf", "record", "-p", "4242", "-g", "-F", "99", "-o", "server.data"},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cfg := profile.NewConfig()
			tc.mutate(cfg)

			assert.Equal(t, tc.want, cfg.NewRecorder().Args(4242))
		})
	}
}

func TestRecorder_Attach(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	callsPath := filepath.Join(dir, "calls.log")

	cfg := profile.NewConfig()
	cfg.Profiler = proctest.Script(t, dir, "perf", `echo "$@" >> `+callsPath)
	cfg.Output = filepath.Join(dir, "perf.data")

	var logs bytes.Buffer

	rec := cfg.NewRecorder(profile.WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))

	server, err := proc.Start(t.Context(), []string{"sleep", "10"})
	require.NoError(t, err)

	defer server.Close()

	perf, err := rec.Attach(t.Context(), server.PID())
	require.NoError(t, err)
	require.NoError(t, perf.Wait())

	pid := strconv.Itoa(server.PID())

	assert.Equal(t,
		[]string{strings.Join([]string{"record", "-p", pid, "-g", "-o", cfg.Output}, " ")},
		proctest.Lines(t, callsPath),
	)
	assert.Contains(t, logs.String(), "starting profiler")
	assert.Contains(t, logs.String(), "pid="+pid)
	assert.NotContains(t, logs.String(), "not running")
}

func TestRecorder_Attach_ExitedTarget(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	callsPath := filepath.Join(dir, "calls.log")

	cfg := profile.NewConfig()
	cfg.Profiler = proctest.Script(t, dir, "perf", `echo "$@" >> `+callsPath)

	var logs bytes.Buffer

	rec := cfg.NewRecorder(profile.WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))

	// The server exits straight away; its PID is handed to the profiler
	// anyway because nothing checks liveness before attaching.
	server, err := proc.StartCommand(t.Context(), "echo hello")
	require.NoError(t, err)
	require.NoError(t, server.Wait())

	perf, err := rec.Attach(t.Context(), server.PID())
	require.NoError(t, err)
	require.NoError(t, perf.Wait())

	assert.Len(t, proctest.Lines(t, callsPath), 1)
	assert.Contains(t, logs.String(), "profiler target is not running")
}

func TestRecorder_Attach_MissingProfiler(t *testing.T) {
	t.Parallel()

	cfg := profile.NewConfig()
	cfg.Profiler = filepath.Join(t.TempDir(), "perf")

	perf, err := cfg.NewRecorder().Attach(t.Context(), 1)
	require.ErrorIs(t, err, proc.ErrSpawn)
	assert.Nil(t, perf)
}
