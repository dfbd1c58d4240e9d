// Package profile attaches a sampling profiler to a running process.
//
// The default profiler is Linux perf, invoked as
//
//	perf record -p <pid> -g -o perf.data
//
// Use [Config.RegisterFlags] to add CLI flags and [Config.RegisterCompletions]
// to wire up shell completions. [Config.NewRecorder] creates a [Recorder]
// whose [Recorder.Attach] spawns the profiler without waiting for it:
//
//	cfg := profile.NewConfig()
//	cfg.RegisterFlags(rootCmd.Flags())
//
//	rec := cfg.NewRecorder()
//	perf, err := rec.Attach(ctx, server.PID())
//	if err != nil {
//	    return err
//	}
//	defer perf.Close()
//
// perf record exits on its own once the attached process exits, after
// flushing its output file.
package profile
