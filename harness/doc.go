// Package harness runs a complete profiling session against a server.
//
// [Harness.Run] performs, in order:
//
//  1. start the server command as a child process;
//  2. attach the profiler to the server's PID ([profile.Recorder]);
//  3. fire the shot sequence ([load.Driver]);
//  4. send SIGTERM to the server without waiting for it;
//  5. optionally interrupt the profiler, then wait for the settle delay;
//  6. render the flamegraph ([flamegraph.Generator]).
//
// Every child process is terminated when Run returns, on success and on
// error alike. A missing or empty profile is logged and does not fail the
// run; failing to spawn the server, the profiler or a client does.
//
// With no flags and no plan file, a run is fully deterministic: 100 shots,
// seed 123456789, two localhost:8080 targets. A YAML plan file ([LoadPlan]) may override any of them, and
// explicitly set CLI flags override the file. [PlanSchema] describes the
// file format as JSON Schema.
package harness
