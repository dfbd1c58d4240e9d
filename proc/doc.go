// Package proc manages child processes spawned by the harness.
//
// A [Process] is an owned handle to one spawned OS process. It is reaped in
// the background as soon as it exits, so [Process.Running] is a cheap poll
// and [Process.Wait] may be called any number of times. Signals sent to an
// exited process are no-ops.
//
// The shutdown contract is [Process.Stop]:
//
//	hit, err := proc.Start(ctx, []string{"curl", url})
//	if err != nil {
//	    return err
//	}
//
//	time.Sleep(cooldown)
//	err = hit.Stop(true) // wait for exit, then SIGTERM
//
// Every handle should also be released with a deferred [Process.Close],
// which terminates the process if it is still running and escalates to
// SIGKILL after the grace period.
//
// Server command lines are tokenized with shell quoting rules by [Split] and
// spawned by [StartCommand]. [RunPipeline] connects several commands with OS
// pipes the way a shell does for "a | b | c".
package proc
