// Package load drives the fixed, seeded request sequence ("shots") at the
// server under test.
//
// Each shot draws a value from a [Source], picks an ammunition URL with
// value mod len(targets), spawns the HTTP client against it, sleeps for the
// cooldown and then stops the client with [proc.Process.Stop] (wait=true).
// Shots never overlap.
//
// The default source is [MT19937], which reproduces CPython's
// random.seed(n) followed by random.randrange(limit), so a given seed yields
// the same target sequence as a Python load script using that seed:
//
//	cfg := load.NewConfig()
//	d, err := cfg.NewDriver(load.NewMT19937(cfg.Seed))
//	if err != nil {
//	    return err
//	}
//
//	err = d.Run(ctx)
package load
