// Package flamegraph renders raw profiler samples into a flamegraph image
// with Brendan Gregg's FlameGraph scripts.
//
// [Generator.Generate] runs the equivalent of
//
//	perf script -i perf.data \
//	    | perl FlameGraph/stackcollapse-perf.pl \
//	    | perl FlameGraph/flamegraph.pl > graph.svg
//
// as three concurrently connected processes. It refuses to start when the
// profile file is missing or empty, returning [ErrEmptyProfile].
package flamegraph
