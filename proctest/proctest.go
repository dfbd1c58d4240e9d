// Package proctest writes fake executables for tests that spawn external
// tools such as curl, perf, and perl.
package proctest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// JoinLF joins multiple strings with LF line endings.
//
// Example:
//
//	body := proctest.JoinLF(
//		`echo "$@" >> calls.log`,
//		"cat",
//	) // -> "echo \"$@\" >> calls.log\ncat"
func JoinLF(ss ...string) string {
	var sb strings.Builder
	for i, s := range ss {
		if i > 0 {
			sb.WriteByte('\n')
		}

		sb.WriteString(s)
	}

	return sb.String()
}

// Script writes an executable /bin/sh script named name into dir, with
// lines as its body, and returns its path.
func Script(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	body := JoinLF(append([]string{"#!/bin/sh"}, lines...)...) + "\n"

	//nolint:gosec // Test scripts must be executable.
	err := os.WriteFile(path, []byte(body), 0o755)
	if err != nil {
		t.Fatalf("writing script %s: %v", path, err)
	}

	return path
}

// Lines reads the file at path and returns its non-empty lines. A missing
// file yields no lines.
func Lines(t *testing.T, path string) []string {
	t.Helper()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}

	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}

	var out []string

	for line := range strings.SplitSeq(string(data), "\n") {
		if line != "" {
			out = append(out, line)
		}
	}

	return out
}
