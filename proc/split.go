package proc

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/shlex"
)

var (
	// ErrEmptyCommand indicates a command line without any tokens.
	ErrEmptyCommand = errors.New("empty command")
	// ErrSpawn indicates a process could not be started.
	ErrSpawn = errors.New("spawn")
)

// Split tokenizes command into argv-style arguments using shell quoting
// rules. It returns [ErrEmptyCommand] when no tokens remain.
func Split(command string) ([]string, error) {
	argv, err := shlex.Split(command)
	if err != nil {
		return nil, fmt.Errorf("split %q: %w", command, err)
	}

	if len(argv) == 0 {
		return nil, ErrEmptyCommand
	}

	return argv, nil
}

// StartCommand tokenizes command with [Split] and starts it with [Start].
func StartCommand(ctx context.Context, command string, opts ...Option) (*Process, error) {
	argv, err := Split(command)
	if err != nil {
		return nil, err
	}

	return Start(ctx, argv, opts...)
}
