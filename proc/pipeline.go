package proc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"
)

// RunPipeline runs stages as concurrently connected processes, like the
// shell pipeline "stage1 | stage2 | ...". The first stage reads stdin and
// the last writes stdout; each intermediate connection is an OS pipe, so no
// data passes through this process when stdin and stdout are files.
//
// RunPipeline waits for every stage and returns the joined exit errors.
// If a stage fails to spawn, the stages already started are killed.
func RunPipeline(ctx context.Context, stdin io.Reader, stdout io.Writer, stages ...[]string) error {
	if len(stages) == 0 {
		return ErrEmptyCommand
	}

	cmds := make([]*exec.Cmd, 0, len(stages))

	var (
		in       = stdin
		readPipe *os.File
	)

	for i, argv := range stages {
		if len(argv) == 0 {
			closeFile(readPipe)
			abort(cmds)

			return fmt.Errorf("stage %d: %w", i, ErrEmptyCommand)
		}

		//nolint:gosec // Stage commands come from configuration.
		cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
		cmd.Stdin = in
		cmd.Cancel = func() error {
			return cmd.Process.Signal(syscall.SIGTERM)
		}
		cmd.WaitDelay = DefaultGracePeriod

		var writePipe, nextRead *os.File

		if i == len(stages)-1 {
			cmd.Stdout = stdout
		} else {
			r, w, err := os.Pipe()
			if err != nil {
				closeFile(readPipe)
				abort(cmds)

				return fmt.Errorf("creating pipe: %w", err)
			}

			cmd.Stdout = w
			writePipe = w
			nextRead = r
		}

		err := cmd.Start()

		// The child holds its own copies of both ends now; keeping ours
		// open would stop the reader from ever seeing EOF.
		closeFile(writePipe)
		closeFile(readPipe)

		if err != nil {
			closeFile(nextRead)
			abort(cmds)

			return fmt.Errorf("%w: %s: %w", ErrSpawn, argv[0], err)
		}

		cmds = append(cmds, cmd)
		readPipe = nextRead

		if nextRead != nil {
			in = nextRead
		}
	}

	var errs []error

	for i, cmd := range cmds {
		err := cmd.Wait()
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", stages[i][0], err))
		}
	}

	return errors.Join(errs...)
}

func abort(cmds []*exec.Cmd) {
	for _, cmd := range cmds {
		//nolint:errcheck // Best effort; the process may already be gone.
		cmd.Process.Kill()
		//nolint:errcheck // Exit error is expected after kill.
		cmd.Wait()
	}
}

func closeFile(f *os.File) {
	if f != nil {
		//nolint:errcheck // Closing our copy of a pipe end.
		f.Close()
	}
}
