package proc_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.jacobcolvin.com/shoot/proc"
)

func TestRunPipeline(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		stdin  string
		stages [][]string
		want   string
	}{
		"single stage": {
			stdin:  "perf samples",
			stages: [][]string{{"cat"}},
			want:   "perf samples",
		},
		"three stages": {
			stdin: "b\na\nc\n",
			stages: [][]string{
				{"cat"},
				{"sort"},
				{"tr", "a-z", "A-Z"},
			},
			want: "A\nB\nC\n",
		},
		"first stage ignores stdin": {
			stdin: "",
			stages: [][]string{
				{"sh", "-c", "printf 'main;handle 3\\nmain;read 2\\n'"},
				{"sort"},
			},
			want: "main;handle 3\nmain;read 2\n",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var out bytes.Buffer

			err := proc.RunPipeline(t.Context(), strings.NewReader(tc.stdin), &out, tc.stages...)
			require.NoError(t, err)
			assert.Equal(t, tc.want, out.String())
		})
	}
}

func TestRunPipeline_Files(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	in := filepath.Join(dir, "in.txt")
	require.NoError(t, os.WriteFile(in, []byte("x\ny\n"), 0o600))

	inFile, err := os.Open(in)
	require.NoError(t, err)

	defer inFile.Close()

	outPath := filepath.Join(dir, "out.txt")

	outFile, err := os.Create(outPath)
	require.NoError(t, err)

	err = proc.RunPipeline(t.Context(), inFile, outFile,
		[]string{"cat"},
		[]string{"wc", "-l"},
	)
	require.NoError(t, err)
	require.NoError(t, outFile.Close())

	got, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, "2", strings.TrimSpace(string(got)))
}

func TestRunPipeline_Errors(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		stages  [][]string
		wantErr error
	}{
		"no stages": {
			stages:  nil,
			wantErr: proc.ErrEmptyCommand,
		},
		"empty stage": {
			stages:  [][]string{{"cat"}, {}},
			wantErr: proc.ErrEmptyCommand,
		},
		"missing executable": {
			stages:  [][]string{{"cat"}, {"./no-such-collapse-script"}, {"cat"}},
			wantErr: proc.ErrSpawn,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var out bytes.Buffer

			err := proc.RunPipeline(t.Context(), strings.NewReader("data"), &out, tc.stages...)
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestRunPipeline_StageFailure(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	err := proc.RunPipeline(t.Context(), strings.NewReader("data"), &out,
		[]string{"cat"},
		[]string{"sh", "-c", "cat >/dev/null; exit 2"},
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sh")
}
