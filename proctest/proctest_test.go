package proctest_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.jacobcolvin.com/shoot/proctest"
)

func TestJoinLF(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		want  string
		input []string
	}{
		"empty": {
			input: nil,
			want:  "",
		},
		"single line": {
			input: []string{"cat"},
			want:  "cat",
		},
		"multiple lines": {
			input: []string{"line1", "line2", "line3"},
			want:  "line1\nline2\nline3",
		},
		"empty lines preserved": {
			input: []string{"a", "", "b"},
			want:  "a\n\nb",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, proctest.JoinLF(tc.input...))
		})
	}
}

func TestScript(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	logPath := filepath.Join(dir, "calls.log")

	path := proctest.Script(t, dir, "fake-curl",
		`echo "$@" >> `+logPath,
		"echo ok",
	)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&0o100, "script should be executable")

	out, err := exec.Command(path, "localhost:8080/api/v1/maps").Output()
	require.NoError(t, err)
	assert.Equal(t, "ok\n", string(out))

	assert.Equal(t, []string{"localhost:8080/api/v1/maps"}, proctest.Lines(t, logPath))
}

func TestLines_Missing(t *testing.T) {
	t.Parallel()

	assert.Nil(t, proctest.Lines(t, filepath.Join(t.TempDir(), "missing")))
}
