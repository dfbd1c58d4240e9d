package version_test

import (
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"go.jacobcolvin.com/shoot/version"
)

func TestString(t *testing.T) {
	t.Parallel()

	got := version.String()

	// Tests run without ldflags.
	assert.True(t, strings.HasPrefix(got, "devel (revision "), got)
	assert.Contains(t, got, runtime.Version())
	assert.Contains(t, got, runtime.GOOS+"/"+runtime.GOARCH)
	assert.NotContains(t, got, "branch")
	assert.NotContains(t, got, "built by")
}
