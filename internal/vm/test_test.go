package vm

import (
	"io"
	"testing"

	"github.com/cgrier/lc3vm/internal/log"
)

// testHarness wraps *testing.T as an io.Writer so the machine's logger can route output through
// t.Log, and builds machines pre-configured for direct instruction pokes.
type testHarness struct {
	*testing.T
}

func NewTestHarness(t *testing.T) *testHarness {
	return &testHarness{t}
}

func (t *testHarness) Write(p []byte) (int, error) {
	t.Helper()
	t.Logf("%s", p)

	return len(p), nil
}

var _ io.Writer = (*testHarness)(nil)

// Make returns a machine booted with supervisor privileges so tests can poke raw instructions and
// step them without tripping the user-mode access check.
func (t *testHarness) Make() *LC3 {
	return New(WithLogger(log.NewFormattedLogger(t)), WithSystemPrivileges())
}
