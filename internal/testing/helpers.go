package testing

import (
	"context"
	"testing"
	"time"
)

// T is the subset of testing.T the helpers need. GinkgoT() satisfies it.
type T interface {
	Helper()
	Cleanup(func())
	TempDir() string
	Errorf(format string, args ...any)
	FailNow()
}

var _ T = (*testing.T)(nil)

// TestContext returns a context with a reasonable timeout for tests.
func TestContext(t T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}
