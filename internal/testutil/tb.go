// Package testutil provides deterministic test doubles for the harness's
// own tests.
package testutil

import (
	"fmt"
	"sync"
)

// RecorderTB is a minimal test-context double. It satisfies the harness's
// TB seam structurally, records every reported failure instead of aborting,
// and runs registered cleanups on demand, so tests can assert on the
// failures the harness is SUPPOSED to produce.
//
// Unlike *testing.T, Fatalf returns to the caller; code under test must
// tolerate that (the harness returns nil handles after a fatal report).
type RecorderTB struct {
	mu       sync.Mutex
	TestName string
	Errors   []string
	Fatals   []string
	cleanups []func()
}

// NewRecorderTB creates a recorder with the given hierarchical name
// (slash-separated, like testing.T.Name).
func NewRecorderTB(name string) *RecorderTB {
	return &RecorderTB{TestName: name}
}

// Name returns the configured hierarchical test name.
func (tb *RecorderTB) Name() string { return tb.TestName }

// Helper is a no-op.
func (tb *RecorderTB) Helper() {}

// Cleanup registers fn to run at RunCleanups, last-registered first,
// matching testing.T semantics.
func (tb *RecorderTB) Cleanup(fn func()) {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.cleanups = append(tb.cleanups, fn)
}

// Errorf records a non-fatal failure.
func (tb *RecorderTB) Errorf(format string, args ...any) {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.Errors = append(tb.Errors, fmt.Sprintf(format, args...))
}

// Fatalf records a fatal failure and returns.
func (tb *RecorderTB) Fatalf(format string, args ...any) {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.Fatals = append(tb.Fatals, fmt.Sprintf(format, args...))
}

// RunCleanups executes registered cleanups in reverse registration order.
func (tb *RecorderTB) RunCleanups() {
	tb.mu.Lock()
	cleanups := tb.cleanups
	tb.cleanups = nil
	tb.mu.Unlock()

	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
}

// Failed reports whether any failure was recorded.
func (tb *RecorderTB) Failed() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return len(tb.Errors) > 0 || len(tb.Fatals) > 0
}
