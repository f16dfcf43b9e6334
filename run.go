package remock

import (
	"fmt"
	"os"
	"runtime"
	"sync"
	"testing"
)

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// Default returns the process-wide registry, created lazily on first use.
// Tests that want isolation construct their own with NewRegistry.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultReg = NewRegistry()
	})
	return defaultReg
}

// Intercept installs a substitute via the default registry. See
// Registry.Intercept.
func Intercept(tb TB, property string, fn Func, opts ...Option) *Handle {
	tb.Helper()
	_, callerFile, _, ok := runtime.Caller(1)
	if !ok {
		tb.Fatalf("remock: cannot resolve caller location")
		return nil
	}
	return Default().interceptChecked(tb, callerFile, property, fn, opts)
}

// Run wraps m.Run for TestMain and performs the single batched flush of
// all updated fixture stores after the tests finish:
//
//	func TestMain(m *testing.M) {
//		os.Exit(remock.Run(m))
//	}
//
// A flush failure turns a passing run into a failing one; recorded
// fixtures that never reached disk must not look like success.
func Run(m *testing.M) int {
	code := m.Run()
	if err := Default().FlushAll(); err != nil {
		fmt.Fprintf(os.Stderr, "remock: flush failed: %v\n", err)
		if code == 0 {
			code = 1
		}
	}
	return code
}
