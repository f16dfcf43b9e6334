// Package remock is a record/replay harness for asynchronous function
// dependencies in tests.
//
// A test hands the registry the real function; the registry hands back a
// substitute. In update mode the substitute calls through and records each
// (input, output) pair; in replay mode it answers exclusively from the
// recorded fixtures and never touches the real function. Fixture files are
// canonical JSON, deterministic to the byte, and live beside the test that
// produced them.
//
// Minimal usage:
//
//	func TestMain(m *testing.M) {
//		os.Exit(remock.Run(m))
//	}
//
//	func TestSum(t *testing.T) {
//		h := remock.Intercept(t, "sum", sumViaAPI)
//		defer h.MustRestore(t)
//
//		svc := NewService(h.Fn()) // inject the substitute
//		got, err := svc.Total(ctx, 2, 4)
//		...
//	}
//
// Recording happens under `go test -remock.update`; without the flag the
// same test replays. A replay call with no matching fixture, a fixture
// left unmatched at restore, or a handle restored twice are all hard
// MockError failures: there is no silent fallback to the real function,
// because falling back would defeat the reproducibility guarantee.
//
// All fixture stores touched in update mode are flushed once, in a single
// batch, when Run returns from m.Run; restoring individual handles never
// writes files.
package remock
