package remock

import "context"

// Handle wraps one interception point: the callable substitute, the mode
// it was created with, a back-reference to the original function, and the
// restore operation that validates exhaustive replay.
//
// A handle that is never restored stays installed until process exit;
// the Cleanup hook registered at creation surfaces that as a test error.
type Handle struct {
	reg      *Registry
	st       *state
	opts     callOptions
	original Func
	restored bool
}

// Fn returns the substitute. Inject it wherever the component under test
// would receive the real dependency.
func (h *Handle) Fn() Func {
	return func(ctx context.Context, args ...any) (any, error) {
		return h.reg.call(h, ctx, args)
	}
}

// Call invokes the substitute directly.
func (h *Handle) Call(ctx context.Context, args ...any) (any, error) {
	return h.reg.call(h, ctx, args)
}

// Mode returns the mode fixed at creation.
func (h *Handle) Mode() Mode {
	return h.st.mode
}

// Original returns the intercepted function.
func (h *Handle) Original() Func {
	return h.original
}

// Key returns the fixture key this handle resolves to.
func (h *Handle) Key() string {
	return h.st.name
}

// Restored reports whether Restore has run.
func (h *Handle) Restored() bool {
	h.reg.mu.Lock()
	defer h.reg.mu.Unlock()
	return h.restored
}

// Restore releases the interception and validates the run:
//
//   - an errored state skips all checks (the test already failed)
//   - zero calls made is a MockError
//   - in replay mode, a non-empty remaining queue is a MockError listing
//     every unmatched recorded call
//   - a second Restore is always a MockError
//
// Restoring never writes fixture files; flushing is batched per process.
func (h *Handle) Restore() error {
	r := h.reg
	r.mu.Lock()
	defer r.mu.Unlock()

	if h.restored {
		return &MockError{Code: ErrCodeDoubleRestore, Key: h.st.name, Property: h.st.property}
	}
	h.restored = true
	h.st.active = false

	if h.st.errored {
		return nil
	}
	if len(h.st.calls) == 0 {
		return &MockError{Code: ErrCodeNoCallsMade, Key: h.st.name, Property: h.st.property}
	}
	if h.st.mode == ModeReplay && len(h.st.remaining) > 0 {
		unmatched, err := h.st.unmatchedInputs()
		if err != nil {
			return err
		}
		return &MockError{
			Code:      ErrCodeUnmatchedCalls,
			Key:       h.st.name,
			Property:  h.st.property,
			Unmatched: unmatched,
		}
	}
	return nil
}

// MustRestore restores and fails the test on violation. Convenient with
// defer when the test wants the close-out check at a specific point
// rather than at Cleanup time.
func (h *Handle) MustRestore(tb TB) {
	tb.Helper()
	if err := h.Restore(); err != nil {
		tb.Fatalf("remock: %v", err)
	}
}
