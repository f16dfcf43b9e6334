package remock

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/remock/internal/fixture"
)

// MockErrorCode categorizes user-visible contract violations.
type MockErrorCode string

const (
	// ErrCodeNoMatchingCall: replay found no remaining record whose
	// input serializes equal to the call's converted input.
	ErrCodeNoMatchingCall MockErrorCode = "NO_MATCHING_CALL"

	// ErrCodeNoCallsMade: a handle was restored without ever being called.
	ErrCodeNoCallsMade MockErrorCode = "NO_CALLS_MADE"

	// ErrCodeUnmatchedCalls: replay ended with recorded calls left in the
	// remaining queue.
	ErrCodeUnmatchedCalls MockErrorCode = "UNMATCHED_CALLS"

	// ErrCodeDoubleRestore: Restore called on an already-restored handle.
	ErrCodeDoubleRestore MockErrorCode = "DOUBLE_RESTORE"

	// ErrCodeConflict: a second live interception was installed for the
	// same fixture key.
	ErrCodeConflict MockErrorCode = "CONFLICT"
)

// MockError reports a violation of the record/replay contract. Messages
// always carry the fixture key, and where applicable the serialized
// inputs involved, so failures are diagnosable from the message alone.
type MockError struct {
	Code MockErrorCode
	// Key is the fixture key of the interception point.
	Key string
	// Property is the intercepted property name.
	Property string
	// Input is the serialized input of the offending call, when one exists.
	Input string
	// Unmatched lists the serialized inputs of remaining records, for
	// ErrCodeUnmatchedCalls.
	Unmatched []string
}

func (e *MockError) Error() string {
	switch e.Code {
	case ErrCodeNoMatchingCall:
		return fmt.Sprintf("%s: no matching call found for %q with input %s", e.Code, e.Key, e.Input)
	case ErrCodeNoCallsMade:
		return fmt.Sprintf("%s: no calls made to %q", e.Code, e.Key)
	case ErrCodeUnmatchedCalls:
		var b strings.Builder
		fmt.Fprintf(&b, "%s: %d recorded call(s) for %q were never replayed:", e.Code, len(e.Unmatched), e.Key)
		for _, in := range e.Unmatched {
			fmt.Fprintf(&b, "\n  %s %s", e.Property, in)
		}
		return b.String()
	case ErrCodeDoubleRestore:
		return fmt.Sprintf("%s: %q already restored", e.Code, e.Key)
	case ErrCodeConflict:
		return fmt.Sprintf("%s: %q is already intercepted; restore the existing handle first", e.Code, e.Key)
	default:
		return fmt.Sprintf("%s: %q", e.Code, e.Key)
	}
}

// IsMockError reports whether err is a MockError, unwrapping as needed.
// A fixture.NotFoundError counts: replaying against a missing fixture
// file is a variant of the same contract violation.
func IsMockError(err error) bool {
	var me *MockError
	if errors.As(err, &me) {
		return true
	}
	var nfe *fixture.NotFoundError
	return errors.As(err, &nfe)
}

// IsFixtureNotFound reports whether err is a replay-mode load against a
// missing fixture file.
func IsFixtureNotFound(err error) bool {
	var nfe *fixture.NotFoundError
	return errors.As(err, &nfe)
}

// PermissionError reports a flush blocked by the write capability gate.
// It names the exact path and the flag that would grant the write.
type PermissionError struct {
	Path string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf(
		"write permission denied for %s: grant it with -remock.allow-write=%s or writable_roots in %s",
		e.Path, e.Path, ".remock.yaml")
}
