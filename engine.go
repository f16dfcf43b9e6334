package remock

import (
	"context"
	"fmt"

	"github.com/roach88/remock/internal/canon"
	"github.com/roach88/remock/internal/fixture"
	"github.com/roach88/remock/internal/journal"
)

// call is the substitute installed in place of the original function.
//
// Input conversion and the original call run outside the registry mutex:
// they are user code and may block. The replay search-and-splice and every
// append to calls/remaining happen in one critical section each, so
// overlapping invocations always observe a consistent queue.
func (r *Registry) call(h *Handle, ctx context.Context, args []any) (any, error) {
	st := h.st

	converted, err := h.opts.inputConvert(ctx, args)
	if err != nil {
		// Converter errors propagate unchanged and are never recorded.
		r.markErrored(st)
		return nil, err
	}
	inputArr, err := canon.FromGoSlice(converted)
	if err != nil {
		r.markErrored(st)
		return nil, fmt.Errorf("intercept %q: %w", st.name, err)
	}
	inputText, err := canon.MarshalCanonical(inputArr)
	if err != nil {
		r.markErrored(st)
		return nil, fmt.Errorf("intercept %q: %w", st.name, err)
	}
	inputKey := string(inputText)

	switch st.mode {
	case ModeReplay:
		return r.replay(h, ctx, inputKey)
	default:
		return r.update(h, ctx, args, inputArr, inputKey)
	}
}

// replay answers a call from the remaining queue. The first record whose
// serialized input matches wins, in queue order; content decides, not call
// order. No match is a hard MockError: the original is never invoked and
// there is no fallback.
func (r *Registry) replay(h *Handle, ctx context.Context, inputKey string) (any, error) {
	st := h.st

	r.mu.Lock()
	rec, found, err := st.takeMatch(inputKey)
	if err == nil && found {
		st.calls = append(st.calls, rec)
	}
	r.mu.Unlock()

	if err != nil {
		r.markErrored(st)
		return nil, fmt.Errorf("intercept %q: %w", st.name, err)
	}
	if !found {
		r.logEvent(ctx, st, journal.OutcomeMiss, inputKey, "")
		return nil, &MockError{
			Code:     ErrCodeNoMatchingCall,
			Key:      st.name,
			Property: st.property,
			Input:    inputKey,
		}
	}

	outputText, err := canon.MarshalCanonical(rec.Output)
	if err != nil {
		r.markErrored(st)
		return nil, fmt.Errorf("intercept %q: %w", st.name, err)
	}
	r.logEvent(ctx, st, journal.OutcomeReplayed, inputKey, string(outputText))

	out, err := h.opts.outputRevert(ctx, canon.ToGo(rec.Output))
	if err != nil {
		r.markErrored(st)
		return nil, err
	}
	return out, nil
}

// update calls through to the original with the TRUE arguments (input
// conversion affects only what is stored) and records the converted pair
// on success. A failing original propagates untouched and leaves no
// record: failures are not fixtures, and replaying such a case later
// fails to match by design.
func (r *Registry) update(h *Handle, ctx context.Context, args []any, inputArr canon.Array, inputKey string) (any, error) {
	st := h.st

	out, err := h.original(ctx, args...)
	if err != nil {
		r.markErrored(st)
		r.logEvent(ctx, st, journal.OutcomeError, inputKey, "")
		return nil, err
	}

	convertedOut, err := h.opts.outputConvert(ctx, out)
	if err != nil {
		r.markErrored(st)
		return nil, err
	}
	outputVal, err := canon.FromGo(convertedOut)
	if err != nil {
		r.markErrored(st)
		return nil, fmt.Errorf("intercept %q: output not serializable: %w", st.name, err)
	}
	outputText, err := canon.MarshalCanonical(outputVal)
	if err != nil {
		r.markErrored(st)
		return nil, fmt.Errorf("intercept %q: %w", st.name, err)
	}

	r.mu.Lock()
	st.calls = append(st.calls, fixture.Record{Input: inputArr, Output: outputVal})
	r.mu.Unlock()

	r.logEvent(ctx, st, journal.OutcomeRecorded, inputKey, string(outputText))

	reverted, err := h.opts.outputRevert(ctx, out)
	if err != nil {
		r.markErrored(st)
		return nil, err
	}
	return reverted, nil
}

func (r *Registry) markErrored(st *state) {
	r.mu.Lock()
	st.errored = true
	r.mu.Unlock()
}

// logEvent appends to the run journal when one is configured. Journal
// trouble degrades to a warning; diagnostics never fail a test.
func (r *Registry) logEvent(ctx context.Context, st *state, outcome journal.Outcome, input, output string) {
	if r.jnl == nil {
		return
	}
	ev := journal.Event{
		RunToken:   r.runToken,
		FixtureKey: st.name,
		Property:   st.property,
		Mode:       st.mode.String(),
		Outcome:    outcome,
		Input:      input,
		Output:     output,
	}
	if err := r.jnl.Append(ctx, ev); err != nil {
		r.logger.Warn("journal append failed", "key", st.name, "error", err)
	}
}
