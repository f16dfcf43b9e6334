package remock

import (
	"slices"

	"github.com/roach88/remock/internal/fixture"
)

// state is the per-fixture-key record of one run: the calls made so far
// and the queue of not-yet-matched recorded calls. States are owned
// exclusively by their registry and mutated only under its mutex; handles
// hold a transient reference.
type state struct {
	name     string
	path     string
	property string
	mode     Mode

	// calls grows by append on every non-erroring invocation.
	calls []fixture.Record
	// remaining is seeded from the store's records for this key and only
	// shrinks, by removal on successful replay match.
	remaining []fixture.Record

	// errored is set when a call failed mid-flight (original function or
	// converter error). It suppresses close-out checks at restore: the
	// test already failed on the error itself.
	errored bool

	// active is set while a live handle points at this state.
	active bool
}

func newState(name, path, property string, mode Mode, recorded []fixture.Record) *state {
	return &state{
		name:      name,
		path:      path,
		property:  property,
		mode:      mode,
		remaining: slices.Clone(recorded),
	}
}

// takeMatch removes and returns the first remaining record whose input
// serializes to inputKey. Caller holds the registry mutex: the search and
// the splice are a single critical section, so overlapping calls each see
// a consistent remaining queue.
func (s *state) takeMatch(inputKey string) (fixture.Record, bool, error) {
	for i, rec := range s.remaining {
		key, err := rec.InputKey()
		if err != nil {
			return fixture.Record{}, false, err
		}
		if key == inputKey {
			s.remaining = slices.Delete(s.remaining, i, i+1)
			return rec, true, nil
		}
	}
	return fixture.Record{}, false, nil
}

// unmatchedInputs returns the serialized inputs of all remaining records,
// for the UnmatchedCalls error message.
func (s *state) unmatchedInputs() ([]string, error) {
	inputs := make([]string, 0, len(s.remaining))
	for _, rec := range s.remaining {
		key, err := rec.InputKey()
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, key)
	}
	return inputs, nil
}
