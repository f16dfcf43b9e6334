package fixture

import (
	"fmt"

	"github.com/roach88/remock/internal/canon"
)

// Record is one observed or replayable call: the converted inputs and the
// converted output. Immutable once written into a store file; during a run
// it moves between the per-key "remaining" queue and the "calls" log.
type Record struct {
	Input  canon.Array
	Output canon.Value
}

// MarshalCanonical renders the record as one line of canonical JSON:
//
//	{"input":[...],"output":...}
//
// "input" sorts before "output" in canonical key order, so the rendering
// above is already canonical.
func (r Record) MarshalCanonical() ([]byte, error) {
	obj := canon.Object{
		"input":  r.Input,
		"output": r.Output,
	}
	data, err := canon.MarshalCanonical(obj)
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	return data, nil
}

// InputKey returns the canonical serialization of the record's input,
// the string used for replay matching.
func (r Record) InputKey() (string, error) {
	data, err := canon.MarshalCanonical(r.Input)
	if err != nil {
		return "", fmt.Errorf("marshal record input: %w", err)
	}
	return string(data), nil
}
