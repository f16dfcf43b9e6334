package fixture

import (
	"fmt"
	"os"

	"github.com/roach88/remock/internal/canon"
)

// Store is the in-memory image of one fixture file: a mapping from fixture
// key to the ordered records recorded for that key. Its identity is the
// path it was loaded from.
//
// The registry caches one Store per path per process and is the sole
// mutator; nothing else may write Records directly.
type Store struct {
	Path    string
	Records map[string][]Record
}

// NotFoundError reports a replay-mode load against a fixture file that
// does not exist. Replaying without a backing file is a hard failure,
// never an empty store: silently answering from nothing would defeat the
// reproducibility guarantee.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("fixture file not found: %s (run with -update to record it)", e.Path)
}

// Load reads the fixture file at path.
//
// A missing file is an error unless missingOK is set, in which case an
// empty store is returned (first-run bootstrap in update mode).
func Load(path string, missingOK bool) (*Store, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if missingOK {
			return &Store{Path: path, Records: map[string][]Record{}}, nil
		}
		return nil, &NotFoundError{Path: path}
	}
	if err != nil {
		return nil, fmt.Errorf("read fixture file %s: %w", path, err)
	}

	records, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("fixture file %s: %w", path, err)
	}
	return &Store{Path: path, Records: records}, nil
}

// Decode parses fixture text into the key → records mapping.
func Decode(data []byte) (map[string][]Record, error) {
	v, err := canon.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	root, ok := v.(canon.Object)
	if !ok {
		return nil, fmt.Errorf("top level must be an object, got %T", v)
	}

	records := make(map[string][]Record, len(root))
	for key, entry := range root {
		arr, ok := entry.(canon.Array)
		if !ok {
			return nil, fmt.Errorf("key %q: expected an array of records, got %T", key, entry)
		}
		recs := make([]Record, 0, len(arr))
		for i, elem := range arr {
			rec, err := decodeRecord(elem)
			if err != nil {
				return nil, fmt.Errorf("key %q record %d: %w", key, i, err)
			}
			recs = append(recs, rec)
		}
		records[key] = recs
	}
	return records, nil
}

func decodeRecord(v canon.Value) (Record, error) {
	obj, ok := v.(canon.Object)
	if !ok {
		return Record{}, fmt.Errorf("expected an object, got %T", v)
	}
	rawInput, ok := obj["input"]
	if !ok {
		return Record{}, fmt.Errorf("missing %q field", "input")
	}
	input, ok := rawInput.(canon.Array)
	if !ok {
		return Record{}, fmt.Errorf("%q must be an array, got %T", "input", rawInput)
	}
	output, ok := obj["output"]
	if !ok {
		return Record{}, fmt.Errorf("missing %q field", "output")
	}
	if len(obj) != 2 {
		return Record{}, fmt.Errorf("unexpected extra fields (want input and output only)")
	}
	return Record{Input: input, Output: output}, nil
}
