package fixture

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Change classifies what happened to one fixture key between the previous
// file content and the regenerated content.
type Change struct {
	Key  string
	Kind ChangeKind
	// Diff holds a line-oriented text diff of the key's records.
	// Only populated for ChangeModified.
	Diff string
}

// ChangeKind is the classification of a per-key change.
type ChangeKind string

const (
	ChangeAdded    ChangeKind = "added"
	ChangeModified ChangeKind = "changed"
	ChangeRemoved  ChangeKind = "removed"
)

// Summary is the human-readable account of a store rewrite.
type Summary struct {
	Path    string
	Changes []Change
}

// Diff classifies every fixture key as added, changed, or removed between
// the old and new mappings. Keys whose record sequences are byte-identical
// do not appear in the summary.
func Diff(path string, old, updated map[string][]Record) (*Summary, error) {
	s := &Summary{Path: path}
	dmp := diffmatchpatch.New()

	for _, key := range sortedKeys(updated) {
		newText, err := EncodedKey(updated[key])
		if err != nil {
			return nil, fmt.Errorf("diff key %q: %w", key, err)
		}
		oldRecs, existed := old[key]
		if !existed {
			s.Changes = append(s.Changes, Change{Key: key, Kind: ChangeAdded})
			continue
		}
		oldText, err := EncodedKey(oldRecs)
		if err != nil {
			return nil, fmt.Errorf("diff key %q: %w", key, err)
		}
		if oldText == newText {
			continue
		}
		diffs := dmp.DiffMain(oldText, newText, false)
		dmp.DiffCleanupSemantic(diffs)
		s.Changes = append(s.Changes, Change{
			Key:  key,
			Kind: ChangeModified,
			Diff: dmp.DiffPrettyText(diffs),
		})
	}

	for _, key := range sortedKeys(old) {
		if _, kept := updated[key]; !kept {
			s.Changes = append(s.Changes, Change{Key: key, Kind: ChangeRemoved})
		}
	}

	return s, nil
}

// Empty reports whether the rewrite changed nothing.
func (s *Summary) Empty() bool {
	return len(s.Changes) == 0
}

// String renders the summary, one key per line.
func (s *Summary) String() string {
	if s.Empty() {
		return fmt.Sprintf("%s: unchanged", s.Path)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s:\n", s.Path)
	for _, c := range s.Changes {
		fmt.Fprintf(&b, "  %s %q\n", c.Kind, c.Key)
		if c.Diff != "" {
			for _, line := range strings.Split(strings.TrimRight(c.Diff, "\n"), "\n") {
				fmt.Fprintf(&b, "    %s\n", line)
			}
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
