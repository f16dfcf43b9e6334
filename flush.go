package remock

import (
	"errors"
	"fmt"

	"github.com/roach88/remock/internal/fixture"
)

// FlushAll rewrites every fixture store that had at least one update-mode
// state this run and closes the journal. It runs at most once per
// registry; later calls are no-ops, so the TestMain hook and any explicit
// caller cannot double-write.
//
// Each updated store is regenerated wholesale from the states present
// this run: keys with no state left are pruned, and the previous content
// is diffed to report every key as added, changed, or removed. Writes are
// permission-gated and atomic per store.
func (r *Registry) FlushAll() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.flushed {
		return nil
	}
	r.flushed = true

	var errs []error
	for _, path := range r.sortedStorePaths() {
		entry := r.stores[path]
		if !entry.updated {
			continue
		}
		if err := r.flushStoreLocked(path, entry); err != nil {
			errs = append(errs, err)
		}
	}

	if r.jnl != nil {
		if err := r.jnl.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close journal: %w", err))
		}
		r.jnl = nil
	}

	return errors.Join(errs...)
}

func (r *Registry) flushStoreLocked(path string, entry *storeEntry) error {
	updated := make(map[string][]fixture.Record, len(entry.states))
	for name, st := range entry.states {
		updated[name] = st.calls
	}

	summary, err := fixture.Diff(path, entry.store.Records, updated)
	if err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	if summary.Empty() {
		r.logger.Info("fixture store unchanged", "path", path, "run", r.runToken)
		return nil
	}

	if err := r.checkWritable(path); err != nil {
		return err
	}

	data, err := fixture.Encode(updated)
	if err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	if err := fixture.WriteAtomic(path, data); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}

	r.logger.Info("fixture store updated",
		"path", path,
		"run", r.runToken,
		"keys", len(updated),
		"changes", len(summary.Changes))
	for _, change := range summary.Changes {
		if change.Diff != "" {
			r.logger.Info("fixture "+string(change.Kind),
				"path", path, "key", change.Key, "diff", change.Diff)
		} else {
			r.logger.Info("fixture "+string(change.Kind), "path", path, "key", change.Key)
		}
	}

	return nil
}
