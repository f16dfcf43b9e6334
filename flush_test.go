package remock

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/remock/internal/config"
	"github.com/roach88/remock/internal/fixture"
	"github.com/roach88/remock/internal/journal"
	"github.com/roach88/remock/internal/testutil"
)

func TestFlushWritesRecordedCalls(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "case.fixtures.json")

	r := newTestRegistry(t, ModeUpdate, dir)
	tb := testutil.NewRecorderTB("t")
	h := r.Intercept(tb, "f", sumOriginal, WithPath(path))
	require.NotNil(t, h)

	_, err := h.Call(context.Background(), 2, 4)
	require.NoError(t, err)
	require.NoError(t, h.Restore())

	require.NoError(t, r.FlushAll())

	st, err := fixture.Load(path, false)
	require.NoError(t, err)
	assert.Equal(t, map[string][]fixture.Record{
		"t > f 1": {intRecord(6, 2, 4)},
	}, st.Records)
}

// Scenario: a store with an active key and a stale key is rewritten with
// only the active key, and the stale one is reported as removed.
func TestFlushPrunesStaleKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "case.fixtures.json")
	writeStoreFile(t, path, map[string][]fixture.Record{
		"t > f 1":     {intRecord(99, 9)},
		"stale > g 1": {intRecord(1, 1)},
	})

	var log bytes.Buffer
	r := NewRegistry(
		WithConfig(config.Default()),
		WithLogger(slog.New(slog.NewTextHandler(&log, nil))),
		WithDefaultMode(ModeUpdate),
		WithWritableRoot(dir),
		withArgs([]string{}),
	)

	tb := testutil.NewRecorderTB("t")
	h := r.Intercept(tb, "f", sumOriginal, WithPath(path))
	require.NotNil(t, h)
	_, err := h.Call(context.Background(), 2, 4)
	require.NoError(t, err)
	require.NoError(t, h.Restore())

	require.NoError(t, r.FlushAll())

	st, err := fixture.Load(path, false)
	require.NoError(t, err)
	assert.Equal(t, map[string][]fixture.Record{
		"t > f 1": {intRecord(6, 2, 4)},
	}, st.Records)

	assert.Contains(t, log.String(), "removed")
	assert.Contains(t, log.String(), "stale > g 1")
}

// A changed key's flush log line carries the record-level text diff, so
// the run log alone shows what re-recording rewrote.
func TestFlushLogsDiffForChangedKey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "case.fixtures.json")
	writeStoreFile(t, path, map[string][]fixture.Record{
		"t > f 1": {intRecord(99, 2, 4)},
	})

	var log bytes.Buffer
	r := NewRegistry(
		WithConfig(config.Default()),
		WithLogger(slog.New(slog.NewTextHandler(&log, nil))),
		WithDefaultMode(ModeUpdate),
		WithWritableRoot(dir),
		withArgs([]string{}),
	)

	tb := testutil.NewRecorderTB("t")
	h := r.Intercept(tb, "f", sumOriginal, WithPath(path))
	require.NotNil(t, h)
	_, err := h.Call(context.Background(), 2, 4)
	require.NoError(t, err)
	require.NoError(t, h.Restore())

	require.NoError(t, r.FlushAll())

	assert.Contains(t, log.String(), "changed")
	assert.Contains(t, log.String(), "diff")
	// The stale output appears only through the rendered diff.
	assert.Contains(t, log.String(), "99")
}

func TestFlushSkipsReplayOnlyStores(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "case.fixtures.json")
	writeStoreFile(t, path, map[string][]fixture.Record{
		"t > f 1": {intRecord(6, 2, 4)},
	})
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	r := newTestRegistry(t, ModeReplay, dir)
	tb := testutil.NewRecorderTB("t")
	h := r.Intercept(tb, "f", neverCalled(t), WithPath(path))
	require.NotNil(t, h)
	_, err = h.Call(context.Background(), 2, 4)
	require.NoError(t, err)
	require.NoError(t, h.Restore())

	require.NoError(t, r.FlushAll())

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestFlushRunsOnce(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "case.fixtures.json")

	r := newTestRegistry(t, ModeUpdate, dir)
	tb := testutil.NewRecorderTB("t")
	h := r.Intercept(tb, "f", sumOriginal, WithPath(path))
	require.NotNil(t, h)
	_, err := h.Call(context.Background(), 2, 4)
	require.NoError(t, err)
	require.NoError(t, h.Restore())

	require.NoError(t, r.FlushAll())
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	// Deleting the file proves the second flush writes nothing.
	require.NoError(t, os.Remove(path))
	require.NoError(t, r.FlushAll())

	_, err = os.ReadFile(path)
	assert.True(t, os.IsNotExist(err))
	assert.NotEmpty(t, first)
}

func TestFlushPermissionGate(t *testing.T) {
	allowed := t.TempDir()
	forbidden := t.TempDir()
	path := filepath.Join(forbidden, "case.fixtures.json")

	r := newTestRegistry(t, ModeUpdate, allowed)
	tb := testutil.NewRecorderTB("t")
	h := r.Intercept(tb, "f", sumOriginal, WithPath(path))
	require.NotNil(t, h)
	_, err := h.Call(context.Background(), 2, 4)
	require.NoError(t, err)
	require.NoError(t, h.Restore())

	err = r.FlushAll()
	require.Error(t, err)

	var pe *PermissionError
	require.True(t, errors.As(err, &pe))
	assert.Contains(t, err.Error(), path)
	assert.Contains(t, err.Error(), "-remock.allow-write=")

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestFlushUnchangedStoreIsNotRewritten(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "case.fixtures.json")
	writeStoreFile(t, path, map[string][]fixture.Record{
		"t > f 1": {intRecord(6, 2, 4)},
	})
	info, err := os.Stat(path)
	require.NoError(t, err)

	r := newTestRegistry(t, ModeUpdate, dir)
	tb := testutil.NewRecorderTB("t")
	h := r.Intercept(tb, "f", sumOriginal, WithPath(path))
	require.NotNil(t, h)
	_, err = h.Call(context.Background(), 2, 4)
	require.NoError(t, err)
	require.NoError(t, h.Restore())

	require.NoError(t, r.FlushAll())

	after, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, info.ModTime(), after.ModTime())
}

func TestJournalRecordsRunEvents(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "case.fixtures.json")
	journalPath := filepath.Join(dir, "journal.db")

	cfg := config.Default()
	cfg.Journal = journalPath

	r := NewRegistry(
		WithConfig(cfg),
		WithLogger(DiscardLogger()),
		WithDefaultMode(ModeUpdate),
		WithWritableRoot(dir),
		withArgs([]string{}),
	)

	tb := testutil.NewRecorderTB("t")
	h := r.Intercept(tb, "f", sumOriginal, WithPath(path))
	require.NotNil(t, h)
	_, err := h.Call(context.Background(), 2, 4)
	require.NoError(t, err)
	require.NoError(t, h.Restore())
	require.NoError(t, r.FlushAll())

	jnl, err := journal.Open(journalPath)
	require.NoError(t, err)
	defer jnl.Close()

	events, err := jnl.ReadRun(context.Background(), r.RunToken())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "t > f 1", events[0].FixtureKey)
	assert.Equal(t, journal.OutcomeRecorded, events[0].Outcome)
	assert.Equal(t, "[2,4]", events[0].Input)
	assert.Equal(t, "6", events[0].Output)
	assert.Equal(t, "update", events[0].Mode)
}
