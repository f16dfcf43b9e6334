package remock

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/remock/internal/fixture"
	"github.com/roach88/remock/internal/testutil"
)

func TestRestoreWithNoCallsFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "case.fixtures.json")

	r := newTestRegistry(t, ModeUpdate, dir)
	tb := testutil.NewRecorderTB("t")
	h := r.Intercept(tb, "f", sumOriginal, WithPath(path))
	require.NotNil(t, h)

	err := h.Restore()
	require.Error(t, err)

	var me *MockError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, ErrCodeNoCallsMade, me.Code)
	assert.Contains(t, err.Error(), "t > f 1")
}

// Scenario: two records, one call made; Restore lists the unmatched
// record's input.
func TestRestoreWithUnmatchedRemainingFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "case.fixtures.json")
	writeStoreFile(t, path, map[string][]fixture.Record{
		"t > f 1": {intRecord(6, 2, 4), intRecord(8, 3, 5)},
	})

	r := newTestRegistry(t, ModeReplay, dir)
	tb := testutil.NewRecorderTB("t")
	h := r.Intercept(tb, "f", neverCalled(t), WithPath(path))
	require.NotNil(t, h)

	_, err := h.Call(context.Background(), 2, 4)
	require.NoError(t, err)

	err = h.Restore()
	require.Error(t, err)

	var me *MockError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, ErrCodeUnmatchedCalls, me.Code)
	assert.Contains(t, err.Error(), "t > f 1")
	assert.Contains(t, err.Error(), "[3,5]")
	assert.Contains(t, err.Error(), "f")
}

func TestRestoreTwiceFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "case.fixtures.json")

	r := newTestRegistry(t, ModeUpdate, dir)
	tb := testutil.NewRecorderTB("t")
	h := r.Intercept(tb, "f", sumOriginal, WithPath(path))
	require.NotNil(t, h)

	_, err := h.Call(context.Background(), 1, 2)
	require.NoError(t, err)
	require.NoError(t, h.Restore())
	assert.True(t, h.Restored())

	err = h.Restore()
	require.Error(t, err)

	var me *MockError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, ErrCodeDoubleRestore, me.Code)
}

func TestUpdateModeIgnoresRemainingAtRestore(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "case.fixtures.json")
	// Pre-existing records are irrelevant in update mode: the store is
	// regenerated from this run's calls.
	writeStoreFile(t, path, map[string][]fixture.Record{
		"t > f 1": {intRecord(99, 9), intRecord(98, 8)},
	})

	r := newTestRegistry(t, ModeUpdate, dir)
	tb := testutil.NewRecorderTB("t")
	h := r.Intercept(tb, "f", sumOriginal, WithPath(path))
	require.NotNil(t, h)

	_, err := h.Call(context.Background(), 1, 2)
	require.NoError(t, err)
	require.NoError(t, h.Restore())
}

func TestCleanupAutoRestoreReportsViolations(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "case.fixtures.json")

	r := newTestRegistry(t, ModeUpdate, dir)
	tb := testutil.NewRecorderTB("t")
	h := r.Intercept(tb, "f", sumOriginal, WithPath(path))
	require.NotNil(t, h)

	// Never called, never restored: the Cleanup hook surfaces it.
	tb.RunCleanups()
	require.Len(t, tb.Errors, 1)
	assert.Contains(t, tb.Errors[0], "NO_CALLS_MADE")
	assert.True(t, h.Restored())
}

func TestCleanupAfterExplicitRestoreIsSilent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "case.fixtures.json")

	r := newTestRegistry(t, ModeUpdate, dir)
	tb := testutil.NewRecorderTB("t")
	h := r.Intercept(tb, "f", sumOriginal, WithPath(path))
	require.NotNil(t, h)

	_, err := h.Call(context.Background(), 1, 2)
	require.NoError(t, err)
	require.NoError(t, h.Restore())

	tb.RunCleanups()
	assert.Empty(t, tb.Errors)
	assert.Empty(t, tb.Fatals)
}

func TestMustRestoreFailsFatally(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "case.fixtures.json")

	r := newTestRegistry(t, ModeUpdate, dir)
	tb := testutil.NewRecorderTB("t")
	h := r.Intercept(tb, "f", sumOriginal, WithPath(path))
	require.NotNil(t, h)

	h.MustRestore(tb)
	require.Len(t, tb.Fatals, 1)
	assert.Contains(t, tb.Fatals[0], "NO_CALLS_MADE")
}

func TestHandleAccessors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "case.fixtures.json")

	r := newTestRegistry(t, ModeUpdate, dir)
	tb := testutil.NewRecorderTB("t")
	h := r.Intercept(tb, "f", sumOriginal, WithPath(path))
	require.NotNil(t, h)

	assert.Equal(t, ModeUpdate, h.Mode())
	assert.Equal(t, "t > f 1", h.Key())
	assert.False(t, h.Restored())

	// Original gives back the real function, callable directly.
	got, err := h.Original()(context.Background(), 2, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(5), got)

	_, err = h.Call(context.Background(), 1, 1)
	require.NoError(t, err)
	require.NoError(t, h.Restore())
}
