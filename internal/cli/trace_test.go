package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/remock/internal/journal"
)

// seedJournal creates a journal with two runs and returns its path.
func seedJournal(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "journal.db")

	jnl, err := journal.Open(path)
	require.NoError(t, err)
	defer jnl.Close()

	ctx := context.Background()
	events := []journal.Event{
		{RunToken: "run-1", FixtureKey: "t > f 1", Property: "f", Mode: "update",
			Outcome: journal.OutcomeRecorded, Input: "[2,4]", Output: "6"},
		{RunToken: "run-2", FixtureKey: "t > f 1", Property: "f", Mode: "replay",
			Outcome: journal.OutcomeReplayed, Input: "[2,4]", Output: "6"},
		{RunToken: "run-2", FixtureKey: "t > g 1", Property: "g", Mode: "replay",
			Outcome: journal.OutcomeMiss, Input: "[3,5]"},
	}
	for _, ev := range events {
		require.NoError(t, jnl.Append(ctx, ev))
	}
	return path
}

func TestTraceListsRuns(t *testing.T) {
	path := seedJournal(t)

	out, err := execute(t, "trace", "--db", path)
	require.NoError(t, err)

	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "run-2")
}

func TestTraceRunTimeline(t *testing.T) {
	path := seedJournal(t)

	out, err := execute(t, "trace", "--db", path, "--run", "run-2")
	require.NoError(t, err)

	assert.Contains(t, out, "Trace for run: run-2")
	assert.Contains(t, out, "replayed")
	assert.Contains(t, out, "miss")
	assert.Contains(t, out, "t > g 1")
	assert.Contains(t, out, "Total Events: 2")
	assert.NotContains(t, out, "run-1")
}

func TestTraceKeyFilter(t *testing.T) {
	path := seedJournal(t)

	out, err := execute(t, "trace", "--db", path, "--run", "run-2", "--key", "t > f 1")
	require.NoError(t, err)

	assert.Contains(t, out, "t > f 1")
	assert.NotContains(t, out, "t > g 1")
	assert.Contains(t, out, "Total Events: 1")
}

func TestTraceJSONOutput(t *testing.T) {
	path := seedJournal(t)

	out, err := execute(t, "trace", "--db", path, "--run", "run-2", "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   TraceResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "run-2", resp.Data.RunToken)
	require.Len(t, resp.Data.Timeline, 2)
	assert.Equal(t, "replayed", resp.Data.Timeline[0].Outcome)
	assert.Equal(t, 1, resp.Data.Stats.Misses)
}

func TestTraceUnknownRunIsEmpty(t *testing.T) {
	path := seedJournal(t)

	out, err := execute(t, "trace", "--db", path, "--run", "absent")
	require.NoError(t, err)
	assert.Contains(t, out, "(no events)")
}

func TestTraceRequiresDatabaseFlag(t *testing.T) {
	_, err := execute(t, "trace")
	require.Error(t, err)
}
