package journal

import (
	"context"
	"fmt"
)

// Outcome classifies what the interception engine did with a call.
type Outcome string

const (
	// OutcomeReplayed: a remaining record matched and answered the call.
	OutcomeReplayed Outcome = "replayed"
	// OutcomeRecorded: update mode called through and recorded the pair.
	OutcomeRecorded Outcome = "recorded"
	// OutcomeMiss: replay mode found no matching remaining record.
	OutcomeMiss Outcome = "miss"
	// OutcomeError: the original function or a converter failed.
	OutcomeError Outcome = "error"
)

// Event is one interception occurrence.
type Event struct {
	Seq        int64
	RunToken   string
	FixtureKey string
	Property   string
	Mode       string
	Outcome    Outcome
	// Input is the canonical serialization of the converted inputs.
	Input string
	// Output is the canonical serialization of the answer, empty for
	// miss and error outcomes.
	Output string
}

// Append writes one event. The sequence number is assigned by the journal.
func (j *Journal) Append(ctx context.Context, ev Event) error {
	var output any
	if ev.Output != "" {
		output = ev.Output
	}
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO events (run_token, fixture_key, property, mode, outcome, input, output)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, ev.RunToken, ev.FixtureKey, ev.Property, ev.Mode, string(ev.Outcome), ev.Input, output)
	if err != nil {
		return fmt.Errorf("append journal event: %w", err)
	}
	return nil
}

// ReadRun returns all events for a run token in append order.
// Returns an empty slice (not nil) when the run is unknown.
func (j *Journal) ReadRun(ctx context.Context, runToken string) ([]Event, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, run_token, fixture_key, property, mode, outcome, input, COALESCE(output, '')
		FROM events
		WHERE run_token = ?
		ORDER BY id ASC
	`, runToken)
	if err != nil {
		return nil, fmt.Errorf("query journal events: %w", err)
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		var ev Event
		var outcome string
		if err := rows.Scan(&ev.Seq, &ev.RunToken, &ev.FixtureKey, &ev.Property,
			&ev.Mode, &outcome, &ev.Input, &ev.Output); err != nil {
			return nil, fmt.Errorf("scan journal event: %w", err)
		}
		ev.Outcome = Outcome(outcome)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal events: %w", err)
	}
	return events, nil
}

// Runs returns the distinct run tokens present, most recent first
// (by highest sequence reached).
func (j *Journal) Runs(ctx context.Context) ([]string, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT run_token
		FROM events
		GROUP BY run_token
		ORDER BY MAX(id) DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query journal runs: %w", err)
	}
	defer rows.Close()

	runs := []string{}
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, fmt.Errorf("scan journal run: %w", err)
		}
		runs = append(runs, token)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal runs: %w", err)
	}
	return runs, nil
}
