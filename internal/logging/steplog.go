package logging

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/danielpatrickdp/adaptive-coach/internal/recorder"
)

// createdAtLayout is fixed width so created_at sorts chronologically as text.
const createdAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// #region step-log
// StepLog appends step records to the step_log table.
type StepLog struct {
	db *sql.DB
}

// NewStepLog wraps a database already migrated with the step_log table.
func NewStepLog(db *sql.DB) *StepLog {
	return &StepLog{db: db}
}

// Log writes one step record. The full record is kept as JSON; the indexed
// columns duplicate the fields inspection tools filter on.
func (l *StepLog) Log(rec recorder.StepRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("log step %d: missing id", rec.Step)
	}
	createdAt := rec.Timestamp
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("log step %d: marshal: %w", rec.Step, err)
	}

	_, err = l.db.Exec(
		`INSERT INTO step_log (id, step, state_key, action, reward, explored, learned, saved, record_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.Step,
		rec.StateKey,
		string(rec.Action),
		rec.Reward,
		boolInt(rec.Explored),
		boolInt(rec.Learned),
		boolInt(rec.Saved),
		string(payload),
		createdAt.UTC().Format(createdAtLayout),
	)
	if err != nil {
		return fmt.Errorf("log step %d: %w", rec.Step, err)
	}
	return nil
}

// #endregion step-log

// #region list-steps
// ListSteps returns up to limit records, most recent first.
func ListSteps(db *sql.DB, limit int) ([]recorder.StepRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.Query(
		`SELECT record_json FROM step_log ORDER BY created_at DESC, step DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list steps: %w", err)
	}
	defer rows.Close()

	var out []recorder.StepRecord
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		var rec recorder.StepRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("decode step: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// #endregion list-steps

// #region helpers
func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// #endregion helpers
