package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fokuslabs/fokus/internal/focus"
)

// ErrInvalidSnapshot rejects sync payloads whose schema version tag is
// absent or unknown. Nothing from such a payload is accepted.
var ErrInvalidSnapshot = errors.New("invalid state payload")

// ReadSnapshot loads the user's full state plus the sync watermark. A brand
// new user is seeded with the default categories and demo tasks so the first
// sync has something consistent to diff against. The repeat-reset pass runs
// on every read; when it fires, the watermark is bumped so every client is
// forced to re-hydrate.
func (s *Store) ReadSnapshot(userID string, now time.Time) (focus.State, time.Time, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return focus.State{}, time.Time{}, fmt.Errorf("begin read snapshot: %w", err)
	}
	defer tx.Rollback()

	if err := ensureUser(tx, userID, now); err != nil {
		return focus.State{}, time.Time{}, err
	}

	state, err := loadState(tx, userID)
	if err != nil {
		return focus.State{}, time.Time{}, err
	}

	if len(state.Categories) == 0 && len(state.Tasks) == 0 && len(state.Blocks) == 0 {
		seeded := focus.NewInitialState(now)
		if err := upsertEntities(tx, userID, seeded); err != nil {
			return focus.State{}, time.Time{}, fmt.Errorf("seed user %q: %w", userID, err)
		}
		if err := setWatermark(tx, userID, now); err != nil {
			return focus.State{}, time.Time{}, err
		}
		if err := tx.Commit(); err != nil {
			return focus.State{}, time.Time{}, fmt.Errorf("commit seed: %w", err)
		}
		return seeded, now, nil
	}

	watermark, err := readWatermark(tx, userID)
	if err != nil {
		return focus.State{}, time.Time{}, err
	}

	reset, fired := focus.ResetDueRepeats(state, now, s.loc)
	if fired {
		if err := persistRepeatResets(tx, state, reset); err != nil {
			return focus.State{}, time.Time{}, err
		}
		if err := setWatermark(tx, userID, now); err != nil {
			return focus.State{}, time.Time{}, err
		}
		state = reset
		watermark = now
	}

	if err := tx.Commit(); err != nil {
		return focus.State{}, time.Time{}, fmt.Errorf("commit read snapshot: %w", err)
	}

	state.Version = focus.Version
	state.LastLocalEditAt = watermark
	return state, watermark, nil
}

// WriteSnapshot upserts every entity of the client state by id inside one
// transaction, then moves the watermark to the client-declared edit instant
// (or the receipt time when that instant is absent). A partial write would
// corrupt the selection invariant, so any failure rolls the whole snapshot
// back.
func (s *Store) WriteSnapshot(userID string, state focus.State, receivedAt time.Time) (time.Time, error) {
	if state.Version != focus.Version {
		return time.Time{}, ErrInvalidSnapshot
	}

	watermark := state.LastLocalEditAt
	if watermark.IsZero() {
		watermark = receivedAt
	}

	tx, err := s.db.Begin()
	if err != nil {
		return time.Time{}, fmt.Errorf("begin write snapshot: %w", err)
	}
	defer tx.Rollback()

	if err := ensureUser(tx, userID, receivedAt); err != nil {
		return time.Time{}, err
	}
	if err := upsertEntities(tx, userID, state); err != nil {
		return time.Time{}, err
	}
	if err := setWatermark(tx, userID, watermark); err != nil {
		return time.Time{}, err
	}

	if err := tx.Commit(); err != nil {
		return time.Time{}, fmt.Errorf("commit write snapshot: %w", err)
	}
	return watermark, nil
}

// Watermark returns the user's current sync watermark.
func (s *Store) Watermark(userID string) (time.Time, error) {
	var raw string
	err := s.db.QueryRow(`SELECT last_state_at FROM users WHERE id = ?`, userID).Scan(&raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("read watermark for %q: %w", userID, err)
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse watermark for %q: %w", userID, err)
	}
	return t, nil
}

func readWatermark(tx *sql.Tx, userID string) (time.Time, error) {
	var raw string
	if err := tx.QueryRow(`SELECT last_state_at FROM users WHERE id = ?`, userID).Scan(&raw); err != nil {
		return time.Time{}, fmt.Errorf("read watermark for %q: %w", userID, err)
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse watermark for %q: %w", userID, err)
	}
	return t, nil
}

func setWatermark(tx *sql.Tx, userID string, at time.Time) error {
	_, err := tx.Exec(
		`UPDATE users SET last_state_at = ? WHERE id = ?`,
		at.UTC().Format(timeLayout), userID,
	)
	if err != nil {
		return fmt.Errorf("set watermark for %q: %w", userID, err)
	}
	return nil
}

func loadState(tx *sql.Tx, userID string) (focus.State, error) {
	state := focus.State{Version: focus.Version}

	rows, err := tx.Query(
		`SELECT id, name, sort_order, default_seconds
		 FROM categories WHERE user_id = ? ORDER BY sort_order, id`, userID)
	if err != nil {
		return state, fmt.Errorf("load categories: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var c focus.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.SortOrder, &c.DefaultSeconds); err != nil {
			return state, err
		}
		state.Categories = append(state.Categories, c)
	}
	if err := rows.Err(); err != nil {
		return state, err
	}

	taskRows, err := tx.Query(
		`SELECT id, category_id, title, status, priority, sort_order, notes, due_at,
		        estimate_minutes, repeat_cadence, repeat_time, selected_at, completed_at
		 FROM tasks WHERE user_id = ? ORDER BY category_id, sort_order, id`, userID)
	if err != nil {
		return state, fmt.Errorf("load tasks: %w", err)
	}
	defer taskRows.Close()
	for taskRows.Next() {
		var t focus.Task
		var status, cadence string
		var dueAt, selectedAt, completedAt sql.NullString
		if err := taskRows.Scan(
			&t.ID, &t.CategoryID, &t.Title, &status, &t.Priority, &t.SortOrder,
			&t.Notes, &dueAt, &t.EstimateMinutes, &cadence, &t.RepeatTime,
			&selectedAt, &completedAt,
		); err != nil {
			return state, err
		}
		t.Status = focus.TaskStatus(status)
		t.RepeatCadence = focus.RepeatCadence(cadence)
		t.DueAt = parseTimePtr(dueAt)
		t.SelectedAt = parseTimePtr(selectedAt)
		t.CompletedAt = parseTimePtr(completedAt)
		state.Tasks = append(state.Tasks, t)
	}
	if err := taskRows.Err(); err != nil {
		return state, err
	}

	blockRows, err := tx.Query(
		`SELECT id, category_id, status, planned_seconds, actual_seconds,
		        started_at, ended_at, end_reason, all_selected_completed
		 FROM blocks WHERE user_id = ? ORDER BY started_at, id`, userID)
	if err != nil {
		return state, fmt.Errorf("load blocks: %w", err)
	}
	defer blockRows.Close()
	for blockRows.Next() {
		var b focus.FocusBlock
		var status string
		var actual sql.NullInt64
		var startedAt, endedAt sql.NullString
		var allDone int
		if err := blockRows.Scan(
			&b.ID, &b.CategoryID, &status, &b.PlannedSeconds, &actual,
			&startedAt, &endedAt, &b.EndReason, &allDone,
		); err != nil {
			return state, err
		}
		b.Status = focus.BlockStatus(status)
		if actual.Valid {
			v := int(actual.Int64)
			b.ActualSeconds = &v
		}
		b.StartedAt = parseTimePtr(startedAt)
		b.EndedAt = parseTimePtr(endedAt)
		b.AllSelectedCompleted = allDone == 1
		state.Blocks = append(state.Blocks, b)
	}
	if err := blockRows.Err(); err != nil {
		return state, err
	}

	selRows, err := tx.Query(
		`SELECT id, block_id, task_id, sort_order, done_at
		 FROM selections WHERE user_id = ? ORDER BY block_id, sort_order, id`, userID)
	if err != nil {
		return state, fmt.Errorf("load selections: %w", err)
	}
	defer selRows.Close()
	for selRows.Next() {
		var sel focus.BlockSelection
		var doneAt sql.NullString
		if err := selRows.Scan(&sel.ID, &sel.BlockID, &sel.TaskID, &sel.SortOrder, &doneAt); err != nil {
			return state, err
		}
		sel.DoneAt = parseTimePtr(doneAt)
		state.Selections = append(state.Selections, sel)
	}
	return state, selRows.Err()
}

func upsertEntities(tx *sql.Tx, userID string, state focus.State) error {
	for _, c := range state.Categories {
		_, err := tx.Exec(
			`INSERT INTO categories (id, user_id, name, sort_order, default_seconds)
			 VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET
			   name = excluded.name, sort_order = excluded.sort_order,
			   default_seconds = excluded.default_seconds`,
			c.ID, userID, c.Name, c.SortOrder, c.DefaultSeconds,
		)
		if err != nil {
			return fmt.Errorf("upsert category %q: %w", c.ID, err)
		}
	}

	for _, t := range state.Tasks {
		_, err := tx.Exec(
			`INSERT INTO tasks (id, user_id, category_id, title, status, priority, sort_order,
			                    notes, due_at, estimate_minutes, repeat_cadence, repeat_time,
			                    selected_at, completed_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET
			   category_id = excluded.category_id, title = excluded.title,
			   status = excluded.status, priority = excluded.priority,
			   sort_order = excluded.sort_order, notes = excluded.notes,
			   due_at = excluded.due_at, estimate_minutes = excluded.estimate_minutes,
			   repeat_cadence = excluded.repeat_cadence, repeat_time = excluded.repeat_time,
			   selected_at = excluded.selected_at, completed_at = excluded.completed_at`,
			t.ID, userID, t.CategoryID, t.Title, string(t.Status), t.Priority, t.SortOrder,
			t.Notes, formatTimePtr(t.DueAt), t.EstimateMinutes, string(t.RepeatCadence),
			t.RepeatTime, formatTimePtr(t.SelectedAt), formatTimePtr(t.CompletedAt),
		)
		if err != nil {
			return fmt.Errorf("upsert task %q: %w", t.ID, err)
		}
	}

	for _, b := range state.Blocks {
		var actual any
		if b.ActualSeconds != nil {
			actual = *b.ActualSeconds
		}
		var allDone int
		if b.AllSelectedCompleted {
			allDone = 1
		}
		_, err := tx.Exec(
			`INSERT INTO blocks (id, user_id, category_id, status, planned_seconds,
			                     actual_seconds, started_at, ended_at, end_reason,
			                     all_selected_completed)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET
			   status = excluded.status, planned_seconds = excluded.planned_seconds,
			   actual_seconds = excluded.actual_seconds, started_at = excluded.started_at,
			   ended_at = excluded.ended_at, end_reason = excluded.end_reason,
			   all_selected_completed = excluded.all_selected_completed`,
			b.ID, userID, b.CategoryID, string(b.Status), b.PlannedSeconds,
			actual, formatTimePtr(b.StartedAt), formatTimePtr(b.EndedAt), b.EndReason, allDone,
		)
		if err != nil {
			return fmt.Errorf("upsert block %q: %w", b.ID, err)
		}
	}

	for _, sel := range state.Selections {
		_, err := tx.Exec(
			`INSERT INTO selections (id, user_id, block_id, task_id, sort_order, done_at)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET
			   block_id = excluded.block_id, task_id = excluded.task_id,
			   sort_order = excluded.sort_order, done_at = excluded.done_at
			 ON CONFLICT(block_id, task_id) DO UPDATE SET
			   sort_order = excluded.sort_order, done_at = excluded.done_at`,
			sel.ID, userID, sel.BlockID, sel.TaskID, sel.SortOrder, formatTimePtr(sel.DoneAt),
		)
		if err != nil {
			return fmt.Errorf("upsert selection %q: %w", sel.ID, err)
		}
	}
	return nil
}

func persistRepeatResets(tx *sql.Tx, before, after focus.State) error {
	prior := make(map[string]focus.Task, len(before.Tasks))
	for _, t := range before.Tasks {
		prior[t.ID] = t
	}
	for _, t := range after.Tasks {
		if p, ok := prior[t.ID]; !ok || p.Status == t.Status {
			continue
		}
		_, err := tx.Exec(
			`UPDATE tasks SET status = ?, completed_at = NULL, selected_at = NULL WHERE id = ?`,
			string(t.Status), t.ID,
		)
		if err != nil {
			return fmt.Errorf("persist repeat reset for task %q: %w", t.ID, err)
		}
	}
	return nil
}
