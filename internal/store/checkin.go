package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const maxNextStepLen = 140

// DailyLog is the ultralight daily check-in: urge and energy on a 0-10
// scale, the dominant emotion, one pre-written next step, and whether a
// value action happened today.
type DailyLog struct {
	DateKey         string `json:"dateKey"`
	Urge            *int   `json:"urge,omitempty"`
	Energy          *int   `json:"energy,omitempty"`
	Emotion         string `json:"emotion,omitempty"`
	NextStep        string `json:"nextStep,omitempty"`
	ValueActionDone bool   `json:"valueActionDone"`
}

// Recommendation is the planning hint derived from today's check-in.
type Recommendation struct {
	BlockMinutes int `json:"blockMin"`
	TaskLimit    int `json:"wip"`
}

// Recommend applies the fixed heuristic: a strong urge (>= 7) or low energy
// (<= 4) suggests one short 15 minute block on a single task; otherwise the
// standard 25 minute block with up to three tasks in play.
func Recommend(urge, energy *int) Recommendation {
	short := (urge != nil && *urge >= 7) || (energy != nil && *energy <= 4)
	if short {
		return Recommendation{BlockMinutes: 15, TaskLimit: 1}
	}
	return Recommendation{BlockMinutes: 25, TaskLimit: 3}
}

// TodayLog returns the user's check-in for the given instant's calendar day,
// or nil when none was recorded.
func (s *Store) TodayLog(userID string, now time.Time) (*DailyLog, error) {
	dateKey := s.dateKey(now)
	log := &DailyLog{DateKey: dateKey}
	var urge, energy sql.NullInt64
	var valueDone int
	err := s.db.QueryRow(
		`SELECT urge, energy, emotion, next_step, value_action_done
		 FROM daily_logs WHERE user_id = ? AND date_key = ?`, userID, dateKey,
	).Scan(&urge, &energy, &log.Emotion, &log.NextStep, &valueDone)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read daily log: %w", err)
	}
	if urge.Valid {
		v := int(urge.Int64)
		log.Urge = &v
	}
	if energy.Valid {
		v := int(energy.Int64)
		log.Energy = &v
	}
	log.ValueActionDone = valueDone == 1
	return log, nil
}

// SaveDailyLog upserts today's check-in. A non-empty next step materializes
// a priority-1 PENDING task in the user's first category, at most once per
// calendar day, and bumps the sync watermark so every client re-hydrates and
// picks the new task up.
func (s *Store) SaveDailyLog(userID string, log DailyLog, now time.Time) error {
	dateKey := s.dateKey(now)
	if len(log.Emotion) > maxEmotionLen {
		log.Emotion = log.Emotion[:maxEmotionLen]
	}
	if len(log.NextStep) > maxNextStepLen {
		log.NextStep = log.NextStep[:maxNextStepLen]
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin daily log: %w", err)
	}
	defer tx.Rollback()

	if err := ensureUser(tx, userID, now); err != nil {
		return err
	}

	var urge, energy any
	if log.Urge != nil {
		urge = *log.Urge
	}
	if log.Energy != nil {
		energy = *log.Energy
	}
	valueDone := 0
	if log.ValueActionDone {
		valueDone = 1
	}

	_, err = tx.Exec(
		`INSERT INTO daily_logs (user_id, date_key, urge, energy, emotion, next_step, value_action_done)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id, date_key) DO UPDATE SET
		   urge = excluded.urge, energy = excluded.energy, emotion = excluded.emotion,
		   next_step = excluded.next_step, value_action_done = excluded.value_action_done`,
		userID, dateKey, urge, energy, log.Emotion, log.NextStep, valueDone,
	)
	if err != nil {
		return fmt.Errorf("upsert daily log: %w", err)
	}

	if log.NextStep != "" {
		if err := s.materializeNextStep(tx, userID, dateKey, log.NextStep, now); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// materializeNextStep turns the check-in's "next step" field into a real
// priority-1 task, once per day.
func (s *Store) materializeNextStep(tx *sql.Tx, userID, dateKey, nextStep string, now time.Time) error {
	var existing sql.NullString
	err := tx.QueryRow(
		`SELECT next_step_task_id FROM daily_logs WHERE user_id = ? AND date_key = ?`,
		userID, dateKey,
	).Scan(&existing)
	if err != nil {
		return fmt.Errorf("read materialized task id: %w", err)
	}
	if existing.Valid && existing.String != "" {
		return nil
	}

	var categoryID string
	err = tx.QueryRow(
		`SELECT id FROM categories WHERE user_id = ? ORDER BY sort_order, id LIMIT 1`, userID,
	).Scan(&categoryID)
	if errors.Is(err, sql.ErrNoRows) {
		// User has never synced or loaded; the task will appear after the
		// first snapshot read seeds the categories and a later check-in.
		return nil
	}
	if err != nil {
		return fmt.Errorf("pick category for next step: %w", err)
	}

	var maxOrder sql.NullInt64
	err = tx.QueryRow(
		`SELECT MAX(sort_order) FROM tasks WHERE user_id = ? AND category_id = ?`,
		userID, categoryID,
	).Scan(&maxOrder)
	if err != nil {
		return fmt.Errorf("next sort order: %w", err)
	}
	sortOrder := 0
	if maxOrder.Valid {
		sortOrder = int(maxOrder.Int64) + 1
	}

	taskID := uuid.NewString()
	_, err = tx.Exec(
		`INSERT INTO tasks (id, user_id, category_id, title, status, priority, sort_order)
		 VALUES (?, ?, ?, ?, 'PENDING', 1, ?)`,
		taskID, userID, categoryID, nextStep, sortOrder,
	)
	if err != nil {
		return fmt.Errorf("materialize next step task: %w", err)
	}

	_, err = tx.Exec(
		`UPDATE daily_logs SET next_step_task_id = ? WHERE user_id = ? AND date_key = ?`,
		taskID, userID, dateKey,
	)
	if err != nil {
		return fmt.Errorf("record materialized task id: %w", err)
	}

	// The server created state on its own: force clients to re-hydrate.
	return setWatermark(tx, userID, now)
}
