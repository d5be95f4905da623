package store

import (
	"database/sql"
	"fmt"
	"time"
)

const (
	maxEmotionLen = 64
	maxActionLen  = 140
)

// RecentPanicEvents returns the user's newest events first, capped at limit.
func (s *Store) RecentPanicEvents(userID string, limit int) ([]PanicEvent, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT id, category_id, block_id, urge, emotion, chosen_action, created_at
		 FROM panic_events WHERE user_id = ?
		 ORDER BY id DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("load panic events: %w", err)
	}
	defer rows.Close()

	var events []PanicEvent
	for rows.Next() {
		var e PanicEvent
		var categoryID, blockID, createdAt sql.NullString
		var urge sql.NullInt64
		if err := rows.Scan(&e.ID, &categoryID, &blockID, &urge, &e.Emotion, &e.ChosenAction, &createdAt); err != nil {
			return nil, err
		}
		e.CategoryID = categoryID.String
		e.BlockID = blockID.String
		if urge.Valid {
			v := int(urge.Int64)
			e.Urge = &v
		}
		if t := parseTimePtr(createdAt); t != nil {
			e.CreatedAt = *t
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// PanicEvent is one press of the urge-intervention button. Events are
// append-only; nothing in the system ever updates or deletes one.
type PanicEvent struct {
	ID           int64
	CategoryID   string
	BlockID      string
	Urge         *int
	Emotion      string
	ChosenAction string
	CreatedAt    time.Time
}

// LogPanicEvent persists one immutable event row.
func (s *Store) LogPanicEvent(userID string, e PanicEvent, now time.Time) error {
	if len(e.Emotion) > maxEmotionLen {
		e.Emotion = e.Emotion[:maxEmotionLen]
	}
	if len(e.ChosenAction) > maxActionLen {
		e.ChosenAction = e.ChosenAction[:maxActionLen]
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin panic log: %w", err)
	}
	defer tx.Rollback()

	if err := ensureUser(tx, userID, now); err != nil {
		return err
	}

	var categoryID, blockID, urge any
	if e.CategoryID != "" {
		categoryID = e.CategoryID
	}
	if e.BlockID != "" {
		blockID = e.BlockID
	}
	if e.Urge != nil {
		urge = *e.Urge
	}

	_, err = tx.Exec(
		`INSERT INTO panic_events (user_id, category_id, block_id, urge, emotion, chosen_action, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		userID, categoryID, blockID, urge, e.Emotion, e.ChosenAction, now.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert panic event: %w", err)
	}
	return tx.Commit()
}
