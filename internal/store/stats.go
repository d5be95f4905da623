package store

import (
	"database/sql"
	"fmt"
	"math"
	"time"
)

// DayPoint is one sample of a daily series, shaped for the trading-style
// chart widgets ("time" is the day key, "value" the reading).
type DayPoint struct {
	Day   string  `json:"time"`
	Value float64 `json:"value"`
}

// DashboardStats holds two aligned daily series over the trailing window
// plus the derived streak.
type DashboardStats struct {
	Series       []DayPoint `json:"series"`      // focus minutes per day
	PanicSeries  []DayPoint `json:"panicSeries"` // panic events per day
	Streak       int        `json:"streak"`
	TotalMinutes float64    `json:"totalMinutes"`
}

const (
	minStatsDays = 7
	maxStatsDays = 60
)

// DashboardStats aggregates the trailing `days` calendar days (clamped to
// 7..60, in the store's timezone): focus minutes from ended blocks (actual
// seconds, falling back to planned) and panic event counts. The streak
// counts consecutive days with any focus time, scanning back from today.
func (s *Store) DashboardStats(userID string, days int, now time.Time) (DashboardStats, error) {
	if days < minStatsDays {
		days = minStatsDays
	}
	if days > maxStatsDays {
		days = maxStatsDays
	}

	local := now.In(s.loc)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.loc)
	start := today.AddDate(0, 0, -(days - 1))

	focusSecs := make(map[string]int)
	panicCount := make(map[string]int)
	var dayKeys []string
	for i := 0; i < days; i++ {
		key := start.AddDate(0, 0, i).Format("2006-01-02")
		dayKeys = append(dayKeys, key)
		focusSecs[key] = 0
		panicCount[key] = 0
	}

	rows, err := s.db.Query(
		`SELECT started_at, planned_seconds, actual_seconds
		 FROM blocks WHERE user_id = ? AND ended_at IS NOT NULL`, userID)
	if err != nil {
		return DashboardStats{}, fmt.Errorf("load ended blocks: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var startedAt sql.NullString
		var planned int
		var actual sql.NullInt64
		if err := rows.Scan(&startedAt, &planned, &actual); err != nil {
			return DashboardStats{}, err
		}
		started := parseTimePtr(startedAt)
		if started == nil {
			continue
		}
		key := s.dateKey(*started)
		if _, ok := focusSecs[key]; !ok {
			continue
		}
		seconds := planned
		if actual.Valid {
			seconds = int(actual.Int64)
		}
		focusSecs[key] += seconds
	}
	if err := rows.Err(); err != nil {
		return DashboardStats{}, err
	}

	panicRows, err := s.db.Query(
		`SELECT created_at FROM panic_events WHERE user_id = ?`, userID)
	if err != nil {
		return DashboardStats{}, fmt.Errorf("load panic events: %w", err)
	}
	defer panicRows.Close()
	for panicRows.Next() {
		var createdAt string
		if err := panicRows.Scan(&createdAt); err != nil {
			return DashboardStats{}, err
		}
		created, err := time.Parse(time.RFC3339, createdAt)
		if err != nil {
			continue
		}
		key := s.dateKey(created)
		if _, ok := panicCount[key]; ok {
			panicCount[key]++
		}
	}
	if err := panicRows.Err(); err != nil {
		return DashboardStats{}, err
	}

	stats := DashboardStats{}
	for _, key := range dayKeys {
		minutes := math.Round(float64(focusSecs[key])/60*10) / 10
		stats.Series = append(stats.Series, DayPoint{Day: key, Value: minutes})
		stats.PanicSeries = append(stats.PanicSeries, DayPoint{Day: key, Value: float64(panicCount[key])})
		stats.TotalMinutes += minutes
	}

	for i := len(stats.Series) - 1; i >= 0; i-- {
		if stats.Series[i].Value <= 0 {
			break
		}
		stats.Streak++
	}
	return stats, nil
}
