// Package focus holds the client-side state model: a value type describing
// categories, tasks, focus blocks and their task selections, plus the pure
// transition functions that derive the next state from a user action.
//
// Transitions never perform I/O and never fail: a transition referencing an
// id that does not exist returns the state unchanged. Every mutation stamps
// LastLocalEditAt, which is the sole signal used by snapshot reconciliation.
package focus

import "time"

// Version is the schema tag carried by every persisted or synced snapshot.
// Anything reporting a different version is treated as empty (local load)
// or rejected (sync write).
const Version = 1

type TaskStatus string

const (
	TaskPending  TaskStatus = "PENDING"
	TaskDone     TaskStatus = "DONE"
	TaskArchived TaskStatus = "ARCHIVED"
)

type BlockStatus string

const (
	BlockDraft       BlockStatus = "DRAFT"
	BlockActive      BlockStatus = "ACTIVE"
	BlockCompleted   BlockStatus = "COMPLETED"
	BlockInterrupted BlockStatus = "INTERRUPTED"
)

type RepeatCadence string

const (
	RepeatNone     RepeatCadence = "NONE"
	RepeatDaily    RepeatCadence = "DAILY"
	RepeatWeekdays RepeatCadence = "WEEKDAYS"
)

// Category is a named bucket of tasks. DefaultSeconds remembers the last
// block duration used for the category, clamped to [60, 14400].
type Category struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	SortOrder      int    `json:"sortOrder"`
	DefaultSeconds int    `json:"defaultSeconds"`
}

// Task is one unit of work. CompletedAt is non-nil iff Status is DONE.
type Task struct {
	ID              string        `json:"id"`
	CategoryID      string        `json:"categoryId"`
	Title           string        `json:"title"`
	Status          TaskStatus    `json:"status"`
	Priority        int           `json:"priority"` // 1 = highest .. 4 = lowest
	SortOrder       int           `json:"sortOrder"`
	Notes           string        `json:"notes,omitempty"`
	DueAt           *time.Time    `json:"dueAt,omitempty"`
	EstimateMinutes int           `json:"estimateMinutes,omitempty"`
	RepeatCadence   RepeatCadence `json:"repeatCadence"`
	RepeatTime      string        `json:"repeatTime,omitempty"` // "HH:MM", informational
	SelectedAt      *time.Time    `json:"selectedAt,omitempty"`
	CompletedAt     *time.Time    `json:"completedAt,omitempty"`
}

// FocusBlock is one planned or executed work session. CategoryID is fixed at
// creation. COMPLETED and INTERRUPTED are terminal.
type FocusBlock struct {
	ID             string      `json:"id"`
	CategoryID     string      `json:"categoryId"`
	Status         BlockStatus `json:"status"`
	PlannedSeconds int         `json:"plannedSeconds"`
	ActualSeconds  *int        `json:"actualSeconds,omitempty"`
	StartedAt      *time.Time  `json:"startedAt,omitempty"`
	EndedAt        *time.Time  `json:"endedAt,omitempty"`
	EndReason      string      `json:"endReason,omitempty"`
	// AllSelectedCompleted is true iff the block had at least one selected
	// task and every selection was done by block end.
	AllSelectedCompleted bool `json:"allSelectedCompleted"`
}

// BlockSelection links a task into a block. (BlockID, TaskID) is unique.
type BlockSelection struct {
	ID        string     `json:"id"`
	BlockID   string     `json:"blockId"`
	TaskID    string     `json:"taskId"`
	SortOrder int        `json:"sortOrder"`
	DoneAt    *time.Time `json:"doneAt,omitempty"`
}

// State is the full per-user focus state. It is a value: transitions copy
// the slices they touch and return a new State.
type State struct {
	Version         int              `json:"version"`
	LastLocalEditAt time.Time        `json:"lastLocalEditAt"`
	Categories      []Category       `json:"categories"`
	Tasks           []Task           `json:"tasks"`
	Blocks          []FocusBlock     `json:"blocks"`
	Selections      []BlockSelection `json:"selections"`
}

// Terminal reports whether the block can accept no further transitions.
func (b FocusBlock) Terminal() bool {
	return b.Status == BlockCompleted || b.Status == BlockInterrupted
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
