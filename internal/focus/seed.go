package focus

import "time"

// DefaultPomodoroSeconds is the seeded block duration for new categories.
const DefaultPomodoroSeconds = 25 * 60

// DefaultCategories are created for a brand-new user, on the client when no
// local state exists and on the server when a user's tables are empty. The
// ids are fixed so that a fresh client and a freshly seeded server agree.
func DefaultCategories() []Category {
	return []Category{
		{ID: "work", Name: "Work", SortOrder: 0, DefaultSeconds: DefaultPomodoroSeconds},
		{ID: "study", Name: "Study", SortOrder: 1, DefaultSeconds: DefaultPomodoroSeconds},
		{ID: "gym", Name: "Gym", SortOrder: 2, DefaultSeconds: DefaultPomodoroSeconds},
	}
}

// NewInitialState synthesizes the default state for a first run: the default
// categories plus a handful of demo tasks that teach the workflow.
func NewInitialState(now time.Time) State {
	return State{
		Version:         Version,
		LastLocalEditAt: now,
		Categories:      DefaultCategories(),
		Tasks: []Task{
			{
				ID: "t1", CategoryID: "work",
				Title:    "Open the repo and pick one task",
				Status:   TaskPending,
				Priority: 1, SortOrder: 0,
				EstimateMinutes: 5,
				RepeatCadence:   RepeatNone,
			},
			{
				ID: "t2", CategoryID: "work",
				Title:    "Ship one small change",
				Status:   TaskPending,
				Priority: 2, SortOrder: 1,
				EstimateMinutes: 25,
				RepeatCadence:   RepeatNone,
			},
			{
				ID: "t3", CategoryID: "study",
				Title:    "Read for 15 minutes",
				Status:   TaskPending,
				Priority: 2, SortOrder: 0,
				EstimateMinutes: 15,
				RepeatCadence:   RepeatWeekdays,
				RepeatTime:      "08:00",
			},
			{
				ID: "t4", CategoryID: "gym",
				Title:    "5 minute warm-up",
				Status:   TaskPending,
				Priority: 3, SortOrder: 0,
				EstimateMinutes: 5,
				RepeatCadence:   RepeatNone,
			},
		},
		Blocks:     []FocusBlock{},
		Selections: []BlockSelection{},
	}
}
