package focus

import "sort"

// CompareTasks is the canonical task ordering used everywhere a task list is
// displayed or auto-picked: priority ascending (1 first), then due date
// ascending with absent due dates last, then sort order as a stable
// tie-break. Returns a negative value when a sorts before b.
func CompareTasks(a, b Task) int {
	if a.Priority != b.Priority {
		return a.Priority - b.Priority
	}
	switch {
	case a.DueAt == nil && b.DueAt != nil:
		return 1
	case a.DueAt != nil && b.DueAt == nil:
		return -1
	case a.DueAt != nil && b.DueAt != nil && !a.DueAt.Equal(*b.DueAt):
		if a.DueAt.Before(*b.DueAt) {
			return -1
		}
		return 1
	}
	return a.SortOrder - b.SortOrder
}

// SortTasks sorts a copy of tasks by the canonical ordering.
func SortTasks(tasks []Task) []Task {
	out := make([]Task, len(tasks))
	copy(out, tasks)
	sort.SliceStable(out, func(i, j int) bool {
		return CompareTasks(out[i], out[j]) < 0
	})
	return out
}
