package focus

import "time"

// ResetDueRepeats runs the repeat-reset pass: every repeating task that was
// completed on an earlier calendar day (in loc) goes back to PENDING with
// CompletedAt and SelectedAt cleared. WEEKDAYS cadence only fires Monday
// through Friday, so a task done on Friday stays DONE over the weekend and
// resets on the next weekday load.
//
// The pass is run by the server on snapshot read. It deliberately does not
// stamp LastLocalEditAt; the server bumps its own watermark when the pass
// fired so clients re-hydrate.
func ResetDueRepeats(s State, now time.Time, loc *time.Location) (State, bool) {
	local := now.In(loc)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	weekday := local.Weekday()
	isWeekend := weekday == time.Saturday || weekday == time.Sunday

	fired := false
	tasks := make([]Task, len(s.Tasks))
	for i, t := range s.Tasks {
		tasks[i] = t
		if t.RepeatCadence == RepeatNone || t.Status != TaskDone || t.CompletedAt == nil {
			continue
		}
		if t.RepeatCadence == RepeatWeekdays && isWeekend {
			continue
		}

		done := t.CompletedAt.In(loc)
		doneDay := time.Date(done.Year(), done.Month(), done.Day(), 0, 0, 0, 0, loc)
		if !doneDay.Before(today) {
			continue
		}

		t.Status = TaskPending
		t.CompletedAt = nil
		t.SelectedAt = nil
		tasks[i] = t
		fired = true
	}

	if !fired {
		return s, false
	}
	s.Tasks = tasks
	return s, true
}
