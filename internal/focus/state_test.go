package focus

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

// 2026-03-02 is a Monday; the repeat tests lean on the surrounding weekend.
var (
	t0     = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	friday = time.Date(2026, 3, 6, 18, 0, 0, 0, time.UTC)
	satur  = time.Date(2026, 3, 7, 10, 0, 0, 0, time.UTC)
	sunday = time.Date(2026, 3, 8, 10, 0, 0, 0, time.UTC)
	monday = time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)
)

func emptyState() State {
	return State{
		Version:         Version,
		LastLocalEditAt: t0,
		Categories:      []Category{{ID: "work", Name: "Work", SortOrder: 0, DefaultSeconds: 1500}},
	}
}

// addPending is a test helper that adds a PENDING task and returns its id.
func addPending(t *testing.T, s State, category, title string, priority int, now time.Time) (State, string) {
	t.Helper()
	next, id := s.AddTaskWithID(category, title, TaskOptions{Priority: priority}, now)
	if id == "" {
		t.Fatalf("AddTaskWithID(%q) returned no id", title)
	}
	return next, id
}

func activeCount(s State) int {
	n := 0
	for _, b := range s.Blocks {
		if b.Status == BlockActive {
			n++
		}
	}
	return n
}

// ============================================================
// Categories
// ============================================================

func TestAddCategory(t *testing.T) {
	s := emptyState()
	s = s.AddCategory("  Deep Work  ", t0)
	if len(s.Categories) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(s.Categories))
	}
	c := s.Categories[1]
	if c.Name != "Deep Work" {
		t.Fatalf("name not trimmed: %q", c.Name)
	}
	if c.SortOrder != 1 {
		t.Fatalf("expected sortOrder 1, got %d", c.SortOrder)
	}
	if c.DefaultSeconds != DefaultPomodoroSeconds {
		t.Fatalf("expected seeded default duration, got %d", c.DefaultSeconds)
	}
	if !s.LastLocalEditAt.Equal(t0) {
		t.Fatal("transition should stamp lastLocalEditAt")
	}
}

func TestAddCategoryBlankName(t *testing.T) {
	s := emptyState().AddCategory("   ", t0)
	if s.Categories[1].Name != "New category" {
		t.Fatalf("blank name should get placeholder, got %q", s.Categories[1].Name)
	}
}

func TestSetCategoryDefaultSecondsClamped(t *testing.T) {
	s := emptyState()
	s = s.SetCategoryDefaultSeconds("work", 10, t0)
	if s.Categories[0].DefaultSeconds != 60 {
		t.Fatalf("expected clamp to 60, got %d", s.Categories[0].DefaultSeconds)
	}
	s = s.SetCategoryDefaultSeconds("work", 999999, t0)
	if s.Categories[0].DefaultSeconds != 4*60*60 {
		t.Fatalf("expected clamp to 14400, got %d", s.Categories[0].DefaultSeconds)
	}
}

func TestSetCategoryDefaultSecondsUnknownID(t *testing.T) {
	s := emptyState()
	before := s.LastLocalEditAt
	next := s.SetCategoryDefaultSeconds("nope", 1200, t0.Add(time.Hour))
	if !next.LastLocalEditAt.Equal(before) {
		t.Fatal("unknown id must be a silent no-op")
	}
}

// ============================================================
// Tasks
// ============================================================

func TestAddTaskDefaults(t *testing.T) {
	s, id := addPending(t, emptyState(), "work", "  write tests  ", 0, t0)
	task, ok := s.findTask(id)
	if !ok {
		t.Fatal("task not found")
	}
	if task.Title != "write tests" {
		t.Fatalf("title not trimmed: %q", task.Title)
	}
	if task.Status != TaskPending {
		t.Fatalf("new task should be PENDING, got %s", task.Status)
	}
	if task.Priority != 2 {
		t.Fatalf("default priority should be 2, got %d", task.Priority)
	}
	if task.RepeatCadence != RepeatNone {
		t.Fatalf("default cadence should be NONE, got %s", task.RepeatCadence)
	}
}

func TestAddTaskSortOrderIncrements(t *testing.T) {
	s := emptyState()
	var a, b string
	s, a = addPending(t, s, "work", "first", 2, t0)
	s, b = addPending(t, s, "work", "second", 2, t0)
	ta, _ := s.findTask(a)
	tb, _ := s.findTask(b)
	if tb.SortOrder != ta.SortOrder+1 {
		t.Fatalf("sortOrder should increment: %d then %d", ta.SortOrder, tb.SortOrder)
	}
}

func TestAddTaskUnknownCategory(t *testing.T) {
	s := emptyState()
	next, id := s.AddTaskWithID("ghost", "x", TaskOptions{}, t0)
	if id != "" || len(next.Tasks) != 0 {
		t.Fatal("adding into an unknown category must be a no-op")
	}
}

func TestSetTaskPriorityClamped(t *testing.T) {
	s, id := addPending(t, emptyState(), "work", "x", 2, t0)
	s = s.SetTaskPriority(id, 0, t0)
	if task, _ := s.findTask(id); task.Priority != 1 {
		t.Fatalf("expected clamp to 1, got %d", task.Priority)
	}
	s = s.SetTaskPriority(id, 9, t0)
	if task, _ := s.findTask(id); task.Priority != 4 {
		t.Fatalf("expected clamp to 4, got %d", task.Priority)
	}
}

func TestSetTaskRepeatNoneClearsTime(t *testing.T) {
	s, id := addPending(t, emptyState(), "work", "x", 2, t0)
	s = s.SetTaskRepeat(id, RepeatDaily, "08:00", t0)
	if task, _ := s.findTask(id); task.RepeatTime != "08:00" {
		t.Fatal("repeat time not stored")
	}
	s = s.SetTaskRepeat(id, RepeatNone, "08:00", t0)
	if task, _ := s.findTask(id); task.RepeatTime != "" {
		t.Fatal("NONE cadence should clear repeat time")
	}
}

func TestSetTaskCategoryDropsSelections(t *testing.T) {
	s := emptyState().AddCategory("study", t0)
	studyID := s.Categories[1].ID

	s, taskID := addPending(t, s, "work", "movable", 2, t0)
	s = s.EnsureDraftBlock("work", 1500, t0)
	draft := s.DraftBlock("work")
	s = s.AddTaskToBlock(draft.ID, taskID, t0)
	if !s.IsTaskInBlock(draft.ID, taskID) {
		t.Fatal("setup: task should be selected")
	}

	s = s.SetTaskCategory(taskID, studyID, t0)
	if task, _ := s.findTask(taskID); task.CategoryID != studyID {
		t.Fatal("category not updated")
	}
	if s.IsTaskInBlock(draft.ID, taskID) {
		t.Fatal("moving categories must drop the task's selections")
	}
}

// ============================================================
// Toggle done: status <-> completedAt invariant
// ============================================================

func TestToggleTaskDoneInvariant(t *testing.T) {
	s, id := addPending(t, emptyState(), "work", "x", 2, t0)

	s = s.ToggleTaskDone(id, t0)
	task, _ := s.findTask(id)
	if task.Status != TaskDone {
		t.Fatalf("expected DONE, got %s", task.Status)
	}
	if task.CompletedAt == nil || !task.CompletedAt.Equal(t0) {
		t.Fatal("DONE must stamp completedAt")
	}

	s = s.ToggleTaskDone(id, t0.Add(time.Minute))
	task, _ = s.findTask(id)
	if task.Status != TaskPending {
		t.Fatalf("expected PENDING, got %s", task.Status)
	}
	if task.CompletedAt != nil {
		t.Fatal("PENDING must clear completedAt")
	}
}

func TestToggleTaskDoneMirrorsSelections(t *testing.T) {
	s, id := addPending(t, emptyState(), "work", "x", 2, t0)
	s = s.EnsureDraftBlock("work", 1500, t0)
	draft := s.DraftBlock("work")
	s = s.AddTaskToBlock(draft.ID, id, t0)

	s = s.ToggleTaskDone(id, t0)
	sels := s.BlockSelections(draft.ID)
	if len(sels) != 1 || sels[0].DoneAt == nil {
		t.Fatal("toggling done must stamp doneAt on the selection")
	}

	s = s.ToggleTaskDone(id, t0)
	sels = s.BlockSelections(draft.ID)
	if sels[0].DoneAt != nil {
		t.Fatal("toggling back must clear doneAt")
	}
}

func TestToggleTaskDoneUnknownID(t *testing.T) {
	s := emptyState()
	next := s.ToggleTaskDone("ghost", t0.Add(time.Hour))
	if !next.LastLocalEditAt.Equal(s.LastLocalEditAt) {
		t.Fatal("unknown id must be a silent no-op")
	}
}

// ============================================================
// Canonical ordering
// ============================================================

func TestCompareTasksPriorityThenSortOrder(t *testing.T) {
	// Priorities [2,1,3,1] with equal (absent) due dates: both 1s first,
	// ties by ascending sortOrder.
	tasks := []Task{
		{ID: "a", Priority: 2, SortOrder: 0},
		{ID: "b", Priority: 1, SortOrder: 1},
		{ID: "c", Priority: 3, SortOrder: 2},
		{ID: "d", Priority: 1, SortOrder: 3},
	}
	got := SortTasks(tasks)
	want := []string{"b", "d", "a", "c"}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("position %d: want %s, got %s", i, id, got[i].ID)
		}
	}
}

func TestCompareTasksDueDateNilLast(t *testing.T) {
	soon := t0.Add(24 * time.Hour)
	later := t0.Add(72 * time.Hour)
	tasks := []Task{
		{ID: "none", Priority: 2, SortOrder: 0},
		{ID: "later", Priority: 2, SortOrder: 1, DueAt: &later},
		{ID: "soon", Priority: 2, SortOrder: 2, DueAt: &soon},
	}
	got := SortTasks(tasks)
	want := []string{"soon", "later", "none"}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("position %d: want %s, got %s", i, id, got[i].ID)
		}
	}
}

// ============================================================
// Blocks: drafts, selections, single-active invariant
// ============================================================

func TestEnsureDraftBlockPreselectsPriorityOne(t *testing.T) {
	s, top := addPending(t, emptyState(), "work", "urgent", 1, t0)
	s, _ = addPending(t, s, "work", "later", 2, t0)

	s = s.EnsureDraftBlock("work", 1500, t0)
	draft := s.DraftBlock("work")
	if draft == nil {
		t.Fatal("draft not created")
	}
	sels := s.BlockSelections(draft.ID)
	if len(sels) != 1 || sels[0].TaskID != top {
		t.Fatalf("expected the single priority-1 task preselected, got %+v", sels)
	}
}

func TestEnsureDraftBlockNoPreselectWithoutPriorityOne(t *testing.T) {
	s, _ := addPending(t, emptyState(), "work", "meh", 2, t0)
	s = s.EnsureDraftBlock("work", 1500, t0)
	draft := s.DraftBlock("work")
	if got := len(s.BlockSelections(draft.ID)); got != 0 {
		t.Fatalf("expected empty draft, got %d selections", got)
	}
}

func TestEnsureDraftBlockUpdatesDuration(t *testing.T) {
	s, _ := addPending(t, emptyState(), "work", "x", 2, t0)
	s = s.EnsureDraftBlock("work", 1500, t0)
	first := s.DraftBlock("work")
	s = s.EnsureDraftBlock("work", 900, t0)
	second := s.DraftBlock("work")
	if second.ID != first.ID {
		t.Fatal("re-ensure should reuse the draft, not create another")
	}
	if second.PlannedSeconds != 900 {
		t.Fatalf("expected plannedSeconds 900, got %d", second.PlannedSeconds)
	}
}

func TestEnsureDraftBlockedWhileActive(t *testing.T) {
	s, _ := addPending(t, emptyState(), "work", "x", 2, t0)
	s = s.AddCategory("study", t0)
	studyID := s.Categories[1].ID
	s = s.StartBlock("work", 1500, 5, t0)
	if s.ActiveBlock() == nil {
		t.Fatal("setup: block should be active")
	}
	next := s.EnsureDraftBlock(studyID, 1500, t0)
	if next.DraftBlock(studyID) != nil {
		t.Fatal("no draft may be created while a block is ACTIVE")
	}
}

func TestDraftsIndependentPerCategory(t *testing.T) {
	s := emptyState().AddCategory("study", t0)
	studyID := s.Categories[1].ID
	s = s.EnsureDraftBlock("work", 1500, t0)
	s = s.EnsureDraftBlock(studyID, 900, t0)
	if s.DraftBlock("work") == nil || s.DraftBlock(studyID) == nil {
		t.Fatal("each category may hold its own draft")
	}
}

func TestAddTaskToBlockIdempotent(t *testing.T) {
	s, id := addPending(t, emptyState(), "work", "x", 2, t0)
	s = s.EnsureDraftBlock("work", 1500, t0)
	draft := s.DraftBlock("work")

	s = s.AddTaskToBlock(draft.ID, id, t0)
	once := len(s.BlockSelections(draft.ID))
	s = s.AddTaskToBlock(draft.ID, id, t0)
	twice := len(s.BlockSelections(draft.ID))

	if once != 1 || twice != 1 {
		t.Fatalf("adding twice must equal adding once: %d then %d", once, twice)
	}
}

func TestAddTaskToBlockStampsSelectedAt(t *testing.T) {
	s, id := addPending(t, emptyState(), "work", "x", 2, t0)
	s = s.EnsureDraftBlock("work", 1500, t0)
	s = s.AddTaskToBlock(s.DraftBlock("work").ID, id, t0)
	if task, _ := s.findTask(id); task.SelectedAt == nil {
		t.Fatal("selecting a task must stamp selectedAt")
	}
}

func TestSingleActiveBlockInvariant(t *testing.T) {
	s, _ := addPending(t, emptyState(), "work", "x", 2, t0)
	s = s.AddCategory("study", t0)
	studyID := s.Categories[1].ID

	s = s.StartBlock("work", 1500, 5, t0)
	if activeCount(s) != 1 {
		t.Fatalf("expected 1 active block, got %d", activeCount(s))
	}
	next := s.StartBlock(studyID, 900, 5, t0)
	if activeCount(next) != 1 {
		t.Fatalf("starting while active must be refused, got %d active", activeCount(next))
	}
}

// ============================================================
// Start / end scenarios
// ============================================================

func TestStartEndHappyPath(t *testing.T) {
	s := emptyState()
	var first, second string
	s, first = addPending(t, s, "work", "one", 1, t0)
	s, second = addPending(t, s, "work", "two", 2, t0)

	// Empty draft -> start auto-picks both in priority order.
	s = s.EnsureDraftBlock("work", 1500, t0)
	draft := s.DraftBlock("work")
	s = s.RemoveTaskFromBlock(draft.ID, first, t0) // preselection out of the way
	s = s.StartBlock("work", 1500, 5, t0)

	active := s.ActiveBlock()
	if active == nil {
		t.Fatal("block should be active")
	}
	picked := s.SelectedTasks(active.ID)
	if len(picked) != 2 {
		t.Fatalf("expected 2 auto-picked tasks, got %d", len(picked))
	}
	if picked[0].Task.ID != first || picked[1].Task.ID != second {
		t.Fatal("auto-pick must follow the canonical priority order")
	}

	// First task done, then end COMPLETED: not everything finished.
	s = s.ToggleTaskDone(first, t0.Add(5*time.Minute))
	s = s.EndBlock(active.ID, 1500, BlockCompleted, "", t0.Add(25*time.Minute))

	ended, _ := s.findBlock(active.ID)
	if ended.Status != BlockCompleted {
		t.Fatalf("expected COMPLETED, got %s", ended.Status)
	}
	if ended.AllSelectedCompleted {
		t.Fatal("allSelectedCompleted must be false while a selection is pending")
	}

	// Finishing the second task afterwards still mirrors onto its selection.
	s = s.ToggleTaskDone(second, t0.Add(30*time.Minute))
	for _, sel := range s.BlockSelections(active.ID) {
		if sel.DoneAt == nil {
			t.Fatal("both selections should carry doneAt after both toggles")
		}
	}
}

func TestStartBlockKeepsManualSelections(t *testing.T) {
	s := emptyState()
	var b, c string
	s, _ = addPending(t, s, "work", "a", 2, t0)
	s, b = addPending(t, s, "work", "b", 2, t0)
	s, c = addPending(t, s, "work", "c", 2, t0)

	s = s.EnsureDraftBlock("work", 1500, t0)
	draft := s.DraftBlock("work")
	s = s.AddTaskToBlock(draft.ID, b, t0)
	s = s.AddTaskToBlock(draft.ID, c, t0)

	s = s.StartBlock("work", 1500, 5, t0)
	sels := s.BlockSelections(s.ActiveBlock().ID)
	if len(sels) != 2 {
		t.Fatalf("manual selections must be kept verbatim, got %d", len(sels))
	}
}

func TestStartBlockFreshDraftKeepsSinglePreselection(t *testing.T) {
	s := emptyState()
	var top string
	s, top = addPending(t, s, "work", "urgent", 1, t0)
	s, _ = addPending(t, s, "work", "b", 2, t0)
	s, _ = addPending(t, s, "work", "c", 2, t0)

	// No draft exists yet. The draft created inside StartBlock pre-selects
	// the priority-1 task, and that selection counts as manual: the block
	// starts with it alone even though pickCount allows more.
	s = s.StartBlock("work", 1500, 5, t0)
	sels := s.BlockSelections(s.ActiveBlock().ID)
	if len(sels) != 1 || sels[0].TaskID != top {
		t.Fatalf("expected only the pre-selected priority-1 task, got %d selections", len(sels))
	}
}

func TestStartBlockPickCountLimit(t *testing.T) {
	s := emptyState()
	for i := 0; i < 8; i++ {
		s, _ = addPending(t, s, "work", "task", 2, t0)
	}
	s = s.StartBlock("work", 1500, 3, t0)
	if got := len(s.BlockSelections(s.ActiveBlock().ID)); got != 3 {
		t.Fatalf("expected pickCount to cap selections at 3, got %d", got)
	}
}

func TestInterruption(t *testing.T) {
	s, _ := addPending(t, emptyState(), "work", "x", 2, t0)
	s = s.StartBlock("work", 1500, 5, t0)
	block := s.ActiveBlock()

	// 900 seconds left of a 1500 second plan.
	elapsed := 1500 - 900
	endAt := t0.Add(10 * time.Minute)
	s = s.EndBlock(block.ID, elapsed, BlockInterrupted, "fatigue", endAt)

	b, _ := s.findBlock(block.ID)
	if b.Status != BlockInterrupted {
		t.Fatalf("expected INTERRUPTED, got %s", b.Status)
	}
	if b.ActualSeconds == nil || *b.ActualSeconds != 600 {
		t.Fatalf("expected actualSeconds 600, got %v", b.ActualSeconds)
	}
	if b.EndReason != "fatigue" {
		t.Fatalf("expected reason %q, got %q", "fatigue", b.EndReason)
	}
	if b.EndedAt == nil || !b.EndedAt.Equal(endAt) {
		t.Fatal("endedAt not stamped")
	}

	// Terminal: further transitions are refused.
	again := s.EndBlock(block.ID, 0, BlockCompleted, "", endAt.Add(time.Minute))
	b2, _ := again.findBlock(block.ID)
	if b2.Status != BlockInterrupted || *b2.ActualSeconds != 600 {
		t.Fatal("terminal blocks must be immutable")
	}
}

func TestInterruptionEmptyReasonPlaceholder(t *testing.T) {
	s, _ := addPending(t, emptyState(), "work", "x", 2, t0)
	s = s.StartBlock("work", 1500, 5, t0)
	s = s.EndBlock(s.ActiveBlock().ID, 100, BlockInterrupted, "   ", t0)
	var found bool
	for _, b := range s.Blocks {
		if b.Status == BlockInterrupted {
			found = true
			if b.EndReason != "interrupted" {
				t.Fatalf("expected placeholder reason, got %q", b.EndReason)
			}
		}
	}
	if !found {
		t.Fatal("interruption should still be recorded")
	}
}

func TestInterruptionReasonTruncated(t *testing.T) {
	s, _ := addPending(t, emptyState(), "work", "x", 2, t0)
	s = s.StartBlock("work", 1500, 5, t0)
	long := strings.Repeat("r", 500)
	s = s.EndBlock(s.ActiveBlock().ID, 100, BlockInterrupted, long, t0)
	for _, b := range s.Blocks {
		if b.Status == BlockInterrupted && len(b.EndReason) != 140 {
			t.Fatalf("expected reason truncated to 140, got %d", len(b.EndReason))
		}
	}
}

func TestInterruptionReasonTruncatedOnRuneBoundary(t *testing.T) {
	s, _ := addPending(t, emptyState(), "work", "x", 2, t0)
	s = s.StartBlock("work", 1500, 5, t0)
	// 139 ASCII bytes followed by a two-byte rune straddling the limit.
	long := strings.Repeat("a", 139) + "é" + strings.Repeat("b", 100)
	s = s.EndBlock(s.ActiveBlock().ID, 100, BlockInterrupted, long, t0)
	for _, b := range s.Blocks {
		if b.Status != BlockInterrupted {
			continue
		}
		if !utf8.ValidString(b.EndReason) {
			t.Fatalf("truncation split a rune: %q", b.EndReason)
		}
		if want := strings.Repeat("a", 139); b.EndReason != want {
			t.Fatalf("expected reason cut before the split rune, got %q", b.EndReason)
		}
	}
}

func TestEndBlockEmptySelectionsNeverAllCompleted(t *testing.T) {
	s := emptyState()
	s = s.EnsureDraftBlock("work", 1500, t0)
	s = s.StartBlock("work", 1500, 0, t0) // pickCount 0: no auto-pick
	block := s.ActiveBlock()
	s = s.EndBlock(block.ID, 1500, BlockCompleted, "", t0)
	b, _ := s.findBlock(block.ID)
	if b.AllSelectedCompleted {
		t.Fatal("an empty block is never considered all-completed")
	}
}

// ============================================================
// Repeat reset
// ============================================================

func TestRepeatResetWeekdaysBoundary(t *testing.T) {
	s, id := addPending(t, emptyState(), "work", "daily reading", 2, t0)
	s = s.SetTaskRepeat(id, RepeatWeekdays, "08:00", t0)
	s = s.ToggleTaskDone(id, satur) // completed on Saturday

	// Sunday read: weekday check suppresses the reset.
	next, fired := ResetDueRepeats(s, sunday, time.UTC)
	if fired {
		t.Fatal("WEEKDAYS must not fire on Sunday")
	}
	if task, _ := next.findTask(id); task.Status != TaskDone {
		t.Fatal("task should stay DONE over the weekend")
	}

	// Monday read: reset fires.
	next, fired = ResetDueRepeats(s, monday, time.UTC)
	if !fired {
		t.Fatal("WEEKDAYS must fire on Monday")
	}
	task, _ := next.findTask(id)
	if task.Status != TaskPending {
		t.Fatalf("expected PENDING after reset, got %s", task.Status)
	}
	if task.CompletedAt != nil || task.SelectedAt != nil {
		t.Fatal("reset must clear completedAt and selectedAt")
	}
}

func TestRepeatResetFridayDoneNotResetOnWeekend(t *testing.T) {
	s, id := addPending(t, emptyState(), "work", "x", 2, t0)
	s = s.SetTaskRepeat(id, RepeatWeekdays, "", t0)
	s = s.ToggleTaskDone(id, friday)

	if _, fired := ResetDueRepeats(s, satur, time.UTC); fired {
		t.Fatal("no reset on Saturday")
	}
	next, fired := ResetDueRepeats(s, monday, time.UTC)
	if !fired {
		t.Fatal("expected reset on Monday")
	}
	if task, _ := next.findTask(id); task.Status != TaskPending {
		t.Fatal("expected PENDING on Monday")
	}
}

func TestRepeatResetDaily(t *testing.T) {
	s, id := addPending(t, emptyState(), "work", "x", 2, t0)
	s = s.SetTaskRepeat(id, RepeatDaily, "", t0)
	s = s.ToggleTaskDone(id, satur)

	// Same calendar day: no reset, even hours later.
	if _, fired := ResetDueRepeats(s, satur.Add(8*time.Hour), time.UTC); fired {
		t.Fatal("same-day completion must not reset")
	}
	// DAILY fires on weekends too.
	if _, fired := ResetDueRepeats(s, sunday, time.UTC); !fired {
		t.Fatal("DAILY should fire on Sunday")
	}
}

func TestRepeatResetIgnoresNonRepeating(t *testing.T) {
	s, id := addPending(t, emptyState(), "work", "x", 2, t0)
	s = s.ToggleTaskDone(id, t0)
	if _, fired := ResetDueRepeats(s, t0.Add(72*time.Hour), time.UTC); fired {
		t.Fatal("NONE cadence must never reset")
	}
}
