package focus

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Transition functions. Each returns a new State value; the receiver is
// never mutated. Unknown ids are no-ops: the UI only issues transitions
// derived from state it already observed, so there is nothing useful to do
// with a stale id except ignore it.

const (
	minBlockSeconds = 60
	maxBlockSeconds = 4 * 60 * 60

	minPriority = 1
	maxPriority = 4

	maxEstimateMinutes = 8 * 60
	maxEndReasonLen    = 140
)

// defaultEndReason is stored when an interruption arrives with no reason.
const defaultEndReason = "interrupted"

func newID() string {
	return uuid.NewString()
}

func (s State) touch(now time.Time) State {
	s.LastLocalEditAt = now
	return s
}

func (s State) withTasks(tasks []Task) State {
	s.Tasks = tasks
	return s
}

func copyTasks(tasks []Task) []Task {
	out := make([]Task, len(tasks))
	copy(out, tasks)
	return out
}

func copyBlocks(blocks []FocusBlock) []FocusBlock {
	out := make([]FocusBlock, len(blocks))
	copy(out, blocks)
	return out
}

func copySelections(sels []BlockSelection) []BlockSelection {
	out := make([]BlockSelection, len(sels))
	copy(out, sels)
	return out
}

// AddCategory appends a category named name (trimmed; a blank name becomes
// "New category") with the next display rank and the default duration.
func (s State) AddCategory(name string, now time.Time) State {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "New category"
	}
	cats := make([]Category, len(s.Categories), len(s.Categories)+1)
	copy(cats, s.Categories)
	cats = append(cats, Category{
		ID:             newID(),
		Name:           name,
		SortOrder:      len(s.Categories),
		DefaultSeconds: DefaultPomodoroSeconds,
	})
	s.Categories = cats
	return s.touch(now)
}

// SetCategoryDefaultSeconds remembers the block duration for a category,
// clamped to [60, 14400].
func (s State) SetCategoryDefaultSeconds(categoryID string, seconds int, now time.Time) State {
	found := false
	cats := make([]Category, len(s.Categories))
	for i, c := range s.Categories {
		if c.ID == categoryID {
			c.DefaultSeconds = clampInt(seconds, minBlockSeconds, maxBlockSeconds)
			found = true
		}
		cats[i] = c
	}
	if !found {
		return s
	}
	s.Categories = cats
	return s.touch(now)
}

// TaskOptions carries the optional fields of a new task.
type TaskOptions struct {
	Priority        int // 0 means the default priority 2
	Notes           string
	DueAt           *time.Time
	EstimateMinutes int
	RepeatCadence   RepeatCadence
	RepeatTime      string
	BlockID         string // when set, the new task is linked into this block
}

// AddTask creates a PENDING task in the category. See AddTaskWithID.
func (s State) AddTask(categoryID, title string, opts TaskOptions, now time.Time) State {
	next, _ := s.AddTaskWithID(categoryID, title, opts, now)
	return next
}

// AddTaskWithID creates a PENDING task and returns its id so quick-add can
// link it into the active block. An unknown category is a no-op.
func (s State) AddTaskWithID(categoryID, title string, opts TaskOptions, now time.Time) (State, string) {
	if _, ok := s.findCategory(categoryID); !ok {
		return s, ""
	}

	title = strings.TrimSpace(title)
	if title == "" {
		title = "New task"
	}

	sortOrder := 0
	for _, t := range s.Tasks {
		if t.CategoryID == categoryID && t.SortOrder >= sortOrder {
			sortOrder = t.SortOrder + 1
		}
	}

	priority := opts.Priority
	if priority == 0 {
		priority = 2
	}
	cadence := opts.RepeatCadence
	if cadence == "" {
		cadence = RepeatNone
	}
	repeatTime := opts.RepeatTime
	if cadence == RepeatNone {
		repeatTime = ""
	}
	estimate := opts.EstimateMinutes
	if estimate != 0 {
		estimate = clampInt(estimate, 1, maxEstimateMinutes)
	}

	id := newID()
	task := Task{
		ID:              id,
		CategoryID:      categoryID,
		Title:           title,
		Status:          TaskPending,
		Priority:        clampInt(priority, minPriority, maxPriority),
		SortOrder:       sortOrder,
		Notes:           opts.Notes,
		DueAt:           opts.DueAt,
		EstimateMinutes: estimate,
		RepeatCadence:   cadence,
		RepeatTime:      repeatTime,
	}

	next := s.withTasks(append(copyTasks(s.Tasks), task)).touch(now)
	if opts.BlockID != "" {
		next = next.AddTaskToBlock(opts.BlockID, id, now)
	}
	return next, id
}

func (s State) updateTask(taskID string, now time.Time, fn func(Task) Task) State {
	found := false
	tasks := make([]Task, len(s.Tasks))
	for i, t := range s.Tasks {
		if t.ID == taskID {
			t = fn(t)
			found = true
		}
		tasks[i] = t
	}
	if !found {
		return s
	}
	return s.withTasks(tasks).touch(now)
}

// SetTaskPriority clamps to 1..4.
func (s State) SetTaskPriority(taskID string, priority int, now time.Time) State {
	return s.updateTask(taskID, now, func(t Task) Task {
		t.Priority = clampInt(priority, minPriority, maxPriority)
		return t
	})
}

// SetTaskDueAt sets or clears (nil) the due date.
func (s State) SetTaskDueAt(taskID string, dueAt *time.Time, now time.Time) State {
	return s.updateTask(taskID, now, func(t Task) Task {
		t.DueAt = dueAt
		return t
	})
}

// SetTaskEstimate sets the estimate in minutes; 0 clears it.
func (s State) SetTaskEstimate(taskID string, minutes int, now time.Time) State {
	return s.updateTask(taskID, now, func(t Task) Task {
		if minutes == 0 {
			t.EstimateMinutes = 0
		} else {
			t.EstimateMinutes = clampInt(minutes, 1, maxEstimateMinutes)
		}
		return t
	})
}

// SetTaskRepeat sets the cadence; NONE clears the repeat time.
func (s State) SetTaskRepeat(taskID string, cadence RepeatCadence, repeatTime string, now time.Time) State {
	if cadence == "" {
		cadence = RepeatNone
	}
	if cadence == RepeatNone {
		repeatTime = ""
	}
	return s.updateTask(taskID, now, func(t Task) Task {
		t.RepeatCadence = cadence
		t.RepeatTime = repeatTime
		return t
	})
}

// SetTaskNotes replaces the free-text notes.
func (s State) SetTaskNotes(taskID, notes string, now time.Time) State {
	return s.updateTask(taskID, now, func(t Task) Task {
		t.Notes = notes
		return t
	})
}

// SetTaskCategory moves a task to another category. The task is dropped from
// every block selection so a block never mixes categories.
func (s State) SetTaskCategory(taskID, categoryID string, now time.Time) State {
	if _, ok := s.findCategory(categoryID); !ok {
		return s
	}
	if _, ok := s.findTask(taskID); !ok {
		return s
	}

	tasks := make([]Task, len(s.Tasks))
	for i, t := range s.Tasks {
		if t.ID == taskID {
			t.CategoryID = categoryID
		}
		tasks[i] = t
	}

	var sels []BlockSelection
	for _, sel := range s.Selections {
		if sel.TaskID != taskID {
			sels = append(sels, sel)
		}
	}

	s.Tasks = tasks
	s.Selections = sels
	return s.touch(now)
}

// ToggleTaskDone flips PENDING <-> DONE. DONE stamps CompletedAt and DoneAt
// on every selection of the task; PENDING clears both. A task may be toggled
// whether or not it is currently selected anywhere.
func (s State) ToggleTaskDone(taskID string, now time.Time) State {
	task, ok := s.findTask(taskID)
	if !ok {
		return s
	}

	var completedAt *time.Time
	if task.Status != TaskDone {
		completedAt = &now
	}

	tasks := make([]Task, len(s.Tasks))
	for i, t := range s.Tasks {
		if t.ID == taskID {
			if completedAt != nil {
				t.Status = TaskDone
			} else {
				t.Status = TaskPending
			}
			t.CompletedAt = completedAt
		}
		tasks[i] = t
	}

	sels := make([]BlockSelection, len(s.Selections))
	for i, sel := range s.Selections {
		if sel.TaskID == taskID {
			sel.DoneAt = completedAt
		}
		sels[i] = sel
	}

	s.Tasks = tasks
	s.Selections = sels
	return s.touch(now)
}

// EnsureDraftBlock creates (or retargets the duration of) the category's
// DRAFT block. No draft is created while any block is ACTIVE. A fresh draft
// pre-selects the category's top PENDING task when that task has priority 1,
// so the planning screen never starts from a blank page.
func (s State) EnsureDraftBlock(categoryID string, plannedSeconds int, now time.Time) State {
	if s.ActiveBlock() != nil {
		return s
	}
	if _, ok := s.findCategory(categoryID); !ok {
		return s
	}
	plannedSeconds = clampInt(plannedSeconds, minBlockSeconds, maxBlockSeconds)

	if draft := s.DraftBlock(categoryID); draft != nil {
		if draft.PlannedSeconds == plannedSeconds {
			return s
		}
		blocks := make([]FocusBlock, len(s.Blocks))
		for i, b := range s.Blocks {
			if b.ID == draft.ID {
				b.PlannedSeconds = plannedSeconds
			}
			blocks[i] = b
		}
		s.Blocks = blocks
		return s.touch(now)
	}

	block := FocusBlock{
		ID:             newID(),
		CategoryID:     categoryID,
		Status:         BlockDraft,
		PlannedSeconds: plannedSeconds,
	}
	s.Blocks = append(copyBlocks(s.Blocks), block)
	next := s.touch(now)

	if pending := next.PendingTasks(categoryID); len(pending) > 0 && pending[0].Priority == 1 {
		next = next.AddTaskToBlock(block.ID, pending[0].ID, now)
	}
	return next
}

// AddTaskToBlock selects a task into a block. Adding an already-selected
// task is a no-op, so the (blockId, taskId) pair stays unique.
func (s State) AddTaskToBlock(blockID, taskID string, now time.Time) State {
	if s.IsTaskInBlock(blockID, taskID) {
		return s
	}
	if _, ok := s.findBlock(blockID); !ok {
		return s
	}
	if _, ok := s.findTask(taskID); !ok {
		return s
	}

	sortOrder := 0
	for _, sel := range s.Selections {
		if sel.BlockID == blockID && sel.SortOrder >= sortOrder {
			sortOrder = sel.SortOrder + 1
		}
	}

	sel := BlockSelection{
		ID:        newID(),
		BlockID:   blockID,
		TaskID:    taskID,
		SortOrder: sortOrder,
	}
	s.Selections = append(copySelections(s.Selections), sel)

	tasks := make([]Task, len(s.Tasks))
	for i, t := range s.Tasks {
		if t.ID == taskID {
			sel := now
			t.SelectedAt = &sel
		}
		tasks[i] = t
	}
	s.Tasks = tasks
	return s.touch(now)
}

// RemoveTaskFromBlock unselects a task from a block.
func (s State) RemoveTaskFromBlock(blockID, taskID string, now time.Time) State {
	if !s.IsTaskInBlock(blockID, taskID) {
		return s
	}
	var sels []BlockSelection
	for _, sel := range s.Selections {
		if !(sel.BlockID == blockID && sel.TaskID == taskID) {
			sels = append(sels, sel)
		}
	}
	s.Selections = sels
	return s.touch(now)
}

// ToggleTaskInBlock selects or unselects depending on current membership.
func (s State) ToggleTaskInBlock(blockID, taskID string, now time.Time) State {
	if s.IsTaskInBlock(blockID, taskID) {
		return s.RemoveTaskFromBlock(blockID, taskID, now)
	}
	return s.AddTaskToBlock(blockID, taskID, now)
}

// StartBlock promotes the category's draft (creating one if needed) to
// ACTIVE. Existing selections are kept verbatim; an empty draft auto-picks
// up to pickCount PENDING tasks in canonical order, stamping each task's
// SelectedAt. Starting is refused while another block is ACTIVE.
func (s State) StartBlock(categoryID string, plannedSeconds, pickCount int, now time.Time) State {
	if s.ActiveBlock() != nil {
		return s
	}

	next := s.EnsureDraftBlock(categoryID, plannedSeconds, now)
	draft := next.DraftBlock(categoryID)
	if draft == nil {
		return s
	}
	blockID := draft.ID

	if len(next.BlockSelections(blockID)) == 0 && pickCount > 0 {
		pending := next.PendingTasks(categoryID)
		if len(pending) > pickCount {
			pending = pending[:pickCount]
		}
		for _, t := range pending {
			next = next.AddTaskToBlock(blockID, t.ID, now)
		}
	}

	plannedSeconds = clampInt(plannedSeconds, minBlockSeconds, maxBlockSeconds)
	blocks := make([]FocusBlock, len(next.Blocks))
	for i, b := range next.Blocks {
		if b.ID == blockID {
			b.Status = BlockActive
			b.PlannedSeconds = plannedSeconds
			started := now
			b.StartedAt = &started
			b.ActualSeconds = nil
			b.EndedAt = nil
			b.EndReason = ""
			b.AllSelectedCompleted = false
		}
		blocks[i] = b
	}
	next.Blocks = blocks
	return next.touch(now)
}

// EndBlock terminates an ACTIVE block into COMPLETED or INTERRUPTED. Any
// other target status is treated as COMPLETED. The interruption reason is
// truncated and defaulted when empty. Terminal blocks and drafts are left
// untouched; a block ends exactly once.
func (s State) EndBlock(blockID string, actualSeconds int, status BlockStatus, reason string, now time.Time) State {
	block, ok := s.findBlock(blockID)
	if !ok || block.Status != BlockActive {
		return s
	}

	if status != BlockInterrupted {
		status = BlockCompleted
	}
	if actualSeconds < 0 {
		actualSeconds = 0
	}

	endReason := ""
	if status == BlockInterrupted {
		endReason = strings.TrimSpace(reason)
		if endReason == "" {
			endReason = defaultEndReason
		}
		if len(endReason) > maxEndReasonLen {
			cut := maxEndReasonLen
			for cut > 0 && !utf8.RuneStart(endReason[cut]) {
				cut--
			}
			endReason = endReason[:cut]
		}
	}

	sels := s.BlockSelections(blockID)
	allDone := len(sels) > 0
	for _, sel := range sels {
		if sel.DoneAt == nil {
			allDone = false
			break
		}
	}

	blocks := make([]FocusBlock, len(s.Blocks))
	for i, b := range s.Blocks {
		if b.ID == blockID {
			b.Status = status
			actual := actualSeconds
			b.ActualSeconds = &actual
			ended := now
			b.EndedAt = &ended
			b.EndReason = endReason
			b.AllSelectedCompleted = allDone
		}
		blocks[i] = b
	}
	s.Blocks = blocks
	return s.touch(now)
}
