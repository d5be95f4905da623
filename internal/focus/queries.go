package focus

import "sort"

// ActiveBlock returns the most recent ACTIVE block, or nil. At most one
// block is ever ACTIVE; the reverse scan only matters for malformed
// snapshots from older clients.
func (s State) ActiveBlock() *FocusBlock {
	for i := len(s.Blocks) - 1; i >= 0; i-- {
		if s.Blocks[i].Status == BlockActive {
			b := s.Blocks[i]
			return &b
		}
	}
	return nil
}

// DraftBlock returns the most recent DRAFT block for the category, or nil.
func (s State) DraftBlock(categoryID string) *FocusBlock {
	for i := len(s.Blocks) - 1; i >= 0; i-- {
		if s.Blocks[i].Status == BlockDraft && s.Blocks[i].CategoryID == categoryID {
			b := s.Blocks[i]
			return &b
		}
	}
	return nil
}

func (s State) findBlock(blockID string) (FocusBlock, bool) {
	for _, b := range s.Blocks {
		if b.ID == blockID {
			return b, true
		}
	}
	return FocusBlock{}, false
}

func (s State) findTask(taskID string) (Task, bool) {
	for _, t := range s.Tasks {
		if t.ID == taskID {
			return t, true
		}
	}
	return Task{}, false
}

func (s State) findCategory(categoryID string) (Category, bool) {
	for _, c := range s.Categories {
		if c.ID == categoryID {
			return c, true
		}
	}
	return Category{}, false
}

// BlockSelections returns the selections for a block in execution order.
func (s State) BlockSelections(blockID string) []BlockSelection {
	var out []BlockSelection
	for _, sel := range s.Selections {
		if sel.BlockID == blockID {
			out = append(out, sel)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SortOrder < out[j].SortOrder
	})
	return out
}

// SelectedTask pairs a selection with its resolved task.
type SelectedTask struct {
	Selection BlockSelection
	Task      Task
}

// SelectedTasks resolves a block's selections against the task list, skipping
// selections whose task is gone, ordered canonically with the selection's
// sort order as the final tie-break.
func (s State) SelectedTasks(blockID string) []SelectedTask {
	byID := make(map[string]Task, len(s.Tasks))
	for _, t := range s.Tasks {
		byID[t.ID] = t
	}

	var out []SelectedTask
	for _, sel := range s.BlockSelections(blockID) {
		if t, ok := byID[sel.TaskID]; ok {
			out = append(out, SelectedTask{Selection: sel, Task: t})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if c := CompareTasks(out[i].Task, out[j].Task); c != 0 {
			return c < 0
		}
		return out[i].Selection.SortOrder < out[j].Selection.SortOrder
	})
	return out
}

// NextPendingSelection returns the id of the first not-yet-done selected task
// in the block, or "" when every selection is done.
func (s State) NextPendingSelection(blockID string) string {
	for _, st := range s.SelectedTasks(blockID) {
		if st.Task.Status != TaskDone {
			return st.Task.ID
		}
	}
	return ""
}

// IsTaskInBlock reports whether the task is already selected into the block.
func (s State) IsTaskInBlock(blockID, taskID string) bool {
	for _, sel := range s.Selections {
		if sel.BlockID == blockID && sel.TaskID == taskID {
			return true
		}
	}
	return false
}

// TasksByCategory returns the category's tasks in canonical order. Archived
// tasks are excluded.
func (s State) TasksByCategory(categoryID string) []Task {
	var out []Task
	for _, t := range s.Tasks {
		if t.CategoryID == categoryID && t.Status != TaskArchived {
			out = append(out, t)
		}
	}
	return SortTasks(out)
}

// SortedCategories returns the categories by display rank.
func (s State) SortedCategories() []Category {
	out := make([]Category, len(s.Categories))
	copy(out, s.Categories)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SortOrder < out[j].SortOrder
	})
	return out
}

// PendingTasks returns the category's PENDING tasks in canonical order,
// which is also the auto-pick order for StartBlock.
func (s State) PendingTasks(categoryID string) []Task {
	var out []Task
	for _, t := range s.Tasks {
		if t.CategoryID == categoryID && t.Status == TaskPending {
			out = append(out, t)
		}
	}
	return SortTasks(out)
}
