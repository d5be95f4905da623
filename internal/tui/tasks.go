package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/fokuslabs/fokus/internal/focus"
	"github.com/fokuslabs/fokus/internal/sync"
)

// tasksModel is the backlog tab: per-category task lists in priority order.
type tasksModel struct {
	ctrl   *sync.Controller
	width  int
	height int

	catIndex int
	cursor   int
	showDone bool

	formActive bool
	form       *huh.Form
	formKind   string // "task" or "category"

	// Form field pointers (survive value copies)
	formTitle    *string
	formPriority *string
	formEstimate *string
	formDue      *string
	formCadence  *string
	formName     *string
}

func newTasksModel(ctrl *sync.Controller) tasksModel {
	title, priority, estimate, due, cadence, name := "", "2", "", "", "NONE", ""
	return tasksModel{
		ctrl:         ctrl,
		formTitle:    &title,
		formPriority: &priority,
		formEstimate: &estimate,
		formDue:      &due,
		formCadence:  &cadence,
		formName:     &name,
	}
}

func (t *tasksModel) setSize(w, h int) {
	t.width = w
	t.height = h
}

func (t tasksModel) currentCategory() *focus.Category {
	cats := t.ctrl.State().SortedCategories()
	if len(cats) == 0 {
		return nil
	}
	return &cats[t.catIndex%len(cats)]
}

func (t tasksModel) visibleTasks() []focus.Task {
	cat := t.currentCategory()
	if cat == nil {
		return nil
	}
	all := focus.SortTasks(t.ctrl.State().TasksByCategory(cat.ID))
	if t.showDone {
		return all
	}
	var pending []focus.Task
	for _, task := range all {
		if task.Status != focus.TaskDone {
			pending = append(pending, task)
		}
	}
	return pending
}

func (t tasksModel) update(msg tea.Msg) (tasksModel, tea.Cmd) {
	if t.formActive && t.form != nil {
		return t.updateForm(msg)
	}

	msgKey, ok := msg.(tea.KeyMsg)
	if !ok {
		return t, nil
	}

	tasks := t.visibleTasks()
	switch {
	case key.Matches(msgKey, keys.Left):
		cats := t.ctrl.State().SortedCategories()
		if t.catIndex > 0 {
			t.catIndex--
		} else {
			t.catIndex = max(0, len(cats)-1)
		}
		t.cursor = 0
	case key.Matches(msgKey, keys.Right):
		t.catIndex = (t.catIndex + 1) % max(1, len(t.ctrl.State().SortedCategories()))
		t.cursor = 0
	case key.Matches(msgKey, keys.Up):
		if t.cursor > 0 {
			t.cursor--
		}
	case key.Matches(msgKey, keys.Down):
		if t.cursor < len(tasks)-1 {
			t.cursor++
		}
	case key.Matches(msgKey, keys.New):
		return t.showTaskForm()
	case key.Matches(msgKey, keys.Enter):
		// Toggle the done-tasks filter.
		t.showDone = !t.showDone
		t.cursor = 0
	case key.Matches(msgKey, keys.Done):
		if t.cursor < len(tasks) {
			taskID := tasks[t.cursor].ID
			now := t.ctrl.Now()
			t.ctrl.Apply(func(s focus.State) focus.State {
				return s.ToggleTaskDone(taskID, now)
			})
		}
	case key.Matches(msgKey, keys.PriUp):
		t.adjustPriority(tasks, -1)
	case key.Matches(msgKey, keys.PriDn):
		t.adjustPriority(tasks, +1)
	case key.Matches(msgKey, keys.NewCat):
		return t.showCategoryForm()
	}
	return t, nil
}

func (t tasksModel) adjustPriority(tasks []focus.Task, delta int) {
	if t.cursor >= len(tasks) {
		return
	}
	task := tasks[t.cursor]
	now := t.ctrl.Now()
	t.ctrl.Apply(func(s focus.State) focus.State {
		return s.SetTaskPriority(task.ID, task.Priority+delta, now)
	})
}

func (t tasksModel) showTaskForm() (tasksModel, tea.Cmd) {
	*t.formTitle = ""
	*t.formPriority = "2"
	*t.formEstimate = ""
	*t.formDue = ""
	*t.formCadence = "NONE"
	t.formKind = "task"

	t.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Task").Value(t.formTitle),
			huh.NewSelect[string]().Title("Priority").
				Options(
					huh.NewOption("P1 - do first", "1"),
					huh.NewOption("P2", "2"),
					huh.NewOption("P3", "3"),
					huh.NewOption("P4 - someday", "4"),
				).Value(t.formPriority),
			huh.NewInput().Title("Estimate (min, optional)").Value(t.formEstimate),
			huh.NewInput().Title("Due (YYYY-MM-DD, optional)").Value(t.formDue).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return nil
					}
					if _, err := time.Parse("2006-01-02", strings.TrimSpace(s)); err != nil {
						return fmt.Errorf("use YYYY-MM-DD")
					}
					return nil
				}),
			huh.NewSelect[string]().Title("Repeats").
				Options(
					huh.NewOption("Never", "NONE"),
					huh.NewOption("Every day", "DAILY"),
					huh.NewOption("Weekdays", "WEEKDAYS"),
				).Value(t.formCadence),
		),
	).WithShowHelp(true).WithShowErrors(true)

	t.formActive = true
	return t, t.form.Init()
}

func (t tasksModel) showCategoryForm() (tasksModel, tea.Cmd) {
	*t.formName = ""
	t.formKind = "category"

	t.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Category name").Value(t.formName),
		),
	).WithShowHelp(true).WithShowErrors(true)

	t.formActive = true
	return t, t.form.Init()
}

func (t tasksModel) updateForm(msg tea.Msg) (tasksModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			t.formActive = false
			t.form = nil
			return t, nil
		}
	}

	form, cmd := t.form.Update(msg)
	if hf, ok := form.(*huh.Form); ok {
		t.form = hf
	}

	if t.form.State == huh.StateCompleted {
		t.formActive = false
		switch t.formKind {
		case "task":
			t.submitTask()
		case "category":
			if strings.TrimSpace(*t.formName) != "" {
				name := *t.formName
				now := t.ctrl.Now()
				t.ctrl.Apply(func(s focus.State) focus.State {
					return s.AddCategory(name, now)
				})
			}
		}
		return t, nil
	}
	return t, cmd
}

func (t tasksModel) submitTask() {
	cat := t.currentCategory()
	if cat == nil || strings.TrimSpace(*t.formTitle) == "" {
		return
	}

	opts := focus.TaskOptions{RepeatCadence: focus.RepeatCadence(*t.formCadence)}
	if p, err := strconv.Atoi(*t.formPriority); err == nil {
		opts.Priority = p
	}
	if est, err := strconv.Atoi(strings.TrimSpace(*t.formEstimate)); err == nil {
		opts.EstimateMinutes = est
	}
	if due, err := time.Parse("2006-01-02", strings.TrimSpace(*t.formDue)); err == nil {
		opts.DueAt = &due
	}
	// A quick add during an active block joins that block.
	if active := t.ctrl.State().ActiveBlock(); active != nil && active.CategoryID == cat.ID {
		opts.BlockID = active.ID
	}

	title := *t.formTitle
	catID := cat.ID
	now := t.ctrl.Now()
	t.ctrl.Apply(func(s focus.State) focus.State {
		return s.AddTask(catID, title, opts, now)
	})
}

func (t tasksModel) view() string {
	w := t.width - 4

	if t.formActive && t.form != nil {
		title := titleStyle.Render("New Task")
		if t.formKind == "category" {
			title = titleStyle.Render("New Category")
		}
		content := lipgloss.JoinVertical(lipgloss.Left, title, "", t.form.View())
		return panelStyle.Width(w).Render(content)
	}

	state := t.ctrl.State()
	var tabs []string
	cats := state.SortedCategories()
	for i, c := range cats {
		if i == t.catIndex%max(1, len(cats)) {
			tabs = append(tabs, activeTabStyle.Render(c.Name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(c.Name))
		}
	}

	var rows []string
	rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...))
	rows = append(rows, "")

	tasks := t.visibleTasks()
	if len(tasks) == 0 {
		rows = append(rows, mutedStyle.Render("  Nothing here. Press n to add a task."))
	}
	for i, task := range tasks {
		cursor := "  "
		style := normalItemStyle
		if task.Status == focus.TaskDone {
			style = doneItemStyle
		}
		if i == t.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		line := fmt.Sprintf("%s%s %s", cursor, priorityLabel(task.Priority), task.Title)
		var extras []string
		if task.EstimateMinutes > 0 {
			extras = append(extras, fmt.Sprintf("%dm", task.EstimateMinutes))
		}
		if task.DueAt != nil {
			extras = append(extras, "due "+task.DueAt.Format("Jan 02"))
		}
		if c := cadenceLabel(task.RepeatCadence); c != "" {
			extras = append(extras, c)
		}
		rendered := style.Render(line)
		if len(extras) > 0 {
			rendered += mutedStyle.Render(" [" + strings.Join(extras, ", ") + "]")
		}
		rows = append(rows, rendered)
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  n: new  d: done  [/]: priority  enter: show done  c: new category"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
