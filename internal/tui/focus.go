package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/fokuslabs/fokus/internal/client"
	"github.com/fokuslabs/fokus/internal/focus"
	"github.com/fokuslabs/fokus/internal/sync"
)

// focusModel is the main tab: compose a draft block when idle, run the
// countdown checklist while a block is active.
type focusModel struct {
	ctrl      *sync.Controller
	api       *client.Client
	pickCount int
	width     int
	height    int

	catIndex int
	cursor   int
	now      time.Time

	// summaryID holds the just-ended block until the user dismisses the
	// recap of how the block went.
	summaryID string

	// The entry ritual gates the first block of a session. Once passed it
	// stays passed until the program exits.
	ritualPassed bool
	ritualActive bool
	ritualCursor int
	ritualDone   [len(ritualSteps)]bool

	formActive bool
	form       *huh.Form
	formKind   string // "interrupt" or "panic"

	// Form field pointers (survive value copies)
	reason       *string
	panicUrge    *string
	panicEmotion *string
	panicAction  *string
}

// ritualSteps is the pre-block checklist. Each step names the practice and
// the concrete move, so the gate is a prompt rather than a speed bump.
var ritualSteps = [3]struct {
	title  string
	action string
}{
	{"Diaphragmatic breathing (45s)", "Inhale 4s into the belly, exhale 6s. Six cycles."},
	{"Mental contrast (30s)", "Wish: one block. Obstacle: distraction. Plan: two minutes on the task."},
	{"Implementation intention (15s)", "If I open a feed, I close it and do one small action."},
}

func newFocusModel(ctrl *sync.Controller, api *client.Client, pickCount int) focusModel {
	reason, urge, emotion, action := "", "5", "", ""
	return focusModel{
		ctrl:         ctrl,
		api:          api,
		pickCount:    pickCount,
		now:          ctrl.Now(),
		reason:       &reason,
		panicUrge:    &urge,
		panicEmotion: &emotion,
		panicAction:  &action,
	}
}

func (f *focusModel) setSize(w, h int) {
	f.width = w
	f.height = h
}

func (f focusModel) currentCategory() *focus.Category {
	cats := f.ctrl.State().SortedCategories()
	if len(cats) == 0 {
		return nil
	}
	idx := f.catIndex % len(cats)
	return &cats[idx]
}

func (f focusModel) remaining(b focus.FocusBlock) int {
	if b.StartedAt == nil {
		return b.PlannedSeconds
	}
	elapsed := int(f.now.Sub(*b.StartedAt).Seconds())
	return b.PlannedSeconds - elapsed
}

// activeRemaining reports the seconds left on the running block, if any.
// The footer uses it so the countdown is visible from every tab.
func (f focusModel) activeRemaining() (int, bool) {
	active := f.ctrl.State().ActiveBlock()
	if active == nil {
		return 0, false
	}
	r := f.remaining(*active)
	if r < 0 {
		r = 0
	}
	return r, true
}

func (f focusModel) update(msg tea.Msg) (focusModel, tea.Cmd) {
	if f.formActive && f.form != nil {
		return f.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tickMsg:
		f.now = time.Time(msg)
		if active := f.ctrl.State().ActiveBlock(); active != nil && f.remaining(*active) <= 0 {
			return f.completeBlock(*active)
		}
		return f, nil

	case tea.KeyMsg:
		if f.summaryID != "" {
			f.summaryID = ""
			return f, nil
		}
		if f.ritualActive {
			return f.updateRitual(msg)
		}
		if f.ctrl.State().ActiveBlock() != nil {
			return f.updateActive(msg)
		}
		return f.updateIdle(msg)
	}
	return f, nil
}

func (f focusModel) updateIdle(msg tea.KeyMsg) (focusModel, tea.Cmd) {
	state := f.ctrl.State()
	cat := f.currentCategory()

	switch {
	case key.Matches(msg, keys.Left):
		if f.catIndex > 0 {
			f.catIndex--
		} else {
			f.catIndex = max(0, len(state.SortedCategories())-1)
		}
		f.cursor = 0
	case key.Matches(msg, keys.Right):
		f.catIndex = (f.catIndex + 1) % max(1, len(state.SortedCategories()))
		f.cursor = 0
	case key.Matches(msg, keys.Up):
		if f.cursor > 0 {
			f.cursor--
		}
	case key.Matches(msg, keys.Down):
		if cat != nil && f.cursor < len(state.PendingTasks(cat.ID))-1 {
			f.cursor++
		}
	case key.Matches(msg, keys.Pick):
		if cat == nil {
			return f, nil
		}
		tasks := state.PendingTasks(cat.ID)
		if f.cursor >= len(tasks) {
			return f, nil
		}
		taskID := tasks[f.cursor].ID
		now := f.ctrl.Now()
		f.ctrl.Apply(func(s focus.State) focus.State {
			existing := s.DraftBlock(cat.ID)
			s = s.EnsureDraftBlock(cat.ID, cat.DefaultSeconds, now)
			draft := s.DraftBlock(cat.ID)
			if draft == nil {
				return s
			}
			if existing == nil {
				// A fresh draft may have pre-selected this very task.
				return s.AddTaskToBlock(draft.ID, taskID, now)
			}
			return s.ToggleTaskInBlock(draft.ID, taskID, now)
		})
	case key.Matches(msg, keys.Done):
		if cat == nil {
			return f, nil
		}
		tasks := state.PendingTasks(cat.ID)
		if f.cursor >= len(tasks) {
			return f, nil
		}
		taskID := tasks[f.cursor].ID
		now := f.ctrl.Now()
		f.ctrl.Apply(func(s focus.State) focus.State {
			return s.ToggleTaskDone(taskID, now)
		})
	case key.Matches(msg, keys.Start):
		if cat == nil {
			return f, nil
		}
		if !f.ritualPassed {
			f.ritualActive = true
			f.ritualCursor = 0
			return f, nil
		}
		return f.startBlock()
	case key.Matches(msg, keys.Panic):
		return f.showPanicForm()
	}
	return f, nil
}

func (f focusModel) startBlock() (focusModel, tea.Cmd) {
	cat := f.currentCategory()
	if cat == nil {
		return f, nil
	}
	state := f.ctrl.State()
	planned := cat.DefaultSeconds
	if draft := state.DraftBlock(cat.ID); draft != nil {
		planned = draft.PlannedSeconds
	}
	now := f.ctrl.Now()
	next := f.ctrl.Apply(func(s focus.State) focus.State {
		return s.StartBlock(cat.ID, planned, f.pickCount, now)
	})
	if active := next.ActiveBlock(); active != nil {
		f.now = now
		f.cursor = 0
		block := *active
		return f, func() tea.Msg { return blockStartedMsg{block: block} }
	}
	return f, func() tea.Msg {
		return statusMsg{text: "Nothing to focus on; add a task first", isError: true}
	}
}

func (f focusModel) ritualAllDone() bool {
	for _, done := range f.ritualDone {
		if !done {
			return false
		}
	}
	return true
}

func (f focusModel) updateRitual(msg tea.KeyMsg) (focusModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if f.ritualCursor > 0 {
			f.ritualCursor--
		}
	case key.Matches(msg, keys.Down):
		if f.ritualCursor < len(ritualSteps)-1 {
			f.ritualCursor++
		}
	case key.Matches(msg, keys.Pick), key.Matches(msg, keys.Done):
		f.ritualDone[f.ritualCursor] = !f.ritualDone[f.ritualCursor]
	case key.Matches(msg, keys.Enter), key.Matches(msg, keys.Start):
		if !f.ritualAllDone() {
			return f, func() tea.Msg {
				return statusMsg{text: "Finish the ritual first", isError: true}
			}
		}
		f.ritualActive = false
		f.ritualPassed = true
		return f.startBlock()
	case key.Matches(msg, keys.Back):
		f.ritualActive = false
	}
	return f, nil
}

func (f focusModel) updateActive(msg tea.KeyMsg) (focusModel, tea.Cmd) {
	state := f.ctrl.State()
	active := state.ActiveBlock()
	selected := state.SelectedTasks(active.ID)

	switch {
	case key.Matches(msg, keys.Up):
		if f.cursor > 0 {
			f.cursor--
		}
	case key.Matches(msg, keys.Down):
		if f.cursor < len(selected)-1 {
			f.cursor++
		}
	case key.Matches(msg, keys.Pick), key.Matches(msg, keys.Done):
		if f.cursor >= len(selected) {
			return f, nil
		}
		taskID := selected[f.cursor].Task.ID
		now := f.ctrl.Now()
		f.ctrl.Apply(func(s focus.State) focus.State {
			return s.ToggleTaskDone(taskID, now)
		})
	case key.Matches(msg, keys.End):
		return f.showInterruptForm()
	case key.Matches(msg, keys.Panic):
		return f.showPanicForm()
	}
	return f, nil
}

func (f focusModel) completeBlock(active focus.FocusBlock) (focusModel, tea.Cmd) {
	now := f.ctrl.Now()
	f.ctrl.Apply(func(s focus.State) focus.State {
		return s.EndBlock(active.ID, active.PlannedSeconds, focus.BlockCompleted, "", now)
	})
	f.cursor = 0
	f.summaryID = active.ID
	return f, tea.Batch(
		func() tea.Msg { return blockEndedMsg{status: focus.BlockCompleted} },
		func() tea.Msg { return statusMsg{text: "Block complete \a"} },
	)
}

func (f focusModel) showInterruptForm() (focusModel, tea.Cmd) {
	*f.reason = ""
	f.formKind = "interrupt"
	f.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("What pulled you away?").
				Value(f.reason).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("a reason is required")
					}
					return nil
				}),
		),
	).WithShowHelp(true).WithShowErrors(true)
	f.formActive = true
	return f, f.form.Init()
}

func (f focusModel) showPanicForm() (focusModel, tea.Cmd) {
	*f.panicUrge = "5"
	*f.panicEmotion = ""
	*f.panicAction = ""
	f.formKind = "panic"

	urgeOptions := make([]huh.Option[string], 11)
	for i := 0; i <= 10; i++ {
		v := strconv.Itoa(i)
		urgeOptions[i] = huh.NewOption(v, v)
	}

	f.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().Title("Urge (0-10)").Options(urgeOptions...).Value(f.panicUrge),
			huh.NewInput().Title("What are you feeling?").Value(f.panicEmotion),
			huh.NewInput().Title("One small action instead").Value(f.panicAction),
		),
	).WithShowHelp(true).WithShowErrors(true)
	f.formActive = true
	return f, f.form.Init()
}

func (f focusModel) updateForm(msg tea.Msg) (focusModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			f.formActive = false
			f.form = nil
			return f, nil
		}
	}

	form, cmd := f.form.Update(msg)
	if hf, ok := form.(*huh.Form); ok {
		f.form = hf
	}

	if f.form.State == huh.StateCompleted {
		f.formActive = false
		switch f.formKind {
		case "interrupt":
			return f.finishInterrupt()
		case "panic":
			return f.finishPanic()
		}
	}
	return f, cmd
}

func (f focusModel) finishInterrupt() (focusModel, tea.Cmd) {
	state := f.ctrl.State()
	active := state.ActiveBlock()
	if active == nil {
		return f, nil
	}
	// The form holds the keyboard, so the timer may have run past zero by
	// the time the reason is submitted.
	rem := f.remaining(*active)
	if rem < 0 {
		rem = 0
	}
	actual := active.PlannedSeconds - rem
	reason := *f.reason
	now := f.ctrl.Now()
	f.ctrl.Apply(func(s focus.State) focus.State {
		return s.EndBlock(active.ID, actual, focus.BlockInterrupted, reason, now)
	})
	f.cursor = 0
	f.summaryID = active.ID
	return f, func() tea.Msg { return blockEndedMsg{status: focus.BlockInterrupted} }
}

func (f focusModel) finishPanic() (focusModel, tea.Cmd) {
	req := client.PanicRequest{
		Emotion:      *f.panicEmotion,
		ChosenAction: *f.panicAction,
	}
	if urge, err := strconv.Atoi(*f.panicUrge); err == nil {
		req.Urge = &urge
	}
	if cat := f.currentCategory(); cat != nil {
		req.CategoryID = cat.ID
	}
	if active := f.ctrl.State().ActiveBlock(); active != nil {
		req.BlockID = active.ID
		req.CategoryID = active.CategoryID
	}

	api := f.api
	return f, func() tea.Msg {
		if api == nil {
			return statusMsg{text: "Offline; panic event not recorded", isError: true}
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return panicLoggedMsg{err: api.LogPanic(ctx, req)}
	}
}

func (f focusModel) view() string {
	if f.formActive && f.form != nil {
		title := titleStyle.Render("Interrupted")
		if f.formKind == "panic" {
			title = accentStyle.Bold(true).Render("Pause. Breathe.")
		}
		content := lipgloss.JoinVertical(lipgloss.Left, title, "", f.form.View())
		return panelStyle.Width(f.width - 4).Render(content)
	}

	state := f.ctrl.State()
	if f.summaryID != "" {
		if view := f.renderSummary(state); view != "" {
			return view
		}
	}
	if f.ritualActive {
		return f.renderRitual()
	}
	if active := state.ActiveBlock(); active != nil {
		return f.renderActive(state, *active)
	}
	return f.renderIdle(state)
}

func (f focusModel) renderSummary(state focus.State) string {
	var block *focus.FocusBlock
	for i := range state.Blocks {
		if state.Blocks[i].ID == f.summaryID {
			block = &state.Blocks[i]
		}
	}
	if block == nil {
		return ""
	}

	catName := block.CategoryID
	for _, c := range state.Categories {
		if c.ID == block.CategoryID {
			catName = c.Name
		}
	}

	selected := state.SelectedTasks(block.ID)
	done := 0
	for _, sel := range selected {
		if sel.Selection.DoneAt != nil {
			done++
		}
	}
	pending := len(selected) - done

	var rows []string
	rows = append(rows, titleStyle.Render("Block summary"))
	rows = append(rows, mutedStyle.Render(catName))
	rows = append(rows, "")
	rows = append(rows, fmt.Sprintf("  picked %d   done %d   pending %d", len(selected), done, pending))
	rows = append(rows, "")
	switch {
	case block.AllSelectedCompleted:
		rows = append(rows, successStyle.Bold(true).Render("  ✶ ✶ ✶  Block goal complete  ✶ ✶ ✶"))
		rows = append(rows, mutedStyle.Render("  Every picked task done. That closes the loop."))
	case block.Status == focus.BlockInterrupted:
		rows = append(rows, warningStyle.Render("  Interrupted. The minutes still count."))
		rows = append(rows, mutedStyle.Render("  Pending picks carry into the next "+catName+" block."))
	default:
		rows = append(rows, mutedStyle.Render("  Something stayed pending; it carries into the next block."))
	}
	rows = append(rows, "", mutedStyle.Render("  any key: continue"))

	return activePanelStyle.Width(f.width - 4).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (f focusModel) renderRitual() string {
	var rows []string
	rows = append(rows, titleStyle.Render("Entry ritual"))
	rows = append(rows, mutedStyle.Render("Complete the steps, then start the block."))
	rows = append(rows, "")
	for i, step := range ritualSteps {
		mark := "[ ]"
		style := normalItemStyle
		if f.ritualDone[i] {
			mark = "[x]"
			style = doneItemStyle
		}
		cursor := "  "
		if i == f.ritualCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(fmt.Sprintf("%s%s %s", cursor, mark, step.title)))
		rows = append(rows, mutedStyle.Render("      "+step.action))
	}
	rows = append(rows, "")
	if f.ritualAllDone() {
		rows = append(rows, successStyle.Render("  Ready. One block, no negotiating."))
	}
	rows = append(rows, mutedStyle.Render("  ↑/↓: step  space: check  enter: start  esc: back"))
	return panelStyle.Width(f.width - 4).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (f focusModel) renderActive(state focus.State, active focus.FocusBlock) string {
	w := f.width - 4

	countdown := countdownRunningStyle.Width(w - 6).Render(formatCountdown(f.remaining(active)))
	catName := active.CategoryID
	for _, c := range state.Categories {
		if c.ID == active.CategoryID {
			catName = c.Name
		}
	}
	label := highlightStyle.Render(catName) + mutedStyle.Render("  focus block")

	var rows []string
	rows = append(rows, countdown, label, "")

	selected := state.SelectedTasks(active.ID)
	allDone := len(selected) > 0
	for i, sel := range selected {
		mark := "[ ]"
		style := normalItemStyle
		if sel.Selection.DoneAt != nil {
			mark = "[x]"
			style = doneItemStyle
		} else {
			allDone = false
		}
		cursor := "  "
		if i == f.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(fmt.Sprintf("%s%s %s", cursor, mark, sel.Task.Title)))
	}
	if len(selected) == 0 {
		rows = append(rows, mutedStyle.Render("  No tasks picked; pure focus time"))
	}
	if allDone {
		rows = append(rows, "", successStyle.Bold(true).Render("  All picked tasks done. Finish strong."))
	}

	rows = append(rows, "", mutedStyle.Render("  space/d: toggle done  x: end early  p: panic"))

	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Center, rows...))
}

func (f focusModel) renderIdle(state focus.State) string {
	w := f.width - 4
	cat := f.currentCategory()
	if cat == nil {
		return panelStyle.Width(w).Render(mutedStyle.Render("No categories yet"))
	}

	var tabs []string
	for i, c := range state.SortedCategories() {
		if i == f.catIndex%max(1, len(state.SortedCategories())) {
			tabs = append(tabs, activeTabStyle.Render(c.Name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(c.Name))
		}
	}
	catRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	planned := cat.DefaultSeconds
	draft := state.DraftBlock(cat.ID)
	if draft != nil {
		planned = draft.PlannedSeconds
	}
	countdown := countdownStyle.Width(w - 6).Render(formatCountdown(planned))

	var rows []string
	rows = append(rows, catRow, "", countdown, mutedStyle.Render("ready"), "")

	tasks := state.PendingTasks(cat.ID)
	if len(tasks) == 0 {
		rows = append(rows, mutedStyle.Render("  No pending tasks. Press n on the Tasks tab."))
	}
	for i, task := range tasks {
		mark := "[ ]"
		if draft != nil && state.IsTaskInBlock(draft.ID, task.ID) {
			mark = "[*]"
		}
		cursor := "  "
		style := normalItemStyle
		if i == f.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		line := fmt.Sprintf("%s%s %s %s", cursor, mark, priorityLabel(task.Priority), task.Title)
		if c := cadenceLabel(task.RepeatCadence); c != "" {
			line += " " + mutedStyle.Render("("+c+")")
		}
		rows = append(rows, style.Render(line))
	}

	rows = append(rows, "", mutedStyle.Render("  ←/→: category  space: pick  s: start  d: done  p: panic"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
