package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fokuslabs/fokus/internal/client"
	"github.com/fokuslabs/fokus/internal/export"
	"github.com/fokuslabs/fokus/internal/focus"
	"github.com/fokuslabs/fokus/internal/sync"
)

// App is the root Bubble Tea model.
type App struct {
	ctrl   *sync.Controller
	api    *client.Client
	width  int
	height int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	focus     focusModel
	tasks     tasksModel
	dashboard dashboardModel
	checkin   checkinModel

	help       help.Model
	status     string
	syncStatus string
}

// NewApp builds the root model. api may be nil for offline use; the focus and
// tasks tabs work entirely off local state, the others degrade gracefully.
func NewApp(ctrl *sync.Controller, api *client.Client, pickCount int) App {
	h := help.New()
	h.ShowAll = false

	return App{
		ctrl:       ctrl,
		api:        api,
		activeView: viewFocus,
		focus:      newFocusModel(ctrl, api, pickCount),
		tasks:      newTasksModel(ctrl),
		dashboard:  newDashboardModel(ctrl, api),
		checkin:    newCheckinModel(ctrl, api),
		help:       h,
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.checkin.load(),
		tickCmd(),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.focus.setSize(a.width, contentHeight)
		a.tasks.setSize(a.width, contentHeight)
		a.dashboard.setSize(a.width, contentHeight)
		a.checkin.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// A form owns the keyboard until it completes or is cancelled.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Sync):
			a.syncStatus = "syncing..."
			return a, a.syncNow()
		case key.Matches(msg, keys.Tab1):
			a.activeView = viewFocus
			return a, nil
		case key.Matches(msg, keys.Tab2):
			a.activeView = viewTasks
			return a, nil
		case key.Matches(msg, keys.Tab3):
			a.activeView = viewDashboard
			return a, a.dashboard.refresh()
		case key.Matches(msg, keys.Tab4):
			a.activeView = viewCheckin
			return a, a.checkin.load()
		case key.Matches(msg, keys.Tab):
			a.activeView = (a.activeView + 1) % 4
			return a, a.refreshCurrentView()
		}

	case tickMsg:
		cmds = append(cmds, tickCmd())
		var cmd tea.Cmd
		a.focus, cmd = a.focus.update(msg)
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
		return a, tea.Batch(cmds...)

	case statusMsg:
		a.status = msg.text
		return a, nil

	case blockStartedMsg:
		a.status = fmt.Sprintf("Focus block started (%s)", formatCountdown(msg.block.PlannedSeconds))
		return a, nil

	case blockEndedMsg:
		if msg.status == focus.BlockCompleted {
			a.status = "Block complete. Take a break."
		} else {
			a.status = "Block interrupted. It still counts."
		}
		return a, nil

	case panicLoggedMsg:
		if msg.err != nil {
			a.status = "Panic event not recorded: " + msg.err.Error()
		} else {
			a.status = "Logged. One small action now."
		}
		return a, nil

	case syncResultMsg:
		if msg.err != nil {
			a.syncStatus = "sync failed"
			a.status = "Sync failed: " + msg.err.Error()
		} else {
			a.syncStatus = "synced"
		}
		return a, nil

	case hydratedMsg:
		a.syncStatus = "synced"
		a.status = "Synced with server"
		if a.activeView == viewDashboard {
			return a, a.dashboard.refresh()
		}
		return a, nil

	case exportDoneMsg:
		a.status = "Exported to " + msg.path
		a.exportPicking = false
		return a, nil
	}

	return a.updateActiveView(msg)
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewFocus:
		a.focus, cmd = a.focus.update(msg)
	case viewTasks:
		a.tasks, cmd = a.tasks.update(msg)
	case viewDashboard:
		a.dashboard, cmd = a.dashboard.update(msg)
	case viewCheckin:
		a.checkin, cmd = a.checkin.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewFocus:
		return a.focus.formActive
	case viewTasks:
		return a.tasks.formActive
	case viewCheckin:
		return a.checkin.formActive
	}
	return false
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewDashboard:
		return a.dashboard.refresh()
	case viewCheckin:
		return a.checkin.load()
	}
	return nil
}

// syncNow pushes local state and pulls the server copy in one round.
func (a App) syncNow() tea.Cmd {
	if a.api == nil {
		return func() tea.Msg {
			return statusMsg{text: "No server configured"}
		}
	}
	ctrl := a.ctrl
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		ctrl.Flush(ctx)
		state := ctrl.Hydrate(ctx)
		return hydratedMsg{state: state}
	}
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewFocus:
		content = a.focus.view()
	case viewTasks:
		content = a.tasks.view()
	case viewDashboard:
		content = a.dashboard.view()
	case viewCheckin:
		content = a.checkin.view()
	}

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := a.height - headerHeight - footerHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("fokus")
	gap := a.width - lipgloss.Width(title) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		status = mutedStyle.Render(" " + a.status)
	}
	if a.syncStatus != "" {
		status = mutedStyle.Render(" ["+a.syncStatus+"]") + status
	}

	// Running block indicator stays visible on every tab.
	blockInfo := ""
	if remaining, ok := a.focus.activeRemaining(); ok {
		blockInfo = successStyle.Render(" ● " + formatCountdown(remaining))
	}

	left := footerStyle.Render(helpView)
	right := blockInfo + status

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

func (a App) renderExportPicker() string {
	title := titleStyle.Render("Export Format")
	formats := []string{"CSV", "JSON"}
	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	for i, f := range formats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < 1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

func (a App) doExport(format int) tea.Cmd {
	state := a.ctrl.State()
	return func() tea.Msg {
		home, _ := os.UserHomeDir()
		dateStr := time.Now().Format("2006-01-02")

		var path string
		if format == 0 {
			path = filepath.Join(home, fmt.Sprintf("fokus-export-%s.csv", dateStr))
			if err := export.ToCSV(state, path); err != nil {
				return statusMsg{text: fmt.Sprintf("CSV error: %v", err), isError: true}
			}
		} else {
			path = filepath.Join(home, fmt.Sprintf("fokus-export-%s.json", dateStr))
			if err := export.ToJSON(state, path); err != nil {
				return statusMsg{text: fmt.Sprintf("JSON error: %v", err), isError: true}
			}
		}

		return exportDoneMsg{path: path}
	}
}
