package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fokuslabs/fokus/internal/client"
	"github.com/fokuslabs/fokus/internal/focus"
	"github.com/fokuslabs/fokus/internal/store"
)

// viewState represents the currently active view.
type viewState int

const (
	viewFocus viewState = iota
	viewTasks
	viewDashboard
	viewCheckin
)

var viewNames = []string{"Focus", "Tasks", "Dashboard", "Check-in"}

// --- Messages ---

type blockStartedMsg struct {
	block focus.FocusBlock
}

type blockEndedMsg struct {
	status focus.BlockStatus
}

type statusMsg struct {
	text    string
	isError bool
}

type tickMsg time.Time

type syncResultMsg struct {
	err error
}

type hydratedMsg struct {
	state focus.State
}

// SyncResult wraps a background push outcome as a message for the app.
// main wires it into the sync controller's OnSync callback.
func SyncResult(err error) tea.Msg {
	return syncResultMsg{err: err}
}

type statsMsg struct {
	stats store.DashboardStats
	err   error
}

type checkinLoadedMsg struct {
	resp client.CheckinResponse
	err  error
}

type checkinSavedMsg struct {
	resp client.CheckinResponse
	err  error
}

type panicLoggedMsg struct {
	err error
}

type exportDoneMsg struct {
	path string
}

// --- Helpers ---

func formatCountdown(secs int) string {
	if secs < 0 {
		secs = 0
	}
	m := secs / 60
	s := secs % 60
	return fmt.Sprintf("%02d:%02d", m, s)
}

func formatMinutes(v float64) string {
	return fmt.Sprintf("%.1fm", v)
}

func priorityLabel(p int) string {
	return fmt.Sprintf("P%d", p)
}

func cadenceLabel(c focus.RepeatCadence) string {
	switch c {
	case focus.RepeatDaily:
		return "daily"
	case focus.RepeatWeekdays:
		return "weekdays"
	}
	return ""
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
