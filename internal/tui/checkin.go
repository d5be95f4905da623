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
	"github.com/fokuslabs/fokus/internal/store"
	"github.com/fokuslabs/fokus/internal/sync"
)

// checkinModel is the daily check-in tab. One log per calendar day; saving it
// returns a block-length recommendation that is applied to the current draft.
type checkinModel struct {
	ctrl *sync.Controller
	api  *client.Client

	width  int
	height int

	log            *store.DailyLog
	recommendation store.Recommendation
	loaded         bool
	saved          bool
	loadErr        error

	formActive bool
	form       *huh.Form

	urge        *string
	energy      *string
	emotion     *string
	nextStep    *string
	valueAction *bool
}

func newCheckinModel(ctrl *sync.Controller, api *client.Client) checkinModel {
	urge, energy, emotion, nextStep, valueAction := "5", "5", "", "", false
	return checkinModel{
		ctrl:        ctrl,
		api:         api,
		urge:        &urge,
		energy:      &energy,
		emotion:     &emotion,
		nextStep:    &nextStep,
		valueAction: &valueAction,
	}
}

func (m *checkinModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

func (m checkinModel) load() tea.Cmd {
	if m.api == nil {
		return func() tea.Msg {
			return checkinLoadedMsg{resp: client.CheckinResponse{
				Recommendation: store.Recommend(nil, nil),
			}}
		}
	}
	api := m.api
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		resp, err := api.TodayCheckin(ctx)
		return checkinLoadedMsg{resp: resp, err: err}
	}
}

func (m checkinModel) update(msg tea.Msg) (checkinModel, tea.Cmd) {
	switch msg := msg.(type) {
	case checkinLoadedMsg:
		m.loadErr = msg.err
		if msg.err == nil {
			m.log = msg.resp.Log
			m.recommendation = msg.resp.Recommendation
			m.loaded = true
			m.saved = m.log != nil
		}
		return m, nil

	case checkinSavedMsg:
		m.loadErr = msg.err
		if msg.err == nil {
			m.log = msg.resp.Log
			m.recommendation = msg.resp.Recommendation
			m.saved = true
			return m, m.applyRecommendation()
		}
		return m, nil
	}

	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}

	if msgKey, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msgKey, keys.New), key.Matches(msgKey, keys.Enter):
			return m.showForm()
		}
	}
	return m, nil
}

func (m checkinModel) showForm() (checkinModel, tea.Cmd) {
	if m.log != nil {
		if m.log.Urge != nil {
			*m.urge = strconv.Itoa(*m.log.Urge)
		}
		if m.log.Energy != nil {
			*m.energy = strconv.Itoa(*m.log.Energy)
		}
		*m.emotion = m.log.Emotion
		*m.nextStep = m.log.NextStep
		*m.valueAction = m.log.ValueActionDone
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().Title("Urge to bail (0-10)").
				Options(scaleOptions()...).Value(m.urge),
			huh.NewSelect[string]().Title("Energy (0-10)").
				Options(scaleOptions()...).Value(m.energy),
			huh.NewInput().Title("How do you feel?").Value(m.emotion),
			huh.NewInput().Title("Smallest next step").Value(m.nextStep),
			huh.NewConfirm().Title("Did one thing you value today?").Value(m.valueAction),
		),
	).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

func scaleOptions() []huh.Option[string] {
	opts := make([]huh.Option[string], 0, 11)
	for i := 0; i <= 10; i++ {
		v := strconv.Itoa(i)
		opts = append(opts, huh.NewOption(v, v))
	}
	return opts
}

func (m checkinModel) updateForm(msg tea.Msg) (checkinModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			m.formActive = false
			m.form = nil
			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if hf, ok := form.(*huh.Form); ok {
		m.form = hf
	}

	if m.form.State == huh.StateCompleted {
		m.formActive = false
		return m, m.submit()
	}
	return m, cmd
}

func (m checkinModel) submit() tea.Cmd {
	log := store.DailyLog{
		Emotion:         strings.TrimSpace(*m.emotion),
		NextStep:        strings.TrimSpace(*m.nextStep),
		ValueActionDone: *m.valueAction,
	}
	if v, err := strconv.Atoi(*m.urge); err == nil {
		log.Urge = &v
	}
	if v, err := strconv.Atoi(*m.energy); err == nil {
		log.Energy = &v
	}

	if m.api == nil {
		// No server: keep the recommendation useful, but nothing persists.
		resp := client.CheckinResponse{
			Log:            &log,
			Recommendation: store.Recommend(log.Urge, log.Energy),
		}
		return tea.Batch(
			func() tea.Msg { return checkinSavedMsg{resp: resp} },
			func() tea.Msg { return statusMsg{text: "Offline; check-in not saved"} },
		)
	}

	api := m.api
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		resp, err := api.SaveCheckin(ctx, log)
		return checkinSavedMsg{resp: resp, err: err}
	}
}

// applyRecommendation resizes today's draft block to the suggested length.
// An already running block is left alone.
func (m checkinModel) applyRecommendation() tea.Cmd {
	rec := m.recommendation
	state := m.ctrl.State()
	if state.ActiveBlock() != nil {
		return nil
	}
	cats := state.SortedCategories()
	if len(cats) == 0 {
		return nil
	}

	catID := cats[0].ID
	for i := len(state.Blocks) - 1; i >= 0; i-- {
		if state.Blocks[i].Status == focus.BlockDraft {
			catID = state.Blocks[i].CategoryID
			break
		}
	}
	seconds := rec.BlockMinutes * 60
	now := m.ctrl.Now()
	m.ctrl.Apply(func(s focus.State) focus.State {
		return s.EnsureDraftBlock(catID, seconds, now)
	})
	return func() tea.Msg {
		return statusMsg{text: fmt.Sprintf("Next block set to %dm", rec.BlockMinutes)}
	}
}

func (m checkinModel) view() string {
	w := m.width - 4

	if m.formActive && m.form != nil {
		content := lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Daily Check-in"), "", m.form.View(),
		)
		return panelStyle.Width(w).Render(content)
	}

	header := titleStyle.Render("Daily Check-in")

	if m.loadErr != nil {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			header, "",
			errorStyle.Render("  Could not reach server: "+m.loadErr.Error()),
			mutedStyle.Render("  enter: fill in anyway"),
		))
	}
	if !m.loaded {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			header, "", mutedStyle.Render("  Loading..."),
		))
	}

	var rows []string
	rows = append(rows, header, "")

	if m.log == nil {
		rows = append(rows, mutedStyle.Render("  No check-in yet today."))
		rows = append(rows, "")
		rows = append(rows, "  "+accentStyle.Render("enter")+" to start")
	} else {
		rows = append(rows, m.renderLog()...)
	}

	rows = append(rows, "")
	rec := m.recommendation
	rows = append(rows, fmt.Sprintf("  Suggested: %s blocks, %s task(s) in play",
		highlightStyle.Render(fmt.Sprintf("%dm", rec.BlockMinutes)),
		highlightStyle.Render(strconv.Itoa(rec.TaskLimit)),
	))
	if m.api == nil {
		rows = append(rows, mutedStyle.Render("  (offline: check-ins are not persisted)"))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: edit check-in"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m checkinModel) renderLog() []string {
	var rows []string
	if m.log.Urge != nil {
		rows = append(rows, fmt.Sprintf("  Urge:    %s", scaleBar(*m.log.Urge)))
	}
	if m.log.Energy != nil {
		rows = append(rows, fmt.Sprintf("  Energy:  %s", scaleBar(*m.log.Energy)))
	}
	if m.log.Emotion != "" {
		rows = append(rows, fmt.Sprintf("  Feeling: %s", m.log.Emotion))
	}
	if m.log.NextStep != "" {
		rows = append(rows, fmt.Sprintf("  Next:    %s", accentStyle.Render(m.log.NextStep)))
	}
	if m.log.ValueActionDone {
		rows = append(rows, successStyle.Render("  Did something that matters today"))
	}
	if m.saved && m.api != nil {
		rows = append(rows, "")
		rows = append(rows, successStyle.Render("  Saved"))
	}
	return rows
}

func scaleBar(v int) string {
	if v < 0 {
		v = 0
	}
	if v > 10 {
		v = 10
	}
	filled := strings.Repeat("█", v)
	empty := strings.Repeat("░", 10-v)
	style := successStyle
	if v >= 7 {
		style = warningStyle
	}
	return style.Render(filled) + mutedStyle.Render(empty) + fmt.Sprintf(" %d", v)
}
