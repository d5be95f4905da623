package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fokuslabs/fokus/internal/client"
	"github.com/fokuslabs/fokus/internal/focus"
	"github.com/fokuslabs/fokus/internal/store"
	"github.com/fokuslabs/fokus/internal/sync"
)

const (
	minDashboardDays = 7
	maxDashboardDays = 60
)

// dashboardModel renders the trailing-window analytics tab. When a server is
// configured the numbers come from /api/stats; offline it falls back to the
// focus-minutes series it can compute from local state (panic events are only
// recorded server-side, so that chart stays empty offline).
type dashboardModel struct {
	ctrl *sync.Controller
	api  *client.Client

	width  int
	height int

	days    int
	stats   store.DashboardStats
	loaded  bool
	loadErr error

	focusChart barchart.Model
	panicChart barchart.Model
}

func newDashboardModel(ctrl *sync.Controller, api *client.Client) dashboardModel {
	return dashboardModel{
		ctrl:       ctrl,
		api:        api,
		days:       14,
		focusChart: barchart.New(60, 10),
		panicChart: barchart.New(60, 6),
	}
}

func (d *dashboardModel) setSize(w, h int) {
	d.width = w
	d.height = h
}

func (d dashboardModel) refresh() tea.Cmd {
	days := d.days
	if d.api == nil {
		stats := localStats(d.ctrl.State(), days, d.ctrl.Now())
		return func() tea.Msg {
			return statsMsg{stats: stats}
		}
	}
	api := d.api
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		stats, err := api.Stats(ctx, days)
		return statsMsg{stats: stats, err: err}
	}
}

// localStats mirrors the server aggregation over the in-memory state so the
// dashboard still works without a configured server.
func localStats(state focus.State, days int, now time.Time) store.DashboardStats {
	if days < minDashboardDays {
		days = minDashboardDays
	}
	if days > maxDashboardDays {
		days = maxDashboardDays
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	start := today.AddDate(0, 0, -(days - 1))

	minutes := make(map[string]float64, days)
	for _, b := range state.Blocks {
		if !b.Terminal() || b.StartedAt == nil {
			continue
		}
		day := b.StartedAt.In(now.Location())
		key := day.Format("2006-01-02")
		secs := b.PlannedSeconds
		if b.ActualSeconds != nil {
			secs = *b.ActualSeconds
		}
		minutes[key] += float64(secs) / 60
	}

	var stats store.DashboardStats
	for d := start; !d.After(today); d = d.AddDate(0, 0, 1) {
		key := d.Format("2006-01-02")
		value := roundMinutes(minutes[key])
		stats.Series = append(stats.Series, store.DayPoint{Day: key, Value: value})
		stats.PanicSeries = append(stats.PanicSeries, store.DayPoint{Day: key})
		stats.TotalMinutes += value
	}
	stats.TotalMinutes = roundMinutes(stats.TotalMinutes)

	for i := len(stats.Series) - 1; i >= 0; i-- {
		if stats.Series[i].Value <= 0 {
			break
		}
		stats.Streak++
	}
	return stats
}

func roundMinutes(m float64) float64 {
	return float64(int(m*10+0.5)) / 10
}

func (d dashboardModel) update(msg tea.Msg) (dashboardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case statsMsg:
		d.loadErr = msg.err
		if msg.err == nil {
			d.stats = msg.stats
			d.loaded = true
			d.buildCharts()
		}
		return d, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			if d.days > minDashboardDays {
				d.days = max(minDashboardDays, d.days-7)
				return d, d.refresh()
			}
		case key.Matches(msg, keys.Right):
			if d.days < maxDashboardDays {
				d.days = min(maxDashboardDays, d.days+7)
				return d, d.refresh()
			}
		}
	}
	return d, nil
}

func (d *dashboardModel) buildCharts() {
	chartWidth := d.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	focusHeight := 10
	if d.height > 34 {
		focusHeight = 14
	}

	d.focusChart = barchart.New(chartWidth, focusHeight)
	d.focusChart.PushAll(dayBars(d.stats.Series, accentStyle))
	d.focusChart.Draw()

	d.panicChart = barchart.New(chartWidth, 6)
	d.panicChart.PushAll(dayBars(d.stats.PanicSeries, errorStyle))
	d.panicChart.Draw()
}

func dayBars(series []store.DayPoint, style lipgloss.Style) []barchart.BarData {
	var bars []barchart.BarData
	for _, p := range series {
		label := p.Day
		if day, err := time.Parse("2006-01-02", p.Day); err == nil {
			label = day.Format("02")
		}
		bars = append(bars, barchart.BarData{
			Label: label,
			Values: []barchart.BarValue{
				{Name: p.Day, Value: p.Value, Style: style},
			},
		})
	}
	return bars
}

func (d dashboardModel) view() string {
	w := d.width - 4

	rangeLabel := mutedStyle.Render(fmt.Sprintf("last %d days", d.days))
	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Dashboard"), "  ", rangeLabel,
	)

	if d.loadErr != nil {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			header, "",
			errorStyle.Render("  Could not load stats: "+d.loadErr.Error()),
			mutedStyle.Render("  r: sync and retry"),
		))
	}
	if !d.loaded {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			header, "", mutedStyle.Render("  Loading..."),
		))
	}

	streak := fmt.Sprintf("  Streak: %s", highlightStyle.Render(fmt.Sprintf("%d day(s)", d.stats.Streak)))
	total := fmt.Sprintf("  Total focus: %s", successStyle.Render(formatMinutes(d.stats.TotalMinutes)))
	summary := lipgloss.JoinHorizontal(lipgloss.Bottom, streak, "   ", total)

	nav := mutedStyle.Render("  ←/→: change window  r: sync and reload")

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
		header, "",
		accentStyle.Render("  Focus minutes per day"),
		d.focusChart.View(), "",
		errorStyle.Render("  Panic events per day"),
		d.panicChart.View(), "",
		summary, "",
		nav,
	))
}
