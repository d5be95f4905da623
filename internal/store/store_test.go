package store

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/fokuslabs/fokus/internal/focus"
)

// Monday.
var base = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewMemory()
	if err != nil {
		t.Fatalf("open in-memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// stateDiff compares two states ignoring entity order (the read path sorts
// by its own keys) and nil-vs-empty slice representation.
func stateDiff(want, got focus.State) string {
	return cmp.Diff(want, got,
		cmpopts.EquateEmpty(),
		cmpopts.SortSlices(func(a, b focus.Category) bool { return a.ID < b.ID }),
		cmpopts.SortSlices(func(a, b focus.Task) bool { return a.ID < b.ID }),
		cmpopts.SortSlices(func(a, b focus.FocusBlock) bool { return a.ID < b.ID }),
		cmpopts.SortSlices(func(a, b focus.BlockSelection) bool { return a.ID < b.ID }),
	)
}

func intPtr(v int) *int { return &v }

// ==================== Snapshots ====================

func TestReadSnapshotSeedsNewUser(t *testing.T) {
	s := newTestStore(t)

	state, watermark, err := s.ReadSnapshot("u1", base)
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}
	if len(state.Categories) != 3 || len(state.Tasks) != 4 {
		t.Fatalf("seeded %d categories / %d tasks, want 3 / 4",
			len(state.Categories), len(state.Tasks))
	}
	if !watermark.Equal(base) {
		t.Fatalf("seed watermark = %v, want %v", watermark, base)
	}

	// A second read must not reseed.
	again, watermark2, err := s.ReadSnapshot("u1", base.Add(time.Hour))
	if err != nil {
		t.Fatalf("second ReadSnapshot: %v", err)
	}
	if len(again.Tasks) != 4 {
		t.Fatalf("reseeded: %d tasks", len(again.Tasks))
	}
	if !watermark2.Equal(base) {
		t.Fatalf("watermark moved on plain read: %v", watermark2)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := newTestStore(t)

	state := focus.NewInitialState(base)
	state = state.EnsureDraftBlock("work", 1500, base.Add(time.Minute))
	state = state.StartBlock("work", 1500, 5, base.Add(2*time.Minute))
	block := state.ActiveBlock()
	if block == nil {
		t.Fatal("no active block after StartBlock")
	}
	state = state.EndBlock(block.ID, 1200, focus.BlockCompleted, "", base.Add(22*time.Minute))
	state = state.ToggleTaskDone("t4", base.Add(25*time.Minute))

	watermark, err := s.WriteSnapshot("u1", state, base.Add(26*time.Minute))
	if err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	if !watermark.Equal(state.LastLocalEditAt) {
		t.Fatalf("watermark = %v, want client edit %v", watermark, state.LastLocalEditAt)
	}

	got, gotWatermark, err := s.ReadSnapshot("u1", base.Add(27*time.Minute))
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}
	if !gotWatermark.Equal(watermark) {
		t.Fatalf("read watermark = %v, want %v", gotWatermark, watermark)
	}
	if diff := stateDiff(state, got); diff != "" {
		t.Fatalf("round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteSnapshotRejectsUnknownVersion(t *testing.T) {
	s := newTestStore(t)

	state := focus.NewInitialState(base)
	state.Version = 2
	if _, err := s.WriteSnapshot("u1", state, base); !errors.Is(err, ErrInvalidSnapshot) {
		t.Fatalf("version 2: err = %v, want ErrInvalidSnapshot", err)
	}
	state.Version = 0
	if _, err := s.WriteSnapshot("u1", state, base); !errors.Is(err, ErrInvalidSnapshot) {
		t.Fatalf("version 0: err = %v, want ErrInvalidSnapshot", err)
	}
}

func TestWriteSnapshotZeroEditFallsBackToReceipt(t *testing.T) {
	s := newTestStore(t)

	state := focus.NewInitialState(base)
	state.LastLocalEditAt = time.Time{}
	received := base.Add(5 * time.Minute)
	watermark, err := s.WriteSnapshot("u1", state, received)
	if err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	if !watermark.Equal(received) {
		t.Fatalf("watermark = %v, want receipt time %v", watermark, received)
	}
	stored, err := s.Watermark("u1")
	if err != nil {
		t.Fatalf("Watermark: %v", err)
	}
	if !stored.Equal(received) {
		t.Fatalf("stored watermark = %v, want %v", stored, received)
	}
}

func TestWriteSnapshotUpsertsExistingRows(t *testing.T) {
	s := newTestStore(t)

	state := focus.NewInitialState(base)
	if _, err := s.WriteSnapshot("u1", state, base); err != nil {
		t.Fatalf("first write: %v", err)
	}

	edited := state.SetTaskPriority("t2", 1, base.Add(time.Minute))
	edited = edited.SetTaskNotes("t2", "pair with Sam", base.Add(2*time.Minute))
	if _, err := s.WriteSnapshot("u1", edited, base.Add(3*time.Minute)); err != nil {
		t.Fatalf("second write: %v", err)
	}

	got, _, err := s.ReadSnapshot("u1", base.Add(4*time.Minute))
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}
	if len(got.Tasks) != 4 {
		t.Fatalf("upsert duplicated rows: %d tasks", len(got.Tasks))
	}
	for _, task := range got.Tasks {
		if task.ID == "t2" {
			if task.Priority != 1 || task.Notes != "pair with Sam" {
				t.Fatalf("t2 not updated: priority=%d notes=%q", task.Priority, task.Notes)
			}
		}
	}
}

func TestSnapshotsIsolatedPerUser(t *testing.T) {
	s := newTestStore(t)

	state := focus.NewInitialState(base)
	state = state.AddTask("work", "Only for u1", focus.TaskOptions{}, base.Add(time.Minute))
	if _, err := s.WriteSnapshot("u1", state, base.Add(time.Minute)); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}

	other, _, err := s.ReadSnapshot("u2", base.Add(2*time.Minute))
	if err != nil {
		t.Fatalf("ReadSnapshot u2: %v", err)
	}
	for _, task := range other.Tasks {
		if task.Title == "Only for u1" {
			t.Fatal("u1 task leaked into u2 snapshot")
		}
	}
	if len(other.Tasks) != 4 {
		t.Fatalf("u2 not freshly seeded: %d tasks", len(other.Tasks))
	}
}

// ==================== Repeat resets on read ====================

func TestReadSnapshotResetsDueRepeats(t *testing.T) {
	s := newTestStore(t)

	// t3 repeats on weekdays. Done Tuesday, read Wednesday: due again.
	tuesday := time.Date(2026, 3, 3, 18, 0, 0, 0, time.UTC)
	wednesday := time.Date(2026, 3, 4, 7, 30, 0, 0, time.UTC)

	state := focus.NewInitialState(base)
	state = state.ToggleTaskDone("t3", tuesday)
	if _, err := s.WriteSnapshot("u1", state, tuesday); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}

	got, watermark, err := s.ReadSnapshot("u1", wednesday)
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}
	for _, task := range got.Tasks {
		if task.ID != "t3" {
			continue
		}
		if task.Status != focus.TaskPending {
			t.Fatalf("t3 status = %s, want PENDING", task.Status)
		}
		if task.CompletedAt != nil {
			t.Fatalf("t3 completedAt not cleared: %v", task.CompletedAt)
		}
	}
	if !watermark.Equal(wednesday) {
		t.Fatalf("reset did not bump watermark: %v", watermark)
	}

	// The reset is persisted; a later read does not fire again.
	later := wednesday.Add(time.Hour)
	_, watermark2, err := s.ReadSnapshot("u1", later)
	if err != nil {
		t.Fatalf("second ReadSnapshot: %v", err)
	}
	if !watermark2.Equal(wednesday) {
		t.Fatalf("watermark moved without a reset: %v", watermark2)
	}
}

func TestReadSnapshotSameDayCompletionNotReset(t *testing.T) {
	s := newTestStore(t)

	morning := time.Date(2026, 3, 3, 8, 0, 0, 0, time.UTC)
	evening := time.Date(2026, 3, 3, 21, 0, 0, 0, time.UTC)

	state := focus.NewInitialState(base)
	state = state.ToggleTaskDone("t3", morning)
	if _, err := s.WriteSnapshot("u1", state, morning); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}

	got, watermark, err := s.ReadSnapshot("u1", evening)
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}
	for _, task := range got.Tasks {
		if task.ID == "t3" && task.Status != focus.TaskDone {
			t.Fatalf("same-day completion reset: %s", task.Status)
		}
	}
	if !watermark.Equal(morning) {
		t.Fatalf("watermark moved: %v", watermark)
	}
}

// ==================== Panic events ====================

func TestLogPanicEventRoundTrip(t *testing.T) {
	s := newTestStore(t)

	event := PanicEvent{
		CategoryID:   "work",
		Urge:         intPtr(9),
		Emotion:      "overwhelmed",
		ChosenAction: "walk around the block",
	}
	if err := s.LogPanicEvent("u1", event, base); err != nil {
		t.Fatalf("LogPanicEvent: %v", err)
	}

	events, err := s.RecentPanicEvents("u1", 10)
	if err != nil {
		t.Fatalf("RecentPanicEvents: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	got := events[0]
	if got.CategoryID != "work" || got.Emotion != "overwhelmed" {
		t.Fatalf("event fields lost: %+v", got)
	}
	if got.Urge == nil || *got.Urge != 9 {
		t.Fatalf("urge = %v, want 9", got.Urge)
	}
	if !got.CreatedAt.Equal(base) {
		t.Fatalf("createdAt = %v, want %v", got.CreatedAt, base)
	}
}

func TestLogPanicEventTruncatesFreeText(t *testing.T) {
	s := newTestStore(t)

	event := PanicEvent{
		Emotion:      strings.Repeat("a", 200),
		ChosenAction: strings.Repeat("b", 500),
	}
	if err := s.LogPanicEvent("u1", event, base); err != nil {
		t.Fatalf("LogPanicEvent: %v", err)
	}
	events, err := s.RecentPanicEvents("u1", 1)
	if err != nil {
		t.Fatalf("RecentPanicEvents: %v", err)
	}
	if n := len(events[0].Emotion); n != maxEmotionLen {
		t.Fatalf("emotion length = %d, want %d", n, maxEmotionLen)
	}
	if n := len(events[0].ChosenAction); n != maxActionLen {
		t.Fatalf("action length = %d, want %d", n, maxActionLen)
	}
}

func TestRecentPanicEventsNewestFirst(t *testing.T) {
	s := newTestStore(t)

	for i := 0; i < 3; i++ {
		e := PanicEvent{Emotion: string(rune('a' + i))}
		if err := s.LogPanicEvent("u1", e, base.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("LogPanicEvent %d: %v", i, err)
		}
	}
	events, err := s.RecentPanicEvents("u1", 2)
	if err != nil {
		t.Fatalf("RecentPanicEvents: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("limit ignored: %d events", len(events))
	}
	if events[0].Emotion != "c" || events[1].Emotion != "b" {
		t.Fatalf("wrong order: %q then %q", events[0].Emotion, events[1].Emotion)
	}
}

// ==================== Daily check-in ====================

func TestRecommendHeuristic(t *testing.T) {
	cases := []struct {
		name         string
		urge, energy *int
		want         Recommendation
	}{
		{"calm and rested", intPtr(3), intPtr(7), Recommendation{BlockMinutes: 25, TaskLimit: 3}},
		{"strong urge", intPtr(7), intPtr(8), Recommendation{BlockMinutes: 15, TaskLimit: 1}},
		{"low energy", intPtr(2), intPtr(4), Recommendation{BlockMinutes: 15, TaskLimit: 1}},
		{"nothing reported", nil, nil, Recommendation{BlockMinutes: 25, TaskLimit: 3}},
		{"only low energy reported", nil, intPtr(3), Recommendation{BlockMinutes: 15, TaskLimit: 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Recommend(tc.urge, tc.energy); got != tc.want {
				t.Fatalf("Recommend = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestDailyLogSaveAndReload(t *testing.T) {
	s := newTestStore(t)

	if log, err := s.TodayLog("u1", base); err != nil || log != nil {
		t.Fatalf("fresh TodayLog = %v, %v; want nil, nil", log, err)
	}

	in := DailyLog{
		Urge:            intPtr(6),
		Energy:          intPtr(5),
		Emotion:         "restless",
		ValueActionDone: true,
	}
	if err := s.SaveDailyLog("u1", in, base); err != nil {
		t.Fatalf("SaveDailyLog: %v", err)
	}

	got, err := s.TodayLog("u1", base.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("TodayLog: %v", err)
	}
	if got == nil {
		t.Fatal("saved log not found")
	}
	if got.Urge == nil || *got.Urge != 6 || got.Energy == nil || *got.Energy != 5 {
		t.Fatalf("scores lost: %+v", got)
	}
	if got.Emotion != "restless" || !got.ValueActionDone {
		t.Fatalf("fields lost: %+v", got)
	}
	if got.DateKey != "2026-03-02" {
		t.Fatalf("dateKey = %q", got.DateKey)
	}

	// Next calendar day is a separate log.
	if log, err := s.TodayLog("u1", base.AddDate(0, 0, 1)); err != nil || log != nil {
		t.Fatalf("tomorrow's TodayLog = %v, %v; want nil, nil", log, err)
	}
}

func TestCheckinMaterializesNextStepOnce(t *testing.T) {
	s := newTestStore(t)

	if _, _, err := s.ReadSnapshot("u1", base); err != nil {
		t.Fatalf("seed read: %v", err)
	}
	before, err := s.Watermark("u1")
	if err != nil {
		t.Fatalf("Watermark: %v", err)
	}

	checkinAt := base.Add(time.Hour)
	log := DailyLog{NextStep: "Email the accountant"}
	if err := s.SaveDailyLog("u1", log, checkinAt); err != nil {
		t.Fatalf("SaveDailyLog: %v", err)
	}

	state, _, err := s.ReadSnapshot("u1", checkinAt.Add(time.Minute))
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}
	var materialized *focus.Task
	for i := range state.Tasks {
		if state.Tasks[i].Title == "Email the accountant" {
			materialized = &state.Tasks[i]
		}
	}
	if materialized == nil {
		t.Fatal("next step was not materialized as a task")
	}
	if materialized.Priority != 1 || materialized.Status != focus.TaskPending {
		t.Fatalf("materialized task = %+v, want pending priority 1", materialized)
	}
	if materialized.CategoryID != "work" {
		t.Fatalf("materialized into %q, want the first category", materialized.CategoryID)
	}

	after, err := s.Watermark("u1")
	if err != nil {
		t.Fatalf("Watermark: %v", err)
	}
	if !after.After(before) {
		t.Fatalf("materialization did not bump watermark: %v -> %v", before, after)
	}

	// Re-saving the same day's check-in must not create a second task.
	log.NextStep = "Call the accountant instead"
	if err := s.SaveDailyLog("u1", log, checkinAt.Add(2*time.Hour)); err != nil {
		t.Fatalf("second SaveDailyLog: %v", err)
	}
	state, _, err = s.ReadSnapshot("u1", checkinAt.Add(3*time.Hour))
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}
	if len(state.Tasks) != 5 {
		t.Fatalf("second check-in changed task count: %d", len(state.Tasks))
	}
}

func TestCheckinWithoutCategoriesSkipsMaterialization(t *testing.T) {
	s := newTestStore(t)

	log := DailyLog{NextStep: "Buy running shoes"}
	if err := s.SaveDailyLog("u1", log, base); err != nil {
		t.Fatalf("SaveDailyLog: %v", err)
	}
	got, err := s.TodayLog("u1", base)
	if err != nil || got == nil {
		t.Fatalf("TodayLog = %v, %v", got, err)
	}
	if got.NextStep != "Buy running shoes" {
		t.Fatalf("nextStep = %q", got.NextStep)
	}
}

// ==================== Dashboard stats ====================

func statsFixture(t *testing.T, s *Store, now time.Time) {
	t.Helper()

	yesterday := now.AddDate(0, 0, -1)
	old := now.AddDate(0, 0, -90)

	actual := 1500
	state := focus.State{
		Version:         focus.Version,
		LastLocalEditAt: now,
		Categories:      focus.DefaultCategories(),
		Blocks: []focus.FocusBlock{
			{
				ID: "b1", CategoryID: "work", Status: focus.BlockCompleted,
				PlannedSeconds: 1500, ActualSeconds: &actual,
				StartedAt: timePtr(yesterday), EndedAt: timePtr(yesterday.Add(25 * time.Minute)),
			},
			{
				// No actual recorded; planned seconds count instead.
				ID: "b2", CategoryID: "study", Status: focus.BlockInterrupted,
				PlannedSeconds: 610,
				StartedAt:      timePtr(now.Add(-2 * time.Hour)),
				EndedAt:        timePtr(now.Add(-110 * time.Minute)),
				EndReason:      "phone call",
			},
			{
				// Still running; contributes nothing.
				ID: "b3", CategoryID: "work", Status: focus.BlockActive,
				PlannedSeconds: 1500, StartedAt: timePtr(now.Add(-10 * time.Minute)),
			},
			{
				// Outside every window under test.
				ID: "b4", CategoryID: "gym", Status: focus.BlockCompleted,
				PlannedSeconds: 1500, ActualSeconds: &actual,
				StartedAt: timePtr(old), EndedAt: timePtr(old.Add(25 * time.Minute)),
			},
		},
	}
	if _, err := s.WriteSnapshot("u1", state, now); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}

	if err := s.LogPanicEvent("u1", PanicEvent{Emotion: "bored"}, yesterday); err != nil {
		t.Fatalf("LogPanicEvent: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := s.LogPanicEvent("u1", PanicEvent{Emotion: "bored"}, now.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("LogPanicEvent: %v", err)
		}
	}
}

func timePtr(t time.Time) *time.Time { return &t }

func TestDashboardStatsSeries(t *testing.T) {
	s := newTestStore(t)
	statsFixture(t, s, base)

	stats, err := s.DashboardStats("u1", 7, base)
	if err != nil {
		t.Fatalf("DashboardStats: %v", err)
	}
	if len(stats.Series) != 7 || len(stats.PanicSeries) != 7 {
		t.Fatalf("series lengths %d/%d, want 7/7", len(stats.Series), len(stats.PanicSeries))
	}

	last := stats.Series[6]
	prev := stats.Series[5]
	if last.Day != "2026-03-02" || prev.Day != "2026-03-01" {
		t.Fatalf("days misaligned: %q, %q", prev.Day, last.Day)
	}
	// 610 planned seconds rounds to 10.2 minutes.
	if last.Value != 10.2 {
		t.Fatalf("today = %v minutes, want 10.2", last.Value)
	}
	if prev.Value != 25.0 {
		t.Fatalf("yesterday = %v minutes, want 25.0", prev.Value)
	}
	if math.Abs(stats.TotalMinutes-35.2) > 1e-9 {
		t.Fatalf("totalMinutes = %v, want 35.2", stats.TotalMinutes)
	}

	if stats.PanicSeries[6].Value != 2 || stats.PanicSeries[5].Value != 1 {
		t.Fatalf("panic series = %v / %v, want 1 / 2",
			stats.PanicSeries[5].Value, stats.PanicSeries[6].Value)
	}
}

func TestDashboardStatsStreak(t *testing.T) {
	s := newTestStore(t)
	statsFixture(t, s, base)

	stats, err := s.DashboardStats("u1", 14, base)
	if err != nil {
		t.Fatalf("DashboardStats: %v", err)
	}
	// Focus on both yesterday and today, nothing before that.
	if stats.Streak != 2 {
		t.Fatalf("streak = %d, want 2", stats.Streak)
	}
}

func TestDashboardStatsClampsWindow(t *testing.T) {
	s := newTestStore(t)
	statsFixture(t, s, base)

	low, err := s.DashboardStats("u1", 1, base)
	if err != nil {
		t.Fatalf("DashboardStats: %v", err)
	}
	if len(low.Series) != minStatsDays {
		t.Fatalf("days=1 gave %d points, want %d", len(low.Series), minStatsDays)
	}

	high, err := s.DashboardStats("u1", 365, base)
	if err != nil {
		t.Fatalf("DashboardStats: %v", err)
	}
	if len(high.Series) != maxStatsDays {
		t.Fatalf("days=365 gave %d points, want %d", len(high.Series), maxStatsDays)
	}
}

func TestDashboardStatsEmptyUser(t *testing.T) {
	s := newTestStore(t)

	stats, err := s.DashboardStats("nobody", 7, base)
	if err != nil {
		t.Fatalf("DashboardStats: %v", err)
	}
	if stats.Streak != 0 || stats.TotalMinutes != 0 {
		t.Fatalf("empty user stats = %+v", stats)
	}
	for _, p := range stats.Series {
		if p.Value != 0 {
			t.Fatalf("phantom focus on %s", p.Day)
		}
	}
}
