package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"github.com/fokuslabs/fokus/internal/focus"
)

// ToCSV writes the finished focus blocks to path.
func ToCSV(state focus.State, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	// Header
	if err := w.Write([]string{"ID", "Category", "Status", "Started", "Ended", "Planned (s)", "Actual (s)", "Duration", "All Done", "Reason"}); err != nil {
		return err
	}

	names := categoryNames(state)
	for _, b := range state.Blocks {
		if !b.Terminal() {
			continue
		}
		row := []string{
			b.ID,
			names[b.CategoryID],
			string(b.Status),
			formatTime(b.StartedAt),
			formatTime(b.EndedAt),
			fmt.Sprintf("%d", b.PlannedSeconds),
			formatActual(b.ActualSeconds),
			formatDuration(effectiveSeconds(b)),
			fmt.Sprintf("%t", b.AllSelectedCompleted),
			b.EndReason,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}

func categoryNames(state focus.State) map[string]string {
	names := make(map[string]string, len(state.Categories))
	for _, c := range state.Categories {
		names[c.ID] = c.Name
	}
	return names
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Local().Format(time.RFC3339)
}

func formatActual(secs *int) string {
	if secs == nil {
		return ""
	}
	return fmt.Sprintf("%d", *secs)
}

func effectiveSeconds(b focus.FocusBlock) int {
	if b.ActualSeconds != nil {
		return *b.ActualSeconds
	}
	return b.PlannedSeconds
}

func formatDuration(secs int) string {
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
