package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/fokuslabs/fokus/internal/focus"
)

type jsonExport struct {
	ExportedAt string      `json:"exported_at"`
	Count      int         `json:"count"`
	Blocks     []jsonBlock `json:"blocks"`
}

type jsonBlock struct {
	ID         string   `json:"id"`
	Category   string   `json:"category"`
	Status     string   `json:"status"`
	Started    string   `json:"started,omitempty"`
	Ended      string   `json:"ended,omitempty"`
	PlannedSec int      `json:"planned_seconds"`
	ActualSec  *int     `json:"actual_seconds,omitempty"`
	Duration   string   `json:"duration"`
	AllDone    bool     `json:"all_done"`
	Reason     string   `json:"reason,omitempty"`
	Tasks      []string `json:"tasks,omitempty"`
}

// ToJSON writes the finished focus blocks, with their selected task titles,
// to path.
func ToJSON(state focus.State, path string) error {
	out := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
	}

	names := categoryNames(state)
	for _, b := range state.Blocks {
		if !b.Terminal() {
			continue
		}
		var tasks []string
		for _, sel := range state.SelectedTasks(b.ID) {
			tasks = append(tasks, sel.Task.Title)
		}
		out.Blocks = append(out.Blocks, jsonBlock{
			ID:         b.ID,
			Category:   names[b.CategoryID],
			Status:     string(b.Status),
			Started:    formatTime(b.StartedAt),
			Ended:      formatTime(b.EndedAt),
			PlannedSec: b.PlannedSeconds,
			ActualSec:  b.ActualSeconds,
			Duration:   formatDuration(effectiveSeconds(b)),
			AllDone:    b.AllSelectedCompleted,
			Reason:     b.EndReason,
			Tasks:      tasks,
		})
	}
	out.Count = len(out.Blocks)

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
