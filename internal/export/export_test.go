package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fokuslabs/fokus/internal/focus"
)

var base = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

// exportState builds a state with one completed block (two tasks selected)
// and one still-running block that must not be exported.
func exportState(t *testing.T) focus.State {
	t.Helper()

	s := focus.NewInitialState(base)
	s = s.EnsureDraftBlock("work", 1500, base)
	s = s.StartBlock("work", 1500, 5, base.Add(time.Minute))
	active := s.ActiveBlock()
	if active == nil {
		t.Fatal("no active block")
	}
	s = s.EndBlock(active.ID, 1400, focus.BlockCompleted, "", base.Add(25*time.Minute))

	s = s.EnsureDraftBlock("study", 900, base.Add(30*time.Minute))
	s = s.StartBlock("study", 900, 5, base.Add(31*time.Minute))
	return s
}

func TestCSVExportsOnlyFinishedBlocks(t *testing.T) {
	s := exportState(t)
	path := filepath.Join(t.TempDir(), "blocks.csv")

	if err := ToCSV(s, path); err != nil {
		t.Fatalf("ToCSV: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want header + 1 block", len(rows))
	}
	if rows[0][0] != "ID" {
		t.Fatalf("missing header row: %v", rows[0])
	}

	row := rows[1]
	if row[1] != "Work" {
		t.Fatalf("category = %q, want Work", row[1])
	}
	if row[2] != "COMPLETED" {
		t.Fatalf("status = %q", row[2])
	}
	if row[6] != "1400" {
		t.Fatalf("actual seconds = %q", row[6])
	}
	if row[7] != "00:23:20" {
		t.Fatalf("duration = %q", row[7])
	}
}

func TestJSONExportIncludesSelectedTasks(t *testing.T) {
	s := exportState(t)
	path := filepath.Join(t.TempDir(), "blocks.json")

	if err := ToJSON(s, path); err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}

	var out jsonExport
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("parse export: %v", err)
	}
	if out.Count != 1 || len(out.Blocks) != 1 {
		t.Fatalf("count = %d, blocks = %d; want 1", out.Count, len(out.Blocks))
	}

	b := out.Blocks[0]
	if b.Category != "Work" || b.Status != "COMPLETED" {
		t.Fatalf("block = %+v", b)
	}
	if len(b.Tasks) == 0 {
		t.Fatal("selected task titles missing")
	}
	if b.ActualSec == nil || *b.ActualSec != 1400 {
		t.Fatalf("actual = %v", b.ActualSec)
	}
}

func TestCSVEmptyStateWritesHeaderOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	if err := ToCSV(focus.State{Version: focus.Version}, path); err != nil {
		t.Fatalf("ToCSV: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want header only", len(rows))
	}
}
