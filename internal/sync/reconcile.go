// Package sync owns the client's canonical in-memory copy of the focus
// state: loading and saving it to a local JSON file, and reconciling it with
// the server snapshot using a last-writer-wins watermark.
package sync

import (
	"time"

	"github.com/fokuslabs/fokus/internal/focus"
)

// Reconcile merges a freshly hydrated server snapshot into the local state.
//
// Decision rule: when the server watermark is strictly newer than the local
// lastLocalEditAt, the server copy wins wholesale; local edits made since the
// last successful sync are discarded. That loss is an accepted tradeoff of
// the whole-snapshot protocol, not a bug. Otherwise the local copy is kept
// and entities that exist only on the server (by id, across all four
// collections) are unioned in without touching lastLocalEditAt; that recovers
// rows the server created on its own, like a check-in materializing a task.
func Reconcile(local, server focus.State, watermark time.Time) focus.State {
	if watermark.After(local.LastLocalEditAt) {
		return server
	}

	merged := local

	merged.Categories = unionCategories(local.Categories, server.Categories)
	merged.Tasks = unionTasks(local.Tasks, server.Tasks)
	merged.Blocks = unionBlocks(local.Blocks, server.Blocks)
	merged.Selections = unionSelections(local.Selections, server.Selections)

	return merged
}

func unionCategories(local, server []focus.Category) []focus.Category {
	seen := make(map[string]bool, len(local))
	for _, c := range local {
		seen[c.ID] = true
	}
	out := make([]focus.Category, len(local), len(local)+len(server))
	copy(out, local)
	for _, c := range server {
		if !seen[c.ID] {
			out = append(out, c)
		}
	}
	return out
}

func unionTasks(local, server []focus.Task) []focus.Task {
	seen := make(map[string]bool, len(local))
	for _, t := range local {
		seen[t.ID] = true
	}
	out := make([]focus.Task, len(local), len(local)+len(server))
	copy(out, local)
	for _, t := range server {
		if !seen[t.ID] {
			out = append(out, t)
		}
	}
	return out
}

func unionBlocks(local, server []focus.FocusBlock) []focus.FocusBlock {
	seen := make(map[string]bool, len(local))
	for _, b := range local {
		seen[b.ID] = true
	}
	out := make([]focus.FocusBlock, len(local), len(local)+len(server))
	copy(out, local)
	for _, b := range server {
		if !seen[b.ID] {
			out = append(out, b)
		}
	}
	return out
}

func unionSelections(local, server []focus.BlockSelection) []focus.BlockSelection {
	seen := make(map[string]bool, len(local))
	for _, sel := range local {
		seen[sel.ID] = true
	}
	out := make([]focus.BlockSelection, len(local), len(local)+len(server))
	copy(out, local)
	for _, sel := range server {
		if !seen[sel.ID] {
			out = append(out, sel)
		}
	}
	return out
}
