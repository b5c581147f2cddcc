package components

import (
	"github.com/alexisbeaulieu97/create-enfyra-be/internal/model"
)

// StageEntry is one row of the stage list.
type StageEntry struct {
	Name   string
	Title  string
	Result model.StageResult
}

// StageList orders stage results for rendering.
type StageList struct {
	entries []StageEntry
}

// NewStageList pairs every stage in order with its title and latest result.
func NewStageList(order []string, titles map[string]string, results map[string]model.StageResult) StageList {
	entries := make([]StageEntry, 0, len(order))
	for _, name := range order {
		title := titles[name]
		if title == "" {
			title = name
		}
		entries = append(entries, StageEntry{Name: name, Title: title, Result: results[name]})
	}
	return StageList{entries: entries}
}

// Entries returns a copy of the ordered entries.
func (s StageList) Entries() []StageEntry {
	clone := make([]StageEntry, len(s.entries))
	copy(clone, s.entries)
	return clone
}
