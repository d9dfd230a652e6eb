package analysis

import (
	"strings"

	"github.com/mkessler/worklog-api/internal/domain"
)

// typoReplacements fixes spellings the analysis backends are known to
// produce before the tasks reach any UI.
var typoReplacements = [][2]string{
	{"Healt ", "Health "},
	{"healt ", "health "},
	{"Healtcheck", "Health check"},
	{"healtcheck", "health check"},
}

// NormalizeTasks trims whitespace, collapses internal newlines in
// descriptions to single spaces, and applies the known typo fixes. Titles
// that end up empty default to "Task".
func NormalizeTasks(tasks []domain.Task) []domain.Task {
	out := make([]domain.Task, 0, len(tasks))
	for _, t := range tasks {
		title := strings.TrimSpace(t.Title)
		desc := strings.Join(strings.Fields(t.Description), " ")

		for _, r := range typoReplacements {
			title = strings.ReplaceAll(title, r[0], r[1])
			desc = strings.ReplaceAll(desc, r[0], r[1])
		}

		if title == "" {
			title = "Task"
		}
		out = append(out, domain.Task{Title: title, Description: desc})
	}
	return out
}
