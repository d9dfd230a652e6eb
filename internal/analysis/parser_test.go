package analysis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkessler/worklog-api/internal/domain"
)

func TestParseTasksCleanArray(t *testing.T) {
	raw := `[{"title":"A","description":"B"},{"title":"C","description":"D"}]`

	tasks := ParseTasks(raw)
	assert.Equal(t, []domain.Task{
		{Title: "A", Description: "B"},
		{Title: "C", Description: "D"},
	}, tasks)
}

func TestParseTasksFencedWithTrailingComma(t *testing.T) {
	raw := "```json\n[{\"title\":\"A\",\"description\":\"B\"},]\n```"

	tasks := ParseTasks(raw)
	assert.Equal(t, []domain.Task{{Title: "A", Description: "B"}}, tasks)
}

func TestParseTasksArrayBuriedInProse(t *testing.T) {
	raw := `Here are the tasks you asked for:

[{"title": "Add health check", "description": "Added a Docker health check."}]

Let me know if you need anything else.`

	tasks := ParseTasks(raw)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Add health check", tasks[0].Title)
}

func TestParseTasksNestedArraysBalanced(t *testing.T) {
	// The depth counter must not stop at the inner closing bracket.
	raw := `[{"title":"A","description":"uses [1, 2] internally"},{"title":"B","description":"C"}]`

	tasks := ParseTasks(raw)
	assert.Len(t, tasks, 2)
}

func TestParseTasksKeyAliases(t *testing.T) {
	raw := `[{"name":"Aliased title","detail":"Aliased description"},{"text":"Only text"}]`

	tasks := ParseTasks(raw)
	require.Len(t, tasks, 2)
	assert.Equal(t, domain.Task{Title: "Aliased title", Description: "Aliased description"}, tasks[0])
	// No title at all: defaults to "Task", text fills the description.
	assert.Equal(t, domain.Task{Title: "Task", Description: "Only text"}, tasks[1])
}

func TestParseTasksDropsEmptyItems(t *testing.T) {
	raw := `[{"title":"","description":""},{"title":"Kept","description":""}]`

	tasks := ParseTasks(raw)
	assert.Equal(t, []domain.Task{{Title: "Kept", Description: ""}}, tasks)
}

func TestParseTasksShortPlainTextBecomesSummary(t *testing.T) {
	raw := "The week was mostly spent on refactoring the login flow."

	tasks := ParseTasks(raw)
	assert.Equal(t, []domain.Task{{Title: "Summary", Description: raw}}, tasks)
}

func TestParseTasksLongPlainTextWithoutMarkersIsEmpty(t *testing.T) {
	raw := strings.Repeat("no structure here ", 60) // well over the short-text limit

	tasks := ParseTasks(raw)
	assert.Empty(t, tasks)
}

func TestParseTasksEmptyInput(t *testing.T) {
	assert.Empty(t, ParseTasks(""))
	assert.Empty(t, ParseTasks("   \n\t "))
}

func TestParseTasksStructuredButUnparseableFallsBack(t *testing.T) {
	raw := "```json\n[{\"title\": \"Broken" // unterminated, but has markers

	tasks := ParseTasks(raw)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Summary", tasks[0].Title)
	assert.NotContains(t, tasks[0].Description, "```")
	assert.Contains(t, tasks[0].Description, "Broken")
}

func TestParseTasksFallbackTruncatesAtLimit(t *testing.T) {
	raw := "[\"title\" " + strings.Repeat("x", 3000)

	tasks := ParseTasks(raw)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Summary", tasks[0].Title)
	assert.Len(t, tasks[0].Description, fallbackSummaryLimit+len("..."))
}

func TestNormalizeTasks(t *testing.T) {
	tasks := NormalizeTasks([]domain.Task{
		{Title: "  Add Healtcheck  ", Description: "The healt \n check was\nfixed.  "},
		{Title: "", Description: "kept"},
	})

	assert.Equal(t, []domain.Task{
		{Title: "Add Health check", Description: "The health check was fixed."},
		{Title: "Task", Description: "kept"},
	}, tasks)
}

func TestScrapeArrayNoArray(t *testing.T) {
	assert.Equal(t, "", scrapeArray("no brackets at all"))
	assert.Equal(t, "", scrapeArray("unbalanced [ forever"))
}

func TestRepairJSON(t *testing.T) {
	assert.Equal(t, `[{"a":1}]`, repairJSON(`[{"a":1},]`))
	assert.Equal(t, `[{"a":1}]`, repairJSON(`[{"a":1,},]`))
}
