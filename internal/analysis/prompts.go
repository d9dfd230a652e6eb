package analysis

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"
)

// TaskListInstructions is the shared rule block for backends that receive
// the activity as plain text. Every backend asks for the same output shape
// so the shared parser applies to all of them.
const TaskListInstructions = `Turn the following GitHub activity into a short list of distinct tasks or changes.

Rules:
- Use plain, human-readable language. No jargon unless the commits/PRs use it; then keep one consistent term.
- Titles: short, actionable headlines (e.g. "Add health check to Docker" or "Contact form with email"). Prefer verb-first. Max 8-10 words. Use correct spelling.
- Descriptions: 1-2 clear sentences a teammate can understand. Be specific; avoid vague wording.
- Prefer 5-12 distinct tasks. Group small related changes into one task instead of listing every commit separately.
- Output format: You must respond with ONLY a valid JSON array. No markdown, no code fences (no backticks), no explanation before or after. Your entire response must start with [ and end with ]. Each array element must be an object with exactly two string keys: "title" and "description".

Example (output exactly in this style, no other text):
[
  {"title": "Add health check to Docker", "description": "Docker health check sleep duration was corrected and the build process was improved for reliability."},
  {"title": "Contact form with email notifications", "description": "New contact form was added to the website; submissions trigger email notifications."}
]`

// taskInputTemplate renders the per-request input block appended to
// TaskListInstructions.
var taskInputTemplate = template.Must(template.New("task_input").Parse(
	`Repository: {{.Repo}}
Time range: {{.RangeLabel}}

Activity:
{{.ActivityText}}

Output the JSON array:`))

// taskInputData is the data fed to taskInputTemplate.
type taskInputData struct {
	Repo         string
	RangeLabel   string
	ActivityText string
}

// TasksPrompt builds the full prompt for text-only backends: the shared
// instructions followed by the rendered input block.
func TasksPrompt(repo, rangeLabel, activityText string) string {
	var buf bytes.Buffer
	// The template only references fields of taskInputData; execution
	// cannot fail at runtime.
	_ = taskInputTemplate.Execute(&buf, taskInputData{
		Repo:         repo,
		RangeLabel:   rangeLabel,
		ActivityText: activityText,
	})
	return TaskListInstructions + "\n\n" + buf.String()
}

// repoOutputContract is the output shape demanded from the repo-local
// analysis tool. It asks for one JSON object so the narrative summary
// arrives alongside the tasks.
const repoOutputContract = `Output ONLY a single JSON object with exactly two keys: "summary" (string, the narrative) and "tasks" (array of objects with "title" and "description"). ` +
	`No markdown, no code fences, no text outside the JSON. Example: {"summary": "...", "tasks": [{"title": "...", "description": "..."}, ...]}.`

// RepoAnalysisPrompt builds the prompt for the external CLI backend that
// runs inside the repository mirror. When gitLog is non-empty it is pasted
// into the prompt so the tool does not need to run git itself; otherwise
// the tool is instructed to inspect the history on its own.
func RepoAnalysisPrompt(repo, rangeLabel string, since, until time.Time, gitLog string) string {
	sinceS := since.UTC().Format(time.RFC3339)
	untilS := until.UTC().Format(time.RFC3339)

	repoLine := "You are in the repository root."
	if repo != "" {
		repoLine = fmt.Sprintf("Repository: %s.", repo)
	}

	header := fmt.Sprintf("%s Time range: %s to %s (%s). ", repoLine, sinceS, untilS, rangeLabel)

	analysis := "Summarize: (1) what the commit messages say, (2) what actually changed in the code, (3) what has been going on across branches. " +
		"Produce a short narrative summary (2-4 sentences) and 5-12 concrete tasks (what was done, what changed). "

	if strings.TrimSpace(gitLog) != "" {
		return header +
			"Below is the git activity in this period (commit messages and diffs). Analyze it and the codebase in this directory. " +
			analysis + repoOutputContract + "\n\nGit log:\n" + strings.TrimSpace(gitLog)
	}

	return header +
		fmt.Sprintf("Analyze what happened in this period: run `git branch -a` to see branches, then `git log -p --all --since=%q --until=%q` to see commit messages and code diffs across all branches. Use the codebase as needed. ",
			sinceS, untilS) +
		analysis + repoOutputContract
}
