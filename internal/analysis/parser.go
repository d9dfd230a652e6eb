package analysis

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/mkessler/worklog-api/internal/domain"
)

// Parsing limits for the fallback paths: plain text under shortTextLimit is
// wrapped as a single summary task; the last-resort sanitized summary is cut
// at fallbackSummaryLimit characters.
const (
	shortTextLimit       = 500
	fallbackSummaryLimit = 2000
)

var (
	// fencedBlockRegex captures the contents of the first markdown code
	// fence, with or without a language tag.
	fencedBlockRegex = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)```")

	// fenceMarkerRegex strips fence markers when sanitizing raw output for
	// the last-resort summary fallback.
	fenceMarkerRegex = regexp.MustCompile("```(?:json)?\\s*")

	// Trailing separators before a closing bracket are the most common way
	// backends emit almost-JSON; removing them makes the strict parser accept it.
	trailingCommaArrayRegex  = regexp.MustCompile(`,\s*]`)
	trailingCommaObjectRegex = regexp.MustCompile(`,\s*}`)
)

// rawTask is the loosely-typed shape recovered from backend output before
// coercion into domain.Task. Backends disagree on key names, so aliases are
// accepted for both fields.
type rawTask struct {
	Title       string `json:"title"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Detail      string `json:"detail"`
	Text        string `json:"text"`
}

// ParseTasks recovers a structured task list from raw backend output. It
// applies a ladder of recovery strategies in order (scraped JSON array,
// repaired JSON, whole-text parse, plain-text wrap, sanitized fallback)
// and returns the first success. It never fails: unusable input yields an
// empty slice.
func ParseTasks(raw string) []domain.Task {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	// Rung 1+2: scrape the first balanced array (handles markdown fences
	// and surrounding prose), then parse it strictly or repaired.
	if block := scrapeArray(raw); block != "" {
		if tasks := parseArray(block); len(tasks) > 0 {
			return tasks
		}
	}

	// Rung 3: the whole text as a JSON array, with the same repair fallback.
	if tasks := parseArray(raw); len(tasks) > 0 {
		return tasks
	}

	// Rung 4: short plain text with no structural markers becomes a single
	// summary task rather than an empty result.
	if len(raw) < shortTextLimit && !strings.ContainsAny(raw, "{[") {
		return []domain.Task{{Title: "Summary", Description: raw}}
	}

	// Rung 5: the text looked structured but would not parse. Show a
	// sanitized excerpt so the caller is not left with nothing.
	if strings.Contains(raw, "title") || strings.Contains(raw, "description") || strings.Contains(raw, "[") {
		sanitized := strings.TrimSpace(fenceMarkerRegex.ReplaceAllString(raw, ""))
		if len(sanitized) > fallbackSummaryLimit {
			sanitized = sanitized[:fallbackSummaryLimit] + "..."
		}
		if sanitized != "" {
			return []domain.Task{{Title: "Summary", Description: sanitized}}
		}
	}

	return nil
}

// scrapeArray strips a markdown code fence if present and returns the first
// balanced JSON array slice `[ ... ]`, located by depth counting so leading
// and trailing prose is tolerated. Returns "" when no balanced array exists.
func scrapeArray(s string) string {
	s = strings.TrimSpace(s)
	if m := fencedBlockRegex.FindStringSubmatch(s); m != nil {
		s = strings.TrimSpace(m[1])
	}

	start := strings.IndexByte(s, '[')
	if start == -1 {
		return ""
	}

	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

// repairJSON removes trailing separators before closing brackets so the
// strict JSON parser accepts the common almost-JSON backends produce.
func repairJSON(s string) string {
	s = trailingCommaArrayRegex.ReplaceAllString(s, "]")
	s = trailingCommaObjectRegex.ReplaceAllString(s, "}")
	return s
}

// parseArray attempts a strict parse of block as a task array and, on
// failure, a repaired parse. Items lacking both title and description are
// dropped; a missing title defaults to "Task". Returns nil when neither
// attempt yields any task.
func parseArray(block string) []domain.Task {
	for _, attempt := range []string{block, repairJSON(block)} {
		var items []rawTask
		if err := json.Unmarshal([]byte(attempt), &items); err != nil {
			continue
		}

		out := make([]domain.Task, 0, len(items))
		for _, item := range items {
			title := strings.TrimSpace(firstNonEmpty(item.Title, item.Name))
			desc := strings.TrimSpace(firstNonEmpty(item.Description, item.Detail, item.Text))
			if title == "" && desc == "" {
				continue
			}
			if title == "" {
				title = "Task"
			}
			out = append(out, domain.Task{Title: title, Description: desc})
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
