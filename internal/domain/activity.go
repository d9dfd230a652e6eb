package domain

import (
	"fmt"
	"strings"
)

// Limits applied when rendering activity as prompt text. Anything beyond
// these counts is folded into an "... and N more" line so the prompt stays
// inside a bounded context window.
const (
	maxCommitsInText = 50
	maxPRsInText     = 30
)

// Commit is one commit as reported by the activity source. The SHA is
// truncated to 7 characters and the message to its first line; only these
// identity fields participate in cache fingerprinting.
type Commit struct {
	SHA     string `json:"sha"`
	Message string `json:"message"`
	Author  string `json:"author"`
	Date    string `json:"date"`
	Branch  string `json:"branch"`
	Merged  bool   `json:"merged"`
}

// PullRequest is one pull request updated inside the requested window.
type PullRequest struct {
	Number    int    `json:"number"`
	Title     string `json:"title"`
	State     string `json:"state"`
	User      string `json:"user"`
	UpdatedAt string `json:"updated_at"`
	MergedAt  string `json:"merged_at,omitempty"`
}

// Activity aggregates a repository's commits and pull requests for a time
// window. It is consumed as an opaque record by the job pipeline: only the
// commit/PR identity fields are read for fingerprinting.
type Activity struct {
	Repo          string        `json:"repo"`
	Since         string        `json:"since"`
	Until         string        `json:"until"`
	DefaultBranch string        `json:"default_branch"`
	Branches      []string      `json:"branches"`
	Commits       []Commit      `json:"commits"`
	PullRequests  []PullRequest `json:"pull_requests"`
}

// Text renders the activity as the plain-text listing fed to analysis
// backends that do not inspect the repository themselves.
func (a *Activity) Text() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Commits (%d), across all branches:\n", len(a.Commits))
	for i, c := range a.Commits {
		if i >= maxCommitsInText {
			fmt.Fprintf(&b, "  ... and %d more\n", len(a.Commits)-maxCommitsInText)
			break
		}
		status := "open"
		if c.Merged {
			status = "merged"
		}
		author := c.Author
		if author == "" {
			author = "?"
		}
		branch := c.Branch
		if branch == "" {
			branch = "?"
		}
		fmt.Fprintf(&b, "  - [%s] branch=%s [%s] %s (%s)\n",
			author, branch, status, strings.TrimSpace(c.Message), c.Date)
	}

	fmt.Fprintf(&b, "\nPull requests (%d):\n", len(a.PullRequests))
	for i, pr := range a.PullRequests {
		if i >= maxPRsInText {
			fmt.Fprintf(&b, "  ... and %d more\n", len(a.PullRequests)-maxPRsInText)
			break
		}
		user := pr.User
		if user == "" {
			user = "?"
		}
		fmt.Fprintf(&b, "  - #%d %s [%s] by %s\n", pr.Number, pr.Title, pr.State, user)
	}

	return strings.TrimRight(b.String(), "\n")
}
