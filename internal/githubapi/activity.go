package githubapi

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/mkessler/worklog-api/internal/domain"
)

// Activity aggregates a repository's commit and pull-request activity for
// the window into one record. Commits come from every branch: the default
// branch is scanned first so shared history is attributed to it, later
// branches only contribute commits not seen before, and a commit counts as
// merged when its SHA is reachable from the default branch within the
// window. Branches whose listing fails are skipped rather than failing the
// whole aggregation.
func (c *Client) Activity(ctx context.Context, token, repo string, since, until time.Time) (*domain.Activity, error) {
	defaultBranch := c.DefaultBranch(ctx, token, repo)
	branches := c.Branches(ctx, token, repo)
	if len(branches) == 0 {
		branches = []string{defaultBranch}
	}

	defaultCommits, err := c.commits(ctx, token, repo, since, until, defaultBranch)
	if err != nil {
		return nil, err
	}
	onDefault := make(map[string]bool, len(defaultCommits))
	for _, item := range defaultCommits {
		if item.SHA != "" {
			onDefault[item.SHA] = true
		}
	}

	ordered := make([]string, 0, len(branches))
	ordered = append(ordered, defaultBranch)
	for _, b := range branches {
		if b != defaultBranch {
			ordered = append(ordered, b)
		}
	}

	seen := make(map[string]bool)
	var commits []domain.Commit
	for _, branch := range ordered {
		items, err := c.commits(ctx, token, repo, since, until, branch)
		if err != nil {
			c.logger.Warn("skipping branch after commit listing failure",
				"repo", repo, "branch", branch, "error", err)
			continue
		}
		for _, item := range items {
			if item.SHA == "" || seen[item.SHA] {
				continue
			}
			seen[item.SHA] = true
			commits = append(commits, commitRow(item, branch, onDefault[item.SHA]))
		}
	}

	sort.SliceStable(commits, func(i, j int) bool {
		return commits[i].Date > commits[j].Date
	})

	prs, err := c.pullRequests(ctx, token, repo, since, until)
	if err != nil {
		return nil, err
	}

	pullRequests := make([]domain.PullRequest, 0, len(prs))
	for _, pr := range prs {
		user := ""
		if pr.User != nil {
			user = pr.User.Login
		}
		pullRequests = append(pullRequests, domain.PullRequest{
			Number:    pr.Number,
			Title:     pr.Title,
			State:     pr.State,
			User:      user,
			UpdatedAt: pr.UpdatedAt,
			MergedAt:  pr.MergedAt,
		})
	}

	return &domain.Activity{
		Repo:          repo,
		Since:         since.UTC().Format(time.RFC3339),
		Until:         until.UTC().Format(time.RFC3339),
		DefaultBranch: defaultBranch,
		Branches:      branches,
		Commits:       commits,
		PullRequests:  pullRequests,
	}, nil
}

// commitRow flattens one wire commit into the domain shape: abbreviated
// SHA, first message line, author name with login fallback.
func commitRow(item commitItem, branch string, merged bool) domain.Commit {
	sha := item.SHA
	if len(sha) > 7 {
		sha = sha[:7]
	}

	message := item.Commit.Message
	if idx := strings.IndexByte(message, '\n'); idx >= 0 {
		message = message[:idx]
	}

	author := item.Commit.Author.Name
	if author == "" && item.Author != nil {
		author = item.Author.Login
	}
	if author == "" {
		author = "?"
	}

	return domain.Commit{
		SHA:     sha,
		Message: message,
		Author:  author,
		Date:    item.Commit.Author.Date,
		Branch:  branch,
		Merged:  merged,
	}
}
