// Package githubapi is a thin client for the parts of the GitHub REST API
// this service consumes: repository listings, branch/commit history, and
// pull requests. Tokens are per-user and passed per call rather than bound
// at construction.
package githubapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultAPIBase is the public GitHub REST endpoint; overridable for
// GitHub Enterprise or tests.
const DefaultAPIBase = "https://api.github.com"

const requestTimeout = 30 * time.Second

var (
	// ErrRateLimited indicates GitHub rejected the call for quota reasons;
	// retrying immediately will not help.
	ErrRateLimited = errors.New("github API rate limit exceeded")

	// ErrAPIFailure indicates a non-success response other than rate
	// limiting.
	ErrAPIFailure = errors.New("github API request failed")
)

// Repo is the subset of repository metadata surfaced to clients picking a
// repository to analyze.
type Repo struct {
	FullName    string `json:"full_name"`
	Private     bool   `json:"private"`
	Description string `json:"description"`
	Language    string `json:"language"`
	HTMLURL     string `json:"html_url"`
	UpdatedAt   string `json:"updated_at"`
}

// Client calls the GitHub REST API.
type Client struct {
	logger  *slog.Logger
	baseURL string
	http    *http.Client
}

// NewClient creates a GitHub API client against baseURL; an empty baseURL
// selects the public endpoint.
func NewClient(logger *slog.Logger, baseURL string) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if baseURL == "" {
		baseURL = DefaultAPIBase
	}
	return &Client{
		logger:  logger.With(slog.String("component", "githubapi")),
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: requestTimeout},
	}
}

// get performs one authenticated GET and decodes the JSON response into v.
func (c *Client) get(ctx context.Context, token, path string, params url.Values, v any) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%w: building request: %v", ErrAPIFailure, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAPIFailure, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: reading response: %v", ErrAPIFailure, err)
	}

	if resp.StatusCode == http.StatusForbidden && strings.Contains(strings.ToLower(string(body)), "rate limit") {
		return ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s returned HTTP %d", ErrAPIFailure, path, resp.StatusCode)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: decoding %s response: %v", ErrAPIFailure, path, err)
	}
	return nil
}

// ListRepos returns the repositories the token can access, most recently
// updated first.
func (c *Client) ListRepos(ctx context.Context, token string) ([]Repo, error) {
	params := url.Values{
		"sort":        {"updated"},
		"per_page":    {"100"},
		"affiliation": {"owner,collaborator,organization_member"},
	}

	var repos []Repo
	if err := c.get(ctx, token, "/user/repos", params, &repos); err != nil {
		return nil, err
	}
	return repos, nil
}

// DefaultBranch returns the repository's default branch, falling back to
// "main" when the lookup fails.
func (c *Client) DefaultBranch(ctx context.Context, token, repo string) string {
	var meta struct {
		DefaultBranch string `json:"default_branch"`
	}
	if err := c.get(ctx, token, "/repos/"+repo, nil, &meta); err != nil {
		c.logger.Warn("default branch lookup failed, assuming main",
			"repo", repo, "error", err)
		return "main"
	}
	if meta.DefaultBranch == "" {
		return "main"
	}
	return meta.DefaultBranch
}

// branchLimit caps how many branches are scanned per repository; beyond
// this the per-branch commit calls get too expensive.
const branchLimit = 25

// Branches returns up to branchLimit branch names, or nil on failure.
func (c *Client) Branches(ctx context.Context, token, repo string) []string {
	var items []struct {
		Name string `json:"name"`
	}
	params := url.Values{"per_page": {fmt.Sprint(branchLimit)}}
	if err := c.get(ctx, token, "/repos/"+repo+"/branches", params, &items); err != nil {
		c.logger.Warn("branch listing failed", "repo", repo, "error", err)
		return nil
	}

	names := make([]string, 0, len(items))
	for _, it := range items {
		if it.Name != "" {
			names = append(names, it.Name)
		}
	}
	return names
}

// commitItem mirrors the wire shape of one entry from the commits listing.
type commitItem struct {
	SHA    string `json:"sha"`
	Commit struct {
		Message string `json:"message"`
		Author  struct {
			Name string `json:"name"`
			Date string `json:"date"`
		} `json:"author"`
	} `json:"commit"`
	Author *struct {
		Login string `json:"login"`
	} `json:"author"`
}

// commits lists commits in the window, optionally restricted to a branch.
func (c *Client) commits(ctx context.Context, token, repo string, since, until time.Time, sha string) ([]commitItem, error) {
	params := url.Values{
		"since":    {since.UTC().Format(time.RFC3339)},
		"until":    {until.UTC().Format(time.RFC3339)},
		"per_page": {"100"},
	}
	if sha != "" {
		params.Set("sha", sha)
	}

	var items []commitItem
	if err := c.get(ctx, token, "/repos/"+repo+"/commits", params, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// prItem mirrors the wire shape of one entry from the pulls listing.
type prItem struct {
	Number    int    `json:"number"`
	Title     string `json:"title"`
	State     string `json:"state"`
	UpdatedAt string `json:"updated_at"`
	CreatedAt string `json:"created_at"`
	MergedAt  string `json:"merged_at"`
	User      *struct {
		Login string `json:"login"`
	} `json:"user"`
}

// pullRequests lists PRs of any state whose last update falls inside the
// window. The listing endpoint cannot filter server-side, so the most
// recently updated page is filtered here.
func (c *Client) pullRequests(ctx context.Context, token, repo string, since, until time.Time) ([]prItem, error) {
	params := url.Values{
		"state":     {"all"},
		"sort":      {"updated"},
		"direction": {"desc"},
		"per_page":  {"100"},
	}

	var items []prItem
	if err := c.get(ctx, token, "/repos/"+repo+"/pulls", params, &items); err != nil {
		return nil, err
	}

	out := make([]prItem, 0, len(items))
	for _, pr := range items {
		raw := pr.UpdatedAt
		if raw == "" {
			raw = pr.CreatedAt
		}
		if raw == "" {
			continue
		}
		updated, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			continue
		}
		if !updated.Before(since) && !updated.After(until) {
			out = append(out, pr)
		}
	}
	return out, nil
}
