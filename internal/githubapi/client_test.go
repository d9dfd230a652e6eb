package githubapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGitHub serves canned JSON per path, recording requests.
type fakeGitHub struct {
	t        *testing.T
	mux      *http.ServeMux
	requests []*http.Request
}

func newFakeGitHub(t *testing.T) (*fakeGitHub, *httptest.Server) {
	t.Helper()
	f := &fakeGitHub{t: t, mux: http.NewServeMux()}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.requests = append(f.requests, r.Clone(r.Context()))
		f.mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeGitHub) respond(path string, payload any) {
	f.mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		require.NoError(f.t, json.NewEncoder(w).Encode(payload))
	})
}

func TestListRepos(t *testing.T) {
	t.Parallel()

	f, srv := newFakeGitHub(t)
	f.respond("/user/repos", []map[string]any{
		{"full_name": "acme/widget", "private": true, "language": "Go"},
		{"full_name": "acme/gadget", "private": false},
	})

	c := NewClient(nil, srv.URL)
	repos, err := c.ListRepos(context.Background(), "tok-abc")
	require.NoError(t, err)
	require.Len(t, repos, 2)
	assert.Equal(t, "acme/widget", repos[0].FullName)
	assert.True(t, repos[0].Private)
	assert.Equal(t, "Go", repos[0].Language)

	req := f.requests[0]
	assert.Equal(t, "Bearer tok-abc", req.Header.Get("Authorization"))
	assert.Equal(t, "application/vnd.github.v3+json", req.Header.Get("Accept"))
	assert.Equal(t, "updated", req.URL.Query().Get("sort"))
	assert.Equal(t, "owner,collaborator,organization_member", req.URL.Query().Get("affiliation"))
}

func TestListReposRateLimited(t *testing.T) {
	t.Parallel()

	f, srv := newFakeGitHub(t)
	f.mux.HandleFunc("/user/repos", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"API rate limit exceeded for user"}`, http.StatusForbidden)
	})

	c := NewClient(nil, srv.URL)
	_, err := c.ListRepos(context.Background(), "tok")
	require.ErrorIs(t, err, ErrRateLimited)
}

func TestListReposOtherForbidden(t *testing.T) {
	t.Parallel()

	f, srv := newFakeGitHub(t)
	f.mux.HandleFunc("/user/repos", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Resource not accessible"}`, http.StatusForbidden)
	})

	c := NewClient(nil, srv.URL)
	_, err := c.ListRepos(context.Background(), "tok")
	require.ErrorIs(t, err, ErrAPIFailure)
	assert.NotErrorIs(t, err, ErrRateLimited)
}

func TestDefaultBranchFallsBackToMain(t *testing.T) {
	t.Parallel()

	f, srv := newFakeGitHub(t)
	f.mux.HandleFunc("/repos/acme/widget", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	f.respond("/repos/acme/empty", map[string]any{})

	c := NewClient(nil, srv.URL)
	assert.Equal(t, "main", c.DefaultBranch(context.Background(), "tok", "acme/widget"))
	assert.Equal(t, "main", c.DefaultBranch(context.Background(), "tok", "acme/empty"))
}

func TestBranchesCapAndFailure(t *testing.T) {
	t.Parallel()

	f, srv := newFakeGitHub(t)
	f.respond("/repos/acme/widget/branches", []map[string]any{
		{"name": "main"}, {"name": "feature"}, {"name": ""},
	})

	c := NewClient(nil, srv.URL)
	branches := c.Branches(context.Background(), "tok", "acme/widget")
	assert.Equal(t, []string{"main", "feature"}, branches)

	req := f.requests[0]
	assert.Equal(t, "25", req.URL.Query().Get("per_page"))

	assert.Nil(t, c.Branches(context.Background(), "tok", "acme/unknown"))
}

// activityFixture wires a small two-branch repository: commit aaa is on
// both branches, bbb only on the default branch, ccc only on the feature
// branch.
func activityFixture(t *testing.T) *httptest.Server {
	t.Helper()
	f, srv := newFakeGitHub(t)

	f.respond("/repos/acme/widget", map[string]any{"default_branch": "main"})
	f.respond("/repos/acme/widget/branches", []map[string]any{
		{"name": "feature"}, {"name": "main"},
	})

	commit := func(sha, message, author, date string) map[string]any {
		return map[string]any{
			"sha": sha,
			"commit": map[string]any{
				"message": message,
				"author":  map[string]any{"name": author, "date": date},
			},
		}
	}

	f.mux.HandleFunc("/repos/acme/widget/commits", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		var payload []map[string]any
		switch r.URL.Query().Get("sha") {
		case "main":
			payload = []map[string]any{
				commit("aaa1111222233334444", "Merge branch feature\n\ndetails", "Alice", "2026-08-24T10:00:00Z"),
				commit("bbb1111222233334444", "Fix lock ordering", "Bob", "2026-08-23T09:00:00Z"),
			}
		case "feature":
			payload = []map[string]any{
				commit("aaa1111222233334444", "Merge branch feature\n\ndetails", "Alice", "2026-08-24T10:00:00Z"),
				commit("ccc1111222233334444", "WIP parser", "", "2026-08-25T08:00:00Z"),
			}
		}
		require.NoError(t, json.NewEncoder(w).Encode(payload))
	})

	f.respond("/repos/acme/widget/pulls", []map[string]any{
		{
			"number": 7, "title": "Parser rework", "state": "open",
			"updated_at": "2026-08-24T12:00:00Z",
			"user":       map[string]any{"login": "carol"},
		},
		{
			"number": 6, "title": "Old cleanup", "state": "closed",
			"updated_at": "2026-07-01T12:00:00Z",
			"merged_at":  "2026-07-01T12:00:00Z",
		},
	})

	return srv
}

func TestActivityAggregation(t *testing.T) {
	t.Parallel()

	srv := activityFixture(t)
	c := NewClient(nil, srv.URL)

	since := time.Date(2026, 8, 19, 0, 0, 0, 0, time.UTC)
	until := time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)

	activity, err := c.Activity(context.Background(), "tok", "acme/widget", since, until)
	require.NoError(t, err)

	assert.Equal(t, "acme/widget", activity.Repo)
	assert.Equal(t, "main", activity.DefaultBranch)
	assert.Equal(t, []string{"feature", "main"}, activity.Branches)
	assert.Equal(t, "2026-08-19T00:00:00Z", activity.Since)

	require.Len(t, activity.Commits, 3, "shared commit must be deduplicated")

	// Sorted by date descending.
	assert.Equal(t, "ccc1111", activity.Commits[0].SHA)
	assert.Equal(t, "aaa1111", activity.Commits[1].SHA)
	assert.Equal(t, "bbb1111", activity.Commits[2].SHA)

	// The shared commit is attributed to the default branch and merged.
	shared := activity.Commits[1]
	assert.Equal(t, "main", shared.Branch)
	assert.True(t, shared.Merged)
	assert.Equal(t, "Merge branch feature", shared.Message, "only the first message line is kept")

	// The feature-only commit is unmerged with the author placeholder.
	wip := activity.Commits[0]
	assert.Equal(t, "feature", wip.Branch)
	assert.False(t, wip.Merged)
	assert.Equal(t, "?", wip.Author)

	// Only the PR updated inside the window survives.
	require.Len(t, activity.PullRequests, 1)
	assert.Equal(t, 7, activity.PullRequests[0].Number)
	assert.Equal(t, "carol", activity.PullRequests[0].User)
}

func TestActivityDefaultBranchListingFailureIsFatal(t *testing.T) {
	t.Parallel()

	f, srv := newFakeGitHub(t)
	f.respond("/repos/acme/widget", map[string]any{"default_branch": "main"})
	f.respond("/repos/acme/widget/branches", []map[string]any{{"name": "main"}})
	f.mux.HandleFunc("/repos/acme/widget/commits", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})

	c := NewClient(nil, srv.URL)
	_, err := c.Activity(context.Background(), "tok", "acme/widget",
		time.Now().Add(-24*time.Hour), time.Now())
	require.ErrorIs(t, err, ErrAPIFailure)
}

func TestActivityNoBranchesFallsBackToDefault(t *testing.T) {
	t.Parallel()

	f, srv := newFakeGitHub(t)
	f.respond("/repos/acme/widget", map[string]any{"default_branch": "trunk"})
	f.mux.HandleFunc("/repos/acme/widget/branches", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	f.respond("/repos/acme/widget/commits", []map[string]any{})
	f.respond("/repos/acme/widget/pulls", []map[string]any{})

	c := NewClient(nil, srv.URL)
	activity, err := c.Activity(context.Background(), "tok", "acme/widget",
		time.Now().Add(-24*time.Hour), time.Now())
	require.NoError(t, err)
	assert.Equal(t, []string{"trunk"}, activity.Branches)
	assert.Empty(t, activity.Commits)
}
