package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkessler/worklog-api/internal/domain"
	"github.com/mkessler/worklog-api/internal/githubapi"
	"github.com/mkessler/worklog-api/internal/service/auth"
)

type fakeActivityFetcher struct {
	activity  *domain.Activity
	err       error
	lastRepo  string
	lastSince time.Time
	lastUntil time.Time
}

func (f *fakeActivityFetcher) Activity(ctx context.Context, token, repo string, since, until time.Time) (*domain.Activity, error) {
	f.lastRepo = repo
	f.lastSince = since
	f.lastUntil = until
	if f.err != nil {
		return nil, f.err
	}
	return f.activity, nil
}

func activityRequest(t *testing.T, h *ActivityHandler, path string, userID int64) *httptest.ResponseRecorder {
	t.Helper()

	router := chi.NewRouter()
	router.Get("/api/activity/{owner}/{repo}", h.Get)

	r := httptest.NewRequest(http.MethodGet, path, nil)
	if userID != 0 {
		r = authed(r, userID)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	return w
}

func TestGetActivity(t *testing.T) {
	t.Parallel()

	fetcher := &fakeActivityFetcher{activity: &domain.Activity{
		Repo:    "acme/widget",
		Commits: []domain.Commit{{SHA: "abc1234", Message: "Fix parser"}},
	}}
	registry := auth.NewTokenRegistry()
	registry.Set(42, "gho_t")
	h := NewActivityHandler(fetcher, registry, nil)
	now := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return now }

	w := activityRequest(t, h, "/api/activity/acme/widget?range=day", 42)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "acme/widget", fetcher.lastRepo)
	assert.Equal(t, now.AddDate(0, 0, -1), fetcher.lastSince)
	assert.Equal(t, now, fetcher.lastUntil)

	var activity domain.Activity
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &activity))
	require.Len(t, activity.Commits, 1)
	assert.Equal(t, "abc1234", activity.Commits[0].SHA)
}

func TestGetActivityDefaultsToWeek(t *testing.T) {
	t.Parallel()

	fetcher := &fakeActivityFetcher{activity: &domain.Activity{Repo: "acme/widget"}}
	registry := auth.NewTokenRegistry()
	registry.Set(42, "gho_t")
	h := NewActivityHandler(fetcher, registry, nil)
	now := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return now }

	w := activityRequest(t, h, "/api/activity/acme/widget", 42)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, now.AddDate(0, 0, -7), fetcher.lastSince)
}

func TestGetActivityInvalidRange(t *testing.T) {
	t.Parallel()

	registry := auth.NewTokenRegistry()
	registry.Set(42, "gho_t")
	h := NewActivityHandler(&fakeActivityFetcher{}, registry, nil)

	w := activityRequest(t, h, "/api/activity/acme/widget?range=quarter", 42)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetActivityNotLoggedIn(t *testing.T) {
	t.Parallel()

	h := NewActivityHandler(&fakeActivityFetcher{}, auth.NewTokenRegistry(), nil)

	w := activityRequest(t, h, "/api/activity/acme/widget", 42)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetActivityUpstreamFailure(t *testing.T) {
	t.Parallel()

	registry := auth.NewTokenRegistry()
	registry.Set(42, "gho_t")
	h := NewActivityHandler(&fakeActivityFetcher{err: githubapi.ErrAPIFailure}, registry, nil)

	w := activityRequest(t, h, "/api/activity/acme/widget", 42)

	assert.Equal(t, http.StatusBadGateway, w.Code)
}
