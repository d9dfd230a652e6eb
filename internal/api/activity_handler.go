package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mkessler/worklog-api/internal/api/shared"
	"github.com/mkessler/worklog-api/internal/domain"
	"github.com/mkessler/worklog-api/internal/service/auth"
)

// ActivityFetcher aggregates a repository's commits and pull requests for a
// window. Implemented by githubapi.Client.
type ActivityFetcher interface {
	Activity(ctx context.Context, token, repo string, since, until time.Time) (*domain.Activity, error)
}

// ActivityHandler serves the raw activity record without running any
// analysis, for clients that want the commit/PR listing directly.
type ActivityHandler struct {
	github   ActivityFetcher
	registry *auth.TokenRegistry
	logger   *slog.Logger

	now func() time.Time
}

// NewActivityHandler creates a new ActivityHandler with the given dependencies.
func NewActivityHandler(github ActivityFetcher, registry *auth.TokenRegistry, logger *slog.Logger) *ActivityHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ActivityHandler{
		github:   github,
		registry: registry,
		logger:   logger.With(slog.String("component", "activity_handler")),
		now:      time.Now,
	}
}

// Get returns the commits and pull requests for the repository in the given
// range (day, week, or month; default week).
func (h *ActivityHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.UserID(r.Context())
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Not authenticated")
		return
	}

	token, err := h.registry.Get(userID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	rangeParam := r.URL.Query().Get("range")
	if rangeParam == "" {
		rangeParam = string(domain.RangeWeek)
	}
	rangeKind, err := domain.ParseRangeKind(rangeParam)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	repo := chi.URLParam(r, "owner") + "/" + chi.URLParam(r, "repo")
	since, until := rangeKind.Dates(h.now())

	activity, err := h.github.Activity(r.Context(), token, repo, since, until)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, activity)
}
