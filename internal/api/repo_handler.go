package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/mkessler/worklog-api/internal/api/shared"
	"github.com/mkessler/worklog-api/internal/githubapi"
	"github.com/mkessler/worklog-api/internal/service/auth"
)

// RepoLister lists the repositories visible to a GitHub token.
// Implemented by githubapi.Client.
type RepoLister interface {
	ListRepos(ctx context.Context, token string) ([]githubapi.Repo, error)
}

// RepoHandler serves the authenticated user's repository listing.
type RepoHandler struct {
	github   RepoLister
	registry *auth.TokenRegistry
	logger   *slog.Logger
}

// NewRepoHandler creates a new RepoHandler with the given dependencies.
func NewRepoHandler(github RepoLister, registry *auth.TokenRegistry, logger *slog.Logger) *RepoHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RepoHandler{
		github:   github,
		registry: registry,
		logger:   logger.With(slog.String("component", "repo_handler")),
	}
}

// ListRepos returns the repositories the user's GitHub token can see,
// most recently updated first.
func (h *RepoHandler) ListRepos(w http.ResponseWriter, r *http.Request) {
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

	repos, err := h.github.ListRepos(r.Context(), token)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, repos)
}
