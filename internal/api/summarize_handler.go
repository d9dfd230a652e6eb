package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/mkessler/worklog-api/internal/api/shared"
	"github.com/mkessler/worklog-api/internal/domain"
	"github.com/mkessler/worklog-api/internal/job"
	"github.com/mkessler/worklog-api/internal/service/auth"
)

// Summarizer is the job pipeline surface the handler needs.
// Implemented by service.SummarizeService.
type Summarizer interface {
	StartJob(ctx context.Context, userID int64, token, repo string, rangeKind domain.RangeKind) (uuid.UUID, error)
	Status(jobID uuid.UUID) (job.Snapshot, error)
	Saved(ctx context.Context, userID int64, repo string, rangeKind domain.RangeKind) (*domain.SummaryRecord, error)
}

// SummarizeHandler exposes the analysis job pipeline over HTTP: start a
// job, poll its status, and read back previously saved results.
type SummarizeHandler struct {
	service  Summarizer
	registry *auth.TokenRegistry
	validate *validator.Validate
	logger   *slog.Logger
}

// NewSummarizeHandler creates a new SummarizeHandler with the given dependencies.
func NewSummarizeHandler(service Summarizer, registry *auth.TokenRegistry, logger *slog.Logger) *SummarizeHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SummarizeHandler{
		service:  service,
		registry: registry,
		validate: validator.New(),
		logger:   logger.With(slog.String("component", "summarize_handler")),
	}
}

// Start registers a new analysis job and returns its ID for polling.
func (h *SummarizeHandler) Start(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.UserID(r.Context())
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req StartSummarizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest,
			"owner, repo, and range (day|week|month) are required")
		return
	}

	token, err := h.registry.Get(userID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	repo := req.Owner + "/" + req.Repo
	jobID, err := h.service.StartJob(r.Context(), userID, token, repo, domain.RangeKind(req.Range))
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	h.logger.Info("summarize job started",
		slog.String("job_id", jobID.String()),
		slog.String("repo", repo),
		slog.String("range", req.Range))

	shared.RespondWithJSON(w, r, http.StatusAccepted, StartSummarizeResponse{JobID: jobID})
}

// Status returns the current snapshot of a job.
func (h *SummarizeHandler) Status(w http.ResponseWriter, r *http.Request) {
	if _, ok := shared.UserID(r.Context()); !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Not authenticated")
		return
	}

	jobID, err := uuid.Parse(chi.URLParam(r, "jobID"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid job ID")
		return
	}

	snap, err := h.service.Status(jobID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, JobStatusResponse{
		JobID:   snap.ID,
		Status:  snap.Status,
		Message: snap.Message,
		Result:  snap.Result,
		Error:   snap.Error,
		Log:     snap.LogTail,
	})
}

// Saved returns the stored summary for a repository and range, if any.
func (h *SummarizeHandler) Saved(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.UserID(r.Context())
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Not authenticated")
		return
	}

	query := r.URL.Query()
	owner := query.Get("owner")
	name := query.Get("repo")
	if owner == "" || name == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "owner and repo are required")
		return
	}

	rangeKind, err := domain.ParseRangeKind(query.Get("range"))
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	record, err := h.service.Saved(r.Context(), userID, owner+"/"+name, rangeKind)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, record)
}
