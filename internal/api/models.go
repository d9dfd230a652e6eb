package api

import (
	"github.com/google/uuid"

	"github.com/mkessler/worklog-api/internal/domain"
	"github.com/mkessler/worklog-api/internal/job"
)

// Common request/response structures

// StartSummarizeRequest defines the payload for starting an analysis job.
type StartSummarizeRequest struct {
	Owner string `json:"owner" validate:"required"`
	Repo  string `json:"repo"  validate:"required"`
	Range string `json:"range" validate:"required,oneof=day week month"`
}

// StartSummarizeResponse carries the ID of the newly registered job. The
// client polls the status endpoint with it.
type StartSummarizeResponse struct {
	JobID uuid.UUID `json:"job_id"`
}

// JobStatusResponse mirrors one job snapshot for polling clients.
type JobStatusResponse struct {
	JobID   uuid.UUID             `json:"job_id"`
	Status  job.Status            `json:"status"`
	Message string                `json:"message"`
	Result  *domain.SummaryRecord `json:"result,omitempty"`
	Error   string                `json:"error,omitempty"`
	Log     string                `json:"log_tail,omitempty"`
}

// AuthResponse defines the successful response for the OAuth callback when
// no frontend redirect is configured.
type AuthResponse struct {
	// UserID is the GitHub numeric ID of the authenticated user.
	UserID int64 `json:"user_id"`

	// AccessToken is the session JWT used for API authorization. It never
	// contains the GitHub access token, which stays server-side.
	AccessToken string `json:"token"`
}

// UserResponse is the authenticated user's profile.
type UserResponse struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}
