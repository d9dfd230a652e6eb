package api

import (
	"errors"
	"net/http"

	"github.com/mkessler/worklog-api/internal/api/shared"
	"github.com/mkessler/worklog-api/internal/domain"
	"github.com/mkessler/worklog-api/internal/githubapi"
	"github.com/mkessler/worklog-api/internal/service"
	"github.com/mkessler/worklog-api/internal/service/auth"
	"github.com/mkessler/worklog-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrNotLoggedIn):
		return http.StatusUnauthorized

	// Not found errors
	case errors.Is(err, store.ErrUserNotFound),
		errors.Is(err, store.ErrSummaryNotFound),
		errors.Is(err, service.ErrJobNotFound):
		return http.StatusNotFound

	// Bad request errors
	case errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, domain.ErrInvalidRangeKind):
		return http.StatusBadRequest

	// Upstream GitHub failures
	case errors.Is(err, githubapi.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, githubapi.ErrAPIFailure):
		return http.StatusBadGateway

	// OAuth exchange failures surface as a gateway problem, not ours
	case errors.Is(err, auth.ErrOAuthExchange):
		return http.StatusBadGateway

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken):
		return "Invalid token"

	case errors.Is(err, auth.ErrNotLoggedIn):
		return "Not logged in to GitHub"

	case errors.Is(err, store.ErrUserNotFound):
		return "User not found"

	case errors.Is(err, store.ErrSummaryNotFound):
		return "No saved summary for this repository and range"

	case errors.Is(err, service.ErrJobNotFound):
		return "Job not found"

	case errors.Is(err, domain.ErrInvalidRangeKind):
		return "Range must be one of: day, week, month"

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid request data"

	case errors.Is(err, githubapi.ErrRateLimited):
		return "GitHub rate limit exceeded, try again later"

	case errors.Is(err, githubapi.ErrAPIFailure):
		return "GitHub API request failed"

	case errors.Is(err, auth.ErrOAuthExchange):
		return "GitHub login failed"

	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError maps err to a status code and safe message and writes the
// response. An explicit userMessage overrides the derived one.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, userMessage string) {
	status := MapErrorToStatusCode(err)
	if userMessage == "" {
		userMessage = GetSafeErrorMessage(err)
	}
	shared.RespondWithErrorAndLog(w, r, status, userMessage, err)
}
