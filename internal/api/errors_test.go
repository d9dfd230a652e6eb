package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mkessler/worklog-api/internal/domain"
	"github.com/mkessler/worklog-api/internal/githubapi"
	"github.com/mkessler/worklog-api/internal/service"
	"github.com/mkessler/worklog-api/internal/service/auth"
	"github.com/mkessler/worklog-api/internal/store"
)

func TestMapErrorToStatusCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want int
	}{
		{auth.ErrInvalidToken, http.StatusUnauthorized},
		{auth.ErrExpiredToken, http.StatusUnauthorized},
		{auth.ErrNotLoggedIn, http.StatusUnauthorized},
		{store.ErrUserNotFound, http.StatusNotFound},
		{store.ErrSummaryNotFound, http.StatusNotFound},
		{service.ErrJobNotFound, http.StatusNotFound},
		{store.ErrInvalidEntity, http.StatusBadRequest},
		{domain.ErrInvalidRangeKind, http.StatusBadRequest},
		{githubapi.ErrRateLimited, http.StatusTooManyRequests},
		{githubapi.ErrAPIFailure, http.StatusBadGateway},
		{auth.ErrOAuthExchange, http.StatusBadGateway},
		{errors.New("something else"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, MapErrorToStatusCode(tc.err), "error: %v", tc.err)
	}
}

func TestMapErrorToStatusCodeWrapped(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("starting job: %w", domain.ErrInvalidRangeKind)
	assert.Equal(t, http.StatusBadRequest, MapErrorToStatusCode(wrapped))
}

func TestGetSafeErrorMessage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "An unexpected error occurred", GetSafeErrorMessage(nil))
	assert.Equal(t, "Invalid token", GetSafeErrorMessage(auth.ErrExpiredToken))
	assert.Equal(t, "Job not found", GetSafeErrorMessage(service.ErrJobNotFound))

	// Unknown errors never echo their contents to the client.
	leaky := errors.New("pq: password authentication failed for user postgres")
	msg := GetSafeErrorMessage(leaky)
	assert.Equal(t, "An unexpected error occurred", msg)
	assert.NotContains(t, msg, "postgres")
}
