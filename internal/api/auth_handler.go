package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"github.com/mkessler/worklog-api/internal/api/shared"
	"github.com/mkessler/worklog-api/internal/config"
	"github.com/mkessler/worklog-api/internal/domain"
	"github.com/mkessler/worklog-api/internal/redact"
	"github.com/mkessler/worklog-api/internal/service/auth"
	"github.com/mkessler/worklog-api/internal/store"
)

// stateCookieName holds the OAuth CSRF state between the login redirect and
// the callback.
const stateCookieName = "oauth_state"

// OAuthProvider is the subset of the GitHub OAuth flow the handler needs.
// Implemented by auth.GitHubOAuth.
type OAuthProvider interface {
	Configured() bool
	AuthorizeURL(state string) string
	ExchangeCode(ctx context.Context, code string) (string, error)
	FetchUser(ctx context.Context, accessToken string) (*domain.User, error)
}

// AuthHandler implements the GitHub OAuth login flow and session endpoints.
type AuthHandler struct {
	oauth       OAuthProvider
	jwtService  auth.JWTService
	users       store.UserStore
	registry    *auth.TokenRegistry
	frontendURL string
	logger      *slog.Logger
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(
	oauth OAuthProvider,
	jwtService auth.JWTService,
	users store.UserStore,
	registry *auth.TokenRegistry,
	cfg *config.AuthConfig,
	logger *slog.Logger,
) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{
		oauth:       oauth,
		jwtService:  jwtService,
		users:       users,
		registry:    registry,
		frontendURL: cfg.FrontendURL,
		logger:      logger.With(slog.String("component", "auth_handler")),
	}
}

// Login starts the OAuth flow: it sets a CSRF state cookie and redirects
// the browser to GitHub's authorization page.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !h.oauth.Configured() {
		shared.RespondWithError(w, r, http.StatusServiceUnavailable,
			"GitHub OAuth is not configured")
		return
	}

	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.oauth.AuthorizeURL(state), http.StatusFound)
}

// Callback completes the OAuth flow: it verifies the state, exchanges the
// code for a GitHub access token, upserts the user, stores the token
// server-side, and issues a session JWT. The GitHub token itself never
// leaves the server.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	code := query.Get("code")
	state := query.Get("state")
	if code == "" || state == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Missing code or state")
		return
	}

	cookie, err := r.Cookie(stateCookieName)
	if err != nil || cookie.Value != state {
		h.logger.Warn("OAuth state mismatch", slog.String("path", r.URL.Path))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid OAuth state")
		return
	}

	// Single use: the state is spent whether or not the exchange succeeds.
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	accessToken, err := h.oauth.ExchangeCode(r.Context(), code)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	user, err := h.oauth.FetchUser(r.Context(), accessToken)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to fetch GitHub profile")
		return
	}

	if err := h.users.Upsert(r.Context(), user); err != nil {
		h.logger.Error("failed to upsert user",
			slog.Int64("user_id", user.ID),
			slog.String("error", redact.Error(err)))
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to store user", err)
		return
	}

	h.registry.Set(user.ID, accessToken)

	sessionToken, err := h.jwtService.GenerateToken(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("failed to generate session token",
			slog.Int64("user_id", user.ID),
			slog.String("error", redact.Error(err)))
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to create session", err)
		return
	}

	h.logger.Info("user logged in",
		slog.Int64("user_id", user.ID),
		slog.String("login", user.Login))

	if h.frontendURL != "" {
		// The token travels in the URL fragment, which browsers keep
		// client-side.
		target := fmt.Sprintf("%s/dashboard#token=%s", h.frontendURL, url.QueryEscape(sessionToken))
		http.Redirect(w, r, target, http.StatusFound)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, AuthResponse{
		UserID:      user.ID,
		AccessToken: sessionToken,
	})
}

// Me returns the authenticated user's stored profile.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.UserID(r.Context())
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Not authenticated")
		return
	}

	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, UserResponse{
		ID:        user.ID,
		Login:     user.Login,
		Name:      user.Name,
		AvatarURL: user.AvatarURL,
	})
}

// Logout drops the server-side GitHub token. The session JWT simply expires;
// without the GitHub token it can no longer reach any repository data.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.UserID(r.Context())
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Not authenticated")
		return
	}

	h.registry.Delete(userID)
	shared.RespondWithJSON(w, r, http.StatusOK, map[string]string{"status": "logged out"})
}
