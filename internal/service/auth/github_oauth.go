package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mkessler/worklog-api/internal/config"
	"github.com/mkessler/worklog-api/internal/domain"
)

// GitHub OAuth endpoints; overridable for tests.
const (
	defaultAuthBase = "https://github.com"
	defaultAPIBase  = "https://api.github.com"
)

// oauthScope covers repository reads plus the user profile and org
// membership needed to list accessible repositories.
const oauthScope = "repo read:user read:org"

const oauthTimeout = 30 * time.Second

// GitHubOAuth drives the three-legged OAuth flow against GitHub.
type GitHubOAuth struct {
	logger       *slog.Logger
	clientID     string
	clientSecret string
	callbackURL  string
	authBase     string
	apiBase      string
	http         *http.Client
}

// NewGitHubOAuth creates the OAuth service from the auth configuration.
func NewGitHubOAuth(logger *slog.Logger, cfg config.AuthConfig) *GitHubOAuth {
	if logger == nil {
		logger = slog.Default()
	}
	return &GitHubOAuth{
		logger:       logger.With(slog.String("component", "github_oauth")),
		clientID:     cfg.GitHubClientID,
		clientSecret: cfg.GitHubClientSecret,
		callbackURL:  cfg.CallbackURL,
		authBase:     defaultAuthBase,
		apiBase:      defaultAPIBase,
		http:         &http.Client{Timeout: oauthTimeout},
	}
}

// Configured reports whether OAuth credentials are present; without them
// the login endpoint cannot work.
func (g *GitHubOAuth) Configured() bool {
	return g.clientID != ""
}

// AuthorizeURL builds the GitHub consent page URL for the given CSRF state.
func (g *GitHubOAuth) AuthorizeURL(state string) string {
	params := url.Values{
		"client_id":    {g.clientID},
		"redirect_uri": {g.callbackURL},
		"scope":        {oauthScope},
		"state":        {state},
	}
	return g.authBase + "/login/oauth/authorize?" + params.Encode()
}

// ExchangeCode trades an authorization code for an access token.
func (g *GitHubOAuth) ExchangeCode(ctx context.Context, code string) (string, error) {
	form := url.Values{
		"client_id":     {g.clientID},
		"client_secret": {g.clientSecret},
		"code":          {code},
		"redirect_uri":  {g.callbackURL},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.authBase+"/login/oauth/access_token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("%w: building request: %v", ErrOAuthExchange, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := g.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrOAuthExchange, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: token endpoint returned HTTP %d", ErrOAuthExchange, resp.StatusCode)
	}

	var payload struct {
		AccessToken      string `json:"access_token"`
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("%w: decoding response: %v", ErrOAuthExchange, err)
	}
	if payload.AccessToken == "" {
		detail := payload.ErrorDescription
		if detail == "" {
			detail = "no token in response"
		}
		return "", fmt.Errorf("%w: %s", ErrOAuthExchange, detail)
	}

	return payload.AccessToken, nil
}

// FetchUser resolves the authenticated user's profile for the token.
func (g *GitHubOAuth) FetchUser(ctx context.Context, accessToken string) (*domain.User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.apiBase+"/user", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %v", ErrOAuthExchange, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := g.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOAuthExchange, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrOAuthExchange, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: user endpoint returned HTTP %d", ErrOAuthExchange, resp.StatusCode)
	}

	var profile struct {
		ID        int64  `json:"id"`
		Login     string `json:"login"`
		Name      string `json:"name"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, fmt.Errorf("%w: decoding user: %v", ErrOAuthExchange, err)
	}
	if profile.ID == 0 {
		return nil, fmt.Errorf("%w: user response missing id", ErrOAuthExchange)
	}

	return &domain.User{
		ID:        profile.ID,
		Login:     profile.Login,
		Name:      profile.Name,
		AvatarURL: profile.AvatarURL,
	}, nil
}
