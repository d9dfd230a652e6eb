package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkessler/worklog-api/internal/config"
)

func newTestOAuth(t *testing.T, handler http.Handler) *GitHubOAuth {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	g := NewGitHubOAuth(nil, config.AuthConfig{
		GitHubClientID:     "client-id",
		GitHubClientSecret: "client-secret",
		CallbackURL:        "http://localhost:8080/auth/callback",
	})
	g.authBase = srv.URL
	g.apiBase = srv.URL
	return g
}

func TestAuthorizeURL(t *testing.T) {
	t.Parallel()

	g := NewGitHubOAuth(nil, config.AuthConfig{
		GitHubClientID: "client-id",
		CallbackURL:    "http://localhost:8080/auth/callback",
	})

	raw := g.AuthorizeURL("state-123")
	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "/login/oauth/authorize", parsed.Path)
	assert.Equal(t, "client-id", parsed.Query().Get("client_id"))
	assert.Equal(t, "state-123", parsed.Query().Get("state"))
	assert.Equal(t, "repo read:user read:org", parsed.Query().Get("scope"))
}

func TestExchangeCodeSuccess(t *testing.T) {
	t.Parallel()

	g := newTestOAuth(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/login/oauth/access_token", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client-id", r.PostForm.Get("client_id"))
		assert.Equal(t, "client-secret", r.PostForm.Get("client_secret"))
		assert.Equal(t, "the-code", r.PostForm.Get("code"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))

		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "gho_abc"})
	}))

	token, err := g.ExchangeCode(context.Background(), "the-code")
	require.NoError(t, err)
	assert.Equal(t, "gho_abc", token)
}

func TestExchangeCodeErrorPayload(t *testing.T) {
	t.Parallel()

	g := newTestOAuth(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error":             "bad_verification_code",
			"error_description": "The code passed is incorrect or expired.",
		})
	}))

	_, err := g.ExchangeCode(context.Background(), "stale-code")
	require.ErrorIs(t, err, ErrOAuthExchange)
	assert.Contains(t, err.Error(), "incorrect or expired")
}

func TestExchangeCodeHTTPFailure(t *testing.T) {
	t.Parallel()

	g := newTestOAuth(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))

	_, err := g.ExchangeCode(context.Background(), "code")
	require.ErrorIs(t, err, ErrOAuthExchange)
}

func TestFetchUser(t *testing.T) {
	t.Parallel()

	g := newTestOAuth(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/user", r.URL.Path)
		assert.Equal(t, "Bearer gho_abc", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":         int64(98765),
			"login":      "alice",
			"name":       "Alice Example",
			"avatar_url": "https://avatars.example/alice",
		})
	}))

	user, err := g.FetchUser(context.Background(), "gho_abc")
	require.NoError(t, err)
	assert.Equal(t, int64(98765), user.ID)
	assert.Equal(t, "alice", user.Login)
	assert.Equal(t, "Alice Example", user.Name)
}

func TestFetchUserMissingID(t *testing.T) {
	t.Parallel()

	g := newTestOAuth(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"login": "alice"})
	}))

	_, err := g.FetchUser(context.Background(), "gho_abc")
	require.ErrorIs(t, err, ErrOAuthExchange)
}

func TestConfigured(t *testing.T) {
	t.Parallel()

	assert.False(t, NewGitHubOAuth(nil, config.AuthConfig{}).Configured())
	assert.True(t, NewGitHubOAuth(nil, config.AuthConfig{GitHubClientID: "x"}).Configured())
}
