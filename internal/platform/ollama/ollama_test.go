package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkessler/worklog-api/internal/analysis"
	"github.com/mkessler/worklog-api/internal/domain"
)

func testRequest() analysis.Request {
	return analysis.Request{
		Activity: &domain.Activity{
			Repo:  "acme/widget",
			Since: "2026-08-19T00:00:00Z",
			Until: "2026-08-26T00:00:00Z",
		},
		RangeLabel: "Last 7 days",
	}
}

func TestNewValidatesConfig(t *testing.T) {
	t.Parallel()

	_, err := New(nil, Config{Model: "llama3.1"})
	require.ErrorIs(t, err, analysis.ErrInvalidConfig)

	_, err = New(nil, Config{Host: "http://localhost:11434"})
	require.ErrorIs(t, err, analysis.ErrInvalidConfig)
}

func TestSummarizeSendsGenerateRequest(t *testing.T) {
	t.Parallel()

	var captured generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_ = json.NewEncoder(w).Encode(map[string]any{"response": `[{"title":"T","description":"D"}]`})
	}))
	defer srv.Close()

	b, err := New(nil, Config{Host: srv.URL, Model: "llama3.1", Temperature: 0.2})
	require.NoError(t, err)

	out, err := b.Summarize(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, `[{"title":"T","description":"D"}]`, out)

	assert.Equal(t, "llama3.1", captured.Model)
	assert.False(t, captured.Stream)
	assert.InDelta(t, 0.2, captured.Options.Temperature, 1e-9)
	assert.Contains(t, captured.Prompt, "acme/widget")
	assert.Contains(t, captured.Prompt, "Last 7 days")
}

func TestSummarizeTrailingSlashHostNormalized(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{"response": "ok"})
	}))
	defer srv.Close()

	b, err := New(nil, Config{Host: srv.URL + "/", Model: "llama3.1"})
	require.NoError(t, err)

	out, err := b.Summarize(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}

func TestSummarizeNon200IsExecutionFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model 'missing' not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	b, err := New(nil, Config{Host: srv.URL, Model: "missing"})
	require.NoError(t, err)

	_, err = b.Summarize(context.Background(), testRequest())
	require.ErrorIs(t, err, analysis.ErrExecutionFailed)
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), "not found")
}

func TestSummarizeUnreachableServer(t *testing.T) {
	t.Parallel()

	b, err := New(nil, Config{Host: "http://127.0.0.1:1", Model: "llama3.1"})
	require.NoError(t, err)

	_, err = b.Summarize(context.Background(), testRequest())
	require.ErrorIs(t, err, analysis.ErrBackendUnavailable)
}

func TestSummarizeMalformedResponse(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json at all"))
	}))
	defer srv.Close()

	b, err := New(nil, Config{Host: srv.URL, Model: "llama3.1"})
	require.NoError(t, err)

	_, err = b.Summarize(context.Background(), testRequest())
	require.ErrorIs(t, err, analysis.ErrInvalidResponse)
}

func TestBackendIdentity(t *testing.T) {
	t.Parallel()

	b, err := New(nil, Config{Host: "http://localhost:11434", Model: "llama3.1"})
	require.NoError(t, err)
	assert.Equal(t, "ollama", b.Name())
	assert.False(t, b.RequiresMirror())
}
