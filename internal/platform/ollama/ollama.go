// Package ollama implements the analysis.Backend for a locally hosted
// Ollama server. Like the gemini backend it works solely from the rendered
// activity listing; no repository mirror is needed.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mkessler/worklog-api/internal/analysis"
)

// defaultTimeout bounds one generation request; local models can be slow
// on first load, so this is generous.
const defaultTimeout = 10 * time.Minute

// Config holds the settings for the Ollama backend.
type Config struct {
	// Host is the server base URL, e.g. "http://localhost:11434".
	Host string

	// Model is the model tag, e.g. "llama3.1".
	Model string

	// Temperature controls sampling; zero keeps the server default.
	Temperature float64
}

// Backend talks to the Ollama HTTP API. It implements analysis.Backend.
type Backend struct {
	logger *slog.Logger
	config Config
	client *http.Client
}

// New creates the Ollama backend after validating the configuration.
func New(logger *slog.Logger, cfg Config) (*Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.Host == "" {
		return nil, fmt.Errorf("%w: ollama host cannot be empty", analysis.ErrInvalidConfig)
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: ollama model cannot be empty", analysis.ErrInvalidConfig)
	}
	cfg.Host = strings.TrimRight(cfg.Host, "/")

	return &Backend{
		logger: logger.With(slog.String("component", "ollama")),
		config: cfg,
		client: &http.Client{Timeout: defaultTimeout},
	}, nil
}

// Ensure Backend implements the analysis.Backend interface
var _ analysis.Backend = (*Backend)(nil)

// Name implements analysis.Backend.Name.
func (b *Backend) Name() string { return "ollama" }

// RequiresMirror implements analysis.Backend.RequiresMirror.
func (b *Backend) RequiresMirror() bool { return false }

// generateRequest is the /api/generate request body. Streaming is disabled
// so the whole completion arrives as a single JSON document.
type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options,omitempty"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Summarize sends the activity listing to the Ollama server and returns
// the raw completion text.
func (b *Backend) Summarize(ctx context.Context, req analysis.Request) (string, error) {
	prompt := analysis.TasksPrompt(req.Activity.Repo, req.RangeLabel, req.Activity.Text())

	body, err := json.Marshal(generateRequest{
		Model:   b.config.Model,
		Prompt:  prompt,
		Stream:  false,
		Options: generateOptions{Temperature: b.config.Temperature},
	})
	if err != nil {
		return "", fmt.Errorf("%w: encoding request: %v", analysis.ErrExecutionFailed, err)
	}

	url := b.config.Host + "/api/generate"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: building request: %v", analysis.ErrExecutionFailed, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	b.logger.InfoContext(ctx, "calling ollama",
		"model", b.config.Model,
		"prompt_length", len(prompt))

	resp, err := b.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: ollama server unreachable: %v", analysis.ErrBackendUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: reading response: %v", analysis.ErrExecutionFailed, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: ollama returned HTTP %d: %s",
			analysis.ErrExecutionFailed, resp.StatusCode, truncateForError(payload))
	}

	var decoded generateResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return "", fmt.Errorf("%w: decoding response: %v", analysis.ErrInvalidResponse, err)
	}

	return decoded.Response, nil
}

// truncateForError keeps error messages readable when the server returns a
// large body.
func truncateForError(body []byte) string {
	const limit = 300
	s := strings.TrimSpace(string(body))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
