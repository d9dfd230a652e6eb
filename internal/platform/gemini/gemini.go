// Package gemini implements the hosted analysis.Backend using Google's
// Gemini API. It never touches a repository mirror: the prompt carries the
// rendered activity listing, and transient API failures are retried with
// exponential backoff and jitter.
package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"google.golang.org/genai"

	"github.com/mkessler/worklog-api/internal/analysis"
)

// Config holds the settings for the Gemini backend.
type Config struct {
	APIKey            string
	Model             string
	MaxRetries        int
	RetryDelaySeconds int
}

// Backend calls the Gemini API. It implements analysis.Backend.
type Backend struct {
	logger *slog.Logger
	client *genai.Client
	model  string

	maxRetries       int
	baseDelaySeconds int

	// generate and sleep are indirections for tests; production uses the
	// real API client and timer.
	generate func(ctx context.Context, prompt string) (*genai.GenerateContentResponse, error)
	sleep    func(ctx context.Context, d time.Duration) error
	rng      *rand.Rand
}

// New creates the Gemini backend, validating the configuration and
// initializing the API client.
func New(ctx context.Context, logger *slog.Logger, cfg Config) (*Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", analysis.ErrInvalidConfig)
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", analysis.ErrInvalidConfig)
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelaySeconds < 1 {
		cfg.RetryDelaySeconds = 2
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", analysis.ErrInvalidConfig, err)
	}

	b := &Backend{
		logger:           logger.With(slog.String("component", "gemini")),
		client:           client,
		model:            cfg.Model,
		maxRetries:       cfg.MaxRetries,
		baseDelaySeconds: cfg.RetryDelaySeconds,
		rng:              rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	b.generate = b.callAPI
	b.sleep = func(ctx context.Context, d time.Duration) error {
		select {
		case <-time.After(d):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return b, nil
}

// Ensure Backend implements the analysis.Backend interface
var _ analysis.Backend = (*Backend)(nil)

// Name implements analysis.Backend.Name.
func (b *Backend) Name() string { return "gemini" }

// RequiresMirror implements analysis.Backend.RequiresMirror.
func (b *Backend) RequiresMirror() bool { return false }

// Summarize sends the activity listing to the Gemini API and returns the
// raw response text. API call failures are treated as transient and
// retried; a malformed or safety-blocked response is permanent.
func (b *Backend) Summarize(ctx context.Context, req analysis.Request) (string, error) {
	prompt := analysis.TasksPrompt(req.Activity.Repo, req.RangeLabel, req.Activity.Text())

	for attempt := 0; ; attempt++ {
		attemptNum := attempt + 1
		b.logger.InfoContext(ctx, "making Gemini API call",
			"attempt", attemptNum,
			"max_attempts", b.maxRetries+1)

		resp, err := b.generate(ctx, prompt)
		if err == nil {
			text, extractErr := extractText(resp)
			if extractErr != nil {
				// Structural problems do not improve with retries.
				return "", extractErr
			}
			b.logger.InfoContext(ctx, "Gemini API call successful", "attempt", attemptNum)
			return text, nil
		}

		b.logger.ErrorContext(ctx, "Gemini API call failed",
			"attempt", attemptNum,
			"error", err)

		if attempt >= b.maxRetries {
			return "", fmt.Errorf("%w: exceeded maximum retry attempts (%d): %v",
				analysis.ErrExecutionFailed, b.maxRetries, err)
		}

		// delay = baseDelay * 2^attempt * jitter in [0.5, 1.0)
		backoffSeconds := float64(b.baseDelaySeconds) * math.Pow(2, float64(attempt))
		jitter := 0.5 + b.rng.Float64()*0.5
		delay := time.Duration(backoffSeconds * jitter * float64(time.Second))

		b.logger.InfoContext(ctx, "retrying after delay",
			"attempt", attemptNum,
			"delay", delay.String())

		if err := b.sleep(ctx, delay); err != nil {
			return "", fmt.Errorf("%w: %v", analysis.ErrExecutionFailed, err)
		}
	}
}

// callAPI performs one real GenerateContent request.
func (b *Backend) callAPI(ctx context.Context, prompt string) (*genai.GenerateContentResponse, error) {
	return b.client.Models.GenerateContent(ctx, b.model, genai.Text(prompt), nil)
}

// extractText pulls the concatenated text parts out of a response,
// classifying structurally unusable responses as permanent errors.
func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("%w: nil response", analysis.ErrInvalidResponse)
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no content generated", analysis.ErrInvalidResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: content blocked by safety filters", analysis.ErrInvalidResponse)
	}
	if candidate.Content == nil {
		return "", fmt.Errorf("%w: empty content in response", analysis.ErrInvalidResponse)
	}

	text := ""
	for _, part := range candidate.Content.Parts {
		if part != nil {
			text += part.Text
		}
	}
	if text == "" {
		return "", fmt.Errorf("%w: response contained no text parts", analysis.ErrInvalidResponse)
	}
	return text, nil
}
