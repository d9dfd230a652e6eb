package analysis

import "errors"

// Common errors returned by analysis backends
var (
	// ErrBackendUnavailable is returned when no installed executable could
	// be found for any of the external tool's candidate command names.
	ErrBackendUnavailable = errors.New("analysis backend unavailable")

	// ErrAnalysisTimeout is returned when a backend invocation exceeds its
	// configured wall-clock limit. The underlying process is killed first.
	ErrAnalysisTimeout = errors.New("analysis timed out")

	// ErrExecutionFailed is returned when the backend process or API call
	// fails; the wrapped message carries the process diagnostics.
	ErrExecutionFailed = errors.New("analysis execution failed")

	// ErrInvalidResponse is returned when a hosted backend's response is
	// structurally unusable (no candidates, safety-blocked, and similar).
	ErrInvalidResponse = errors.New("invalid response from analysis backend")

	// ErrInvalidConfig is returned when a backend is constructed from an
	// incomplete or inconsistent configuration.
	ErrInvalidConfig = errors.New("invalid backend configuration")
)
