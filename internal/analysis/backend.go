package analysis

import (
	"context"

	"github.com/mkessler/worklog-api/internal/domain"
)

// Request carries everything a backend may need to produce its raw
// response. MirrorPath and GitLog are only populated for backends that
// report RequiresMirror.
type Request struct {
	// Activity is the aggregated commit/PR record for the window.
	Activity *domain.Activity

	// RangeLabel is the human-readable window description for prompts.
	RangeLabel string

	// MirrorPath is the local working copy the external tool runs in.
	MirrorPath string

	// GitLog is the pre-extracted change log, possibly empty.
	GitLog string

	// OnOutput, when non-nil, receives backend output line-by-line as it
	// arrives so callers can show live progress. It must not block.
	OnOutput func(line string)
}

// Backend is the capability interface every analysis backend implements.
// Implementations return the raw response text; recovering the structured
// task list from it is the parser's job, shared across backends.
type Backend interface {
	// Name identifies the backend kind, e.g. "agent" or "gemini".
	Name() string

	// RequiresMirror reports whether the backend analyzes a local working
	// copy. When false, the job pipeline skips the cloning and history
	// extraction stages entirely.
	RequiresMirror() bool

	// Summarize produces the backend's raw response for the request.
	// Failures are reported through the package error taxonomy.
	Summarize(ctx context.Context, req Request) (string, error)
}
