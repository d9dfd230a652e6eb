// Package gitlog extracts a bounded textual change log from a local
// repository mirror. Extraction is strictly best-effort: a timeout or a
// failing git invocation yields an empty log, which degrades analysis
// quality but never fails the surrounding job.
package gitlog

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"time"
)

// truncationNotice prefixes a log that was cut down to its tail. Recent
// changes matter more than old ones for a bounded context window, so the
// tail is what survives.
const truncationNotice = "[Output truncated; showing last %d characters.]\n"

// runGitFunc runs a git subcommand in dir and returns its stdout. Injectable
// so tests exercise the extractor without a git binary.
type runGitFunc func(ctx context.Context, dir string, args ...string) ([]byte, error)

// Extractor produces change logs for a time window across all branches of a
// local mirror.
type Extractor struct {
	logger *slog.Logger
	runGit runGitFunc
}

// NewExtractor creates an Extractor. If logger is nil, the default logger
// is used.
func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		logger: logger.With(slog.String("component", "gitlog")),
		runGit: runGit,
	}
}

// Extract runs `git log -p --all` scoped to [since, until] in repoPath and
// returns the output, tail-truncated to maxChars. It enforces the given
// wall-clock timeout and returns an empty string on timeout or on any git
// failure, never an error.
func (e *Extractor) Extract(
	ctx context.Context,
	repoPath string,
	since, until time.Time,
	maxChars int,
	timeout time.Duration,
) string {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := []string{
		"log", "-p", "--all",
		fmt.Sprintf("--since=%s", since.UTC().Format(time.RFC3339)),
		fmt.Sprintf("--until=%s", until.UTC().Format(time.RFC3339)),
	}

	out, err := e.runGit(ctx, repoPath, args...)
	if err != nil {
		// Timeout and non-zero exit both degrade to an empty log.
		e.logger.Warn("git log failed, continuing without history",
			"repo_path", repoPath,
			"error", err)
		return ""
	}

	return Truncate(string(out), maxChars)
}

// Truncate cuts text down to its last maxChars characters, prefixing a
// truncation notice. Text at or under the limit is returned unchanged.
func Truncate(text string, maxChars int) string {
	if len(text) <= maxChars {
		return text
	}
	return fmt.Sprintf(truncationNotice, maxChars) + text[len(text)-maxChars:]
}

// runGit is the real git runner: it executes the command in dir and lets
// the context deadline kill the process on timeout.
func runGit(ctx context.Context, dir string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	return cmd.Output()
}
