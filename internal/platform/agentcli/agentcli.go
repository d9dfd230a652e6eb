// Package agentcli implements the analysis.Backend that drives an external
// analysis CLI inside a repository mirror. The tool ships under more than
// one command name, so invocation falls back across a prioritized candidate
// list; output is streamed line-by-line while the process runs; a hard
// wall-clock timeout kills the whole process group.
package agentcli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/mkessler/worklog-api/internal/analysis"
)

// scannerBufferSize allows single output lines up to 1 MiB; the default
// bufio.Scanner limit is too small for diff-heavy tool output.
const scannerBufferSize = 1024 * 1024

// verifyTimeout bounds the --version check run by Verify.
const verifyTimeout = 5 * time.Second

// defaultCandidates are the invocation forms tried in order. The tool may
// be installed as `agent` or behind the `cursor` launcher; --trust makes it
// non-interactive inside the cloned mirror.
var defaultCandidates = [][]string{
	{"agent", "--trust", "-p"},
	{"cursor", "agent", "--trust", "-p"},
}

// Config holds the settings for the CLI backend.
type Config struct {
	// Timeout is the wall-clock limit for one analysis run.
	Timeout time.Duration

	// APIKey, when set, is exported as CURSOR_API_KEY for headless auth.
	APIKey string
}

// Backend runs the external analysis CLI. It implements analysis.Backend.
type Backend struct {
	logger     *slog.Logger
	config     Config
	candidates [][]string
}

// New creates the CLI backend. If logger is nil, the default logger is used.
func New(logger *slog.Logger, cfg Config) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 300 * time.Second
	}
	return &Backend{
		logger:     logger.With(slog.String("component", "agentcli")),
		config:     cfg,
		candidates: defaultCandidates,
	}
}

// Ensure Backend implements the analysis.Backend interface
var _ analysis.Backend = (*Backend)(nil)

// Name implements analysis.Backend.Name.
func (b *Backend) Name() string { return "agent" }

// RequiresMirror implements analysis.Backend.RequiresMirror: the tool
// analyzes the working copy directly, so the job pipeline must clone first.
func (b *Backend) RequiresMirror() bool { return true }

// Summarize runs the analysis CLI in the mirror directory and returns its
// trimmed stdout. Candidate command names are tried in order; a name that
// is not installed is skipped, and exhausting all names reports
// analysis.ErrBackendUnavailable.
func (b *Backend) Summarize(ctx context.Context, req analysis.Request) (string, error) {
	since, until := windowFromActivity(req)
	prompt := analysis.RepoAnalysisPrompt(req.Activity.Repo, req.RangeLabel, since, until, req.GitLog)

	env := os.Environ()
	if key := strings.TrimSpace(b.config.APIKey); key != "" {
		env = append(env, "CURSOR_API_KEY="+key)
	}

	for _, candidate := range b.candidates {
		argv := append(append([]string(nil), candidate...), prompt)

		out, err := b.runOnce(ctx, argv, req.MirrorPath, env, req.OnOutput)
		if errors.Is(err, exec.ErrNotFound) {
			b.logger.Debug("analysis executable not found, trying next candidate",
				"executable", candidate[0])
			continue
		}
		return out, err
	}

	return "", fmt.Errorf("%w: none of the candidate executables are installed", analysis.ErrBackendUnavailable)
}

// runOnce executes one candidate invocation to completion, streaming both
// output pipes while enforcing the configured timeout.
func (b *Backend) runOnce(
	ctx context.Context,
	argv []string,
	dir string,
	env []string,
	onOutput func(string),
) (string, error) {
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.Env = env
	// Own process group so a timeout kill reaps the tool's children too.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return "", fmt.Errorf("%w: %v", analysis.ErrExecutionFailed, err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return "", fmt.Errorf("%w: %v", analysis.ErrExecutionFailed, err)
	}

	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", analysis.ErrExecutionFailed, err)
	}

	// Both pipes are drained concurrently: a full OS pipe buffer on either
	// stream would otherwise deadlock the child.
	var wg sync.WaitGroup
	var stdout, stderr strings.Builder
	wg.Add(2)
	go b.drain(stdoutPipe, &stdout, onOutput, &wg)
	go b.drain(stderrPipe, &stderr, onOutput, &wg)

	done := make(chan error, 1)
	go func() {
		wg.Wait()
		done <- cmd.Wait()
	}()

	timer := time.NewTimer(b.config.Timeout)
	defer timer.Stop()

	select {
	case err = <-done:
		// Process exited within the limit.
	case <-timer.C:
		b.killGroup(cmd)
		<-done // await drained output for cleanliness
		return "", fmt.Errorf("%w after %s; try a shorter time range or check the repo size",
			analysis.ErrAnalysisTimeout, b.config.Timeout)
	case <-ctx.Done():
		b.killGroup(cmd)
		<-done
		return "", fmt.Errorf("%w: %v", analysis.ErrExecutionFailed, ctx.Err())
	}

	if err != nil {
		diag := strings.TrimSpace(stderr.String())
		if diag == "" {
			diag = strings.TrimSpace(stdout.String())
		}
		return "", fmt.Errorf("%w: %s", analysis.ErrExecutionFailed, diag)
	}

	return strings.TrimSpace(stdout.String()), nil
}

// drain reads one pipe line-by-line, accumulating the full stream and
// forwarding each line to the observer as it arrives.
func (b *Backend) drain(r io.Reader, buf *strings.Builder, onOutput func(string), wg *sync.WaitGroup) {
	defer wg.Done()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), scannerBufferSize)
	for scanner.Scan() {
		line := scanner.Text() + "\n"
		buf.WriteString(line)
		if onOutput != nil {
			onOutput(line)
		}
	}
}

// killGroup terminates the process and everything it spawned.
func (b *Backend) killGroup(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	// Negative pid addresses the whole process group.
	if err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL); err != nil {
		b.logger.Warn("failed to kill analysis process group", "pid", cmd.Process.Pid, "error", err)
		_ = cmd.Process.Kill()
	}
}

// Verify runs the candidate executables with --version and returns the
// first line of output from the first one that responds, for health checks.
func (b *Backend) Verify(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, verifyTimeout)
	defer cancel()

	for _, candidate := range b.candidates {
		cmd := exec.CommandContext(ctx, candidate[0], "--version")
		out, err := cmd.CombinedOutput()
		if err != nil {
			if errors.Is(err, exec.ErrNotFound) {
				continue
			}
			return "", fmt.Errorf("%w: version check failed: %v", analysis.ErrExecutionFailed, err)
		}
		if line := strings.TrimSpace(strings.SplitN(string(out), "\n", 2)[0]); line != "" {
			return line, nil
		}
		return "analysis CLI available", nil
	}

	return "", fmt.Errorf("%w: none of the candidate executables are installed", analysis.ErrBackendUnavailable)
}

// windowFromActivity recovers the time window from the activity record's
// RFC3339 boundaries; zero times degrade gracefully in the prompt.
func windowFromActivity(req analysis.Request) (time.Time, time.Time) {
	var since, until time.Time
	if req.Activity != nil {
		since, _ = time.Parse(time.RFC3339, req.Activity.Since)
		until, _ = time.Parse(time.RFC3339, req.Activity.Until)
	}
	return since, until
}
