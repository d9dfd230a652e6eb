package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mkessler/worklog-api/internal/analysis"
	"github.com/mkessler/worklog-api/internal/cache"
	"github.com/mkessler/worklog-api/internal/domain"
	"github.com/mkessler/worklog-api/internal/job"
	"github.com/mkessler/worklog-api/internal/platform/logger"
	"github.com/mkessler/worklog-api/internal/redact"
	"github.com/mkessler/worklog-api/internal/store"
)

// ActivitySource fetches a repository's aggregated activity for a window.
// It is implemented by the GitHub API client.
type ActivitySource interface {
	Activity(ctx context.Context, token, repo string, since, until time.Time) (*domain.Activity, error)
}

// MirrorProvider materializes an up-to-date local working copy for a
// repository. It is implemented by the mirror manager.
type MirrorProvider interface {
	Ensure(ctx context.Context, repoID, cloneURL, token string) (string, error)
}

// HistoryExtractor produces the patch-level change log for a window from a
// local working copy. Extraction is best-effort: failures yield an empty log.
type HistoryExtractor interface {
	Extract(ctx context.Context, repoPath string, since, until time.Time, maxChars int, timeout time.Duration) string
}

// ResultCache stores finished summaries content-addressed by activity.
// It is implemented by the filesystem cache store.
type ResultCache interface {
	Get(key cache.Key) (*domain.SummaryRecord, bool)
	Put(key cache.Key, record *domain.SummaryRecord)
}

// SummarizeConfig carries the pipeline tunables.
type SummarizeConfig struct {
	// GitLogMaxChars caps the extracted change log fed into prompts.
	GitLogMaxChars int

	// GitLogTimeout bounds the history extraction subprocess.
	GitLogTimeout time.Duration
}

// SummarizeService runs the full analysis pipeline as asynchronous jobs:
// fetch activity, check the result cache, mirror the repository if the
// backend needs one, extract history, invoke the backend, parse the task
// list, and persist the result.
type SummarizeService struct {
	logger    *slog.Logger
	jobs      *job.Registry
	source    ActivitySource
	mirrors   MirrorProvider
	history   HistoryExtractor
	cache     ResultCache
	backend   analysis.Backend
	summaries store.SummaryStore
	config    SummarizeConfig

	now func() time.Time
}

// NewSummarizeService wires the pipeline. mirrors and history may be nil
// when the backend does not require a mirror; summaries may be nil to
// disable persistence.
func NewSummarizeService(
	logger *slog.Logger,
	jobs *job.Registry,
	source ActivitySource,
	mirrors MirrorProvider,
	history HistoryExtractor,
	resultCache ResultCache,
	backend analysis.Backend,
	summaries store.SummaryStore,
	cfg SummarizeConfig,
) *SummarizeService {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.GitLogMaxChars <= 0 {
		cfg.GitLogMaxChars = 50_000
	}
	if cfg.GitLogTimeout <= 0 {
		cfg.GitLogTimeout = 60 * time.Second
	}

	return &SummarizeService{
		logger:    logger.With(slog.String("component", "summarize_service")),
		jobs:      jobs,
		source:    source,
		mirrors:   mirrors,
		history:   history,
		cache:     resultCache,
		backend:   backend,
		summaries: summaries,
		config:    cfg,
		now:       time.Now,
	}
}

// StartJob validates the request, registers a job, and launches the
// pipeline in the background. The returned ID is immediately pollable.
// Each job runs in its own goroutine, so jobs for different repositories
// proceed fully in parallel; same-repo clone work serializes inside the
// mirror manager.
func (s *SummarizeService) StartJob(ctx context.Context, userID int64, token, repo string, rangeKind domain.RangeKind) (uuid.UUID, error) {
	if err := rangeKind.Validate(); err != nil {
		return uuid.Nil, err
	}

	initial := job.StatusCloning
	message := "Cloning repository..."
	if !s.backend.RequiresMirror() {
		initial = job.StatusAnalyzing
		message = "Analyzing..."
	}
	j := s.jobs.Create(initial, message)

	go s.run(context.WithoutCancel(ctx), j, userID, token, repo, rangeKind)

	return j.ID(), nil
}

// Status returns the current snapshot of a job.
// Returns ErrJobNotFound for unknown IDs.
func (s *SummarizeService) Status(jobID uuid.UUID) (job.Snapshot, error) {
	j, ok := s.jobs.Get(jobID)
	if !ok {
		return job.Snapshot{}, ErrJobNotFound
	}
	return j.Snapshot(), nil
}

// Saved returns the persisted summary for the user, repository, and range.
func (s *SummarizeService) Saved(ctx context.Context, userID int64, repo string, rangeKind domain.RangeKind) (*domain.SummaryRecord, error) {
	if err := rangeKind.Validate(); err != nil {
		return nil, err
	}
	if s.summaries == nil {
		return nil, store.ErrSummaryNotFound
	}
	return s.summaries.Get(ctx, userID, repo, rangeKind)
}

// run executes one job to completion. Every failure path lands the job in
// the error state; nothing is returned to the caller.
func (s *SummarizeService) run(ctx context.Context, j *job.Job, userID int64, token, repo string, rangeKind domain.RangeKind) {
	log := s.logger.With(
		slog.String("job_id", j.ID().String()),
		slog.String("repo", repo),
		slog.String("range", string(rangeKind)))

	defer func() {
		if p := recover(); p != nil {
			log.Error("summarize job panicked", slog.Any("panic", p))
			j.Fail(fmt.Sprintf("internal error: %v", p))
		}
	}()

	since, until := rangeKind.Dates(s.now())

	activity, err := s.source.Activity(ctx, token, repo, since, until)
	if err != nil {
		log.Warn("activity fetch failed", slog.String("error", redact.Error(err)))
		j.Fail(fmt.Sprintf("%s: %s", ErrActivityFetchFailed, redact.Error(err)))
		return
	}

	// The cache only pays off for mirror-backed analysis, where a result
	// costs a clone plus a long backend run. Identical activity means an
	// identical answer, so the fingerprint is the cache identity.
	var key cache.Key
	useCache := s.backend.RequiresMirror() && s.cache != nil
	if useCache {
		key = cache.Key{
			Repo:        repo,
			Range:       rangeKind,
			Since:       activity.Since,
			Until:       activity.Until,
			Fingerprint: cache.Fingerprint(activity),
		}
		if record, ok := s.cache.Get(key); ok {
			log.Info("serving cached summary")
			s.saveBestEffort(ctx, userID, record, log)
			j.Complete("Done (cached).", record)
			return
		}
	}

	mirrorPath := ""
	gitLog := ""
	if s.backend.RequiresMirror() {
		j.SetProgress(job.StatusCloning, "Cloning repository...")
		mirrorPath, err = s.mirrors.Ensure(ctx, repo, cloneURL(repo), token)
		if err != nil {
			log.Warn("mirror setup failed", slog.String("error", redact.Error(err)))
			j.Fail(redact.Error(err))
			return
		}

		j.SetProgress(job.StatusFetchingHistory, "Fetching git history...")
		gitLog = s.history.Extract(ctx, mirrorPath, since, until, s.config.GitLogMaxChars, s.config.GitLogTimeout)
	}

	j.SetProgress(job.StatusAnalyzing, "Analyzing...")
	raw, err := s.backend.Summarize(ctx, analysis.Request{
		Activity:   activity,
		RangeLabel: rangeKind.Label(),
		MirrorPath: mirrorPath,
		GitLog:     gitLog,
		OnOutput:   j.AppendLog,
	})
	if err != nil {
		log.Warn("backend analysis failed", slog.String("error", redact.Error(err)))
		j.Fail(redact.Error(err))
		return
	}

	tasks := analysis.NormalizeTasks(analysis.ParseTasks(raw))
	summary := ""
	if len(tasks) > 0 {
		summary = tasks[0].Description
	}

	record := &domain.SummaryRecord{
		Repo:     repo,
		Range:    rangeKind,
		Since:    activity.Since,
		Until:    activity.Until,
		Summary:  summary,
		Tasks:    tasks,
		Activity: activity,
	}

	if useCache {
		s.cache.Put(key, record)
	}
	s.saveBestEffort(ctx, userID, record, log)

	log.Info("summarize job finished", slog.Int("tasks", len(tasks)))
	j.Complete("Done.", record)
}

// saveBestEffort persists the record for the user's saved view. Storage
// being down must not fail a job that already has its answer.
func (s *SummarizeService) saveBestEffort(ctx context.Context, userID int64, record *domain.SummaryRecord, log *slog.Logger) {
	if s.summaries == nil || userID == 0 {
		return
	}
	ctx = logger.WithLogger(ctx, log)
	if err := s.summaries.Save(ctx, userID, record); err != nil {
		log.Warn("failed to persist summary", slog.String("error", err.Error()))
	}
}

// cloneURL builds the public HTTPS clone URL; authentication travels
// separately so the URL itself never carries the token.
func cloneURL(repo string) string {
	return "https://github.com/" + repo + ".git"
}
