// Package mirror maintains local working copies of analyzed repositories.
// Each repository maps to one directory under the cache root; concurrent
// jobs for the same repository serialize on a per-repository lock while
// jobs for different repositories proceed in parallel.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/mkessler/worklog-api/internal/redact"
)

// ErrCloneFailed indicates the initial clone of a repository failed. The
// mirror directory is left absent so the next attempt starts clean.
var ErrCloneFailed = errors.New("repository clone failed")

// gitOps abstracts the git operations the manager performs, so lock and
// lifecycle behavior can be tested without touching the network.
type gitOps interface {
	// Clone creates a full clone (all branches) of url at path.
	Clone(ctx context.Context, path, url, token string) error

	// Fetch updates the existing clone at path, pruning deleted refs.
	Fetch(ctx context.Context, path, url, token string) error
}

// Manager ensures one up-to-date working copy per repository.
type Manager struct {
	logger *slog.Logger
	root   string
	git    gitOps

	// registryMu guards the locks map only; it is never held across a git
	// operation, so locking repo A never blocks a lookup for repo B.
	registryMu sync.Mutex
	locks      map[string]*sync.Mutex
}

// NewManager creates a mirror manager rooted at dir, creating it if needed.
func NewManager(logger *slog.Logger, dir string) (*Manager, error) {
	if logger == nil {
		logger = slog.Default()
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving mirror root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("creating mirror root: %w", err)
	}

	return &Manager{
		logger: logger.With(slog.String("component", "mirror")),
		root:   abs,
		git:    goGitOps{},
		locks:  make(map[string]*sync.Mutex),
	}, nil
}

// Path returns the directory a repository's mirror lives in, whether or
// not it exists yet.
func (m *Manager) Path(repoID string) string {
	return filepath.Join(m.root, safeDirName(repoID))
}

// Ensure clones the repository on first use and fetches updates on every
// subsequent use, returning the mirror path. Clone failures are fatal;
// fetch failures are tolerated and the stale copy is used, since analysis
// on slightly old history beats no analysis at all. Callers for the same
// repository are serialized.
func (m *Manager) Ensure(ctx context.Context, repoID, cloneURL, token string) (string, error) {
	lock := m.repoLock(repoID)
	lock.Lock()
	defer lock.Unlock()

	path := m.Path(repoID)
	log := m.logger.With(slog.String("repo", repoID))

	if _, err := os.Stat(filepath.Join(path, ".git")); err == nil {
		if err := m.git.Fetch(ctx, path, cloneURL, token); err != nil {
			log.Warn("fetch failed, using stale mirror", slog.String("error", redact.Error(err)))
		} else {
			log.Debug("mirror updated")
		}
		return path, nil
	}

	log.Info("cloning repository mirror")
	if err := m.git.Clone(ctx, path, cloneURL, token); err != nil {
		// Remove the partial clone so the next attempt starts clean.
		_ = os.RemoveAll(path)
		return "", fmt.Errorf("%w: %s: %s", ErrCloneFailed, repoID, redact.Error(err))
	}

	return path, nil
}

// repoLock returns the mutex for repoID, creating it on first use.
func (m *Manager) repoLock(repoID string) *sync.Mutex {
	m.registryMu.Lock()
	defer m.registryMu.Unlock()

	lock, ok := m.locks[repoID]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[repoID] = lock
	}
	return lock
}
