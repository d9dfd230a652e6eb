package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mkessler/worklog-api/internal/domain"
)

// Key addresses one cached analysis result. Every field participates in the
// key: a content match under a different declared window must not match.
type Key struct {
	Repo        string
	Range       domain.RangeKind
	Since       string
	Until       string
	Fingerprint string
}

// String returns the logical key string the physical location is derived from.
func (k Key) String() string {
	return fmt.Sprintf("%s:%s:%s:%s:%s", k.Repo, k.Range, k.Since, k.Until, k.Fingerprint)
}

// entryEnvelope is the on-disk JSON shape: a single object wrapping the record.
type entryEnvelope struct {
	Result *domain.SummaryRecord `json:"result"`
}

// Store is a content-addressed, best-effort result cache: one file per key
// digest under the root directory. It is never a correctness dependency:
// reads tolerate missing or corrupt entries and writes may silently drop.
type Store struct {
	root   string
	logger *slog.Logger
}

// NewStore creates a cache store rooted at dir, creating the directory when
// needed. If logger is nil, the default logger is used.
func NewStore(dir string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cache dir %q: %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir %q: %w", abs, err)
	}

	return &Store{
		root:   abs,
		logger: logger.With(slog.String("component", "summary_cache")),
	}, nil
}

// Get returns the cached record for the key, or ok=false on a miss. Corrupt
// or unreadable entries are treated as misses, never as errors.
func (s *Store) Get(key Key) (*domain.SummaryRecord, bool) {
	raw, err := os.ReadFile(s.pathFor(key))
	if err != nil {
		return nil, false
	}

	var envelope entryEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil || envelope.Result == nil {
		s.logger.Warn("discarding corrupt cache entry", "key", key.String())
		return nil, false
	}

	return envelope.Result, true
}

// Put stores the record under the key, overwriting any previous entry
// (inputs that hash equal are semantically equal, so last-writer-wins is
// safe). Write failures are logged and swallowed: the cache is best-effort.
func (s *Store) Put(key Key, record *domain.SummaryRecord) {
	raw, err := json.Marshal(entryEnvelope{Result: record})
	if err != nil {
		s.logger.Warn("failed to encode cache entry", "key", key.String(), "error", err)
		return
	}

	if err := os.WriteFile(s.pathFor(key), raw, 0o644); err != nil {
		s.logger.Warn("failed to write cache entry", "key", key.String(), "error", err)
	}
}

// pathFor maps the logical key to its physical file, content-addressed by a
// digest so key readability never matters on disk.
func (s *Store) pathFor(key Key) string {
	sum := sha256.Sum256([]byte(key.String()))
	name := hex.EncodeToString(sum[:])[:fingerprintLength] + ".json"
	return filepath.Join(s.root, name)
}
