package job

import (
	"sync"

	"github.com/google/uuid"

	"github.com/mkessler/worklog-api/internal/domain"
)

// Status represents the current state of an analysis job.
type Status string

// Possible job status values. A job moves forward through
// cloning -> fetching_history -> analyzing and finishes in done or error.
// Backends that do not need a local mirror start directly at analyzing.
const (
	StatusCloning         Status = "cloning"
	StatusFetchingHistory Status = "fetching_history"
	StatusAnalyzing       Status = "analyzing"
	StatusDone            Status = "done"
	StatusError           Status = "error"
)

// MaxLogTailBytes caps the streamed backend output retained per job. The
// tail is kept (most recent output) so polling clients stay responsive on
// long-running analyses.
const MaxLogTailBytes = 80_000

// logTruncationMarker prefixes the log tail once older output has been dropped.
const logTruncationMarker = "... (truncated)\n"

// Job tracks one in-flight or completed analysis request through its state
// machine. All mutation goes through methods; readers use Snapshot. A job in
// a terminal state (done or error) never changes again.
type Job struct {
	id uuid.UUID

	mu      sync.Mutex
	status  Status
	message string
	result  *domain.SummaryRecord
	err     string
	logTail string
}

// Snapshot is a consistent copy of a job's externally visible state,
// returned to polling clients.
type Snapshot struct {
	ID      uuid.UUID
	Status  Status
	Message string
	Result  *domain.SummaryRecord
	Error   string
	LogTail string
}

// newJob creates a job in the given initial state. Jobs are created through
// Registry.Create so the ID is registered before the background work starts.
func newJob(initial Status, message string) *Job {
	return &Job{
		id:      uuid.New(),
		status:  initial,
		message: message,
	}
}

// ID returns the job's unique identifier.
func (j *Job) ID() uuid.UUID {
	return j.id
}

// SetProgress moves the job to a non-terminal status with a progress note.
// It is a no-op once the job has reached a terminal state.
func (j *Job) SetProgress(status Status, message string) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.terminalLocked() {
		return
	}
	j.status = status
	j.message = message
}

// Complete moves the job to the done state carrying the final result.
// It is a no-op once the job has reached a terminal state.
func (j *Job) Complete(message string, result *domain.SummaryRecord) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.terminalLocked() {
		return
	}
	j.status = StatusDone
	j.message = message
	j.result = result
}

// Fail moves the job to the error state with a human-readable message.
// It is a no-op once the job has reached a terminal state.
func (j *Job) Fail(errMsg string) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.terminalLocked() {
		return
	}
	j.status = StatusError
	j.err = errMsg
}

// AppendLog appends streamed backend output to the job's log tail, keeping
// at most MaxLogTailBytes of the most recent output.
func (j *Job) AppendLog(chunk string) {
	if chunk == "" {
		return
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	current := j.logTail + chunk
	if len(current) > MaxLogTailBytes {
		current = logTruncationMarker + current[len(current)-MaxLogTailBytes:]
	}
	j.logTail = current
}

// Snapshot returns a consistent copy of the job state for polling clients.
func (j *Job) Snapshot() Snapshot {
	j.mu.Lock()
	defer j.mu.Unlock()

	return Snapshot{
		ID:      j.id,
		Status:  j.status,
		Message: j.message,
		Result:  j.result,
		Error:   j.err,
		LogTail: j.logTail,
	}
}

// Terminal reports whether the job has reached done or error.
func (j *Job) Terminal() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.terminalLocked()
}

func (j *Job) terminalLocked() bool {
	return j.status == StatusDone || j.status == StatusError
}
