package job

import (
	"sync"

	"github.com/google/uuid"
)

// Registry is the shared map of live jobs, keyed by job ID. Its mutex
// guards only the map structure; each job carries its own lock for state
// changes, so status updates never contend with unrelated jobs.
//
// The registry is injectable so tests and services own their instance
// rather than sharing hidden process-wide state.
type Registry struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]*Job
}

// NewRegistry creates an empty job registry.
func NewRegistry() *Registry {
	return &Registry{
		jobs: make(map[uuid.UUID]*Job),
	}
}

// Create registers a new job in the given initial state and returns it.
// The job is visible to Get before Create returns, so a status poll issued
// immediately after job submission always finds it.
func (r *Registry) Create(initial Status, message string) *Job {
	j := newJob(initial, message)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[j.id] = j

	return j
}

// Get returns the job with the given ID, or ok=false when it is unknown.
func (r *Registry) Get(id uuid.UUID) (*Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	j, ok := r.jobs[id]
	return j, ok
}

// Remove deletes a job from the registry. Completed jobs are expired by the
// surrounding service; removal does not affect callers already holding the job.
func (r *Registry) Remove(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.jobs, id)
}

// Len returns the number of registered jobs.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.jobs)
}
