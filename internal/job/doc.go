// Package job implements the per-request state machine for asynchronous
// analysis jobs and the registry that polling clients resolve job IDs
// against. Jobs move forward only (cloning, fetching_history, analyzing,
// then done or error); terminal states are absorbing. The registry guards
// map structure with its own lock while each job serializes its own state
// changes, so jobs for different requests never contend.
package job
