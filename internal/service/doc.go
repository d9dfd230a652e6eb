// Package service contains the application-level orchestration: the
// summarize pipeline that turns repository activity into a structured task
// list through an analysis backend, tracked as asynchronous jobs.
package service
