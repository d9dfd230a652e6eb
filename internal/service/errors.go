package service

import "errors"

// Common service-level errors.
var (
	// ErrJobNotFound indicates the requested job ID is unknown, either
	// never created or already evicted.
	ErrJobNotFound = errors.New("job not found")

	// ErrActivityFetchFailed indicates the repository's activity could not
	// be retrieved from GitHub.
	ErrActivityFetchFailed = errors.New("failed to fetch repository activity")
)
