// Package cache implements the content-addressed result cache that lets
// repeated analysis requests for unchanged activity skip re-analysis. Keys
// combine repository, range kind, window boundaries, and an
// order-independent fingerprint of commit/PR identity; entries live as one
// JSON file per key digest under a configured root directory.
package cache
