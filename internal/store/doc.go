// Package store defines the persistence interfaces and shared error
// taxonomy for the service. Implementations live under platform packages
// (currently PostgreSQL) and are injected where needed.
package store
