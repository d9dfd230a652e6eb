// Package postgres provides the PostgreSQL implementations of the store
// interfaces. All implementations accept a store.DBTX, so they run equally
// against a connection pool or inside a transaction.
package postgres
