// Package sqlite provides the embedded SQLite implementation of the storage
// interfaces defined in the internal/store package, using the pure Go
// modernc.org/sqlite driver. It backs single-node deployments and the
// command line tools.
package sqlite
