// Package history archives render jobs in SQLite.
//
// The Store records a snapshot of every job at each lifecycle transition:
// identifier, kind, status, source paths, output, progress, error, and
// timestamps. Unlike a work queue, nothing is ever claimed from the archive;
// it exists so `keylight jobs` can answer what ran, what failed, and why
// after the process that ran it is gone.
//
// The database lives under the work directory and is treated as a local
// archive rather than shared state. Schema changes bump the version in
// schema.go; users clear the database to adopt the new schema.
package history
