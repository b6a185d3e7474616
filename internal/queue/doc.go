// Package queue persists render jobs in SQLite and exposes helpers for
// driving their lifecycle.
//
// The Store manages database connections, schema initialization, stats
// queries, heartbeat tracking, stuck-job recovery, and the status transitions
// the workflow manager steps jobs through. Jobs capture everything the render
// stages learn along the way: probed frame ranges, resolved output settings,
// resume plans, crash counts, and progress.
//
// The database is treated as transient storage for in-flight jobs rather than
// a long-term archive. Schema changes bump the version in schema.go; users
// clear the database to adopt the new schema.
//
// Treat this package as the single source of truth for queue semantics; when
// you add new statuses or job fields, update schema.sql and bump
// schemaVersion.
package queue
