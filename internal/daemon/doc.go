// Package daemon hosts the long-running kiln process: it owns the queue
// store, drives the workflow manager, enforces single-instance execution
// with a file lock, and ingests scene files dropped into the watch folder.
// Control operations arrive over the IPC socket.
package daemon
