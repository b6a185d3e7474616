// Package logs provides offset-based log file tailing for the daemon's
// LogTail RPC and the `kiln logs` command.
//
// A negative offset means "start from the last Limit lines"; follow mode
// polls for new lines until the wait window elapses, so clients can loop on
// the returned offset without holding a connection open.
package logs
