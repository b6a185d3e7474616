// Package rendering supervises the renderer child process for the active
// job: it launches the render driver, parses streamed progress output,
// detects abnormal exits, and relaunches from the frames already on disk
// until the scene finishes. Crash recovery is unbounded; every relaunch is
// logged and notified with the cumulative crash count so an operator can
// step in when a scene fails deterministically.
package rendering
