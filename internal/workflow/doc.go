// Package workflow drives queued render jobs through the probe and render
// stages. A single worker goroutine polls the queue in FIFO order, moves the
// oldest actionable job through its next stage, and keeps a per-job heartbeat
// so work interrupted by a daemon crash is reclaimed on the next start.
// Exactly one scene renders at a time; probing only happens for the job about
// to render.
package workflow
