package stats

import (
	"sync"
	"time"
)

// Session accumulates totals across the jobs completed in one queue batch.
// All methods are safe for concurrent use; the workflow manager mutates the
// session while status requests read it.
type Session struct {
	mu                 sync.Mutex
	startedAt          time.Time
	scenesCompleted    int
	framesCompleted    int
	totalRenderSeconds float64
}

// SessionSnapshot is a point-in-time copy of session totals.
type SessionSnapshot struct {
	StartedAt          time.Time
	ScenesCompleted    int
	FramesCompleted    int
	TotalRenderSeconds float64
}

// NewSession returns a session whose clock starts now.
func NewSession(now time.Time) *Session {
	return &Session{startedAt: now}
}

// Reset clears all totals and restarts the session clock. Called when a new
// queue batch begins.
func (s *Session) Reset(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startedAt = now
	s.scenesCompleted = 0
	s.framesCompleted = 0
	s.totalRenderSeconds = 0
}

// RecordCompleted folds one finished job into the session totals.
func (s *Session) RecordCompleted(framesRendered int, renderSeconds float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scenesCompleted++
	s.framesCompleted += framesRendered
	s.totalRenderSeconds += renderSeconds
}

// Snapshot returns a copy of the current totals.
func (s *Session) Snapshot() SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionSnapshot{
		StartedAt:          s.startedAt,
		ScenesCompleted:    s.scenesCompleted,
		FramesCompleted:    s.framesCompleted,
		TotalRenderSeconds: s.totalRenderSeconds,
	}
}

// AverageSecondsPerFrame reports the session-wide mean render time, or zero
// when no frames have completed.
func (s SessionSnapshot) AverageSecondsPerFrame() float64 {
	if s.FramesCompleted == 0 {
		return 0
	}
	return s.TotalRenderSeconds / float64(s.FramesCompleted)
}
