// Package stats derives render timing estimates and session totals.
//
// Estimation is purely functional: the supervisor owns the per-frame duration
// history for the active job and hands it to Compute on every progress event.
// Session totals accumulate across completed jobs and reset when a new queue
// batch starts.
package stats

import (
	"fmt"
	"time"
)

// Progress summarizes render timing derived from per-frame durations.
type Progress struct {
	AverageFrameTime    time.Duration
	Elapsed             time.Duration
	EstimatedRemaining  time.Duration
	EstimatedCompletion time.Time
	// Calculating reports that no frame has completed yet, so averages and
	// estimates are undefined.
	Calculating bool
}

// Compute derives timing estimates from the per-frame duration history and
// the job's total frame count. It recomputes from scratch on every call; the
// caller owns the history.
func Compute(frameTimes []time.Duration, totalFrames int, now time.Time) Progress {
	if len(frameTimes) == 0 {
		return Progress{Calculating: true}
	}

	var elapsed time.Duration
	for _, ft := range frameTimes {
		elapsed += ft
	}
	average := elapsed / time.Duration(len(frameTimes))

	remainingFrames := totalFrames - len(frameTimes)
	if remainingFrames < 0 {
		remainingFrames = 0
	}
	remaining := time.Duration(remainingFrames) * average

	return Progress{
		AverageFrameTime:    average,
		Elapsed:             elapsed,
		EstimatedRemaining:  remaining,
		EstimatedCompletion: now.Add(remaining),
	}
}

// ETALabel renders the remaining-time estimate for display.
func (p Progress) ETALabel() string {
	if p.Calculating {
		return "calculating"
	}
	return p.EstimatedRemaining.Round(time.Second).String()
}

// AverageLabel renders the per-frame average for display.
func (p Progress) AverageLabel() string {
	if p.Calculating {
		return "calculating"
	}
	return fmt.Sprintf("%.1fs/frame", p.AverageFrameTime.Seconds())
}
