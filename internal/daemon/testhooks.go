package daemon

import "time"

// SetWatchTimingForTests shortens the watch folder settle timing during
// tests.
func SetWatchTimingForTests(settle, sweep time.Duration) func() {
	prevSettle, prevSweep := settleDelay, settleSweepInterval
	settleDelay = settle
	settleSweepInterval = sweep
	return func() {
		settleDelay = prevSettle
		settleSweepInterval = prevSweep
	}
}
