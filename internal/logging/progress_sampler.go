package logging

import "strings"

// ProgressSampler decides which render progress events deserve a log line.
// Blender emits one line per frame; logging each would bury everything else,
// so only stage transitions and bucket crossings get through.
type ProgressSampler struct {
	bucketSize float64
	lastStage  string
	lastBucket int
}

// NewProgressSampler returns a sampler emitting on stage changes and every
// bucketSize percent of progress. Sizes at or below zero fall back to 5.
func NewProgressSampler(bucketSize float64) *ProgressSampler {
	if bucketSize <= 0 {
		bucketSize = 5
	}
	return &ProgressSampler{bucketSize: bucketSize, lastBucket: -1}
}

func (s *ProgressSampler) bucketFor(percent float64) int {
	if percent >= 100 {
		return int(100 / s.bucketSize)
	}
	return int(percent / s.bucketSize)
}

// ShouldLog reports whether this progress event should be logged. A stage
// change always logs and restarts bucket tracking; within a stage, only the
// first event of each bucket logs. Negative percent means unknown and never
// advances the bucket.
func (s *ProgressSampler) ShouldLog(percent float64, stage string) bool {
	if s == nil {
		return true
	}

	emit := false
	if stage = strings.TrimSpace(stage); stage != "" && stage != s.lastStage {
		s.lastStage = stage
		s.lastBucket = -1
		emit = true
	}
	if percent >= 0 {
		if bucket := s.bucketFor(percent); bucket > s.lastBucket {
			s.lastBucket = bucket
			emit = true
		}
	}
	return emit
}

// Reset clears the sampler state, e.g. when a new job starts.
func (s *ProgressSampler) Reset() {
	if s == nil {
		return
	}
	s.lastStage = ""
	s.lastBucket = -1
}
