package stage

import (
	"kiln/internal/frames"
	"kiln/internal/queue"
	"kiln/internal/services"
)

// ParseMissingFrames decodes a job's persisted missing-frame list.
// On failure it returns a services.ErrValidation suitable for stage Execute methods.
func ParseMissingFrames(job *queue.Job) ([]int, error) {
	list, err := frames.ParseList(job.MissingFrames)
	if err != nil {
		return nil, services.Wrap(
			services.ErrValidation, "stage", "parse missing frames",
			"Persisted missing-frame list is invalid; requeue the scene", err)
	}
	return list, nil
}
