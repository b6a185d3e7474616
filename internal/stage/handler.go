package stage

import (
	"context"

	"kiln/internal/queue"
)

// Handler is one step of the render pipeline. The workflow manager calls
// Prepare for cheap validation before committing the job to the stage's
// in-flight status, then Execute to do the work; both mutate the job in
// place and the manager persists it afterwards. HealthCheck answers status
// queries without touching any job.
type Handler interface {
	Prepare(context.Context, *queue.Job) error
	Execute(context.Context, *queue.Job) error
	HealthCheck(context.Context) Health
}
