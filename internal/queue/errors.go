package queue

import "errors"

// ErrInUse indicates an operation targeted the job currently being probed or
// rendered. Callers must cancel the job before removing it.
var ErrInUse = errors.New("job is being processed")
