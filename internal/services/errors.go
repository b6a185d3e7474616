package services

import (
	"errors"
	"strings"
)

var (
	// ErrConfiguration marks failures caused by missing or invalid
	// configuration, including an unset or nonexistent renderer path.
	// Submission is refused while this condition holds.
	ErrConfiguration = errors.New("configuration error")
	// ErrProbe marks scene probe failures: the probe subprocess could not be
	// launched, timed out, or its output lacked required fields.
	ErrProbe = errors.New("probe error")
	// ErrOutputDir marks failures creating or accessing a job's resolved
	// output directory.
	ErrOutputDir = errors.New("output directory error")
	// ErrLaunch marks render subprocesses that could not be started at all.
	// Launch failures are terminal for the job; there is no retry.
	ErrLaunch = errors.New("launch error")
	// ErrValidation marks rejected queue operations (bad path, wrong
	// extension, malformed request).
	ErrValidation = errors.New("validation error")
	// ErrNotFound marks lookups of jobs or files that do not exist.
	ErrNotFound = errors.New("not found")
	// ErrTimeout marks operations that exceeded their deadline.
	ErrTimeout = errors.New("timeout")
)

// Error carries stage context alongside the classification marker. Message
// holds the short user-facing description persisted to the job when the
// failure is terminal; Cause is the underlying error.
type Error struct {
	Marker    error
	Stage     string
	Operation string
	Message   string
	Cause     error
}

func (e *Error) Error() string {
	detail := buildDetail(e.Stage, e.Operation, e.Message)
	text := e.Marker.Error() + ": " + detail
	if e.Cause != nil {
		text += ": " + e.Cause.Error()
	}
	return text
}

// Unwrap exposes both the classification marker and the underlying cause so
// errors.Is matches either.
func (e *Error) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Marker, e.Cause}
	}
	return []error{e.Marker}
}

// Wrap tags an error with a classification marker and stage context. The
// marker should be one of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	if marker == nil {
		marker = ErrValidation
	}
	return &Error{
		Marker:    marker,
		Stage:     strings.TrimSpace(stage),
		Operation: strings.TrimSpace(operation),
		Message:   strings.TrimSpace(message),
		Cause:     err,
	}
}

// Kind maps a wrapped error to its sentinel's short label for structured
// logs and status output. Unrecognized errors report "internal".
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrProbe):
		return "probe"
	case errors.Is(err, ErrOutputDir):
		return "output_directory"
	case errors.Is(err, ErrLaunch):
		return "launch"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	default:
		return "internal"
	}
}

// UserMessage extracts the short user-facing description from a wrapped
// error, falling back to the raw error text.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var se *Error
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	return strings.TrimSpace(err.Error())
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage != "" {
		parts = append(parts, stage)
	}
	if operation != "" {
		parts = append(parts, operation)
	}
	if message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
