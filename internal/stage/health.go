package stage

import "strings"

// Health is a stage's self-reported readiness, surfaced through the daemon
// status command. Detail carries the reason when a stage cannot take jobs,
// such as an unset renderer path before probing.
type Health struct {
	Name   string
	Ready  bool
	Detail string
}

// Healthy reports a stage ready to accept jobs.
func Healthy(name string) Health {
	return Health{Name: name, Ready: true}
}

// Unhealthy reports a stage that would fail jobs right now and why.
func Unhealthy(name, detail string) Health {
	return Health{Name: name, Ready: false, Detail: strings.TrimSpace(detail)}
}
