package deps

// Status reports whether an external binary the pipeline needs is usable.
// Command holds the value that will actually be executed: the resolved
// absolute path when the check succeeds, the configured value otherwise.
type Status struct {
	Name        string
	Command     string
	Description string
	Available   bool
	Detail      string
}
