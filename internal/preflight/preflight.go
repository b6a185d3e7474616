package preflight

import (
	"kiln/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// The watch folder check only runs when a watch folder is configured.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckDirectoryAccess("Render log directory", cfg.RenderLogDir()),
	}

	if cfg.Paths.WatchDir != "" {
		results = append(results, CheckDirectoryAccess("Watch folder", cfg.Paths.WatchDir))
	}

	results = append(results, CheckRenderer(cfg))

	return results
}

// AllPassed reports whether every result passed.
func AllPassed(results []Result) bool {
	for _, result := range results {
		if !result.Passed {
			return false
		}
	}
	return true
}
