package deps

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// CheckBlender reports the Blender binary the render pipeline will execute.
// The path comes from the Blender settings file rather than PATH so users can
// pin a specific build; a bare command name still resolves through PATH for
// convenience.
func CheckBlender(configuredPath string) Status {
	result := Status{
		Name:        "Blender",
		Description: "Required for probing and rendering scenes",
	}

	path := strings.TrimSpace(configuredPath)
	if path == "" {
		result.Command = "blender"
		result.Detail = "path not configured; run 'kiln blender set-path <path>'"
		return result
	}
	result.Command = path

	resolved, err := exec.LookPath(path)
	if err != nil {
		result.Detail = fmt.Sprintf("binary %q not found or not executable", path)
		return result
	}
	info, err := os.Stat(resolved)
	if err != nil {
		result.Detail = fmt.Sprintf("stat %q: %v", resolved, err)
		return result
	}
	if info.IsDir() {
		result.Detail = fmt.Sprintf("%q is a directory", resolved)
		return result
	}
	result.Command = resolved
	result.Available = true
	return result
}
