package preflight

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"kiln/internal/config"
	"kiln/internal/deps"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckRenderer verifies the Blender settings file points at a usable binary.
func CheckRenderer(cfg *config.Config) Result {
	const name = "Blender"

	if cfg == nil {
		return Result{Name: name, Detail: "configuration unavailable"}
	}
	settings, err := config.LoadBlender(cfg.Paths.BlenderConfig)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("load blender settings: %v", err)}
	}
	status := deps.CheckBlender(settings.BlenderPath)
	if !status.Available {
		return Result{Name: name, Detail: status.Detail}
	}
	return Result{Name: name, Passed: true, Detail: status.Command}
}

// CheckSystemDeps evaluates the external binaries the daemon shells out to.
// Both the daemon startup log and the CLI status command use this so the
// requirements list lives in one place.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	var blenderPath string
	if cfg != nil {
		if settings, err := config.LoadBlender(cfg.Paths.BlenderConfig); err == nil {
			blenderPath = settings.BlenderPath
		}
	}
	return []deps.Status{deps.CheckBlender(blenderPath)}
}
