// Package blender wraps Blender command-line interactions for probing and
// rendering scenes.
//
// Both operations run Blender in background mode with a Python collaborator
// script: probing executes a short script that prints the scene's frame range
// and output settings as [PROBE] lines, and rendering executes the embedded
// frame-by-frame driver that skips existing frames, reports progress, and
// marks completion with [DONE]. The Client parses that line protocol; the
// Executor seam keeps every piece testable without a Blender install.
package blender
