// Package config loads, normalizes, and validates kiln's TOML configuration,
// plus the small JSON settings file that locates the Blender executable.
//
// Load applies defaults, expands ~ in paths, and rejects unusable values so
// downstream code can trust every field. The Blender path deliberately lives
// outside the TOML file: it is a single JSON object shared with desktop
// tooling and rewritten whenever the operator changes the path.
package config
