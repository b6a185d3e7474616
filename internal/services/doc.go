// Package services defines shared utilities consumed by the workflow stage
// handlers and the Blender integration.
//
// Key responsibilities:
//   - Context helpers that stamp queue job IDs, stage names, and correlation
//     identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper so every failure carries
//     its stage and operation context and classifies cleanly with errors.Is.
//
// Use these helpers when wiring new stage logic so operational behaviour
// (error handling, observability) stays uniform across the pipeline.
package services
