// Package probing implements the workflow stage that resolves scene metadata
// before rendering: frame range, output directory, and image format come from
// a renderer probe run, then the output directory is inspected so the job
// resumes from frames already on disk. Scenes with nothing left to render
// short-circuit to already_complete without launching a render process.
package probing
