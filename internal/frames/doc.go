// Package frames inspects render output directories and plans resume ranges.
//
// The Inspector recognizes the frame-file naming the render driver produces
// (prefix plus zero-padded frame number, with optional stereoscopic _L/_R eye
// suffixes) and reduces a directory listing to the set of frame numbers
// already on disk. PlanResume turns that set into the next launch's start
// frame and, when rendered frames are non-contiguous, an explicit list of
// missing frames.
//
// Everything here is pure directory reading and arithmetic; no renderer is
// consulted. That keeps the resume policy trivially testable.
package frames
