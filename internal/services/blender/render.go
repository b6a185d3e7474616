package blender

import (
	"context"
	"errors"
	"sync"

	"kiln/internal/frames"
)

// RenderRequest describes a single render attempt. MissingFrames switches the
// driver from range resume into explicit frame-list mode.
type RenderRequest struct {
	ScenePath     string
	DriverScript  string
	OutputDir     string
	Prefix        string
	MissingFrames []int
}

// RenderOutcome summarizes what the driver reported before the process
// exited. Done means the completion marker was seen; it outranks the exit
// code. LastFrame is only meaningful when FrameSeen is set.
type RenderOutcome struct {
	Done      bool
	LastFrame int
	FrameSeen bool
	ErrorLine string
}

// Render launches a render attempt and streams its output. Every line is
// forwarded to onLine, frame progress to onFrame. Renders run without a
// deadline; cancellation comes from ctx, which kills the process. The raw
// run error is returned alongside the outcome so callers can distinguish a
// launch failure from a crash mid-render.
func (c *Client) Render(ctx context.Context, req RenderRequest, onLine func(string), onFrame func(int)) (RenderOutcome, error) {
	if req.ScenePath == "" {
		return RenderOutcome{}, errors.New("scene path required")
	}
	if req.DriverScript == "" {
		return RenderOutcome{}, errors.New("driver script required")
	}

	args := []string{
		"-b", req.ScenePath,
		"-P", req.DriverScript,
		"--",
		"--output_dir", req.OutputDir,
		"--prefix", req.Prefix,
		"--resume", "true",
	}
	if len(req.MissingFrames) > 0 {
		args = append(args, "--missing_frames", frames.FormatList(req.MissingFrames))
	}

	collector := &renderCollector{onLine: onLine, onFrame: onFrame}
	err := c.exec.Run(ctx, c.binary, args, collector.consume)
	return collector.outcome(), err
}

// renderCollector tracks driver markers as output streams in. The executor
// forwards stdout and stderr from separate goroutines, so consume serializes
// both parsing and the caller's callbacks.
type renderCollector struct {
	mu        sync.Mutex
	onLine    func(string)
	onFrame   func(int)
	lastFrame int
	frameSeen bool
	done      bool
	errorLine string
}

func (r *renderCollector) consume(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.onLine != nil {
		r.onLine(line)
	}
	if frame, ok := ParseFrameLine(line); ok {
		// Blender prints several Fra: lines per frame; only the first of
		// each frame number is a progress transition.
		if !r.frameSeen || frame != r.lastFrame {
			r.lastFrame = frame
			r.frameSeen = true
			if r.onFrame != nil {
				r.onFrame(frame)
			}
		}
	}
	if IsDoneLine(line) {
		r.done = true
	}
	if detail, ok := ParseErrorLine(line); ok && r.errorLine == "" {
		r.errorLine = detail
	}
}

func (r *renderCollector) outcome() RenderOutcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	return RenderOutcome{
		Done:      r.done,
		LastFrame: r.lastFrame,
		FrameSeen: r.frameSeen,
		ErrorLine: r.errorLine,
	}
}
