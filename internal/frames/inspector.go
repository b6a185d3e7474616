package frames

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strconv"
)

// Inspector matches rendered frame files for one prefix/format combination.
// Filenames are matched against three patterns in order: the plain frame
// name, the left-eye stereo variant, and the right-eye stereo variant. Any
// single match contributes its frame number to the rendered set.
type Inspector struct {
	prefix string
	format string
	plain  *regexp.Regexp
	left   *regexp.Regexp
	right  *regexp.Regexp
}

// NewInspector builds an Inspector for the given filename prefix and image
// format extension. The extension match is case-insensitive so PNG and png
// outputs are treated alike.
func NewInspector(prefix, format string) *Inspector {
	quotedPrefix := regexp.QuoteMeta(prefix)
	quotedFormat := regexp.QuoteMeta(format)
	return &Inspector{
		prefix: prefix,
		format: format,
		plain:  regexp.MustCompile(`^` + quotedPrefix + `(\d+)\.(?i:` + quotedFormat + `)$`),
		left:   regexp.MustCompile(`^` + quotedPrefix + `(\d+)_L\.(?i:` + quotedFormat + `)$`),
		right:  regexp.MustCompile(`^` + quotedPrefix + `(\d+)_R\.(?i:` + quotedFormat + `)$`),
	}
}

// Rendered scans dir and returns the set of frame numbers that already have
// output files. A missing directory yields an empty set; other read failures
// are returned to the caller.
func (i *Inspector) Rendered(dir string) (map[int]struct{}, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[int]struct{}{}, nil
		}
		return nil, fmt.Errorf("read output directory: %w", err)
	}

	rendered := make(map[int]struct{})
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		for _, pattern := range []*regexp.Regexp{i.plain, i.left, i.right} {
			match := pattern.FindStringSubmatch(name)
			if match == nil {
				continue
			}
			frame, err := strconv.Atoi(match[1])
			if err != nil {
				continue
			}
			rendered[frame] = struct{}{}
			break
		}
	}
	return rendered, nil
}

// Plan describes what the next render launch should do.
type Plan struct {
	// StartFrame is the first frame the next launch renders. When Complete
	// is true it sits one past the scene's end frame.
	StartFrame int
	// Missing lists the exact frames to render when the rendered set has
	// gaps. It is nil when a plain range resume from StartFrame suffices.
	Missing []int
	// Complete reports that every frame in the range already exists.
	Complete bool
}

// PlanResume computes the resume plan for the inclusive range [start, end]
// given the set of frames already rendered.
func PlanResume(rendered map[int]struct{}, start, end int) Plan {
	var missing []int
	for frame := start; frame <= end; frame++ {
		if _, ok := rendered[frame]; !ok {
			missing = append(missing, frame)
		}
	}

	if len(missing) == 0 {
		return Plan{StartFrame: end + 1, Complete: true}
	}

	first := missing[0]
	last := missing[len(missing)-1]
	if last-first+1 == len(missing) {
		// One contiguous block: a range resume covers it.
		return Plan{StartFrame: first}
	}
	return Plan{StartFrame: first, Missing: missing}
}

// Plan scans dir and computes the resume plan for [start, end] in one step.
func (i *Inspector) Plan(dir string, start, end int) (Plan, error) {
	rendered, err := i.Rendered(dir)
	if err != nil {
		return Plan{}, err
	}
	return PlanResume(rendered, start, end), nil
}
