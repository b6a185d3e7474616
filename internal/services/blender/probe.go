package blender

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

const defaultImageFormat = "png"

// ProbeResult carries the scene metadata reported by the probe script.
// OutputDir is already resolved to an absolute path; callers decide whether
// to create it.
type ProbeResult struct {
	StartFrame  int
	EndFrame    int
	OutputDir   string
	ImageFormat string
	Warnings    []string
}

// Probe launches the renderer in background mode with a temporary probe
// script and parses the [PROBE] lines it prints. The call is bounded by the
// configured probe timeout when one is set.
func (c *Client) Probe(ctx context.Context, scenePath string) (*ProbeResult, error) {
	scriptPath, err := writeProbeScript(c.scriptDir)
	if err != nil {
		return nil, err
	}
	defer os.Remove(scriptPath)

	if c.probeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.probeTimeout)
		defer cancel()
	}

	collector := &probeCollector{}
	args := []string{"-b", scenePath, "-P", scriptPath}
	if err := c.exec.Run(ctx, c.binary, args, collector.consume); err != nil {
		return nil, fmt.Errorf("probe scene: %w", err)
	}
	return collector.result(scenePath)
}

// ResolveOutputDir maps the scene's configured render path to an absolute
// directory. Renderer-relative paths ("//...") resolve against the scene's
// directory, as do bare relative paths; an unset path falls back to a
// "<scene stem>_output" directory beside the scene file.
func ResolveOutputDir(scenePath, raw string) (string, error) {
	sceneDir := filepath.Dir(scenePath)
	raw = strings.TrimSpace(raw)
	var dir string
	switch {
	case raw == "" || raw == probeUnsetIn:
		base := filepath.Base(scenePath)
		stem := strings.TrimSuffix(base, filepath.Ext(base))
		dir = filepath.Join(sceneDir, stem+"_output")
	case strings.HasPrefix(raw, probeUnsetIn):
		dir = filepath.Join(sceneDir, raw[len(probeUnsetIn):])
	case filepath.IsAbs(raw):
		dir = filepath.Clean(raw)
	default:
		dir = filepath.Join(sceneDir, raw)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve output dir: %w", err)
	}
	return abs, nil
}

// probeCollector accumulates probe lines. The executor forwards stdout and
// stderr from separate goroutines, so state is mutex guarded.
type probeCollector struct {
	mu         sync.Mutex
	startFrame *int
	endFrame   *int
	outputDir  string
	format     string
	warnings   []string
}

func (p *probeCollector) consume(line string) {
	key, value, ok := ParseProbeLine(line)
	if !ok {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	switch key {
	case "START_FRAME":
		if frame, ok := trailingInt(value); ok {
			p.startFrame = &frame
		} else {
			p.warnings = append(p.warnings, fmt.Sprintf("unparsable probe line %q", line))
		}
	case "END_FRAME":
		if frame, ok := trailingInt(value); ok {
			p.endFrame = &frame
		} else {
			p.warnings = append(p.warnings, fmt.Sprintf("unparsable probe line %q", line))
		}
	case "OUTPUT_DIR":
		p.outputDir = value
	case "OUTPUT_FORMAT":
		p.format = strings.ToLower(strings.TrimSpace(value))
	}
}

func (p *probeCollector) result(scenePath string) (*ProbeResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.startFrame == nil || p.endFrame == nil {
		return nil, fmt.Errorf("probe reported no frame range for %s", filepath.Base(scenePath))
	}
	outputDir, err := ResolveOutputDir(scenePath, p.outputDir)
	if err != nil {
		return nil, err
	}
	format := p.format
	if format == "" {
		format = defaultImageFormat
	}
	return &ProbeResult{
		StartFrame:  *p.startFrame,
		EndFrame:    *p.endFrame,
		OutputDir:   outputDir,
		ImageFormat: format,
		Warnings:    append([]string(nil), p.warnings...),
	}, nil
}

// trailingInt parses the last whitespace separated field of value, which
// tolerates renderers that decorate the number with extra tokens.
func trailingInt(value string) (int, bool) {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(fields[len(fields)-1])
	if err != nil {
		return 0, false
	}
	return n, true
}
