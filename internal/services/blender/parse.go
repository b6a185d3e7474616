package blender

import (
	"strconv"
	"strings"
)

const (
	probeMarker  = "[PROBE] "
	doneMarker   = "[DONE]"
	errorMarker  = "[ERROR]"
	framePrefix  = "Fra:"
	probeUnsetIn = "//"
)

// ParseProbeLine extracts a probe key/value pair from a renderer output
// line. The value keeps internal spaces so paths survive intact; it may be
// empty when the scene leaves the setting unset.
func ParseProbeLine(line string) (key, value string, ok bool) {
	idx := strings.Index(line, probeMarker)
	if idx < 0 {
		return "", "", false
	}
	payload := strings.TrimSpace(line[idx+len(probeMarker):])
	if payload == "" {
		return "", "", false
	}
	parts := strings.SplitN(payload, " ", 2)
	key = parts[0]
	if len(parts) == 2 {
		value = strings.TrimSpace(parts[1])
	}
	return key, value, true
}

// ParseFrameLine extracts the frame number from a renderer progress line of
// the form "Fra:<n> ..." (Blender emits many of these per frame).
func ParseFrameLine(line string) (int, bool) {
	idx := strings.Index(line, framePrefix)
	if idx < 0 {
		return 0, false
	}
	rest := line[idx+len(framePrefix):]
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return 0, false
	}
	frame, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, false
	}
	return frame, true
}

// IsDoneLine reports whether the line carries the driver's completion marker.
// The marker wins over the exit code: some renders exit non-zero after all
// frames are written.
func IsDoneLine(line string) bool {
	return strings.Contains(line, doneMarker)
}

// ParseErrorLine extracts the detail text from a driver error line.
func ParseErrorLine(line string) (string, bool) {
	idx := strings.Index(line, errorMarker)
	if idx < 0 {
		return "", false
	}
	detail := strings.TrimSpace(line[idx+len(errorMarker):])
	return detail, true
}
