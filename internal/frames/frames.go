package frames

import (
	"fmt"
	"strconv"
	"strings"
)

// FileName returns the canonical output filename for a frame: the prefix
// followed by the five-digit zero-padded frame number and the format
// extension.
func FileName(prefix string, frame int, format string) string {
	return fmt.Sprintf("%s%05d.%s", prefix, frame, format)
}

// FormatList encodes a frame list as the comma-separated form passed to the
// render driver's --missing_frames flag.
func FormatList(frames []int) string {
	if len(frames) == 0 {
		return ""
	}
	parts := make([]string, len(frames))
	for i, frame := range frames {
		parts[i] = strconv.Itoa(frame)
	}
	return strings.Join(parts, ",")
}

// ParseList decodes a comma-separated frame list. An empty string yields a
// nil slice.
func ParseList(value string) ([]int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	parts := strings.Split(value, ",")
	frames := make([]int, 0, len(parts))
	for _, part := range parts {
		frame, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("parse frame list entry %q: %w", part, err)
		}
		frames = append(frames, frame)
	}
	return frames, nil
}
