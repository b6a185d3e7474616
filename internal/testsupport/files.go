package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"kiln/internal/frames"
)

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	const chunkSize = 32 * 1024
	buf := make([]byte, chunkSize)
	for i := range buf {
		buf[i] = 0x42
	}

	remaining := size
	for remaining > 0 {
		toWrite := int64(chunkSize)
		if remaining < toWrite {
			toWrite = remaining
		}
		if _, err := f.Write(buf[:toWrite]); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
		remaining -= toWrite
	}
}

// WriteSceneFile creates a placeholder .blend file and returns its path.
func WriteSceneFile(t testing.TB, dir, name string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	WriteFile(t, path, 64)
	return path
}

// WriteFrames creates empty frame output files for the given frame numbers
// using the canonical naming scheme.
func WriteFrames(t testing.TB, dir, prefix, format string, frameNumbers ...int) {
	t.Helper()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir output dir: %v", err)
	}
	for _, frame := range frameNumbers {
		name := frames.FileName(prefix, frame, format)
		if err := os.WriteFile(filepath.Join(dir, name), []byte("img"), 0o644); err != nil {
			t.Fatalf("write frame %s: %v", name, err)
		}
	}
}
