package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// pollInterval is how often follow mode re-checks the file for new lines.
const pollInterval = 250 * time.Millisecond

// TailOptions control how much of the log Tail returns and whether it waits
// for more.
type TailOptions struct {
	// Offset is the byte position to read from. Negative means "the last
	// Limit lines of the file".
	Offset int64
	// Limit caps how many trailing lines a negative offset returns.
	Limit int
	// Follow polls for new lines when the first read comes back empty.
	Follow bool
	// Wait bounds how long a follow request may block.
	Wait time.Duration
}

// TailResult carries the lines read and the offset to resume from.
type TailResult struct {
	Lines  []string
	Offset int64
}

// Tail reads log lines from path according to opts. A missing file is not an
// error; callers get an empty result with offset zero so they can keep
// polling until the daemon creates the log.
func Tail(ctx context.Context, path string, opts TailOptions) (TailResult, error) {
	result := TailResult{Offset: opts.Offset}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			result.Offset = 0
			return result, nil
		}
		return result, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return result, fmt.Errorf("log path %q is a directory", path)
	}

	if opts.Wait < 0 {
		opts.Wait = 0
	}

	if opts.Offset < 0 {
		lines, end, err := tailLines(path, opts.Limit)
		if err != nil {
			return result, err
		}
		result.Lines = lines
		result.Offset = end
	} else {
		offset := opts.Offset
		if offset > info.Size() {
			offset = info.Size()
		}
		lines, end, err := readFrom(path, offset)
		if err != nil {
			return result, err
		}
		result.Lines = lines
		result.Offset = end
	}

	if opts.Follow && opts.Wait > 0 && len(result.Lines) == 0 {
		return awaitLines(ctx, path, result.Offset, opts.Wait)
	}
	return result, nil
}

// tailLines returns up to limit trailing lines plus the end-of-file offset.
// It counts lines in a first pass and collects only the suffix in a second,
// so memory stays bounded by the requested window.
func tailLines(path string, limit int) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if limit <= 0 {
		end, err := file.Seek(0, io.SeekEnd)
		if err != nil {
			return nil, 0, fmt.Errorf("seek log file: %w", err)
		}
		return nil, end, nil
	}

	total := 0
	scanner := newLineScanner(file)
	for scanner.Scan() {
		total++
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("count log lines: %w", err)
	}

	skip := total - limit
	if skip < 0 {
		skip = 0
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, 0, fmt.Errorf("rewind log file: %w", err)
	}

	lines := make([]string, 0, total-skip)
	scanner = newLineScanner(file)
	for i := 0; scanner.Scan(); i++ {
		if i < skip {
			continue
		}
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("read log file: %w", err)
	}

	end, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, 0, fmt.Errorf("seek log file: %w", err)
	}
	return lines, end, nil
}

// readFrom returns the lines starting at offset and the offset just past
// what was consumed.
func readFrom(path string, offset int64) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if offset < 0 {
		offset = 0
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return nil, 0, fmt.Errorf("seek log file: %w", err)
	}

	var lines []string
	scanner := newLineScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("read log file: %w", err)
	}

	end, err := file.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, 0, fmt.Errorf("determine log offset: %w", err)
	}
	return lines, end, nil
}

// awaitLines polls the file until new lines appear, the wait window closes,
// or ctx is cancelled.
func awaitLines(ctx context.Context, path string, offset int64, wait time.Duration) (TailResult, error) {
	result := TailResult{Offset: offset}
	deadline := time.Now().Add(wait)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		lines, next, err := readFrom(path, result.Offset)
		if err != nil {
			return result, err
		}
		result.Offset = next
		if len(lines) > 0 {
			result.Lines = lines
			return result, nil
		}
		if !time.Now().Before(deadline) {
			return result, nil
		}
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-ticker.C:
		}
	}
}

func newLineScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return scanner
}
