package logs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"kiln/internal/logs"
)

func TestTailLastLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kilnd.log")
	content := "a\nb\nc\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	result, err := logs.Tail(context.Background(), path, logs.TailOptions{Offset: -1, Limit: 2})
	if err != nil {
		t.Fatalf("tail returned error: %v", err)
	}
	if len(result.Lines) != 2 || result.Lines[0] != "b" || result.Lines[1] != "c" {
		t.Fatalf("unexpected lines: %#v", result.Lines)
	}
	if result.Offset != int64(len(content)) {
		t.Fatalf("expected offset %d, got %d", len(content), result.Offset)
	}
}

func TestTailLimitLargerThanFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kilnd.log")
	if err := os.WriteFile(path, []byte("only\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	result, err := logs.Tail(context.Background(), path, logs.TailOptions{Offset: -1, Limit: 10})
	if err != nil {
		t.Fatalf("tail returned error: %v", err)
	}
	if len(result.Lines) != 1 || result.Lines[0] != "only" {
		t.Fatalf("unexpected lines: %#v", result.Lines)
	}
}

func TestTailMissingFileIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "absent.log")

	result, err := logs.Tail(context.Background(), path, logs.TailOptions{Offset: -1, Limit: 5})
	if err != nil {
		t.Fatalf("tail returned error: %v", err)
	}
	if len(result.Lines) != 0 || result.Offset != 0 {
		t.Fatalf("expected empty result, got %#v", result)
	}
}

func TestTailResumesFromOffset(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kilnd.log")
	if err := os.WriteFile(path, []byte("one\ntwo\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	first, err := logs.Tail(context.Background(), path, logs.TailOptions{Offset: 0})
	if err != nil {
		t.Fatalf("first tail: %v", err)
	}
	if len(first.Lines) != 2 {
		t.Fatalf("expected both lines, got %#v", first.Lines)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open append: %v", err)
	}
	if _, err := f.WriteString("three\n"); err != nil {
		t.Fatalf("append log: %v", err)
	}
	_ = f.Close()

	second, err := logs.Tail(context.Background(), path, logs.TailOptions{Offset: first.Offset})
	if err != nil {
		t.Fatalf("second tail: %v", err)
	}
	if len(second.Lines) != 1 || second.Lines[0] != "three" {
		t.Fatalf("unexpected resumed lines: %#v", second.Lines)
	}
}

func TestTailFollowWaits(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kilnd.log")
	if err := os.WriteFile(path, []byte("start\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	opts := logs.TailOptions{Offset: -1, Limit: 1}
	result, err := logs.Tail(ctx, path, opts)
	if err != nil {
		t.Fatalf("initial tail: %v", err)
	}
	if len(result.Lines) != 1 {
		t.Fatalf("expected initial line, got %#v", result.Lines)
	}

	done := make(chan struct{})
	go func(offset int64) {
		res, err := logs.Tail(ctx, path, logs.TailOptions{Offset: offset, Follow: true, Wait: 5 * time.Second})
		if err != nil {
			t.Errorf("follow tail error: %v", err)
		}
		if len(res.Lines) != 1 || res.Lines[0] != "later" {
			t.Errorf("unexpected follow lines: %#v", res.Lines)
		}
		close(done)
	}(result.Offset)

	time.Sleep(200 * time.Millisecond)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open append: %v", err)
	}
	if _, err := f.WriteString("later\n"); err != nil {
		t.Fatalf("append log: %v", err)
	}
	_ = f.Close()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("tail follow did not return")
	}
}

func TestTailFollowWaitExpires(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kilnd.log")
	if err := os.WriteFile(path, []byte("quiet\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	initial, err := logs.Tail(context.Background(), path, logs.TailOptions{Offset: -1, Limit: 1})
	if err != nil {
		t.Fatalf("initial tail: %v", err)
	}

	start := time.Now()
	res, err := logs.Tail(context.Background(), path, logs.TailOptions{
		Offset: initial.Offset,
		Follow: true,
		Wait:   300 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("follow tail: %v", err)
	}
	if len(res.Lines) != 0 {
		t.Fatalf("expected no lines, got %#v", res.Lines)
	}
	if res.Offset != initial.Offset {
		t.Fatalf("expected offset unchanged, got %d", res.Offset)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("follow blocked too long: %s", elapsed)
	}
}
