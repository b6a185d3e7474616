package stage

import (
	"errors"
	"testing"

	"kiln/internal/queue"
	"kiln/internal/services"
)

func TestParseMissingFrames_Valid(t *testing.T) {
	job := &queue.Job{MissingFrames: "3,6,11"}
	list, err := ParseMissingFrames(job)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 3 || list[0] != 3 || list[1] != 6 || list[2] != 11 {
		t.Fatalf("unexpected frame list: %v", list)
	}
}

func TestParseMissingFrames_Empty(t *testing.T) {
	list, err := ParseMissingFrames(&queue.Job{})
	if err != nil {
		t.Fatalf("unexpected error for empty input: %v", err)
	}
	if list != nil {
		t.Fatalf("expected nil list for empty input, got %v", list)
	}
}

func TestParseMissingFrames_Invalid(t *testing.T) {
	_, err := ParseMissingFrames(&queue.Job{MissingFrames: "3,banana"})
	if err == nil {
		t.Fatal("expected error for malformed list")
	}
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation marker, got %v", err)
	}
}
