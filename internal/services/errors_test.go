package services_test

import (
	"errors"
	"strings"
	"testing"

	"kiln/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrProbe, "probe", "run", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrProbe) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"probe", "run", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapWithoutUnderlyingError(t *testing.T) {
	err := services.Wrap(services.ErrLaunch, "render", "start", "blender missing", nil)
	if !errors.Is(err, services.ErrLaunch) {
		t.Fatalf("expected launch marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "blender missing") {
		t.Fatalf("expected message in error string %q", err.Error())
	}
}

func TestWrapNilMarkerDefaultsToValidation(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation fallback, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected placeholder detail, got %q", err.Error())
	}
}

func TestUserMessagePrefersShortDescription(t *testing.T) {
	err := services.Wrap(services.ErrConfiguration, "rendering", "resolve renderer",
		"Renderer path is unset; run 'kiln blender set-path <path>'", errors.New("stat: no such file"))
	if got := services.UserMessage(err); got != "Renderer path is unset; run 'kiln blender set-path <path>'" {
		t.Fatalf("UserMessage: got %q", got)
	}
	plain := errors.New("boom")
	if got := services.UserMessage(plain); got != "boom" {
		t.Fatalf("UserMessage fallback: got %q", got)
	}
	if got := services.UserMessage(nil); got != "" {
		t.Fatalf("UserMessage(nil): got %q", got)
	}
}

func TestKindLabelsWrappedErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		expect string
	}{
		{"Nil", nil, ""},
		{"Probe", services.Wrap(services.ErrProbe, "probing", "probe scene", "failed", nil), "probe"},
		{"Launch", services.Wrap(services.ErrLaunch, "rendering", "launch", "failed", errors.New("exec")), "launch"},
		{"OutputDir", services.Wrap(services.ErrOutputDir, "", "", "", nil), "output_directory"},
		{"Configuration", services.ErrConfiguration, "configuration"},
		{"Plain", errors.New("boom"), "internal"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := services.Kind(tc.err); got != tc.expect {
				t.Fatalf("Kind: got %q want %q", got, tc.expect)
			}
		})
	}
}

func TestMarkersAreDistinct(t *testing.T) {
	markers := []error{
		services.ErrConfiguration,
		services.ErrProbe,
		services.ErrOutputDir,
		services.ErrLaunch,
		services.ErrValidation,
		services.ErrNotFound,
		services.ErrTimeout,
	}
	for i, a := range markers {
		for j, b := range markers {
			if i != j && errors.Is(a, b) {
				t.Fatalf("markers %v and %v should be distinct", a, b)
			}
		}
	}
}
