package services_test

import (
	"errors"
	"strings"
	"testing"

	"ytpub/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalAPI, "uploading", "send chunk", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalAPI) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"uploading", "send chunk", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapNilMarkerDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "uploading", "begin", "no session", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
}

func TestNeedsReview(t *testing.T) {
	validationErr := services.Wrap(services.ErrValidation, "scan", "prepare", "missing sidecar", nil)
	if !services.NeedsReview(validationErr) {
		t.Fatalf("expected review for validation error")
	}
	transientErr := services.Wrap(services.ErrTransient, "uploading", "send chunk", "timeout", errors.New("io"))
	if services.NeedsReview(transientErr) {
		t.Fatalf("expected no review for transient error")
	}
	if services.NeedsReview(nil) {
		t.Fatalf("expected no review for nil error")
	}
}
