package uploader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ytpub/internal/sidecar"
)

// scriptedSession returns canned outcomes in order, then repeats the last.
type scriptedSession struct {
	outcomes []outcome
	calls    int
	closed   bool
}

type outcome struct {
	result ChunkResult
	err    error
}

func (s *scriptedSession) Next(context.Context) (ChunkResult, error) {
	idx := s.calls
	if idx >= len(s.outcomes) {
		idx = len(s.outcomes) - 1
	}
	s.calls++
	out := s.outcomes[idx]
	return out.result, out.err
}

func (s *scriptedSession) Close() error {
	s.closed = true
	return nil
}

// scriptedTransport hands out one session per Begin call and records the
// envelopes it saw.
type scriptedTransport struct {
	sessions     []*scriptedSession
	begins       []Envelope
	beginErr     error
	thumbnailErr error
	thumbnails   []string
}

func (t *scriptedTransport) Begin(_ context.Context, envelope Envelope, _ AssetSource) (Session, error) {
	t.begins = append(t.begins, envelope)
	if t.beginErr != nil {
		return nil, t.beginErr
	}
	idx := len(t.begins) - 1
	if idx >= len(t.sessions) {
		idx = len(t.sessions) - 1
	}
	return t.sessions[idx], nil
}

func (t *scriptedTransport) AttachThumbnail(_ context.Context, videoID, path string) error {
	t.thumbnails = append(t.thumbnails, path)
	return t.thumbnailErr
}

func newTestOrchestrator(transport Transport, maxRetries int) (*Orchestrator, *int) {
	o := New(transport, Options{MaxTransientRetries: maxRetries})
	pauses := 0
	o.pause = func(context.Context, time.Duration) error {
		pauses++
		return nil
	}
	return o, &pauses
}

func completed(id string) outcome {
	return outcome{result: ChunkResult{State: ChunkCompleted, VideoID: id}}
}

func failed(err error) outcome {
	return outcome{err: err}
}

var testMeta = sidecar.Metadata{
	Title:         "Lecture",
	Description:   "Notes",
	Tags:          []string{"go", "testing"},
	CategoryID:    "27",
	PrivacyStatus: "public",
}

func TestUploadSuccess(t *testing.T) {
	session := &scriptedSession{outcomes: []outcome{
		{result: ChunkResult{State: ChunkPending, BytesSent: 5, TotalBytes: 10}},
		completed("vid-1"),
	}}
	transport := &scriptedTransport{sessions: []*scriptedSession{session}}
	o, pauses := newTestOrchestrator(transport, 0)

	result, err := o.Upload(context.Background(), testMeta, AssetSource{VideoPath: "clip.mp4"})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if result.VideoID != "vid-1" {
		t.Fatalf("unexpected video id: %q", result.VideoID)
	}
	if *pauses != 0 || result.TransientRetries != 0 {
		t.Fatalf("unexpected retries: pauses=%d retries=%d", *pauses, result.TransientRetries)
	}
	if !session.closed {
		t.Fatal("session not closed")
	}
	if len(transport.begins) != 1 {
		t.Fatalf("expected one transfer, got %d", len(transport.begins))
	}
}

func TestUploadTransientRecovery(t *testing.T) {
	transientErr := &APIError{StatusCode: 503, Message: "backendError"}
	session := &scriptedSession{outcomes: []outcome{
		failed(transientErr),
		failed(transientErr),
		completed("vid-2"),
	}}
	transport := &scriptedTransport{sessions: []*scriptedSession{session}}
	o, pauses := newTestOrchestrator(transport, 0)

	result, err := o.Upload(context.Background(), testMeta, AssetSource{VideoPath: "clip.mp4"})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if *pauses != 2 || result.TransientRetries != 2 {
		t.Fatalf("expected two pauses, got pauses=%d retries=%d", *pauses, result.TransientRetries)
	}
	if len(transport.begins) != 1 {
		t.Fatalf("transient retry must resume the session, got %d transfers", len(transport.begins))
	}
}

func TestUploadDropsTagsOnce(t *testing.T) {
	tagsErr := &APIError{StatusCode: 400, Message: "invalidTags: invalid video keywords"}
	first := &scriptedSession{outcomes: []outcome{failed(tagsErr)}}
	second := &scriptedSession{outcomes: []outcome{completed("vid-3")}}
	transport := &scriptedTransport{sessions: []*scriptedSession{first, second}}
	o, _ := newTestOrchestrator(transport, 0)

	result, err := o.Upload(context.Background(), testMeta, AssetSource{VideoPath: "clip.mp4"})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if !result.TagsDropped {
		t.Fatal("expected tags dropped")
	}
	if len(transport.begins) != 2 {
		t.Fatalf("expected fresh transfer after drop, got %d", len(transport.begins))
	}
	if transport.begins[0].Tags == nil {
		t.Fatal("first transfer should carry tags")
	}
	if transport.begins[1].Tags != nil {
		t.Fatalf("second transfer must omit tags, got %v", transport.begins[1].Tags)
	}
	if !first.closed || !second.closed {
		t.Fatal("sessions not closed")
	}
}

func TestUploadTagsRejectedTwiceIsFatal(t *testing.T) {
	tagsErr := &APIError{StatusCode: 400, Message: "invalidTags: invalid video keywords"}
	first := &scriptedSession{outcomes: []outcome{failed(tagsErr)}}
	second := &scriptedSession{outcomes: []outcome{failed(tagsErr)}}
	transport := &scriptedTransport{sessions: []*scriptedSession{first, second}}
	o, _ := newTestOrchestrator(transport, 0)

	_, err := o.Upload(context.Background(), testMeta, AssetSource{VideoPath: "clip.mp4"})
	if err == nil {
		t.Fatal("expected fatal error after second rejection")
	}
	if len(transport.begins) != 2 {
		t.Fatalf("drop-once violated: %d transfers", len(transport.begins))
	}
}

func TestUploadReplacesDescriptionOnce(t *testing.T) {
	descErr := &APIError{StatusCode: 400, Message: "invalidDescription: invalid video description"}
	first := &scriptedSession{outcomes: []outcome{failed(descErr)}}
	second := &scriptedSession{outcomes: []outcome{completed("vid-4")}}
	transport := &scriptedTransport{sessions: []*scriptedSession{first, second}}
	o, _ := newTestOrchestrator(transport, 0)

	result, err := o.Upload(context.Background(), testMeta, AssetSource{VideoPath: "clip.mp4"})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if !result.DescriptionReplaced {
		t.Fatal("expected description replaced")
	}
	if transport.begins[1].Description != PlaceholderDescription {
		t.Fatalf("unexpected description: %q", transport.begins[1].Description)
	}
	// Tags survive a description fallback.
	if transport.begins[1].Tags == nil {
		t.Fatal("tags should be untouched by description fallback")
	}
}

func TestUploadFatalSurfaces(t *testing.T) {
	fatalErr := &APIError{StatusCode: 404, Message: "videoNotFound"}
	session := &scriptedSession{outcomes: []outcome{failed(fatalErr)}}
	transport := &scriptedTransport{sessions: []*scriptedSession{session}}
	o, _ := newTestOrchestrator(transport, 0)

	_, err := o.Upload(context.Background(), testMeta, AssetSource{VideoPath: "clip.mp4"})
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected underlying api error, got %v", err)
	}
	if !session.closed {
		t.Fatal("session not closed on abort")
	}
}

func TestUploadRetryBudgetExhausted(t *testing.T) {
	transientErr := &APIError{StatusCode: 500, Message: "backendError"}
	session := &scriptedSession{outcomes: []outcome{failed(transientErr)}}
	transport := &scriptedTransport{sessions: []*scriptedSession{session}}
	o, pauses := newTestOrchestrator(transport, 2)

	_, err := o.Upload(context.Background(), testMeta, AssetSource{VideoPath: "clip.mp4"})
	if err == nil {
		t.Fatal("expected retry budget error")
	}
	if *pauses != 2 {
		t.Fatalf("expected two pauses before giving up, got %d", *pauses)
	}
}

func TestUploadThumbnailFailureKeepsSuccess(t *testing.T) {
	dir := t.TempDir()
	thumb := filepath.Join(dir, "thumb.jpg")
	if err := os.WriteFile(thumb, []byte("jpeg"), 0o644); err != nil {
		t.Fatal(err)
	}

	session := &scriptedSession{outcomes: []outcome{completed("vid-5")}}
	transport := &scriptedTransport{
		sessions:     []*scriptedSession{session},
		thumbnailErr: &APIError{StatusCode: 500, Message: "backendError"},
	}
	o, _ := newTestOrchestrator(transport, 0)

	result, err := o.Upload(context.Background(), testMeta, AssetSource{
		VideoPath:     "clip.mp4",
		ThumbnailPath: thumb,
	})
	if err != nil {
		t.Fatalf("thumbnail failure must not fail the upload: %v", err)
	}
	if result.VideoID != "vid-5" {
		t.Fatalf("unexpected video id: %q", result.VideoID)
	}
	if result.ThumbnailAttached || result.ThumbnailError == nil {
		t.Fatalf("expected recorded thumbnail failure: %+v", result)
	}
}

func TestUploadThumbnailAttached(t *testing.T) {
	dir := t.TempDir()
	thumb := filepath.Join(dir, "thumb.jpg")
	if err := os.WriteFile(thumb, []byte("jpeg"), 0o644); err != nil {
		t.Fatal(err)
	}

	session := &scriptedSession{outcomes: []outcome{completed("vid-6")}}
	transport := &scriptedTransport{sessions: []*scriptedSession{session}}
	o, _ := newTestOrchestrator(transport, 0)

	result, err := o.Upload(context.Background(), testMeta, AssetSource{
		VideoPath:     "clip.mp4",
		ThumbnailPath: thumb,
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if !result.ThumbnailAttached {
		t.Fatal("expected thumbnail attached")
	}
	if len(transport.thumbnails) != 1 || transport.thumbnails[0] != thumb {
		t.Fatalf("unexpected thumbnail calls: %v", transport.thumbnails)
	}
}

func TestUploadMissingThumbnailSkipped(t *testing.T) {
	session := &scriptedSession{outcomes: []outcome{completed("vid-7")}}
	transport := &scriptedTransport{sessions: []*scriptedSession{session}}
	o, _ := newTestOrchestrator(transport, 0)

	result, err := o.Upload(context.Background(), testMeta, AssetSource{
		VideoPath:     "clip.mp4",
		ThumbnailPath: filepath.Join(t.TempDir(), "absent.jpg"),
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if result.ThumbnailAttached || len(transport.thumbnails) != 0 {
		t.Fatalf("expected no thumbnail call: %+v", result)
	}
}

func TestUploadTransientBeginRetries(t *testing.T) {
	session := &scriptedSession{outcomes: []outcome{completed("vid-8")}}
	transport := &scriptedTransport{sessions: []*scriptedSession{session}}
	transientErr := &APIError{StatusCode: 503, Message: "backendError"}
	transport.beginErr = transientErr
	o, pauses := newTestOrchestrator(transport, 0)

	// Clear the begin failure after the first pause so the retry succeeds.
	o.pause = func(context.Context, time.Duration) error {
		transport.beginErr = nil
		*pauses = *pauses + 1
		return nil
	}

	result, err := o.Upload(context.Background(), testMeta, AssetSource{VideoPath: "clip.mp4"})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if result.VideoID != "vid-8" || *pauses != 1 {
		t.Fatalf("unexpected result: %+v pauses=%d", result, *pauses)
	}
}

func TestUploadContextCancelDuringPause(t *testing.T) {
	transientErr := &APIError{StatusCode: 503, Message: "backendError"}
	session := &scriptedSession{outcomes: []outcome{failed(transientErr)}}
	transport := &scriptedTransport{sessions: []*scriptedSession{session}}
	o := New(transport, Options{RetryInterval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := o.Upload(ctx, testMeta, AssetSource{VideoPath: "clip.mp4"})
	if err == nil {
		t.Fatal("expected cancellation error")
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
