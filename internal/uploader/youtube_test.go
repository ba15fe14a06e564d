package uploader

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"ytpub/internal/sidecar"
)

// uploadServer is a minimal stand-in for the resumable upload endpoint.
type uploadServer struct {
	mu            sync.Mutex
	metadata      []byte
	received      []byte
	total         int64
	videoID       string
	failuresLeft  int
	failureStatus int
	failureBody   string
	thumbnails    int
	thumbnailBody []byte
	server        *httptest.Server
}

func newUploadServer(t *testing.T, videoID string) *uploadServer {
	t.Helper()
	s := &uploadServer{videoID: videoID}
	mux := http.NewServeMux()
	mux.HandleFunc("/upload/videos", s.handleBegin)
	mux.HandleFunc("/session", s.handleChunk)
	mux.HandleFunc("/upload/thumbnails/set", s.handleThumbnail)
	s.server = httptest.NewServer(mux)
	t.Cleanup(s.server.Close)
	return s
}

func (s *uploadServer) transport(chunkSize int64) *HTTPTransport {
	return NewHTTPTransport(s.server.Client(), HTTPOptions{
		UploadURL:    s.server.URL + "/upload/videos",
		ThumbnailURL: s.server.URL + "/upload/thumbnails/set",
		ChunkSize:    chunkSize,
	})
}

func (s *uploadServer) handleBegin(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	body, _ := io.ReadAll(r.Body)
	s.metadata = body
	s.received = nil
	fmt.Sscanf(r.Header.Get("X-Upload-Content-Length"), "%d", &s.total)
	w.Header().Set("Location", s.server.URL+"/session")
	w.WriteHeader(http.StatusOK)
}

func (s *uploadServer) handleChunk(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failuresLeft > 0 {
		s.failuresLeft--
		w.WriteHeader(s.failureStatus)
		io.WriteString(w, s.failureBody)
		return
	}

	contentRange := r.Header.Get("Content-Range")
	if strings.HasPrefix(contentRange, "bytes */") {
		// Offset probe after a failure.
		s.respondProgress(w)
		return
	}

	body, _ := io.ReadAll(r.Body)
	var start int64
	fmt.Sscanf(contentRange, "bytes %d-", &start)
	if start == int64(len(s.received)) {
		s.received = append(s.received, body...)
	}
	s.respondProgress(w)
}

func (s *uploadServer) respondProgress(w http.ResponseWriter) {
	if int64(len(s.received)) >= s.total {
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"id": s.videoID})
		return
	}
	if len(s.received) > 0 {
		w.Header().Set("Range", fmt.Sprintf("bytes=0-%d", len(s.received)-1))
	}
	w.WriteHeader(http.StatusPermanentRedirect)
}

func (s *uploadServer) handleThumbnail(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.thumbnails++
	s.thumbnailBody, _ = io.ReadAll(r.Body)
	w.WriteHeader(http.StatusOK)
}

func (s *uploadServer) snippet(t *testing.T) map[string]any {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	var payload map[string]map[string]any
	if err := json.Unmarshal(s.metadata, &payload); err != nil {
		t.Fatalf("decode metadata: %v", err)
	}
	return payload["snippet"]
}

func writeVideo(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestHTTPTransportChunkedUpload(t *testing.T) {
	server := newUploadServer(t, "vid-http")
	transport := server.transport(4)

	video := writeVideo(t, "0123456789")
	session, err := transport.Begin(context.Background(), Envelope{
		Title:         "t",
		CategoryID:    "27",
		PrivacyStatus: "public",
	}, AssetSource{VideoPath: video})
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	defer session.Close()

	var final ChunkResult
	for {
		result, err := session.Next(context.Background())
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if result.State == ChunkCompleted {
			final = result
			break
		}
	}
	if final.VideoID != "vid-http" {
		t.Fatalf("unexpected id: %q", final.VideoID)
	}
	if string(server.received) != "0123456789" {
		t.Fatalf("server received %q", server.received)
	}
}

func TestHTTPTransportResumesAfterTransientFailure(t *testing.T) {
	server := newUploadServer(t, "vid-resume")
	server.failuresLeft = 1
	server.failureStatus = http.StatusServiceUnavailable
	server.failureBody = `{"error":{"code":503,"message":"backendError"}}`
	transport := server.transport(4)

	video := writeVideo(t, "0123456789")
	session, err := transport.Begin(context.Background(), Envelope{Title: "t"}, AssetSource{VideoPath: video})
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	defer session.Close()

	// First chunk fails with 503.
	if _, err := session.Next(context.Background()); err == nil {
		t.Fatal("expected transient failure")
	} else if Classify(err) != CategoryTransient {
		t.Fatalf("expected transient classification, got %v", err)
	}

	// Subsequent calls probe the confirmed offset and finish the transfer.
	for {
		result, err := session.Next(context.Background())
		if err != nil {
			t.Fatalf("Next after recovery: %v", err)
		}
		if result.State == ChunkCompleted {
			break
		}
	}
	if string(server.received) != "0123456789" {
		t.Fatalf("server received %q", server.received)
	}
}

func TestHTTPTransportSurfacesContentRejection(t *testing.T) {
	server := newUploadServer(t, "unused")
	server.failuresLeft = 1
	server.failureStatus = http.StatusBadRequest
	server.failureBody = `{"error":{"code":400,"message":"The request metadata specifies invalid video keywords.","errors":[{"reason":"invalidTags"}]}}`
	transport := server.transport(4)

	video := writeVideo(t, "0123456789")
	session, err := transport.Begin(context.Background(), Envelope{Title: "t"}, AssetSource{VideoPath: video})
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	defer session.Close()

	_, err = session.Next(context.Background())
	if err == nil {
		t.Fatal("expected rejection")
	}
	if Classify(err) != CategoryTagsRejected {
		t.Fatalf("expected tags rejection, got %v", err)
	}
}

func TestHTTPTransportOmitsAbsentTags(t *testing.T) {
	server := newUploadServer(t, "vid-notags")
	transport := server.transport(64)

	video := writeVideo(t, "abc")
	session, err := transport.Begin(context.Background(), Envelope{Title: "t"}, AssetSource{VideoPath: video})
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	defer session.Close()

	if _, err := session.Next(context.Background()); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if strings.Contains(string(server.metadata), "tags") {
		t.Fatalf("tags field should be omitted: %s", server.metadata)
	}
}

func TestEndToEndUpload(t *testing.T) {
	server := newUploadServer(t, "vid-e2e")
	transport := server.transport(4)

	dir := t.TempDir()
	video := filepath.Join(dir, "clip.mp4")
	if err := os.WriteFile(video, []byte("0123456789"), 0o644); err != nil {
		t.Fatal(err)
	}
	thumb := filepath.Join(dir, "clip.jpg")
	if err := os.WriteFile(thumb, []byte("jpeg-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	meta := sidecar.Metadata{
		Title:         "A−B°",
		Tags:          []string{"ok", "toolong-tag-that-exceeds-thirty-chars-x"},
		CategoryID:    "27",
		PrivacyStatus: "public",
	}

	o := New(transport, Options{RetryInterval: time.Millisecond})
	result, err := o.Upload(context.Background(), meta, AssetSource{
		VideoPath:     video,
		ThumbnailPath: thumb,
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if result.VideoID != "vid-e2e" {
		t.Fatalf("unexpected id: %q", result.VideoID)
	}
	if !result.ThumbnailAttached || server.thumbnails != 1 {
		t.Fatalf("expected thumbnail attach: %+v", result)
	}
	if string(server.thumbnailBody) != "jpeg-bytes" {
		t.Fatalf("unexpected thumbnail payload: %q", server.thumbnailBody)
	}

	snippet := server.snippet(t)
	if snippet["title"] != "A-B degrees" {
		t.Fatalf("unexpected sanitized title: %v", snippet["title"])
	}
	tags, _ := snippet["tags"].([]any)
	if !reflect.DeepEqual(tags, []any{"ok"}) {
		t.Fatalf("unexpected sanitized tags: %v", snippet["tags"])
	}
	if string(server.received) != "0123456789" {
		t.Fatalf("server received %q", server.received)
	}
}
