package notifications

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"ytpub/internal/config"
)

type capture struct {
	mu       sync.Mutex
	requests []capturedRequest
}

type capturedRequest struct {
	title    string
	body     string
	priority string
}

func newNtfyServer(t *testing.T) (*httptest.Server, *capture) {
	t.Helper()
	c := &capture{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read body: %v", err)
		}
		c.mu.Lock()
		c.requests = append(c.requests, capturedRequest{
			title:    r.Header.Get("Title"),
			body:     string(body),
			priority: r.Header.Get("Priority"),
		})
		c.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)
	return server, c
}

func serviceFor(url string) Service {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = url
	cfg.Notifications.RequestTimeout = 5
	return NewService(&cfg)
}

func TestNoopWhenUnconfigured(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	service := NewService(&cfg)
	if _, ok := service.(noopService); !ok {
		t.Fatalf("expected noop service, got %T", service)
	}
	if err := service.NotifyUploadStarted(context.Background(), "t"); err != nil {
		t.Fatalf("noop should never fail: %v", err)
	}
}

func TestNotifyUploadCompleted(t *testing.T) {
	server, c := newNtfyServer(t)
	service := serviceFor(server.URL)

	if err := service.NotifyUploadCompleted(context.Background(), "Lecture", "vid-1"); err != nil {
		t.Fatalf("NotifyUploadCompleted: %v", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.requests) != 1 {
		t.Fatalf("expected one request, got %d", len(c.requests))
	}
	req := c.requests[0]
	if !strings.Contains(req.body, "Lecture") || !strings.Contains(req.body, "vid-1") {
		t.Fatalf("unexpected body: %q", req.body)
	}
	if req.priority != "high" {
		t.Fatalf("unexpected priority: %q", req.priority)
	}
}

func TestNotifyQueueCompletedWithFailures(t *testing.T) {
	server, c := newNtfyServer(t)
	service := serviceFor(server.URL)

	if err := service.NotifyQueueCompleted(context.Background(), 3, 1, 90*time.Second); err != nil {
		t.Fatalf("NotifyQueueCompleted: %v", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.requests) != 1 {
		t.Fatalf("expected one request, got %d", len(c.requests))
	}
	if !strings.Contains(c.requests[0].body, "3 succeeded, 1 failed") {
		t.Fatalf("unexpected body: %q", c.requests[0].body)
	}
}

func TestDisabledCategorySkipsSend(t *testing.T) {
	server, c := newNtfyServer(t)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Uploads = false
	service := NewService(&cfg)

	if err := service.NotifyUploadStarted(context.Background(), "t"); err != nil {
		t.Fatalf("disabled category should be silent: %v", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.requests) != 0 {
		t.Fatalf("expected no requests, got %d", len(c.requests))
	}
}

func TestServerErrorSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	t.Cleanup(server.Close)
	service := serviceFor(server.URL)

	if err := service.TestNotification(context.Background()); err == nil {
		t.Fatal("expected error from ntfy failure")
	}
}
