// Package notifications sends ntfy push notifications for upload lifecycle
// events. When no topic is configured every call is a silent no-op.
package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ytpub/internal/config"
)

const userAgent = "ytpub/0.1.0"

// Service defines the notification surface exposed to workflow components.
type Service interface {
	NotifyUploadStarted(ctx context.Context, title string) error
	NotifyUploadCompleted(ctx context.Context, title, videoID string) error
	NotifyUploadFailed(ctx context.Context, title, reason string) error
	NotifyReviewRequired(ctx context.Context, title, reason string) error
	NotifyQueueCompleted(ctx context.Context, processed, failed int, duration time.Duration) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		uploads:  cfg.Notifications.Uploads,
		queue:    cfg.Notifications.Queue,
		errors:   cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	uploads  bool
	queue    bool
	errors   bool
}

func (n *ntfyService) NotifyUploadStarted(ctx context.Context, title string) error {
	if !n.uploads {
		return nil
	}
	data := payload{
		title:   "ytpub - Upload Started",
		message: fmt.Sprintf("Uploading: %s", strings.TrimSpace(title)),
		tags:    []string{"ytpub", "upload", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyUploadCompleted(ctx context.Context, title, videoID string) error {
	if !n.uploads {
		return nil
	}
	data := payload{
		title:    "ytpub - Upload Complete",
		message:  fmt.Sprintf("Published: %s (%s)", strings.TrimSpace(title), strings.TrimSpace(videoID)),
		tags:     []string{"ytpub", "upload", "completed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyUploadFailed(ctx context.Context, title, reason string) error {
	if !n.errors {
		return nil
	}
	data := payload{
		title:    "ytpub - Upload Failed",
		message:  fmt.Sprintf("Failed: %s\n%s", strings.TrimSpace(title), strings.TrimSpace(reason)),
		tags:     []string{"ytpub", "upload", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyReviewRequired(ctx context.Context, title, reason string) error {
	if !n.errors {
		return nil
	}
	data := payload{
		title:   "ytpub - Review Required",
		message: fmt.Sprintf("Needs attention: %s\n%s", strings.TrimSpace(title), strings.TrimSpace(reason)),
		tags:    []string{"ytpub", "review"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyQueueCompleted(ctx context.Context, processed, failed int, duration time.Duration) error {
	if !n.queue {
		return nil
	}
	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}
	durationText := duration.String()

	var title, message string
	if failed == 0 {
		title = "ytpub - Queue Complete"
		message = fmt.Sprintf("Queue complete: %d uploads in %s", processed, durationText)
	} else {
		title = "ytpub - Queue Complete (with errors)"
		message = fmt.Sprintf("Queue complete: %d succeeded, %d failed in %s", processed, failed, durationText)
	}

	data := payload{
		title:   title,
		message: message,
		tags:    []string{"ytpub", "queue", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "ytpub - Test",
		message:  "Notification system test",
		tags:     []string{"ytpub", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyUploadStarted(context.Context, string) error            { return nil }
func (noopService) NotifyUploadCompleted(context.Context, string, string) error  { return nil }
func (noopService) NotifyUploadFailed(context.Context, string, string) error     { return nil }
func (noopService) NotifyReviewRequired(context.Context, string, string) error   { return nil }
func (noopService) NotifyQueueCompleted(context.Context, int, int, time.Duration) error {
	return nil
}
func (noopService) TestNotification(context.Context) error { return nil }
