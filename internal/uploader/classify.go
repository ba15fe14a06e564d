package uploader

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"syscall"

	"ytpub/internal/services"
)

// Category partitions transfer failures by how the orchestrator reacts.
type Category int

const (
	// CategoryFatal aborts the upload and surfaces the error.
	CategoryFatal Category = iota
	// CategoryTransient pauses and resumes the same session.
	CategoryTransient
	// CategoryTagsRejected drops the tag field and restarts the transfer.
	CategoryTagsRejected
	// CategoryDescriptionRejected replaces the description and restarts.
	CategoryDescriptionRejected
)

func (c Category) String() string {
	switch c {
	case CategoryTransient:
		return "transient"
	case CategoryTagsRejected:
		return "tags_rejected"
	case CategoryDescriptionRejected:
		return "description_rejected"
	default:
		return "fatal"
	}
}

// APIError is a structured failure from the platform API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// Transient HTTP statuses per the platform's retry guidance.
var transientStatuses = map[int]struct{}{
	403: {},
	500: {},
	503: {},
}

// Classify maps a transfer failure onto an orchestrator reaction. The
// message match runs before the status match because content rejections
// arrive with generic 4xx statuses. Unmatched failures are conservatively
// fatal so they surface instead of retrying silently.
func Classify(err error) Category {
	if err == nil {
		return CategoryFatal
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		message := strings.ToLower(apiErr.Message)
		switch {
		case strings.Contains(message, "invalidtags"),
			strings.Contains(message, "invalid video keywords"):
			return CategoryTagsRejected
		case strings.Contains(message, "invaliddescription"),
			strings.Contains(message, "invalid video description"):
			return CategoryDescriptionRejected
		}
		if _, ok := transientStatuses[apiErr.StatusCode]; ok {
			return CategoryTransient
		}
		return CategoryFatal
	}

	if isNetworkError(err) {
		return CategoryTransient
	}
	if errors.Is(err, services.ErrTransient) {
		return CategoryTransient
	}
	return CategoryFatal
}

func isNetworkError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	switch {
	case errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.EPIPE):
		return true
	}
	return false
}
