// Package tube wraps the YouTube Data API surfaces ytpub consumes outside
// the upload path: playlist listing and caption retrieval.
package tube

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	youtube "google.golang.org/api/youtube/v3"

	"ytpub/internal/logging"
)

// ErrCaptionsDisabled indicates the video owner disabled third-party captions.
var ErrCaptionsDisabled = errors.New("captions are disabled for this video")

const playlistPageSize = 50

// NewYouTubeService builds a youtube.Service from an authenticated client.
// Extra options allow tests to point the service at a local endpoint.
func NewYouTubeService(ctx context.Context, client *http.Client, extra ...option.ClientOption) (*youtube.Service, error) {
	opts := append([]option.ClientOption{option.WithHTTPClient(client)}, extra...)
	svc, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}
	return svc, nil
}

// Lister retrieves ordered video IDs from playlists.
type Lister struct {
	svc    *youtube.Service
	logger *slog.Logger
}

// NewLister wraps a youtube service for playlist queries.
func NewLister(svc *youtube.Service, logger *slog.Logger) *Lister {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Lister{svc: svc, logger: logging.NewComponentLogger(logger, "tube")}
}

// ParsePlaylistID extracts a playlist ID from a locator, which may be a bare
// ID or a youtube.com URL carrying a list query parameter.
func ParsePlaylistID(locator string) (string, error) {
	locator = strings.TrimSpace(locator)
	if locator == "" {
		return "", errors.New("playlist locator is required")
	}
	if !strings.Contains(locator, "://") && !strings.Contains(locator, "/") {
		return locator, nil
	}
	parsed, err := url.Parse(locator)
	if err != nil {
		return "", fmt.Errorf("parse playlist url: %w", err)
	}
	if id := parsed.Query().Get("list"); id != "" {
		return id, nil
	}
	return "", fmt.Errorf("no playlist id in %q", locator)
}

// PlaylistVideoIDs returns the video IDs of a playlist in playlist order.
// The locator may be a playlist ID or a playlist URL. On failure the slice is
// empty and the error carries the diagnostic; callers that only report should
// print it and carry on.
func (l *Lister) PlaylistVideoIDs(ctx context.Context, locator string) ([]string, error) {
	playlistID, err := ParsePlaylistID(locator)
	if err != nil {
		return nil, err
	}

	var ids []string
	pageToken := ""
	for {
		call := l.svc.PlaylistItems.List([]string{"contentDetails"}).
			PlaylistId(playlistID).
			MaxResults(playlistPageSize).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			l.logger.Warn("playlist listing failed",
				logging.String("playlist_id", playlistID),
				logging.Error(err))
			return nil, fmt.Errorf("list playlist %s: %w", playlistID, err)
		}

		for _, entry := range resp.Items {
			if entry.ContentDetails != nil && entry.ContentDetails.VideoId != "" {
				ids = append(ids, entry.ContentDetails.VideoId)
			}
		}

		if resp.NextPageToken == "" {
			return ids, nil
		}
		pageToken = resp.NextPageToken
	}
}

// Captions retrieves caption track text for owned videos.
type Captions struct {
	svc    *youtube.Service
	logger *slog.Logger
}

// NewCaptions wraps a youtube service for caption retrieval.
func NewCaptions(svc *youtube.Service, logger *slog.Logger) *Captions {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Captions{svc: svc, logger: logging.NewComponentLogger(logger, "tube")}
}

// Fetch downloads the caption track for a video as plain text. When lang is
// empty the first available track is used. Returns ErrCaptionsDisabled when
// the video does not permit caption access.
func (c *Captions) Fetch(ctx context.Context, videoID, lang string) (string, error) {
	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		return "", errors.New("video id is required")
	}

	list, err := c.svc.Captions.List([]string{"snippet"}, videoID).Context(ctx).Do()
	if err != nil {
		return "", classifyCaptionError(videoID, err)
	}

	trackID := ""
	for _, track := range list.Items {
		if track.Snippet == nil {
			continue
		}
		if lang == "" || strings.EqualFold(track.Snippet.Language, lang) {
			trackID = track.Id
			break
		}
	}
	if trackID == "" {
		return "", fmt.Errorf("no caption track for video %s (lang %q)", videoID, lang)
	}

	resp, err := c.svc.Captions.Download(trackID).Tfmt("srt").Context(ctx).Download()
	if err != nil {
		return "", classifyCaptionError(videoID, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read caption body: %w", err)
	}
	return flattenSRT(string(body)), nil
}

func classifyCaptionError(videoID string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		for _, item := range apiErr.Errors {
			if item.Reason == "captionsDisabled" {
				return fmt.Errorf("video %s: %w", videoID, ErrCaptionsDisabled)
			}
		}
	}
	return fmt.Errorf("fetch captions for %s: %w", videoID, err)
}

// flattenSRT strips sequence numbers and timecodes, returning caption text
// joined by single spaces.
func flattenSRT(raw string) string {
	var parts []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || isSequenceNumber(line) || strings.Contains(line, "-->") {
			continue
		}
		parts = append(parts, line)
	}
	return strings.Join(parts, " ")
}

func isSequenceNumber(line string) bool {
	for _, r := range line {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
