package uploader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"

	"ytpub/internal/logging"
	"ytpub/internal/services"
)

const (
	defaultUploadURL    = "https://www.googleapis.com/upload/youtube/v3/videos"
	defaultThumbnailURL = "https://www.googleapis.com/upload/youtube/v3/thumbnails/set"
	defaultChunkSize    = 8 << 20

	videoContentType = "video/mp4"
	maxErrorBody     = 1 << 20
)

// HTTPOptions configures the resumable HTTP transport.
type HTTPOptions struct {
	Logger *slog.Logger
	// UploadURL is the resumable video upload endpoint.
	UploadURL string
	// ThumbnailURL is the thumbnails.set endpoint.
	ThumbnailURL string
	// ChunkSize is the number of bytes sent per request. Defaults to 8 MiB.
	ChunkSize int64
}

// HTTPTransport implements Transport against the platform's resumable
// upload protocol: one metadata POST that yields a session URI, then
// Content-Range PUTs until the server answers with the created video.
type HTTPTransport struct {
	client       *http.Client
	logger       *slog.Logger
	uploadURL    string
	thumbnailURL string
	chunkSize    int64
}

// NewHTTPTransport wraps an authenticated HTTP client.
func NewHTTPTransport(client *http.Client, opts HTTPOptions) *HTTPTransport {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	uploadURL := strings.TrimSpace(opts.UploadURL)
	if uploadURL == "" {
		uploadURL = defaultUploadURL
	}
	thumbnailURL := strings.TrimSpace(opts.ThumbnailURL)
	if thumbnailURL == "" {
		thumbnailURL = defaultThumbnailURL
	}
	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	return &HTTPTransport{
		client:       client,
		logger:       logging.NewComponentLogger(logger, "transport"),
		uploadURL:    uploadURL,
		thumbnailURL: thumbnailURL,
		chunkSize:    chunkSize,
	}
}

type requestSnippet struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	CategoryID  string   `json:"categoryId"`
	Tags        []string `json:"tags,omitempty"`
}

type requestStatus struct {
	PrivacyStatus string `json:"privacyStatus"`
}

type uploadRequest struct {
	Snippet requestSnippet `json:"snippet"`
	Status  requestStatus  `json:"status"`
}

// Begin negotiates a resumable session URI for the envelope and opens the
// video file. The returned session owns the file handle.
func (t *HTTPTransport) Begin(ctx context.Context, envelope Envelope, asset AssetSource) (Session, error) {
	file, err := os.Open(asset.VideoPath)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "uploading", "open video", asset.VideoPath, err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, services.Wrap(services.ErrValidation, "uploading", "stat video", asset.VideoPath, err)
	}
	total := info.Size()

	body, err := json.Marshal(uploadRequest{
		Snippet: requestSnippet{
			Title:       envelope.Title,
			Description: envelope.Description,
			CategoryID:  envelope.CategoryID,
			Tags:        envelope.Tags,
		},
		Status: requestStatus{PrivacyStatus: envelope.PrivacyStatus},
	})
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("encode upload request: %w", err)
	}

	url := t.uploadURL + "?uploadType=resumable&part=snippet,status"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("build session request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	req.Header.Set("X-Upload-Content-Length", strconv.FormatInt(total, 10))
	req.Header.Set("X-Upload-Content-Type", videoContentType)

	resp, err := t.client.Do(req)
	if err != nil {
		file.Close()
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := apiErrorFromResponse(resp)
		file.Close()
		return nil, err
	}
	sessionURI := resp.Header.Get("Location")
	if sessionURI == "" {
		file.Close()
		return nil, &APIError{StatusCode: resp.StatusCode, Message: "missing resumable session location"}
	}

	t.logger.Debug("resumable session opened",
		logging.String("video", asset.VideoPath),
		logging.Int64("total_bytes", total))

	return &httpSession{
		transport:  t,
		file:       file,
		sessionURI: sessionURI,
		total:      total,
	}, nil
}

// AttachThumbnail uploads the thumbnail image in a single call.
func (t *HTTPTransport) AttachThumbnail(ctx context.Context, videoID, thumbnailPath string) error {
	file, err := os.Open(thumbnailPath)
	if err != nil {
		return services.Wrap(services.ErrValidation, "uploading", "open thumbnail", thumbnailPath, err)
	}
	defer file.Close()

	url := t.thumbnailURL + "?videoId=" + videoID
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, file)
	if err != nil {
		return fmt.Errorf("build thumbnail request: %w", err)
	}
	req.Header.Set("Content-Type", "image/jpeg")

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apiErrorFromResponse(resp)
	}
	return nil
}

// httpSession tracks one resumable transfer. After a failed round trip the
// confirmed offset is unknown, so the next call probes the server for the
// last acknowledged byte before sending more data.
type httpSession struct {
	transport  *HTTPTransport
	file       *os.File
	sessionURI string
	total      int64
	offset     int64
	probe      bool
}

func (s *httpSession) Close() error {
	return s.file.Close()
}

func (s *httpSession) Next(ctx context.Context) (ChunkResult, error) {
	if s.probe {
		result, err := s.recoverOffset(ctx)
		if err != nil || result.State == ChunkCompleted {
			return result, err
		}
	}

	size := s.transport.chunkSize
	if remaining := s.total - s.offset; remaining < size {
		size = remaining
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.sessionURI,
		io.NewSectionReader(s.file, s.offset, size))
	if err != nil {
		return ChunkResult{}, fmt.Errorf("build chunk request: %w", err)
	}
	req.ContentLength = size
	if s.total == 0 {
		req.Header.Set("Content-Range", "bytes */0")
	} else {
		req.Header.Set("Content-Range",
			fmt.Sprintf("bytes %d-%d/%d", s.offset, s.offset+size-1, s.total))
	}

	resp, err := s.transport.client.Do(req)
	if err != nil {
		s.probe = true
		return ChunkResult{}, err
	}
	defer resp.Body.Close()

	return s.handleResponse(resp, s.offset+size)
}

// recoverOffset asks the server how many bytes it has confirmed.
func (s *httpSession) recoverOffset(ctx context.Context) (ChunkResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.sessionURI, nil)
	if err != nil {
		return ChunkResult{}, fmt.Errorf("build status request: %w", err)
	}
	req.Header.Set("Content-Range", fmt.Sprintf("bytes */%d", s.total))

	resp, err := s.transport.client.Do(req)
	if err != nil {
		return ChunkResult{}, err
	}
	defer resp.Body.Close()

	result, err := s.handleResponse(resp, s.offset)
	if err != nil {
		return ChunkResult{}, err
	}
	s.probe = false
	return result, nil
}

func (s *httpSession) handleResponse(resp *http.Response, sentThrough int64) (ChunkResult, error) {
	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		var created struct {
			ID string `json:"id"`
		}
		if err := json.NewDecoder(io.LimitReader(resp.Body, maxErrorBody)).Decode(&created); err != nil {
			return ChunkResult{}, fmt.Errorf("decode upload response: %w", err)
		}
		if created.ID == "" {
			return ChunkResult{}, &APIError{StatusCode: resp.StatusCode, Message: "upload response missing video id"}
		}
		s.offset = s.total
		return ChunkResult{State: ChunkCompleted, VideoID: created.ID, BytesSent: s.total, TotalBytes: s.total}, nil
	case http.StatusPermanentRedirect:
		if confirmed, ok := parseRangeHeader(resp.Header.Get("Range")); ok {
			s.offset = confirmed
		} else {
			s.offset = sentThrough
		}
		return ChunkResult{State: ChunkPending, BytesSent: s.offset, TotalBytes: s.total}, nil
	default:
		s.probe = true
		return ChunkResult{}, apiErrorFromResponse(resp)
	}
}

// parseRangeHeader extracts the next offset from "bytes=0-N".
func parseRangeHeader(header string) (int64, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0, false
	}
	header = strings.TrimPrefix(header, "bytes=")
	parts := strings.SplitN(header, "-", 2)
	if len(parts) != 2 {
		return 0, false
	}
	last, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return last + 1, true
}

func apiErrorFromResponse(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var payload struct {
		Error struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
			Errors  []struct {
				Reason  string `json:"reason"`
				Message string `json:"message"`
			} `json:"errors"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error.Message != "" {
		message := payload.Error.Message
		if len(payload.Error.Errors) > 0 && payload.Error.Errors[0].Reason != "" {
			message = payload.Error.Errors[0].Reason + ": " + message
		}
		return &APIError{StatusCode: resp.StatusCode, Message: message}
	}

	message := strings.TrimSpace(string(body))
	if message == "" {
		message = resp.Status
	}
	return &APIError{StatusCode: resp.StatusCode, Message: message}
}
