// Package sidecar reads the optional JSON metadata file that accompanies a
// video in its asset folder.
package sidecar

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"ytpub/internal/services"
)

// Metadata is the declared upload metadata for a single video.
//
// Every field is optional in the file. Missing values fall back to the
// defaults passed to Load, with the title defaulting to the video file name
// without its extension.
type Metadata struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Tags          []string `json:"tags"`
	CategoryID    string   `json:"categoryId"`
	PrivacyStatus string   `json:"privacyStatus"`
	PlaylistID    string   `json:"playlistId"`
}

// Defaults supplies fallback values for fields absent from the sidecar.
type Defaults struct {
	CategoryID    string
	PrivacyStatus string
	PlaylistID    string
}

// Load reads the sidecar at path and fills in defaults. A missing file is
// not an error; the returned metadata is entirely defaulted from videoPath.
// TagsPresent reports whether the file declared a tags field at all, which
// is distinct from declaring an empty list.
func Load(path, videoPath string, defaults Defaults) (Metadata, error) {
	meta := Metadata{
		Title:         titleFromVideo(videoPath),
		CategoryID:    defaults.CategoryID,
		PrivacyStatus: defaults.PrivacyStatus,
		PlaylistID:    defaults.PlaylistID,
	}

	if strings.TrimSpace(path) == "" {
		return meta, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return meta, nil
		}
		return Metadata{}, services.Wrap(services.ErrValidation, "scan", "read sidecar", path, err)
	}

	var raw Metadata
	if err := json.Unmarshal(data, &raw); err != nil {
		return Metadata{}, services.Wrap(services.ErrValidation, "scan", "parse sidecar", fmt.Sprintf("%s is not valid JSON", path), err)
	}

	if strings.TrimSpace(raw.Title) != "" {
		meta.Title = raw.Title
	}
	meta.Description = raw.Description
	meta.Tags = raw.Tags
	if strings.TrimSpace(raw.CategoryID) != "" {
		meta.CategoryID = strings.TrimSpace(raw.CategoryID)
	}
	if strings.TrimSpace(raw.PrivacyStatus) != "" {
		meta.PrivacyStatus = strings.ToLower(strings.TrimSpace(raw.PrivacyStatus))
	}
	if strings.TrimSpace(raw.PlaylistID) != "" {
		meta.PlaylistID = strings.TrimSpace(raw.PlaylistID)
	}
	return meta, nil
}

// TagsPresent reports whether the sidecar declared tags. Nil tags mean the
// field was absent and uploads should omit tags entirely.
func (m Metadata) TagsPresent() bool {
	return m.Tags != nil
}

func titleFromVideo(videoPath string) string {
	base := filepath.Base(videoPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
