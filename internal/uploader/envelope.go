package uploader

import (
	"ytpub/internal/sanitize"
	"ytpub/internal/sidecar"
)

// PlaceholderDescription replaces a description the platform rejected.
const PlaceholderDescription = "Watch this educational video."

// Envelope is the sanitized, mutable projection of sidecar metadata that
// is actually transmitted. Fallback remediation mutates the envelope only;
// the on-disk sidecar and the video payload are never touched.
type Envelope struct {
	Title         string
	Description   string
	Tags          []string // nil omits the field from the request
	CategoryID    string
	PrivacyStatus string
}

// AssetSource locates the binary artifacts for one upload.
type AssetSource struct {
	VideoPath     string
	ThumbnailPath string
}

// BuildEnvelope sanitizes sidecar metadata into a transmittable envelope.
func BuildEnvelope(meta sidecar.Metadata) Envelope {
	return Envelope{
		Title:         sanitize.Text(meta.Title),
		Description:   sanitize.Text(meta.Description),
		Tags:          sanitize.Tags(meta.Tags),
		CategoryID:    meta.CategoryID,
		PrivacyStatus: meta.PrivacyStatus,
	}
}

// DropTags removes the tag field entirely.
func (e *Envelope) DropTags() {
	e.Tags = nil
}

// ReplaceDescription swaps in the safe placeholder description.
func (e *Envelope) ReplaceDescription() {
	e.Description = PlaceholderDescription
}
