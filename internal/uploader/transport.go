package uploader

import "context"

// ChunkState reports the outcome of one chunk request.
type ChunkState int

const (
	// ChunkPending means the transport acknowledged the chunk and expects more data.
	ChunkPending ChunkState = iota
	// ChunkCompleted means the transfer finished and VideoID is set.
	ChunkCompleted
)

// ChunkResult is the successful outcome of a single chunk request.
// Failures are returned as errors and routed through Classify.
type ChunkResult struct {
	State      ChunkState
	VideoID    string
	BytesSent  int64
	TotalBytes int64
}

// Session is one resumable transfer in flight. Next blocks for a single
// chunk round trip. After a transient failure the next call recovers the
// confirmed offset from the remote side before sending more data, so
// callers simply call Next again to resume. Close releases the underlying
// file handle and must be called on every exit path.
type Session interface {
	Next(ctx context.Context) (ChunkResult, error)
	Close() error
}

// Transport performs the platform-specific transfer work.
type Transport interface {
	// Begin opens the asset and negotiates a resumable session for the
	// given envelope. Each call restarts from byte 0.
	Begin(ctx context.Context, envelope Envelope, asset AssetSource) (Session, error)
	// AttachThumbnail issues the single non-resumable thumbnail call.
	AttachThumbnail(ctx context.Context, videoID, thumbnailPath string) error
}
