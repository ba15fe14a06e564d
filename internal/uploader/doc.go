// Package uploader contains the upload orchestration core: request
// envelope construction, failure classification, the resumable transfer
// transport, and the state machine that drives one asset from sanitized
// metadata to a published video ID.
//
// The orchestrator recovers from transient network failures by resuming
// the in-flight session, and from content rejections by mutating the
// envelope once per rejection kind and restarting the transfer. Anything
// it cannot recover surfaces to the caller as a fatal error.
package uploader
