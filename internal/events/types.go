// Package events provides event types and utilities for the PasteKit event system.
package events

// Event types for the pending-image queue
const (
	PendingChanged = "pending.changed"
	PendingFlushed = "pending.flushed"
	PendingState   = "pending.state"
)

// Event types for uploads
const (
	UploadStarted   = "upload.started"
	UploadCompleted = "upload.completed"
	UploadFailed    = "upload.failed"
)

// Event types for sends
const (
	MessageSent = "message.sent"
)

// Bus subjects
const (
	SubjectPending      = "pastekit.pending"
	SubjectPendingQuery = "pastekit.pending.query"
	SubjectUploads      = "pastekit.uploads"
	SubjectSends        = "pastekit.sends"
)
