package realtime

// Named realtime streams used across the dashboard.
const (
	StreamDeletionRequests = "deletion-requests"
	StreamDocuments        = "documents"
	StreamNotifications    = "notifications"
)

// Events published on the streams above.
const (
	EventDeletionRequested = "deletion.requested"
	EventDeletionResolved  = "deletion.resolved"
	EventDocumentUploaded  = "document.uploaded"
	EventDocumentDeleted   = "document.deleted"
)
