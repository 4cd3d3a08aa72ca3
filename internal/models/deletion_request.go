package models

import "time"

// Deletion request states. Pending is the only initial state; Approved and
// Rejected are terminal.
const (
	DeletionPending  = "Pending"
	DeletionApproved = "Approved"
	DeletionRejected = "Rejected"
)

// DocumentDeletionRequest is a pending, admin-resolvable ask to remove a
// socio document. Engineers create them; admins approve or reject.
type DocumentDeletionRequest struct {
	BaseModel

	DocumentID   string `gorm:"type:uuid;not null;index" json:"document_id"`
	DocumentType string `gorm:"type:varchar(64);not null" json:"document_type"`
	DocumentLink string `gorm:"not null" json:"document_link"`
	SocioID      string `gorm:"type:uuid;not null;index" json:"socio_id"`
	RequestedBy  string `gorm:"type:uuid;not null" json:"requested_by"`

	RequestStatus string     `gorm:"type:varchar(16);not null;default:Pending;index" json:"request_status"`
	ApprovedBy    *string    `gorm:"type:uuid" json:"approved_by"`
	ApprovedAt    *time.Time `json:"approved_at"`

	// Set when the request was approved but the backing object could not be
	// removed; the operator must reconcile manually.
	CleanupPending bool `gorm:"default:false" json:"cleanup_pending"`

	Socio *SocioTitular `gorm:"foreignKey:SocioID" json:"socio,omitempty"`
}

// TableName overrides the default table name for GORM.
func (DocumentDeletionRequest) TableName() string {
	return "document_deletion_requests"
}

// IsTerminal reports whether the request has already been resolved.
func (r DocumentDeletionRequest) IsTerminal() bool {
	return r.RequestStatus == DeletionApproved || r.RequestStatus == DeletionRejected
}
