package models

import "gorm.io/datatypes"

// AuditLog records administrative actions for later review.
type AuditLog struct {
	BaseModel

	UserID   string         `gorm:"type:uuid;index" json:"user_id"`
	Action   string         `gorm:"type:varchar(64);not null;index" json:"action"`
	Resource string         `gorm:"type:varchar(64)" json:"resource"`
	TargetID string         `gorm:"type:uuid;index" json:"target_id"`
	Metadata datatypes.JSON `json:"metadata"`
}

// TableName overrides the default table name for GORM.
func (AuditLog) TableName() string {
	return "audit_logs"
}
