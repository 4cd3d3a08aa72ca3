package models

// ResourcePermission declares that a role may access a resource path (a
// protected UI route such as "/people" or "/partner-documents").
type ResourcePermission struct {
	BaseModel

	RoleID       string `gorm:"type:uuid;not null;uniqueIndex:idx_role_resource,priority:1" json:"role_id"`
	ResourcePath string `gorm:"type:varchar(128);not null;uniqueIndex:idx_role_resource,priority:2" json:"resource_path"`
	CanAccess    bool   `gorm:"default:true" json:"can_access"`
}

// TableName overrides the default table name for GORM.
func (ResourcePermission) TableName() string {
	return "resource_permissions"
}
