package models

// Well-known role identifiers seeded at start-up.
const (
	RoleAdmin    = "admin"
	RoleEngineer = "engineer"
	RoleFinanzas = "finanzas"
)

// Role is a named permission group assigned to users.
type Role struct {
	BaseModel

	Name        string `gorm:"uniqueIndex;not null" json:"name"`
	Description string `json:"description"`
	IsSystem    bool   `gorm:"default:false" json:"is_system"`

	ResourcePermissions []ResourcePermission `gorm:"foreignKey:RoleID" json:"resource_permissions,omitempty"`
	Users               []User               `gorm:"many2many:user_roles;" json:"users,omitempty"`
}
