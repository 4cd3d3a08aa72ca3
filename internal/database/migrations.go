package database

import (
	"gorm.io/gorm"

	"github.com/lvaldez/padron/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Role{},
		&models.ResourcePermission{},
		&models.Session{},
		&models.SocioTitular{},
		&models.SocioDocumento{},
		&models.DocumentDeletionRequest{},
		&models.Cuenta{},
		&models.Ingreso{},
		&models.Gasto{},
		&models.Jornada{},
		&models.AuditLog{},
	)
}

// defaultResourceGrants maps the seeded roles to the resource paths they can
// reach. The dashboard root and /invoicing are never listed here: the
// permission resolver adds them to any non-empty set.
var defaultResourceGrants = map[string][]string{
	models.RoleAdmin: {
		"/dashboard", "/people", "/partner-documents", "/income",
		"/expenses", "/accounts", "/jornada", "/settings",
	},
	models.RoleEngineer: {
		"/dashboard", "/people", "/partner-documents",
	},
	models.RoleFinanzas: {
		"/dashboard", "/income", "/expenses", "/accounts",
	},
}

// SeedData populates default roles and their resource permissions.
func SeedData(db *gorm.DB) error {
	roles := []models.Role{
		{
			BaseModel:   models.BaseModel{ID: models.RoleAdmin},
			Name:        models.RoleAdmin,
			Description: "Full system access",
			IsSystem:    true,
		},
		{
			BaseModel:   models.BaseModel{ID: models.RoleEngineer},
			Name:        models.RoleEngineer,
			Description: "Engineering document management",
			IsSystem:    true,
		},
		{
			BaseModel:   models.BaseModel{ID: models.RoleFinanzas},
			Name:        models.RoleFinanzas,
			Description: "Treasury and invoicing access",
			IsSystem:    true,
		},
	}

	for _, role := range roles {
		if err := db.Where(models.Role{BaseModel: models.BaseModel{ID: role.ID}}).
			Attrs(role).FirstOrCreate(&models.Role{}).Error; err != nil {
			return err
		}
	}

	for roleID, paths := range defaultResourceGrants {
		for _, path := range paths {
			grant := models.ResourcePermission{
				RoleID:       roleID,
				ResourcePath: path,
				CanAccess:    true,
			}
			if err := db.Where(models.ResourcePermission{RoleID: roleID, ResourcePath: path}).
				Attrs(grant).FirstOrCreate(&models.ResourcePermission{}).Error; err != nil {
				return err
			}
		}
	}

	return nil
}
