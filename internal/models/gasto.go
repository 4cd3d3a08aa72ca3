package models

import "time"

// Gasto records an expense paid out of a treasury account.
type Gasto struct {
	BaseModel

	CuentaID string `gorm:"type:uuid;not null;index" json:"cuenta_id"`

	Monto       float64   `gorm:"not null" json:"monto"`
	Fecha       time.Time `gorm:"index;not null" json:"fecha"`
	Concepto    string    `gorm:"not null" json:"concepto"`
	Comprobante string    `json:"comprobante"`

	RegisteredBy string `gorm:"type:uuid" json:"registered_by"`

	Cuenta *Cuenta `gorm:"foreignKey:CuentaID" json:"cuenta,omitempty"`
}

// TableName overrides the default table name for GORM.
func (Gasto) TableName() string {
	return "gastos"
}
