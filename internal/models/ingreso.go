package models

import "time"

// Ingreso records a payment received from a socio.
type Ingreso struct {
	BaseModel

	SocioID  string `gorm:"type:uuid;index" json:"socio_id"`
	CuentaID string `gorm:"type:uuid;not null;index" json:"cuenta_id"`

	Monto        float64   `gorm:"not null" json:"monto"`
	Fecha        time.Time `gorm:"index;not null" json:"fecha"`
	NumeroRecibo string    `gorm:"index" json:"numero_recibo"`
	Concepto     string    `json:"concepto"`

	RegisteredBy string `gorm:"type:uuid" json:"registered_by"`

	Socio  *SocioTitular `gorm:"foreignKey:SocioID" json:"socio,omitempty"`
	Cuenta *Cuenta       `gorm:"foreignKey:CuentaID" json:"cuenta,omitempty"`
}

// TableName overrides the default table name for GORM.
func (Ingreso) TableName() string {
	return "ingresos"
}
