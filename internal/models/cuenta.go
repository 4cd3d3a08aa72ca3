package models

// Cuenta is a treasury account that ingresos and gastos post against.
type Cuenta struct {
	BaseModel

	Nombre      string `gorm:"uniqueIndex;not null" json:"nombre"`
	Descripcion string `json:"descripcion"`

	Ingresos []Ingreso `gorm:"foreignKey:CuentaID" json:"ingresos,omitempty"`
	Gastos   []Gasto   `gorm:"foreignKey:CuentaID" json:"gastos,omitempty"`
}

// TableName overrides the default table name for GORM.
func (Cuenta) TableName() string {
	return "cuentas"
}
