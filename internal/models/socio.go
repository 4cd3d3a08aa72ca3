package models

// SocioTitular is a member of the association together with the lot assigned
// to them. Mz/Lote identify the lot inside the locality grid.
type SocioTitular struct {
	BaseModel

	DNI             string `gorm:"type:varchar(8);uniqueIndex;not null" json:"dni"`
	Nombres         string `gorm:"not null" json:"nombres"`
	ApellidoPaterno string `gorm:"not null;index" json:"apellido_paterno"`
	ApellidoMaterno string `json:"apellido_materno"`
	FechaNacimiento string `json:"fecha_nacimiento"`

	Localidad string `gorm:"index" json:"localidad"`
	Mz        string `json:"mz"`
	Lote      string `json:"lote"`

	// Manual override certifying the lot was surveyed without documents on
	// file. The effective measured state is derived at read time.
	IsLoteMedido bool `gorm:"default:false" json:"is_lote_medido"`

	DireccionDNI string `json:"direccion_dni"`
	RegionDNI    string `json:"region_dni"`
	ProvinciaDNI string `json:"provincia_dni"`
	DistritoDNI  string `json:"distrito_dni"`

	ObservacionAdmin        bool   `gorm:"default:false" json:"observacion_admin"`
	ObservacionAdminDetalle string `json:"observacion_admin_detalle"`
	ObservacionPago         bool   `gorm:"default:false" json:"observacion_pago"`
	ObservacionPagoDetalle  string `json:"observacion_pago_detalle"`

	Documentos []SocioDocumento `gorm:"foreignKey:SocioID" json:"documentos,omitempty"`
}

// TableName overrides the default table name for GORM.
func (SocioTitular) TableName() string {
	return "socio_titulares"
}
