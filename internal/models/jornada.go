package models

import "time"

// Attendance states for a jornada record.
const (
	JornadaAsistio     = "asistio"
	JornadaFalta       = "falta"
	JornadaJustificado = "justificado"
)

// Jornada records a socio's attendance at a communal work shift.
type Jornada struct {
	BaseModel

	SocioID string    `gorm:"type:uuid;not null;index:idx_jornada_socio_fecha,priority:1" json:"socio_id"`
	Fecha   time.Time `gorm:"not null;index:idx_jornada_socio_fecha,priority:2" json:"fecha"`
	Turno   string    `gorm:"type:varchar(16)" json:"turno"`
	Estado  string    `gorm:"type:varchar(16);not null" json:"estado"`
	Notas   string    `json:"notas"`

	RegisteredBy string `gorm:"type:uuid" json:"registered_by"`

	Socio *SocioTitular `gorm:"foreignKey:SocioID" json:"socio,omitempty"`
}

// TableName overrides the default table name for GORM.
func (Jornada) TableName() string {
	return "jornadas"
}
