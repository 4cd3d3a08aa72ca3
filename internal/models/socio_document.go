package models

// Document types recognised by the platform. Only the first two may be
// uploaded manually; the rest are produced by other subsystems.
const (
	DocumentoPlanos      = "Planos de ubicación"
	DocumentoMemoria     = "Memoria descriptiva"
	DocumentoFicha       = "Ficha"
	DocumentoContrato    = "Contrato"
	DocumentoComprobante = "Comprobante de Pago"
)

// ManualDocumentTypes lists the document types accepted by the upload endpoint.
var ManualDocumentTypes = []string{DocumentoPlanos, DocumentoMemoria}

// IsManualDocumentType reports whether the type may be uploaded by a person.
func IsManualDocumentType(tipo string) bool {
	for _, t := range ManualDocumentTypes {
		if t == tipo {
			return true
		}
	}
	return false
}

// BucketForDocumentType maps a manual document type to its storage bucket.
func BucketForDocumentType(tipo string) string {
	switch tipo {
	case DocumentoPlanos:
		return "planos"
	case DocumentoMemoria:
		return "memoria-descriptiva"
	default:
		return "documentos"
	}
}

// SocioDocumento is a stored file reference attached to exactly one socio.
// At most one row exists per (socio, tipo) pair; uploads upsert on that key.
type SocioDocumento struct {
	BaseModel

	SocioID        string `gorm:"type:uuid;not null;uniqueIndex:idx_socio_tipo,priority:1" json:"socio_id"`
	TipoDocumento  string `gorm:"type:varchar(64);not null;uniqueIndex:idx_socio_tipo,priority:2" json:"tipo_documento"`
	LinkDocumento  string `gorm:"not null" json:"link_documento"`
	StorageBucket  string `json:"storage_bucket"`
	StorageKey     string `json:"storage_key"`
	UploadedByID   string `gorm:"type:uuid" json:"uploaded_by_id"`
}

// TableName overrides the default table name for GORM.
func (SocioDocumento) TableName() string {
	return "socio_documentos"
}

// Qualifies reports whether the document counts towards the measured state.
func (d SocioDocumento) Qualifies() bool {
	return d.LinkDocumento != "" &&
		(d.TipoDocumento == DocumentoPlanos || d.TipoDocumento == DocumentoMemoria)
}
