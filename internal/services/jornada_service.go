package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/lvaldez/padron/internal/models"
	apperrors "github.com/lvaldez/padron/pkg/errors"
)

// RecordJornadaInput describes one attendance record.
type RecordJornadaInput struct {
	SocioID string
	Fecha   time.Time
	Turno   string
	Estado  string
	Notas   string
}

// JornadaResumen counts a socio's attendance per estado.
type JornadaResumen struct {
	SocioID      string `json:"socio_id"`
	Asistencias  int64  `json:"asistencias"`
	Faltas       int64  `json:"faltas"`
	Justificados int64  `json:"justificados"`
}

// JornadaService records attendance at communal work shifts.
type JornadaService struct {
	db *gorm.DB
}

// NewJornadaService constructs a JornadaService.
func NewJornadaService(db *gorm.DB) (*JornadaService, error) {
	if db == nil {
		return nil, errors.New("jornada service: db is required")
	}
	return &JornadaService{db: db}, nil
}

// Record stores one attendance entry.
func (s *JornadaService) Record(ctx context.Context, actor Actor, input RecordJornadaInput) (*models.Jornada, error) {
	switch input.Estado {
	case models.JornadaAsistio, models.JornadaFalta, models.JornadaJustificado:
	default:
		return nil, apperrors.NewValidation("estado must be asistio, falta or justificado")
	}
	if input.Fecha.IsZero() {
		return nil, apperrors.NewValidation("fecha is required")
	}

	var socio models.SocioTitular
	if err := s.db.WithContext(ctx).First(&socio, "id = ?", input.SocioID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound.WithMessage("socio not found")
		}
		return nil, fmt.Errorf("jornada service: load socio: %w", err)
	}

	jornada := models.Jornada{
		SocioID:      input.SocioID,
		Fecha:        input.Fecha,
		Turno:        input.Turno,
		Estado:       input.Estado,
		Notas:        input.Notas,
		RegisteredBy: actor.ID,
	}
	if err := s.db.WithContext(ctx).Create(&jornada).Error; err != nil {
		return nil, fmt.Errorf("jornada service: record: %w", err)
	}
	return &jornada, nil
}

// ListBySocio returns a socio's attendance history, newest first.
func (s *JornadaService) ListBySocio(ctx context.Context, socioID string) ([]models.Jornada, error) {
	var jornadas []models.Jornada
	if err := s.db.WithContext(ctx).
		Where("socio_id = ?", socioID).
		Order("fecha DESC").
		Find(&jornadas).Error; err != nil {
		return nil, fmt.Errorf("jornada service: list by socio: %w", err)
	}
	return jornadas, nil
}

// ListByFecha returns every record for one day.
func (s *JornadaService) ListByFecha(ctx context.Context, fecha time.Time) ([]models.Jornada, error) {
	dayStart := time.Date(fecha.Year(), fecha.Month(), fecha.Day(), 0, 0, 0, 0, fecha.Location())
	dayEnd := dayStart.Add(24 * time.Hour)

	var jornadas []models.Jornada
	if err := s.db.WithContext(ctx).
		Preload("Socio").
		Where("fecha >= ? AND fecha < ?", dayStart, dayEnd).
		Order("created_at").
		Find(&jornadas).Error; err != nil {
		return nil, fmt.Errorf("jornada service: list by fecha: %w", err)
	}
	return jornadas, nil
}

// Resumen counts a socio's attendance per estado.
func (s *JornadaService) Resumen(ctx context.Context, socioID string) (*JornadaResumen, error) {
	resumen := JornadaResumen{SocioID: socioID}

	count := func(estado string, out *int64) error {
		return s.db.WithContext(ctx).
			Model(&models.Jornada{}).
			Where("socio_id = ? AND estado = ?", socioID, estado).
			Count(out).Error
	}

	if err := count(models.JornadaAsistio, &resumen.Asistencias); err != nil {
		return nil, fmt.Errorf("jornada service: resumen: %w", err)
	}
	if err := count(models.JornadaFalta, &resumen.Faltas); err != nil {
		return nil, fmt.Errorf("jornada service: resumen: %w", err)
	}
	if err := count(models.JornadaJustificado, &resumen.Justificados); err != nil {
		return nil, fmt.Errorf("jornada service: resumen: %w", err)
	}
	return &resumen, nil
}
