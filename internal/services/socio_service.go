package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/lvaldez/padron/internal/models"
	apperrors "github.com/lvaldez/padron/pkg/errors"
)

// CreateSocioInput describes the fields accepted when registering a socio.
type CreateSocioInput struct {
	DNI             string
	Nombres         string
	ApellidoPaterno string
	ApellidoMaterno string
	FechaNacimiento string

	Localidad string
	Mz        string
	Lote      string

	DireccionDNI string
	RegionDNI    string
	ProvinciaDNI string
	DistritoDNI  string

	ObservacionAdmin        bool
	ObservacionAdminDetalle string
	ObservacionPago         bool
	ObservacionPagoDetalle  string
}

// UpdateSocioInput enumerates mutable socio attributes.
type UpdateSocioInput struct {
	Nombres         *string
	ApellidoPaterno *string
	ApellidoMaterno *string
	FechaNacimiento *string

	Localidad *string
	Mz        *string
	Lote      *string

	DireccionDNI *string
	RegionDNI    *string
	ProvinciaDNI *string
	DistritoDNI  *string

	ObservacionAdmin        *bool
	ObservacionAdminDetalle *string
	ObservacionPago         *bool
	ObservacionPagoDetalle  *string
}

// ListSociosOptions controls filtering and pagination when listing socios.
type ListSociosOptions struct {
	Query     string
	Localidad string
	Page      int
	PerPage   int
}

// SocioService manages the socio registry.
type SocioService struct {
	db    *gorm.DB
	audit *AuditService
}

// NewSocioService constructs a SocioService.
func NewSocioService(db *gorm.DB, audit *AuditService) (*SocioService, error) {
	if db == nil {
		return nil, errors.New("socio service: db is required")
	}
	return &SocioService{db: db, audit: audit}, nil
}

// Create registers a new socio.
func (s *SocioService) Create(ctx context.Context, actor Actor, input CreateSocioInput) (*models.SocioTitular, error) {
	if err := validateDNI(input.DNI); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Nombres) == "" || strings.TrimSpace(input.ApellidoPaterno) == "" {
		return nil, apperrors.NewValidation("nombres and apellido_paterno are required")
	}
	if err := validateObservaciones(input.ObservacionAdmin, input.ObservacionAdminDetalle,
		input.ObservacionPago, input.ObservacionPagoDetalle); err != nil {
		return nil, err
	}

	socio := models.SocioTitular{
		DNI:             strings.TrimSpace(input.DNI),
		Nombres:         strings.TrimSpace(input.Nombres),
		ApellidoPaterno: strings.TrimSpace(input.ApellidoPaterno),
		ApellidoMaterno: strings.TrimSpace(input.ApellidoMaterno),
		FechaNacimiento: input.FechaNacimiento,

		Localidad: input.Localidad,
		Mz:        input.Mz,
		Lote:      input.Lote,

		DireccionDNI: input.DireccionDNI,
		RegionDNI:    input.RegionDNI,
		ProvinciaDNI: input.ProvinciaDNI,
		DistritoDNI:  input.DistritoDNI,

		ObservacionAdmin:        input.ObservacionAdmin,
		ObservacionAdminDetalle: input.ObservacionAdminDetalle,
		ObservacionPago:         input.ObservacionPago,
		ObservacionPagoDetalle:  input.ObservacionPagoDetalle,
	}

	if err := s.db.WithContext(ctx).Create(&socio).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.NewValidation("a socio with this dni is already registered")
		}
		return nil, fmt.Errorf("socio service: create: %w", err)
	}

	if s.audit != nil {
		s.audit.Record(ctx, actor.ID, "socio.create", "socio", socio.ID,
			map[string]any{"dni": socio.DNI})
	}
	return &socio, nil
}

// Get loads one socio with its documents.
func (s *SocioService) Get(ctx context.Context, id string) (*models.SocioTitular, error) {
	var socio models.SocioTitular
	if err := s.db.WithContext(ctx).
		Preload("Documentos").
		First(&socio, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound.WithMessage("socio not found")
		}
		return nil, fmt.Errorf("socio service: get: %w", err)
	}
	return &socio, nil
}

// GetByDNI loads one socio by document number.
func (s *SocioService) GetByDNI(ctx context.Context, dni string) (*models.SocioTitular, error) {
	if err := validateDNI(dni); err != nil {
		return nil, err
	}

	var socio models.SocioTitular
	if err := s.db.WithContext(ctx).
		Preload("Documentos").
		First(&socio, "dni = ?", strings.TrimSpace(dni)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound.WithMessage("socio not found")
		}
		return nil, fmt.Errorf("socio service: get by dni: %w", err)
	}
	return &socio, nil
}

// List returns socios matching the filters together with the total count.
func (s *SocioService) List(ctx context.Context, opts ListSociosOptions) ([]models.SocioTitular, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.SocioTitular{})

	if q := strings.TrimSpace(opts.Query); q != "" {
		like := "%" + q + "%"
		query = query.Where(
			"dni LIKE ? OR nombres LIKE ? OR apellido_paterno LIKE ? OR apellido_materno LIKE ?"+
				" OR localidad LIKE ? OR mz LIKE ? OR lote LIKE ?",
			like, like, like, like, like, like, like)
	}
	if opts.Localidad != "" {
		query = query.Where("localidad = ?", opts.Localidad)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("socio service: count: %w", err)
	}

	page := opts.Page
	if page < 1 {
		page = 1
	}
	perPage := opts.PerPage
	if perPage < 1 || perPage > 200 {
		perPage = 50
	}

	var socios []models.SocioTitular
	if err := query.
		Preload("Documentos").
		Order("apellido_paterno, apellido_materno, nombres").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&socios).Error; err != nil {
		return nil, 0, fmt.Errorf("socio service: list: %w", err)
	}
	return socios, total, nil
}

// Update applies partial changes to a socio.
func (s *SocioService) Update(ctx context.Context, actor Actor, id string, input UpdateSocioInput) (*models.SocioTitular, error) {
	socio, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	applyString := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}

	applyString(&socio.Nombres, input.Nombres)
	applyString(&socio.ApellidoPaterno, input.ApellidoPaterno)
	applyString(&socio.ApellidoMaterno, input.ApellidoMaterno)
	applyString(&socio.FechaNacimiento, input.FechaNacimiento)
	applyString(&socio.Localidad, input.Localidad)
	applyString(&socio.Mz, input.Mz)
	applyString(&socio.Lote, input.Lote)
	applyString(&socio.DireccionDNI, input.DireccionDNI)
	applyString(&socio.RegionDNI, input.RegionDNI)
	applyString(&socio.ProvinciaDNI, input.ProvinciaDNI)
	applyString(&socio.DistritoDNI, input.DistritoDNI)

	if input.ObservacionAdmin != nil {
		socio.ObservacionAdmin = *input.ObservacionAdmin
		if !socio.ObservacionAdmin {
			socio.ObservacionAdminDetalle = ""
		}
	}
	applyString(&socio.ObservacionAdminDetalle, input.ObservacionAdminDetalle)
	if input.ObservacionPago != nil {
		socio.ObservacionPago = *input.ObservacionPago
		if !socio.ObservacionPago {
			socio.ObservacionPagoDetalle = ""
		}
	}
	applyString(&socio.ObservacionPagoDetalle, input.ObservacionPagoDetalle)

	if socio.Nombres == "" || socio.ApellidoPaterno == "" {
		return nil, apperrors.NewValidation("nombres and apellido_paterno are required")
	}
	if err := validateObservaciones(socio.ObservacionAdmin, socio.ObservacionAdminDetalle,
		socio.ObservacionPago, socio.ObservacionPagoDetalle); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Save(socio).Error; err != nil {
		return nil, fmt.Errorf("socio service: update: %w", err)
	}

	if s.audit != nil {
		s.audit.Record(ctx, actor.ID, "socio.update", "socio", socio.ID, nil)
	}
	return socio, nil
}

// Delete removes a socio and their document rows. Admin only.
func (s *SocioService) Delete(ctx context.Context, actor Actor, id string) error {
	if !actor.IsAdmin() {
		return apperrors.ErrPermissionDenied.WithMessage("only administrators can delete socios")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&models.SocioTitular{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperrors.ErrNotFound.WithMessage("socio not found")
		}
		if err := tx.Delete(&models.SocioDocumento{}, "socio_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Jornada{}, "socio_id = ?", id).Error
	})
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return appErr
		}
		return fmt.Errorf("socio service: delete: %w", err)
	}

	if s.audit != nil {
		s.audit.Record(ctx, actor.ID, "socio.delete", "socio", id, nil)
	}
	return nil
}

func validateDNI(dni string) error {
	dni = strings.TrimSpace(dni)
	if len(dni) != 8 {
		return apperrors.NewValidation("dni must be exactly 8 digits")
	}
	for _, r := range dni {
		if r < '0' || r > '9' {
			return apperrors.NewValidation("dni must be exactly 8 digits")
		}
	}
	return nil
}

func validateObservaciones(admin bool, adminDetalle string, pago bool, pagoDetalle string) error {
	if admin && strings.TrimSpace(adminDetalle) == "" {
		return apperrors.NewValidation("observacion_admin requires a detalle")
	}
	if pago && strings.TrimSpace(pagoDetalle) == "" {
		return apperrors.NewValidation("observacion_pago requires a detalle")
	}
	return nil
}
