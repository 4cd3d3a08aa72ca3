package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/lvaldez/padron/internal/models"
	apperrors "github.com/lvaldez/padron/pkg/errors"
)

// CreateCuentaInput describes a new treasury account.
type CreateCuentaInput struct {
	Nombre      string
	Descripcion string
}

// RecordIngresoInput describes a payment received.
type RecordIngresoInput struct {
	SocioID      string
	CuentaID     string
	Monto        float64
	Fecha        time.Time
	NumeroRecibo string
	Concepto     string
}

// RecordGastoInput describes an expense paid.
type RecordGastoInput struct {
	CuentaID    string
	Monto       float64
	Fecha       time.Time
	Concepto    string
	Comprobante string
}

// MovimientosOptions filters finance listings.
type MovimientosOptions struct {
	CuentaID string
	SocioID  string
	From     time.Time
	To       time.Time
	Page     int
	PerPage  int
}

// CuentaResumen summarises one account over a period.
type CuentaResumen struct {
	CuentaID      string  `json:"cuenta_id"`
	TotalIngresos float64 `json:"total_ingresos"`
	TotalGastos   float64 `json:"total_gastos"`
	Saldo         float64 `json:"saldo"`
}

// FinanceService manages treasury accounts, ingresos and gastos.
type FinanceService struct {
	db    *gorm.DB
	audit *AuditService
}

// NewFinanceService constructs a FinanceService.
func NewFinanceService(db *gorm.DB, audit *AuditService) (*FinanceService, error) {
	if db == nil {
		return nil, errors.New("finance service: db is required")
	}
	return &FinanceService{db: db, audit: audit}, nil
}

// CreateCuenta opens a new treasury account.
func (s *FinanceService) CreateCuenta(ctx context.Context, actor Actor, input CreateCuentaInput) (*models.Cuenta, error) {
	if strings.TrimSpace(input.Nombre) == "" {
		return nil, apperrors.NewValidation("nombre is required")
	}

	cuenta := models.Cuenta{
		Nombre:      strings.TrimSpace(input.Nombre),
		Descripcion: input.Descripcion,
	}
	if err := s.db.WithContext(ctx).Create(&cuenta).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.NewValidation("a cuenta with this nombre already exists")
		}
		return nil, fmt.Errorf("finance service: create cuenta: %w", err)
	}

	if s.audit != nil {
		s.audit.Record(ctx, actor.ID, "cuenta.create", "cuenta", cuenta.ID, nil)
	}
	return &cuenta, nil
}

// ListCuentas returns every treasury account.
func (s *FinanceService) ListCuentas(ctx context.Context) ([]models.Cuenta, error) {
	var cuentas []models.Cuenta
	if err := s.db.WithContext(ctx).Order("nombre").Find(&cuentas).Error; err != nil {
		return nil, fmt.Errorf("finance service: list cuentas: %w", err)
	}
	return cuentas, nil
}

// RecordIngreso registers a payment. When the payment belongs to a socio
// carrying a payment observation, the observation is cleared.
func (s *FinanceService) RecordIngreso(ctx context.Context, actor Actor, input RecordIngresoInput) (*models.Ingreso, error) {
	if input.Monto <= 0 {
		return nil, apperrors.NewValidation("monto must be greater than zero")
	}
	if input.Fecha.IsZero() {
		return nil, apperrors.NewValidation("fecha is required")
	}
	if err := s.requireCuenta(ctx, input.CuentaID); err != nil {
		return nil, err
	}

	ingreso := models.Ingreso{
		SocioID:      input.SocioID,
		CuentaID:     input.CuentaID,
		Monto:        input.Monto,
		Fecha:        input.Fecha,
		NumeroRecibo: input.NumeroRecibo,
		Concepto:     input.Concepto,
		RegisteredBy: actor.ID,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if ingreso.SocioID != "" {
			var socio models.SocioTitular
			if err := tx.First(&socio, "id = ?", ingreso.SocioID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperrors.ErrNotFound.WithMessage("socio not found")
				}
				return err
			}
			if socio.ObservacionPago {
				if err := tx.Model(&socio).Updates(map[string]any{
					"observacion_pago":         false,
					"observacion_pago_detalle": "",
				}).Error; err != nil {
					return err
				}
			}
		}
		return tx.Create(&ingreso).Error
	})
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, fmt.Errorf("finance service: record ingreso: %w", err)
	}

	if s.audit != nil {
		s.audit.Record(ctx, actor.ID, "ingreso.create", "ingreso", ingreso.ID,
			map[string]any{"monto": ingreso.Monto, "socio_id": ingreso.SocioID})
	}
	return &ingreso, nil
}

// RecordGasto registers an expense.
func (s *FinanceService) RecordGasto(ctx context.Context, actor Actor, input RecordGastoInput) (*models.Gasto, error) {
	if input.Monto <= 0 {
		return nil, apperrors.NewValidation("monto must be greater than zero")
	}
	if input.Fecha.IsZero() {
		return nil, apperrors.NewValidation("fecha is required")
	}
	if strings.TrimSpace(input.Concepto) == "" {
		return nil, apperrors.NewValidation("concepto is required")
	}
	if err := s.requireCuenta(ctx, input.CuentaID); err != nil {
		return nil, err
	}

	gasto := models.Gasto{
		CuentaID:     input.CuentaID,
		Monto:        input.Monto,
		Fecha:        input.Fecha,
		Concepto:     strings.TrimSpace(input.Concepto),
		Comprobante:  input.Comprobante,
		RegisteredBy: actor.ID,
	}
	if err := s.db.WithContext(ctx).Create(&gasto).Error; err != nil {
		return nil, fmt.Errorf("finance service: record gasto: %w", err)
	}

	if s.audit != nil {
		s.audit.Record(ctx, actor.ID, "gasto.create", "gasto", gasto.ID,
			map[string]any{"monto": gasto.Monto})
	}
	return &gasto, nil
}

// ListIngresos returns ingresos matching the filters, newest first.
func (s *FinanceService) ListIngresos(ctx context.Context, opts MovimientosOptions) ([]models.Ingreso, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Ingreso{})
	query = applyMovimientoFilters(query, opts)
	if opts.SocioID != "" {
		query = query.Where("socio_id = ?", opts.SocioID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("finance service: count ingresos: %w", err)
	}

	var ingresos []models.Ingreso
	if err := paginate(query, opts.Page, opts.PerPage).
		Preload("Socio").
		Order("fecha DESC").
		Find(&ingresos).Error; err != nil {
		return nil, 0, fmt.Errorf("finance service: list ingresos: %w", err)
	}
	return ingresos, total, nil
}

// ListGastos returns gastos matching the filters, newest first.
func (s *FinanceService) ListGastos(ctx context.Context, opts MovimientosOptions) ([]models.Gasto, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Gasto{})
	query = applyMovimientoFilters(query, opts)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("finance service: count gastos: %w", err)
	}

	var gastos []models.Gasto
	if err := paginate(query, opts.Page, opts.PerPage).
		Order("fecha DESC").
		Find(&gastos).Error; err != nil {
		return nil, 0, fmt.Errorf("finance service: list gastos: %w", err)
	}
	return gastos, total, nil
}

// Resumen summarises an account's movements over a period.
func (s *FinanceService) Resumen(ctx context.Context, cuentaID string, from, to time.Time) (*CuentaResumen, error) {
	if err := s.requireCuenta(ctx, cuentaID); err != nil {
		return nil, err
	}

	sum := func(model any, out *float64) error {
		query := s.db.WithContext(ctx).Model(model).Where("cuenta_id = ?", cuentaID)
		if !from.IsZero() {
			query = query.Where("fecha >= ?", from)
		}
		if !to.IsZero() {
			query = query.Where("fecha <= ?", to)
		}
		return query.Select("COALESCE(SUM(monto), 0)").Scan(out).Error
	}

	resumen := CuentaResumen{CuentaID: cuentaID}
	if err := sum(&models.Ingreso{}, &resumen.TotalIngresos); err != nil {
		return nil, fmt.Errorf("finance service: sum ingresos: %w", err)
	}
	if err := sum(&models.Gasto{}, &resumen.TotalGastos); err != nil {
		return nil, fmt.Errorf("finance service: sum gastos: %w", err)
	}
	resumen.Saldo = resumen.TotalIngresos - resumen.TotalGastos
	return &resumen, nil
}

func (s *FinanceService) requireCuenta(ctx context.Context, cuentaID string) error {
	if cuentaID == "" {
		return apperrors.NewValidation("cuenta_id is required")
	}
	var cuenta models.Cuenta
	if err := s.db.WithContext(ctx).First(&cuenta, "id = ?", cuentaID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrNotFound.WithMessage("cuenta not found")
		}
		return fmt.Errorf("finance service: load cuenta: %w", err)
	}
	return nil
}

func applyMovimientoFilters(query *gorm.DB, opts MovimientosOptions) *gorm.DB {
	if opts.CuentaID != "" {
		query = query.Where("cuenta_id = ?", opts.CuentaID)
	}
	if !opts.From.IsZero() {
		query = query.Where("fecha >= ?", opts.From)
	}
	if !opts.To.IsZero() {
		query = query.Where("fecha <= ?", opts.To)
	}
	return query
}

func paginate(query *gorm.DB, page, perPage int) *gorm.DB {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 200 {
		perPage = 50
	}
	return query.Offset((page - 1) * perPage).Limit(perPage)
}
