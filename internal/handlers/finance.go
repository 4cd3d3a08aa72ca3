package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lvaldez/padron/internal/permissions"
	"github.com/lvaldez/padron/internal/services"
	apperrors "github.com/lvaldez/padron/pkg/errors"
	"github.com/lvaldez/padron/pkg/response"
)

// FinanceHandler exposes cuentas, ingresos and gastos endpoints.
type FinanceHandler struct {
	finance  *services.FinanceService
	resolver *permissions.Resolver
}

// NewFinanceHandler constructs a FinanceHandler.
func NewFinanceHandler(finance *services.FinanceService, resolver *permissions.Resolver) *FinanceHandler {
	return &FinanceHandler{finance: finance, resolver: resolver}
}

type cuentaRequest struct {
	Nombre      string `json:"nombre" validate:"required"`
	Descripcion string `json:"descripcion"`
}

// POST /api/cuentas
func (h *FinanceHandler) CreateCuenta(c *gin.Context) {
	var req cuentaRequest
	if !bindAndValidate(c, &req) {
		return
	}

	cuenta, err := h.finance.CreateCuenta(c.Request.Context(), currentActor(c, h.resolver), services.CreateCuentaInput{
		Nombre:      req.Nombre,
		Descripcion: req.Descripcion,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, cuenta)
}

// GET /api/cuentas
func (h *FinanceHandler) ListCuentas(c *gin.Context) {
	cuentas, err := h.finance.ListCuentas(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, cuentas)
}

// GET /api/cuentas/:id/resumen
func (h *FinanceHandler) Resumen(c *gin.Context) {
	from, ok := parseDateQuery(c, "from")
	if !ok {
		return
	}
	to, ok := parseDateQuery(c, "to")
	if !ok {
		return
	}

	resumen, err := h.finance.Resumen(c.Request.Context(), c.Param("id"), from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, resumen)
}

type ingresoRequest struct {
	SocioID      string  `json:"socio_id"`
	CuentaID     string  `json:"cuenta_id" validate:"required"`
	Monto        float64 `json:"monto" validate:"required,gt=0"`
	Fecha        string  `json:"fecha" validate:"required"`
	NumeroRecibo string  `json:"numero_recibo"`
	Concepto     string  `json:"concepto"`
}

// POST /api/ingresos
func (h *FinanceHandler) CreateIngreso(c *gin.Context) {
	var req ingresoRequest
	if !bindAndValidate(c, &req) {
		return
	}

	fecha, err := time.Parse("2006-01-02", req.Fecha)
	if err != nil {
		response.Error(c, apperrors.NewBadRequest("fecha must use the YYYY-MM-DD format"))
		return
	}

	ingreso, err := h.finance.RecordIngreso(c.Request.Context(), currentActor(c, h.resolver), services.RecordIngresoInput{
		SocioID:      req.SocioID,
		CuentaID:     req.CuentaID,
		Monto:        req.Monto,
		Fecha:        fecha,
		NumeroRecibo: req.NumeroRecibo,
		Concepto:     req.Concepto,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, ingreso)
}

// GET /api/ingresos
func (h *FinanceHandler) ListIngresos(c *gin.Context) {
	opts, ok := movimientoOptions(c)
	if !ok {
		return
	}
	opts.SocioID = c.Query("socio_id")

	ingresos, total, err := h.finance.ListIngresos(c.Request.Context(), opts)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, ingresos, &response.Meta{
		Page:    opts.Page,
		PerPage: opts.PerPage,
		Total:   int(total),
	})
}

type gastoRequest struct {
	CuentaID    string  `json:"cuenta_id" validate:"required"`
	Monto       float64 `json:"monto" validate:"required,gt=0"`
	Fecha       string  `json:"fecha" validate:"required"`
	Concepto    string  `json:"concepto" validate:"required"`
	Comprobante string  `json:"comprobante"`
}

// POST /api/gastos
func (h *FinanceHandler) CreateGasto(c *gin.Context) {
	var req gastoRequest
	if !bindAndValidate(c, &req) {
		return
	}

	fecha, err := time.Parse("2006-01-02", req.Fecha)
	if err != nil {
		response.Error(c, apperrors.NewBadRequest("fecha must use the YYYY-MM-DD format"))
		return
	}

	gasto, err := h.finance.RecordGasto(c.Request.Context(), currentActor(c, h.resolver), services.RecordGastoInput{
		CuentaID:    req.CuentaID,
		Monto:       req.Monto,
		Fecha:       fecha,
		Concepto:    req.Concepto,
		Comprobante: req.Comprobante,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gasto)
}

// GET /api/gastos
func (h *FinanceHandler) ListGastos(c *gin.Context) {
	opts, ok := movimientoOptions(c)
	if !ok {
		return
	}

	gastos, total, err := h.finance.ListGastos(c.Request.Context(), opts)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, gastos, &response.Meta{
		Page:    opts.Page,
		PerPage: opts.PerPage,
		Total:   int(total),
	})
}

func movimientoOptions(c *gin.Context) (services.MovimientosOptions, bool) {
	from, ok := parseDateQuery(c, "from")
	if !ok {
		return services.MovimientosOptions{}, false
	}
	to, ok := parseDateQuery(c, "to")
	if !ok {
		return services.MovimientosOptions{}, false
	}

	return services.MovimientosOptions{
		CuentaID: c.Query("cuenta_id"),
		From:     from,
		To:       to,
		Page:     parseIntQuery(c, "page", 1),
		PerPage:  parseIntQuery(c, "per_page", 50),
	}, true
}

func parseDateQuery(c *gin.Context, key string) (time.Time, bool) {
	value := c.Query(key)
	if value == "" {
		return time.Time{}, true
	}
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		response.Error(c, apperrors.NewBadRequest(key+" must use the YYYY-MM-DD format"))
		return time.Time{}, false
	}
	return parsed, true
}
