package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lvaldez/padron/internal/models"
	"github.com/lvaldez/padron/internal/permissions"
	"github.com/lvaldez/padron/internal/services"
	"github.com/lvaldez/padron/pkg/response"
)

// SocioHandler exposes the socio registry endpoints.
type SocioHandler struct {
	socios    *services.SocioService
	documents *services.DocumentService
	resolver  *permissions.Resolver
}

// NewSocioHandler constructs a SocioHandler.
func NewSocioHandler(socios *services.SocioService, documents *services.DocumentService, resolver *permissions.Resolver) *SocioHandler {
	return &SocioHandler{socios: socios, documents: documents, resolver: resolver}
}

type socioRequest struct {
	DNI             string `json:"dni" validate:"required,len=8,numeric"`
	Nombres         string `json:"nombres" validate:"required"`
	ApellidoPaterno string `json:"apellido_paterno" validate:"required"`
	ApellidoMaterno string `json:"apellido_materno"`
	FechaNacimiento string `json:"fecha_nacimiento"`

	Localidad string `json:"localidad"`
	Mz        string `json:"mz"`
	Lote      string `json:"lote"`

	DireccionDNI string `json:"direccion_dni"`
	RegionDNI    string `json:"region_dni"`
	ProvinciaDNI string `json:"provincia_dni"`
	DistritoDNI  string `json:"distrito_dni"`

	ObservacionAdmin        bool   `json:"observacion_admin"`
	ObservacionAdminDetalle string `json:"observacion_admin_detalle"`
	ObservacionPago         bool   `json:"observacion_pago"`
	ObservacionPagoDetalle  string `json:"observacion_pago_detalle"`
}

type socioUpdateRequest struct {
	Nombres         *string `json:"nombres"`
	ApellidoPaterno *string `json:"apellido_paterno"`
	ApellidoMaterno *string `json:"apellido_materno"`
	FechaNacimiento *string `json:"fecha_nacimiento"`

	Localidad *string `json:"localidad"`
	Mz        *string `json:"mz"`
	Lote      *string `json:"lote"`

	DireccionDNI *string `json:"direccion_dni"`
	RegionDNI    *string `json:"region_dni"`
	ProvinciaDNI *string `json:"provincia_dni"`
	DistritoDNI  *string `json:"distrito_dni"`

	ObservacionAdmin        *bool   `json:"observacion_admin"`
	ObservacionAdminDetalle *string `json:"observacion_admin_detalle"`
	ObservacionPago         *bool   `json:"observacion_pago"`
	ObservacionPagoDetalle  *string `json:"observacion_pago_detalle"`
}

// socioListEntry carries a listed socio together with its derived measured state.
type socioListEntry struct {
	models.SocioTitular
	LoteMedido bool `json:"lote_medido"`
}

// POST /api/socios
func (h *SocioHandler) Create(c *gin.Context) {
	var req socioRequest
	if !bindAndValidate(c, &req) {
		return
	}

	socio, err := h.socios.Create(c.Request.Context(), currentActor(c, h.resolver), services.CreateSocioInput{
		DNI:             req.DNI,
		Nombres:         req.Nombres,
		ApellidoPaterno: req.ApellidoPaterno,
		ApellidoMaterno: req.ApellidoMaterno,
		FechaNacimiento: req.FechaNacimiento,
		Localidad:       req.Localidad,
		Mz:              req.Mz,
		Lote:            req.Lote,
		DireccionDNI:    req.DireccionDNI,
		RegionDNI:       req.RegionDNI,
		ProvinciaDNI:    req.ProvinciaDNI,
		DistritoDNI:     req.DistritoDNI,

		ObservacionAdmin:        req.ObservacionAdmin,
		ObservacionAdminDetalle: req.ObservacionAdminDetalle,
		ObservacionPago:         req.ObservacionPago,
		ObservacionPagoDetalle:  req.ObservacionPagoDetalle,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, socio)
}

// GET /api/socios
func (h *SocioHandler) List(c *gin.Context) {
	page := parseIntQuery(c, "page", 1)
	perPage := parseIntQuery(c, "per_page", 50)

	socios, total, err := h.socios.List(c.Request.Context(), services.ListSociosOptions{
		Query:     c.Query("q"),
		Localidad: c.Query("localidad"),
		Page:      page,
		PerPage:   perPage,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	// Measured state is derived per row so listings never lag behind uploads.
	entries := make([]socioListEntry, 0, len(socios))
	for i := range socios {
		entries = append(entries, socioListEntry{
			SocioTitular: socios[i],
			LoteMedido:   services.EffectiveMeasuredState(&socios[i]),
		})
	}

	response.SuccessWithMeta(c, http.StatusOK, entries, &response.Meta{
		Page:    page,
		PerPage: perPage,
		Total:   int(total),
	})
}

// GET /api/socios/:id
func (h *SocioHandler) Get(c *gin.Context) {
	socio, err := h.socios.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"socio":       socio,
		"lote_medido": services.EffectiveMeasuredState(socio),
	})
}

// PATCH /api/socios/:id
func (h *SocioHandler) Update(c *gin.Context) {
	var req socioUpdateRequest
	if !bindAndValidate(c, &req) {
		return
	}

	socio, err := h.socios.Update(c.Request.Context(), currentActor(c, h.resolver), c.Param("id"), services.UpdateSocioInput{
		Nombres:         req.Nombres,
		ApellidoPaterno: req.ApellidoPaterno,
		ApellidoMaterno: req.ApellidoMaterno,
		FechaNacimiento: req.FechaNacimiento,
		Localidad:       req.Localidad,
		Mz:              req.Mz,
		Lote:            req.Lote,
		DireccionDNI:    req.DireccionDNI,
		RegionDNI:       req.RegionDNI,
		ProvinciaDNI:    req.ProvinciaDNI,
		DistritoDNI:     req.DistritoDNI,

		ObservacionAdmin:        req.ObservacionAdmin,
		ObservacionAdminDetalle: req.ObservacionAdminDetalle,
		ObservacionPago:         req.ObservacionPago,
		ObservacionPagoDetalle:  req.ObservacionPagoDetalle,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, socio)
}

// DELETE /api/socios/:id
func (h *SocioHandler) Delete(c *gin.Context) {
	if err := h.socios.Delete(c.Request.Context(), currentActor(c, h.resolver), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
