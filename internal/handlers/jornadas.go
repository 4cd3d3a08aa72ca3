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

// JornadaHandler exposes attendance endpoints.
type JornadaHandler struct {
	jornadas *services.JornadaService
	resolver *permissions.Resolver
}

// NewJornadaHandler constructs a JornadaHandler.
func NewJornadaHandler(jornadas *services.JornadaService, resolver *permissions.Resolver) *JornadaHandler {
	return &JornadaHandler{jornadas: jornadas, resolver: resolver}
}

type jornadaRequest struct {
	SocioID string `json:"socio_id" validate:"required"`
	Fecha   string `json:"fecha" validate:"required"`
	Turno   string `json:"turno"`
	Estado  string `json:"estado" validate:"required,oneof=asistio falta justificado"`
	Notas   string `json:"notas"`
}

// POST /api/jornadas
func (h *JornadaHandler) Create(c *gin.Context) {
	var req jornadaRequest
	if !bindAndValidate(c, &req) {
		return
	}

	fecha, err := time.Parse("2006-01-02", req.Fecha)
	if err != nil {
		response.Error(c, apperrors.NewBadRequest("fecha must use the YYYY-MM-DD format"))
		return
	}

	jornada, err := h.jornadas.Record(c.Request.Context(), currentActor(c, h.resolver), services.RecordJornadaInput{
		SocioID: req.SocioID,
		Fecha:   fecha,
		Turno:   req.Turno,
		Estado:  req.Estado,
		Notas:   req.Notas,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, jornada)
}

// GET /api/jornadas?fecha=YYYY-MM-DD
func (h *JornadaHandler) ListByFecha(c *gin.Context) {
	value := c.Query("fecha")
	if value == "" {
		response.Error(c, apperrors.NewBadRequest("fecha query parameter is required"))
		return
	}
	fecha, err := time.Parse("2006-01-02", value)
	if err != nil {
		response.Error(c, apperrors.NewBadRequest("fecha must use the YYYY-MM-DD format"))
		return
	}

	jornadas, err := h.jornadas.ListByFecha(c.Request.Context(), fecha)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, jornadas)
}

// GET /api/socios/:id/jornadas
func (h *JornadaHandler) ListBySocio(c *gin.Context) {
	jornadas, err := h.jornadas.ListBySocio(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, jornadas)
}

// GET /api/socios/:id/jornadas/resumen
func (h *JornadaHandler) Resumen(c *gin.Context) {
	resumen, err := h.jornadas.Resumen(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, resumen)
}
