package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lvaldez/padron/internal/permissions"
	"github.com/lvaldez/padron/internal/services"
	apperrors "github.com/lvaldez/padron/pkg/errors"
	"github.com/lvaldez/padron/pkg/response"
)

// maxUploadSize caps document uploads at 25 MiB.
const maxUploadSize = 25 << 20

// DocumentHandler exposes socio document and measured-state endpoints.
type DocumentHandler struct {
	documents *services.DocumentService
	resolver  *permissions.Resolver
}

// NewDocumentHandler constructs a DocumentHandler.
func NewDocumentHandler(documents *services.DocumentService, resolver *permissions.Resolver) *DocumentHandler {
	return &DocumentHandler{documents: documents, resolver: resolver}
}

// POST /api/socios/:id/documentos
// Multipart form with fields "tipo_documento" and "file".
func (h *DocumentHandler) Upload(c *gin.Context) {
	tipo := c.PostForm("tipo_documento")
	if tipo == "" {
		response.Error(c, apperrors.NewBadRequest("tipo_documento is required"))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, apperrors.NewBadRequest("file is required"))
		return
	}
	if fileHeader.Size > maxUploadSize {
		response.Error(c, apperrors.NewValidation("file exceeds the maximum upload size"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, apperrors.ErrInternalServer)
		return
	}
	defer file.Close()

	doc, err := h.documents.Upload(c.Request.Context(), currentActor(c, h.resolver), services.UploadDocumentInput{
		SocioID:       c.Param("id"),
		TipoDocumento: tipo,
		FileName:      fileHeader.Filename,
		ContentType:   fileHeader.Header.Get("Content-Type"),
		Size:          fileHeader.Size,
		Content:       file,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, doc)
}

// GET /api/socios/:id/documentos
func (h *DocumentHandler) ListForSocio(c *gin.Context) {
	docs, err := h.documents.ListForSocio(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, docs)
}

// DELETE /api/documentos/:id
func (h *DocumentHandler) Delete(c *gin.Context) {
	if err := h.documents.Delete(c.Request.Context(), currentActor(c, h.resolver), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

type measuredStateRequest struct {
	Medido bool `json:"medido"`
}

// PUT /api/socios/:id/medido
func (h *DocumentHandler) SetMeasuredState(c *gin.Context) {
	var req measuredStateRequest
	if !bindAndValidate(c, &req) {
		return
	}

	actor := currentActor(c, h.resolver)
	if err := h.documents.SetMeasuredState(c.Request.Context(), actor, c.Param("id"), req.Medido); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"lote_medido": req.Medido})
}

type bulkMeasuredStateRequest struct {
	SocioIDs []string `json:"socio_ids" validate:"required,min=1"`
	Medido   bool     `json:"medido"`
}

// POST /api/socios/medido
func (h *DocumentHandler) BulkSetMeasuredState(c *gin.Context) {
	var req bulkMeasuredStateRequest
	if !bindAndValidate(c, &req) {
		return
	}

	actor := currentActor(c, h.resolver)
	result, err := h.documents.BulkSetMeasuredState(c.Request.Context(), actor, req.SocioIDs, req.Medido)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}
