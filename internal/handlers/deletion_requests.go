package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lvaldez/padron/internal/permissions"
	"github.com/lvaldez/padron/internal/services"
	"github.com/lvaldez/padron/pkg/response"
)

// DeletionRequestHandler exposes the document deletion workflow endpoints.
type DeletionRequestHandler struct {
	requests *services.DeletionRequestService
	resolver *permissions.Resolver
}

// NewDeletionRequestHandler constructs a DeletionRequestHandler.
func NewDeletionRequestHandler(requests *services.DeletionRequestService, resolver *permissions.Resolver) *DeletionRequestHandler {
	return &DeletionRequestHandler{requests: requests, resolver: resolver}
}

type deletionRequestBody struct {
	DocumentID string `json:"document_id" validate:"required"`
}

// POST /api/deletion-requests
func (h *DeletionRequestHandler) Create(c *gin.Context) {
	var req deletionRequestBody
	if !bindAndValidate(c, &req) {
		return
	}

	request, err := h.requests.Request(c.Request.Context(), currentActor(c, h.resolver), req.DocumentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, request)
}

// GET /api/deletion-requests
func (h *DeletionRequestHandler) List(c *gin.Context) {
	page := parseIntQuery(c, "page", 1)
	perPage := parseIntQuery(c, "per_page", 50)

	requests, total, err := h.requests.List(c.Request.Context(), services.ListDeletionRequestsOptions{
		Status:  c.Query("status"),
		SocioID: c.Query("socio_id"),
		Page:    page,
		PerPage: perPage,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, requests, &response.Meta{
		Page:    page,
		PerPage: perPage,
		Total:   int(total),
	})
}

// GET /api/deletion-requests/pending-count
func (h *DeletionRequestHandler) PendingCount(c *gin.Context) {
	count, err := h.requests.PendingCount(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"pending": count})
}

type resolveRequestBody struct {
	Decision string `json:"decision" validate:"required,oneof=approve reject"`
}

// POST /api/deletion-requests/:id/resolve
func (h *DeletionRequestHandler) Resolve(c *gin.Context) {
	var req resolveRequestBody
	if !bindAndValidate(c, &req) {
		return
	}

	result, err := h.requests.Resolve(c.Request.Context(), currentActor(c, h.resolver), c.Param("id"), req.Decision)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}
