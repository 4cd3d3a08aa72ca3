package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lvaldez/padron/internal/lookup"
	"github.com/lvaldez/padron/pkg/response"
)

// LookupHandler proxies identity lookups against the configured upstreams.
type LookupHandler struct {
	client *lookup.Client
}

// NewLookupHandler constructs a LookupHandler.
func NewLookupHandler(client *lookup.Client) *LookupHandler {
	return &LookupHandler{client: client}
}

// GET /api/lookup/dni/:dni
func (h *LookupHandler) LookupDNI(c *gin.Context) {
	person, err := h.client.Lookup(c.Request.Context(), c.Param("dni"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, person)
}
