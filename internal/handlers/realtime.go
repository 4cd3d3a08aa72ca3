package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lvaldez/padron/internal/models"
	"github.com/lvaldez/padron/internal/permissions"
	"github.com/lvaldez/padron/internal/realtime"
	"github.com/lvaldez/padron/internal/services"
	apperrors "github.com/lvaldez/padron/pkg/errors"
	"github.com/lvaldez/padron/pkg/response"
)

// RealtimeHandler upgrades authenticated clients to the notification hub.
type RealtimeHandler struct {
	hub      *realtime.Hub
	resolver *permissions.Resolver
}

// NewRealtimeHandler constructs a RealtimeHandler.
func NewRealtimeHandler(hub *realtime.Hub, resolver *permissions.Resolver) *RealtimeHandler {
	return &RealtimeHandler{hub: hub, resolver: resolver}
}

// GET /api/ws?streams=deletion-requests,documents
func (h *RealtimeHandler) Serve(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}

	actor := currentActor(c, h.resolver)
	allowed := allowedStreams(actor)

	streams := requestedStreams(c.Query("streams"))
	if len(streams) == 0 {
		for stream := range allowed {
			streams = append(streams, stream)
		}
	}

	h.hub.Serve(userID, streams, allowed, c.Writer, c.Request)
}

func allowedStreams(actor services.Actor) map[string]struct{} {
	allowed := map[string]struct{}{
		realtime.StreamNotifications: {},
	}
	if actor.HasRole(models.RoleAdmin) || actor.HasRole(models.RoleEngineer) {
		allowed[realtime.StreamDeletionRequests] = struct{}{}
		allowed[realtime.StreamDocuments] = struct{}{}
	}
	return allowed
}

func requestedStreams(raw string) []string {
	var streams []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			streams = append(streams, part)
		}
	}
	return streams
}
