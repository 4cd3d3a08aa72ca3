package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/lvaldez/padron/internal/app"
	iauth "github.com/lvaldez/padron/internal/auth"
	"github.com/lvaldez/padron/internal/handlers"
	"github.com/lvaldez/padron/internal/lookup"
	"github.com/lvaldez/padron/internal/middleware"
	"github.com/lvaldez/padron/internal/permissions"
	"github.com/lvaldez/padron/internal/realtime"
	"github.com/lvaldez/padron/internal/services"
)

// Dependencies collects everything the router needs to wire the API surface.
type Dependencies struct {
	DB       *gorm.DB
	Config   *app.Config
	JWT      *iauth.JWTService
	Sessions *iauth.SessionService
	Resolver *permissions.Resolver
	Hub      *realtime.Hub
	Lookup   *lookup.Client

	Users            *services.UserService
	Socios           *services.SocioService
	Documents        *services.DocumentService
	DeletionRequests *services.DeletionRequestService
	Finance          *services.FinanceService
	Jornadas         *services.JornadaService
}

func (d Dependencies) validate() error {
	switch {
	case d.DB == nil:
		return fmt.Errorf("database handle must be provided")
	case d.Config == nil:
		return fmt.Errorf("config must be provided")
	case d.JWT == nil:
		return fmt.Errorf("jwt service must be provided")
	case d.Sessions == nil:
		return fmt.Errorf("session service must be provided")
	case d.Resolver == nil:
		return fmt.Errorf("permission resolver must be provided")
	case d.Users == nil, d.Socios == nil, d.Documents == nil,
		d.DeletionRequests == nil, d.Finance == nil, d.Jornadas == nil:
		return fmt.Errorf("all domain services must be provided")
	}
	return nil
}

// NewRouter builds the Gin engine, wires middleware and registers every route.
func NewRouter(deps Dependencies) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}

	cfg := deps.Config

	r := gin.New()
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())

	if cfg.Monitoring.Health.Enabled {
		r.GET("/health", handlers.Health())
	}
	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := cfg.Monitoring.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	api := r.Group("/api")
	api.Use(middleware.Auth(deps.JWT))

	registerAuthRoutes(r, api, deps)
	registerRealtimeRoutes(api, deps)
	registerSocioRoutes(api, deps)
	registerDocumentRoutes(api, deps)
	registerFinanceRoutes(api, deps)
	registerJornadaRoutes(api, deps)
	registerUserRoutes(api, deps)

	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
