package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/imigrasi-dev/wna-registry/internal/app"
	"github.com/imigrasi-dev/wna-registry/internal/handlers"
	"github.com/imigrasi-dev/wna-registry/internal/middleware"
	"github.com/imigrasi-dev/wna-registry/internal/realtime"
	"github.com/imigrasi-dev/wna-registry/internal/services"
)

// NewRouter builds the Gin engine, wires middleware and registers the registry routes.
func NewRouter(db *gorm.DB, cfg *app.Config, classifier *services.ClassifierService, hub *realtime.Hub) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}
	if classifier == nil {
		return nil, fmt.Errorf("classifier service must be provided")
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORSWithOrigins(cfg.Server.CORS.AllowedOrigins))

	if cfg.Monitoring.Health.Enabled {
		r.GET("/health", handlers.Health())
		r.GET("/api/health", handlers.Health())
	}
	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := cfg.Monitoring.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	api := r.Group("/api")

	nationalHandler, err := handlers.NewForeignNationalHandler(db)
	if err != nil {
		return nil, err
	}
	registerForeignNationalRoutes(api, nationalHandler)

	orgHandler, err := handlers.NewForeignOrganizationHandler(db)
	if err != nil {
		return nil, err
	}
	registerForeignOrganizationRoutes(api, orgHandler)

	alertHandler, err := handlers.NewAlertHandler(db, classifier, hub)
	if err != nil {
		return nil, err
	}
	registerAlertRoutes(api, alertHandler)

	dashboardHandler, err := handlers.NewDashboardHandler(db, classifier.WindowDays())
	if err != nil {
		return nil, err
	}
	registerDashboardRoutes(api, dashboardHandler)

	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
