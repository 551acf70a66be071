package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/kdufoot/kdufoot/internal/app"
	iauth "github.com/kdufoot/kdufoot/internal/auth"
	"github.com/kdufoot/kdufoot/internal/cache"
	"github.com/kdufoot/kdufoot/internal/handlers"
	"github.com/kdufoot/kdufoot/internal/middleware"
	"github.com/kdufoot/kdufoot/internal/permissions"
	"github.com/kdufoot/kdufoot/internal/quota"
	"github.com/kdufoot/kdufoot/internal/services"
)

// NewRouter builds the Gin engine, wires middleware and registers every route.
// store backs both quota counters and rate limiting.
func NewRouter(db *gorm.DB, verifier iauth.TokenVerifier, cfg *app.Config, store cache.Store) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if verifier == nil {
		return nil, fmt.Errorf("token verifier must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}
	if store == nil {
		return nil, fmt.Errorf("counter store must be provided")
	}

	auditSvc, err := services.NewAuditService(db)
	if err != nil {
		return nil, err
	}
	userSvc, err := services.NewUserService(db, auditSvc)
	if err != nil {
		return nil, err
	}
	resolver := permissions.DefaultResolver()
	accessSvc, err := services.NewAccessService(userSvc, resolver)
	if err != nil {
		return nil, err
	}
	enforcer, err := quota.NewEnforcer(store, quota.DefaultRules)
	if err != nil {
		return nil, err
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders(cfg.Server.HSTS))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowedOrigins))
	r.Use(middleware.RateLimit(store, cfg.Server.RateLimit.Requests, cfg.Server.RateLimit.Window))

	registerHealthRoutes(r, db)
	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := cfg.Monitoring.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	// Public
	registerPlanRoutes(r.Group("/api"), handlers.NewPlanHandler(resolver, enforcer.Rules()))

	// Protected
	api := r.Group("/api")
	api.Use(middleware.Auth(verifier))

	registerUserRoutes(api, handlers.NewUserHandler(userSvc), accessSvc)
	registerAccessRoutes(api, handlers.NewAccessHandler(accessSvc))
	registerQuotaRoutes(api, handlers.NewQuotaHandler(enforcer), accessSvc)
	registerAdminRoutes(api, handlers.NewAdminHandler(userSvc, auditSvc, enforcer))

	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
