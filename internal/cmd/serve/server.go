package serve

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/GoGangH/logit-admin/internal/cache"
	cachenoop "github.com/GoGangH/logit-admin/internal/cache/noop"
	cacheredis "github.com/GoGangH/logit-admin/internal/cache/redis"
	"github.com/GoGangH/logit-admin/internal/config"
	"github.com/GoGangH/logit-admin/internal/registry/clients"
	registrymigrate "github.com/GoGangH/logit-admin/internal/registry/migrate"
	registryroute "github.com/GoGangH/logit-admin/internal/registry/route"
	routesystem "github.com/GoGangH/logit-admin/internal/route/system"
	"github.com/GoGangH/logit-admin/internal/security"
	"github.com/charmbracelet/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Server holds the running HTTP server and its subsystems.
type Server struct {
	Config  *config.Config
	Clients *clients.Registry
	Router  *gin.Engine
	Port    int

	httpServer *http.Server
}

// Shutdown gracefully drains and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// StartServer initializes all subsystems and starts the HTTP server.
// Use cfg.Port=0 for a random port; the actual port is Server.Port.
func StartServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	log.Info("Starting logit admin service",
		"port", cfg.Port,
		"prodConfigured", cfg.ProductionConfigured(),
		"statsCache", cfg.RedisURL != "",
	)

	// Initialize Prometheus metrics with configured constant labels.
	metricsLabels, err := security.ParseMetricsLabels(cfg.MetricsLabels)
	if err != nil {
		return nil, fmt.Errorf("invalid --metrics-labels: %w", err)
	}
	security.InitMetrics(metricsLabels)

	// Run migrations
	if err := registrymigrate.RunAll(config.WithContext(ctx, cfg)); err != nil {
		return nil, fmt.Errorf("migrations failed: %w", err)
	}

	// Build the per-environment client registry once.
	registry, err := clients.Build(cfg)
	if err != nil {
		return nil, err
	}

	// Stats cache: redis when configured, otherwise a cache that never hits.
	var statsCache cache.StatsCache = cachenoop.New()
	if cfg.RedisURL != "" {
		statsCache, err = cacheredis.New(cfg.RedisURL)
		if err != nil {
			log.Warn("Failed to initialize stats cache; caching disabled", "err", err)
			statsCache = cachenoop.New()
		}
	}

	// Set up gin
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.ManagementAccessLog {
		router.Use(security.AccessLogMiddleware())
	} else {
		router.Use(security.AccessLogMiddleware("/health", "/ready", "/metrics"))
	}
	router.Use(security.MetricsMiddleware())
	router.Use(security.AuditMiddleware())
	if cfg.CORSEnabled {
		router.Use(corsMiddleware(cfg.CORSOrigins))
	}

	deps := registryroute.Deps{
		Config:  cfg,
		Clients: registry,
		Stats:   statsCache,
	}
	for _, loader := range registryroute.MainRouteLoaders() {
		if err := loader(router, deps); err != nil {
			return nil, fmt.Errorf("failed to load routes: %w", err)
		}
	}
	for _, loader := range registryroute.ManagementRouteLoaders() {
		if err := loader(router, deps); err != nil {
			return nil, fmt.Errorf("failed to load management routes: %w", err)
		}
	}

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Port))
	if err != nil {
		return nil, fmt.Errorf("failed to listen: %w", err)
	}
	httpServer := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "err", err)
		}
	}()

	port := listener.Addr().(*net.TCPAddr).Port
	log.Info("Server listening", "port", port)

	routesystem.MarkReady()
	return &Server{
		Config:     cfg,
		Clients:    registry,
		Router:     router,
		Port:       port,
		httpServer: httpServer,
	}, nil
}

// corsMiddleware configures browser access for the dashboard frontends.
// With no explicit origins everything is allowed, without credentials.
func corsMiddleware(originsCSV string) gin.HandlerFunc {
	conf := cors.Config{
		AllowMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Authorization", "Content-Type"},
	}
	var origins []string
	for _, part := range strings.Split(originsCSV, ",") {
		if v := strings.TrimSpace(part); v != "" {
			origins = append(origins, v)
		}
	}
	if len(origins) == 0 {
		conf.AllowAllOrigins = true
	} else {
		conf.AllowOrigins = origins
		conf.AllowCredentials = true
	}
	return cors.New(conf)
}
