package serve

import (
	"context"
	"time"

	"github.com/GoGangH/logit-admin/internal/config"
	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	// Import route plugins to trigger init() registration.
	_ "github.com/GoGangH/logit-admin/internal/route/envselect"
	_ "github.com/GoGangH/logit-admin/internal/route/experiences"
	_ "github.com/GoGangH/logit-admin/internal/route/projects"
	_ "github.com/GoGangH/logit-admin/internal/route/stats"
	_ "github.com/GoGangH/logit-admin/internal/route/system"
	_ "github.com/GoGangH/logit-admin/internal/route/users"

	// Import migrator plugins so serve can run migrations at start.
	_ "github.com/GoGangH/logit-admin/internal/store/postgres"
	_ "github.com/GoGangH/logit-admin/internal/vector/qdrant"
)

// Command returns the serve sub-command.
func Command() *cli.Command {
	cfg := config.DefaultConfig()
	var readHeaderTimeoutSecs int = 5
	var qdrantStartupTimeoutSecs int = 30
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the admin API server",
		Flags: flags(&cfg, &readHeaderTimeoutSecs, &qdrantStartupTimeoutSecs),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg.ReadHeaderTimeout = time.Duration(readHeaderTimeoutSecs) * time.Second
			cfg.QdrantStartupTimeout = time.Duration(qdrantStartupTimeoutSecs) * time.Second
			if env, err := config.ParseEnv(cmd.String("mcp-issuance-env")); err != nil {
				return err
			} else {
				cfg.MCPIssuanceEnv = env
			}
			return run(config.WithContext(ctx, &cfg), cfg)
		},
	}
}

func flags(cfg *config.Config, readHeaderTimeoutSecs, qdrantStartupTimeoutSecs *int) []cli.Flag {
	return []cli.Flag{

		// ── Server ────────────────────────────────────────────────
		&cli.IntFlag{
			Name:        "port",
			Category:    "Server:",
			Sources:     cli.EnvVars("LOGIT_ADMIN_PORT"),
			Destination: &cfg.Port,
			Value:       cfg.Port,
			Usage:       "HTTP server port",
		},
		&cli.IntFlag{
			Name:        "read-header-timeout-seconds",
			Category:    "Server:",
			Sources:     cli.EnvVars("LOGIT_ADMIN_READ_HEADER_TIMEOUT_SECONDS"),
			Destination: readHeaderTimeoutSecs,
			Value:       *readHeaderTimeoutSecs,
			Usage:       "HTTP read header timeout in seconds",
		},
		&cli.IntFlag{
			Name:        "drain-timeout-seconds",
			Category:    "Server:",
			Sources:     cli.EnvVars("LOGIT_ADMIN_DRAIN_TIMEOUT_SECONDS"),
			Destination: &cfg.DrainTimeout,
			Value:       cfg.DrainTimeout,
			Usage:       "Graceful shutdown drain timeout in seconds",
		},
		&cli.BoolFlag{
			Name:        "management-access-log",
			Category:    "Server:",
			Sources:     cli.EnvVars("LOGIT_ADMIN_MANAGEMENT_ACCESS_LOG"),
			Destination: &cfg.ManagementAccessLog,
			Usage:       "Enable HTTP access logging for management endpoints (/health, /ready, /metrics)",
		},
		&cli.BoolFlag{
			Name:        "cors-enabled",
			Category:    "Server:",
			Sources:     cli.EnvVars("LOGIT_ADMIN_CORS_ENABLED"),
			Destination: &cfg.CORSEnabled,
			Usage:       "Enable CORS handling for browser dashboards",
		},
		&cli.StringFlag{
			Name:        "cors-origins",
			Category:    "Server:",
			Sources:     cli.EnvVars("LOGIT_ADMIN_CORS_ORIGINS"),
			Destination: &cfg.CORSOrigins,
			Usage:       "Comma-separated allowed CORS origins; empty allows all",
		},

		// ── Relational store ──────────────────────────────────────
		&cli.StringFlag{
			Name:        "dev-database-url",
			Category:    "Datastore:",
			Sources:     cli.EnvVars("LOGIT_ADMIN_DEV_DATABASE_URL"),
			Destination: &cfg.DevDatabaseURL,
			Usage:       "PostgreSQL URL for the dev environment (required)",
		},
		&cli.StringFlag{
			Name:        "prod-database-url",
			Category:    "Datastore:",
			Sources:     cli.EnvVars("LOGIT_ADMIN_PROD_DATABASE_URL"),
			Destination: &cfg.ProdDatabaseURL,
			Usage:       "PostgreSQL URL for the production environment; unset disables env toggling",
		},
		&cli.BoolFlag{
			Name:        "datastore-migrate-at-start",
			Category:    "Datastore:",
			Sources:     cli.EnvVars("LOGIT_ADMIN_DATASTORE_MIGRATE_AT_START"),
			Destination: &cfg.DatastoreMigrateAtStart,
			Value:       cfg.DatastoreMigrateAtStart,
			Usage:       "Run relational schema migrations at startup",
		},
		&cli.IntFlag{
			Name:        "db-max-open-conns",
			Category:    "Datastore:",
			Sources:     cli.EnvVars("LOGIT_ADMIN_DB_MAX_OPEN_CONNS"),
			Destination: &cfg.DBMaxOpenConns,
			Value:       cfg.DBMaxOpenConns,
			Usage:       "Maximum open database connections per environment",
		},
		&cli.IntFlag{
			Name:        "db-max-idle-conns",
			Category:    "Datastore:",
			Sources:     cli.EnvVars("LOGIT_ADMIN_DB_MAX_IDLE_CONNS"),
			Destination: &cfg.DBMaxIdleConns,
			Value:       cfg.DBMaxIdleConns,
			Usage:       "Maximum idle database connections per environment",
		},

		// ── Vector store ──────────────────────────────────────────
		&cli.StringFlag{
			Name:        "dev-qdrant-host",
			Category:    "Vector Store:",
			Sources:     cli.EnvVars("LOGIT_ADMIN_DEV_QDRANT_HOST"),
			Destination: &cfg.DevQdrantHost,
			Value:       cfg.DevQdrantHost,
			Usage:       "Qdrant host[:port] for the dev environment (gRPC port 6334 assumed)",
		},
		&cli.StringFlag{
			Name:        "prod-qdrant-host",
			Category:    "Vector Store:",
			Sources:     cli.EnvVars("LOGIT_ADMIN_PROD_QDRANT_HOST"),
			Destination: &cfg.ProdQdrantHost,
			Usage:       "Qdrant host[:port] for the production environment",
		},
		&cli.StringFlag{
			Name:        "dev-qdrant-collection",
			Category:    "Vector Store:",
			Sources:     cli.EnvVars("LOGIT_ADMIN_DEV_QDRANT_COLLECTION"),
			Destination: &cfg.DevQdrantCollection,
			Value:       cfg.DevQdrantCollection,
			Usage:       "Experiences collection name (dev)",
		},
		&cli.StringFlag{
			Name:        "prod-qdrant-collection",
			Category:    "Vector Store:",
			Sources:     cli.EnvVars("LOGIT_ADMIN_PROD_QDRANT_COLLECTION"),
			Destination: &cfg.ProdQdrantCollection,
			Value:       cfg.ProdQdrantCollection,
			Usage:       "Experiences collection name (production)",
		},
		&cli.StringFlag{
			Name:        "qdrant-api-key",
			Category:    "Vector Store:",
			Sources:     cli.EnvVars("LOGIT_ADMIN_QDRANT_API_KEY"),
			Destination: &cfg.QdrantAPIKey,
			Usage:       "Qdrant API key, sent as per-RPC credentials",
		},
		&cli.BoolFlag{
			Name:        "qdrant-use-tls",
			Category:    "Vector Store:",
			Sources:     cli.EnvVars("LOGIT_ADMIN_QDRANT_USE_TLS"),
			Destination: &cfg.QdrantUseTLS,
			Usage:       "Connect to Qdrant over TLS",
		},
		&cli.IntFlag{
			Name:        "qdrant-startup-timeout-seconds",
			Category:    "Vector Store:",
			Sources:     cli.EnvVars("LOGIT_ADMIN_QDRANT_STARTUP_TIMEOUT_SECONDS"),
			Destination: qdrantStartupTimeoutSecs,
			Value:       *qdrantStartupTimeoutSecs,
			Usage:       "Timeout for Qdrant collection setup at startup",
		},
		&cli.BoolFlag{
			Name:        "vector-migrate-at-start",
			Category:    "Vector Store:",
			Sources:     cli.EnvVars("LOGIT_ADMIN_VECTOR_MIGRATE_AT_START"),
			Destination: &cfg.VectorMigrateAtStart,
			Value:       cfg.VectorMigrateAtStart,
			Usage:       "Ensure the Qdrant collections exist at startup",
		},
		&cli.IntFlag{
			Name:        "embedding-dimension",
			Category:    "Vector Store:",
			Sources:     cli.EnvVars("LOGIT_ADMIN_EMBEDDING_DIMENSION"),
			Destination: &cfg.EmbeddingDimension,
			Value:       cfg.EmbeddingDimension,
			Usage:       "Embedding vector dimension of the experiences collection",
		},

		// ── MCP credentials ───────────────────────────────────────
		&cli.StringFlag{
			Name:        "dev-mcp-secret",
			Category:    "MCP:",
			Sources:     cli.EnvVars("LOGIT_ADMIN_DEV_MCP_SECRET"),
			Destination: &cfg.DevMCPSecret,
			Usage:       "HS256 signing secret for dev MCP tokens",
		},
		&cli.StringFlag{
			Name:        "prod-mcp-secret",
			Category:    "MCP:",
			Sources:     cli.EnvVars("LOGIT_ADMIN_PROD_MCP_SECRET"),
			Destination: &cfg.ProdMCPSecret,
			Usage:       "HS256 signing secret for production MCP tokens",
		},
		&cli.StringFlag{
			Name:     "mcp-issuance-env",
			Category: "MCP:",
			Sources:  cli.EnvVars("LOGIT_ADMIN_MCP_ISSUANCE_ENV"),
			Value:    string(cfg.MCPIssuanceEnv),
			Usage:    "The single environment allowed to issue MCP tokens (dev|production)",
		},
		&cli.DurationFlag{
			Name:        "mcp-token-ttl",
			Category:    "MCP:",
			Sources:     cli.EnvVars("LOGIT_ADMIN_MCP_TOKEN_TTL"),
			Destination: &cfg.MCPTokenTTL,
			Value:       cfg.MCPTokenTTL,
			Usage:       "Lifetime of issued MCP tokens",
		},

		// ── Cache ─────────────────────────────────────────────────
		&cli.StringFlag{
			Name:        "redis-url",
			Category:    "Cache:",
			Sources:     cli.EnvVars("LOGIT_ADMIN_REDIS_URL"),
			Destination: &cfg.RedisURL,
			Usage:       "Redis URL for the stats cache; empty disables caching",
		},
		&cli.DurationFlag{
			Name:        "stats-cache-ttl",
			Category:    "Cache:",
			Sources:     cli.EnvVars("LOGIT_ADMIN_STATS_CACHE_TTL"),
			Destination: &cfg.StatsCacheTTL,
			Value:       cfg.StatsCacheTTL,
			Usage:       "TTL of cached stats responses",
		},

		// ── Monitoring ────────────────────────────────────────────
		&cli.StringFlag{
			Name:        "metrics-labels",
			Category:    "Monitoring:",
			Sources:     cli.EnvVars("LOGIT_ADMIN_METRICS_LABELS"),
			Destination: &cfg.MetricsLabels,
			Value:       "service=logit-admin",
			Usage:       "Comma-separated key=value pairs added as constant labels to all Prometheus metrics. Supports ${VAR} expansion.",
		},
	}
}

func run(ctx context.Context, cfg config.Config) error {
	srv, err := StartServer(ctx, &cfg)
	if err != nil {
		return err
	}

	<-ctx.Done()
	log.Info("Shutting down...")

	drainCtx, drainCancel := context.WithTimeout(context.Background(), time.Duration(cfg.DrainTimeout)*time.Second)
	defer drainCancel()
	if err := srv.Shutdown(drainCtx); err != nil {
		log.Error("Shutdown error", "err", err)
	}
	log.Info("Server stopped")
	return nil
}
