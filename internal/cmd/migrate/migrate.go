package migrate

import (
	"context"
	"time"

	"github.com/GoGangH/logit-admin/internal/config"
	registrymigrate "github.com/GoGangH/logit-admin/internal/registry/migrate"
	"github.com/urfave/cli/v3"

	// Import migrator plugins to trigger init() registration.
	_ "github.com/GoGangH/logit-admin/internal/store/postgres"
	_ "github.com/GoGangH/logit-admin/internal/vector/qdrant"
)

// Command returns the migrate sub-command. It runs the relational schema
// and vector collection migrations against the configured environments
// and exits.
func Command() *cli.Command {
	cfg := config.DefaultConfig()
	var qdrantStartupTimeoutSecs int = 30
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply schema and collection migrations, then exit",
		Flags: flags(&cfg, &qdrantStartupTimeoutSecs),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg.QdrantStartupTimeout = time.Duration(qdrantStartupTimeoutSecs) * time.Second
			// The migrate command always migrates; the at-start toggles
			// only gate migrations run by serve.
			cfg.DatastoreMigrateAtStart = true
			cfg.VectorMigrateAtStart = true
			return registrymigrate.RunAll(config.WithContext(ctx, &cfg))
		},
	}
}

func flags(cfg *config.Config, qdrantStartupTimeoutSecs *int) []cli.Flag {
	return []cli.Flag{
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
			Usage:       "PostgreSQL URL for the production environment; unset skips it",
		},
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
			Usage:       "Timeout for Qdrant collection setup",
		},
		&cli.IntFlag{
			Name:        "embedding-dimension",
			Category:    "Vector Store:",
			Sources:     cli.EnvVars("LOGIT_ADMIN_EMBEDDING_DIMENSION"),
			Destination: &cfg.EmbeddingDimension,
			Value:       cfg.EmbeddingDimension,
			Usage:       "Embedding vector dimension of the experiences collection",
		},
	}
}
