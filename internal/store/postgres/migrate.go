package postgres

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/GoGangH/logit-admin/internal/config"
	registrymigrate "github.com/GoGangH/logit-admin/internal/registry/migrate"
	"github.com/charmbracelet/log"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

//go:embed schema.sql
var schemaSQL string

func init() {
	registrymigrate.Register(registrymigrate.Plugin{Order: 100, Migrator: &postgresMigrator{}})
}

// postgresMigrator applies the embedded schema to every configured
// environment's database.
type postgresMigrator struct{}

func (m *postgresMigrator) Name() string { return "postgres-schema" }

func (m *postgresMigrator) Migrate(ctx context.Context) error {
	cfg := config.FromContext(ctx)
	if cfg == nil || !cfg.DatastoreMigrateAtStart {
		return nil
	}
	envs := []config.Env{config.EnvDev}
	if cfg.ProductionConfigured() {
		envs = append(envs, config.EnvProduction)
	}
	for _, env := range envs {
		if strings.TrimSpace(cfg.DatabaseURL(env)) == "" {
			continue
		}
		log.Info("Running migration", "name", m.Name(), "env", env)
		if err := applySchema(ctx, cfg.DatabaseURL(env)); err != nil {
			return fmt.Errorf("postgres migrate (%s): %w", env, err)
		}
	}
	return nil
}

func applySchema(ctx context.Context, url string) error {
	db, err := gorm.Open(pgdriver.Open(url), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if _, err := sqlDB.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}
