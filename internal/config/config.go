package config

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Env identifies which backing environment a request is served against.
type Env string

const (
	EnvDev        Env = "dev"
	EnvProduction Env = "production"
)

// ParseEnv validates a raw environment selector (cookie or request body value).
func ParseEnv(raw string) (Env, error) {
	switch Env(strings.TrimSpace(raw)) {
	case EnvDev:
		return EnvDev, nil
	case EnvProduction:
		return EnvProduction, nil
	default:
		return "", fmt.Errorf("invalid environment %q", raw)
	}
}

type contextKey struct{}

// WithContext returns a new context carrying the given Config.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, contextKey{}, cfg)
}

// FromContext retrieves the Config from the context.
func FromContext(ctx context.Context) *Config {
	cfg, _ := ctx.Value(contextKey{}).(*Config)
	return cfg
}

// Config holds all configuration for the admin service.
type Config struct {
	// Server
	Port                int
	ReadHeaderTimeout   time.Duration
	ManagementAccessLog bool
	CORSEnabled         bool
	CORSOrigins         string

	// Graceful shutdown drain timeout (seconds)
	DrainTimeout int

	// Relational store, per environment. Dev is required; production is optional
	// and the production environment is only selectable when it is set.
	DevDatabaseURL  string
	ProdDatabaseURL string

	// Run relational schema migrations on startup.
	DatastoreMigrateAtStart bool

	// DB pool
	DBMaxOpenConns int
	DBMaxIdleConns int

	// Qdrant, per environment. Host values accept "host" or "host:port";
	// the gRPC port 6334 is assumed when omitted.
	DevQdrantHost        string
	ProdQdrantHost       string
	DevQdrantCollection  string
	ProdQdrantCollection string
	QdrantAPIKey         string
	QdrantUseTLS         bool
	QdrantStartupTimeout time.Duration

	// Run Qdrant collection setup on startup.
	VectorMigrateAtStart bool

	// Dimension of the embedding vectors stored in the experiences collection.
	// Admin-created points carry an all-zero vector of this size.
	EmbeddingDimension int

	// MCP subscription credentials, per environment. Issuance is gated to
	// MCPIssuanceEnv only.
	DevMCPSecret   string
	ProdMCPSecret  string
	MCPIssuanceEnv Env
	MCPTokenTTL    time.Duration

	// Optional redis cache for the stats endpoint. Empty disables caching.
	RedisURL      string
	StatsCacheTTL time.Duration

	// MetricsLabels is a comma-separated list of key=value pairs added as
	// constant labels to all Prometheus metrics. Values support ${VAR} expansion.
	MetricsLabels string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Port:                    8080,
		ReadHeaderTimeout:       5 * time.Second,
		DrainTimeout:            30,
		DatastoreMigrateAtStart: true,
		DBMaxOpenConns:          25,
		DBMaxIdleConns:          5,
		DevQdrantHost:           "localhost",
		DevQdrantCollection:     "logit_embeddings",
		ProdQdrantCollection:    "logit_embeddings",
		QdrantStartupTimeout:    30 * time.Second,
		VectorMigrateAtStart:    true,
		EmbeddingDimension:      1536,
		MCPIssuanceEnv:          EnvDev,
		MCPTokenTTL:             30 * 24 * time.Hour,
		StatsCacheTTL:           time.Minute,
	}
}

// DatabaseURL returns the relational store URL for the given environment.
func (c *Config) DatabaseURL(env Env) string {
	if env == EnvProduction {
		return c.ProdDatabaseURL
	}
	return c.DevDatabaseURL
}

// QdrantAddress returns the gRPC host:port for the given environment,
// defaulting to port 6334 when the configured host carries no port.
func (c *Config) QdrantAddress(env Env) string {
	host := c.DevQdrantHost
	if env == EnvProduction {
		host = c.ProdQdrantHost
	}
	host = strings.TrimSpace(host)
	if host == "" {
		return ""
	}
	if strings.Contains(host, ":") {
		return host
	}
	return host + ":6334"
}

// QdrantCollection returns the experiences collection name for the environment.
func (c *Config) QdrantCollection(env Env) string {
	name := c.DevQdrantCollection
	if env == EnvProduction {
		name = c.ProdQdrantCollection
	}
	if strings.TrimSpace(name) == "" {
		return "logit_embeddings"
	}
	return name
}

// MCPSecret returns the MCP token signing secret for the environment.
func (c *Config) MCPSecret(env Env) string {
	if env == EnvProduction {
		return c.ProdMCPSecret
	}
	return c.DevMCPSecret
}

// ProductionConfigured reports whether the production environment can be
// selected: it requires at least a production database URL.
func (c *Config) ProductionConfigured() bool {
	return strings.TrimSpace(c.ProdDatabaseURL) != ""
}
