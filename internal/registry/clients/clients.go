// Package clients holds the per-environment store/vector client pairs, built
// once at startup and injected into route handlers.
package clients

import (
	"context"
	"fmt"
	"strings"

	"github.com/GoGangH/logit-admin/internal/config"
	"github.com/GoGangH/logit-admin/internal/store"
	storemetrics "github.com/GoGangH/logit-admin/internal/store/metrics"
	"github.com/GoGangH/logit-admin/internal/store/postgres"
	"github.com/GoGangH/logit-admin/internal/vector"
	"github.com/GoGangH/logit-admin/internal/vector/qdrant"
	"github.com/charmbracelet/log"
)

// Pair is the client set serving one environment.
type Pair struct {
	Store  store.AdminStore
	Vector vector.Store
}

// Registry maps environments to their client pairs.
type Registry struct {
	pairs          map[config.Env]Pair
	prodConfigured bool
}

// Build connects the dev pair, and the production pair when its database URL
// is configured. Qdrant connections are lazy; a missing vector host yields a
// client that reports ErrUnavailable instead of failing startup.
func Build(cfg *config.Config) (*Registry, error) {
	reg := &Registry{
		pairs:          map[config.Env]Pair{},
		prodConfigured: cfg.ProductionConfigured(),
	}

	devPair, err := buildPair(cfg, config.EnvDev)
	if err != nil {
		return nil, err
	}
	reg.pairs[config.EnvDev] = devPair

	if reg.prodConfigured {
		prodPair, err := buildPair(cfg, config.EnvProduction)
		if err != nil {
			return nil, err
		}
		reg.pairs[config.EnvProduction] = prodPair
	} else {
		log.Info("Production environment not configured; serving dev only")
	}
	return reg, nil
}

func buildPair(cfg *config.Config, env config.Env) (Pair, error) {
	relational, err := postgres.New(cfg, env)
	if err != nil {
		return Pair{}, fmt.Errorf("build %s clients: %w", env, err)
	}

	var vec vector.Store
	if strings.TrimSpace(cfg.QdrantAddress(env)) == "" {
		log.Warn("No Qdrant host configured; experience features degraded", "env", env)
		vec = unavailableStore{}
	} else {
		vec, err = qdrant.New(cfg, env)
		if err != nil {
			return Pair{}, fmt.Errorf("build %s vector client: %w", env, err)
		}
	}
	return Pair{Store: storemetrics.Wrap(relational), Vector: vec}, nil
}

// NewStatic builds a registry from pre-built pairs. Tests use this to
// substitute fakes.
func NewStatic(pairs map[config.Env]Pair, prodConfigured bool) *Registry {
	return &Registry{pairs: pairs, prodConfigured: prodConfigured}
}

// For returns the pair serving the environment.
func (r *Registry) For(env config.Env) (Pair, error) {
	pair, ok := r.pairs[env]
	if !ok {
		return Pair{}, fmt.Errorf("environment %q is not configured", env)
	}
	return pair, nil
}

// ProductionConfigured reports whether the production pair was built.
func (r *Registry) ProductionConfigured() bool { return r.prodConfigured }

// unavailableStore stands in when no vector host is configured.
type unavailableStore struct{}

func (unavailableStore) Count(context.Context, vector.Filter) (uint64, error) {
	return 0, vector.ErrUnavailable
}

func (unavailableStore) Scroll(context.Context, vector.Filter, uint32, *string) ([]vector.Point, *string, error) {
	return nil, nil, vector.ErrUnavailable
}

func (unavailableStore) Retrieve(context.Context, string) (*vector.Point, error) {
	return nil, vector.ErrUnavailable
}

func (unavailableStore) Upsert(context.Context, vector.Point, []float32) error {
	return vector.ErrUnavailable
}

func (unavailableStore) SetPayload(context.Context, string, map[string]any) error {
	return vector.ErrUnavailable
}

func (unavailableStore) DeletePoints(context.Context, []string) error {
	return vector.ErrUnavailable
}

func (unavailableStore) DeleteByFilter(context.Context, vector.Filter) error {
	return vector.ErrUnavailable
}
