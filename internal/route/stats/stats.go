// Package stats serves the dashboard aggregation endpoint.
package stats

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/GoGangH/logit-admin/internal/config"
	"github.com/GoGangH/logit-admin/internal/registry/clients"
	registryroute "github.com/GoGangH/logit-admin/internal/registry/route"
	"github.com/GoGangH/logit-admin/internal/route/envsel"
	"github.com/GoGangH/logit-admin/internal/security"
	"github.com/GoGangH/logit-admin/internal/store"
	"github.com/GoGangH/logit-admin/internal/vector"
	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
)

// distributionScanCap bounds how many points the type/category distribution
// scan will read. Beyond this the distribution is a sample, not a census.
const distributionScanCap = 10000

func init() {
	registryroute.Register(registryroute.Plugin{
		Order: 130,
		Loader: func(r *gin.Engine, deps registryroute.Deps) error {
			r.GET("/stats", func(c *gin.Context) { getStats(c, deps) })
			return nil
		},
	})
}

type statsResponse struct {
	store.RelationalStats
	TotalExperiences     uint64           `json:"totalExperiences"`
	ExperienceTypes      map[string]int64 `json:"experienceTypes"`
	ExperienceCategories map[string]int64 `json:"experienceCategories"`
	VectorAvailable      bool             `json:"vectorAvailable"`
}

func getStats(c *gin.Context, deps registryroute.Deps) {
	env, pair, err := envsel.Resolve(c, deps.Clients)
	if err != nil {
		handleError(c, err)
		return
	}

	cacheKey := fmt.Sprintf("logit-admin:stats:%s", env)
	if cached, hit, err := deps.Stats.Get(c.Request.Context(), cacheKey); err == nil && hit {
		if security.StatsCacheHitsTotal != nil {
			security.StatsCacheHitsTotal.Inc()
		}
		c.Data(http.StatusOK, "application/json; charset=utf-8", cached)
		return
	} else if err != nil {
		log.Warn("Stats cache read failed", "error", err)
	}
	if security.StatsCacheMissesTotal != nil {
		security.StatsCacheMissesTotal.Inc()
	}

	relational, err := pair.Store.Stats(c.Request.Context(), time.Now().UTC())
	if err != nil {
		handleError(c, err)
		return
	}

	resp := statsResponse{RelationalStats: *relational}
	fillVectorStats(c, pair, &resp)

	body, err := json.Marshal(resp)
	if err != nil {
		handleError(c, err)
		return
	}
	if err := deps.Stats.Set(c.Request.Context(), cacheKey, body, cfgTTL(deps.Config)); err != nil {
		log.Warn("Stats cache write failed", "error", err)
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

func cfgTTL(cfg *config.Config) time.Duration {
	if cfg.StatsCacheTTL > 0 {
		return cfg.StatsCacheTTL
	}
	return time.Minute
}

// fillVectorStats adds experience totals and type/category distributions.
// A vector outage degrades these fields to zero rather than failing the
// dashboard; the relational half of the page still renders.
func fillVectorStats(c *gin.Context, pair clients.Pair, resp *statsResponse) {
	resp.ExperienceTypes = map[string]int64{}
	resp.ExperienceCategories = map[string]int64{}

	ctx := c.Request.Context()
	total, err := pair.Vector.Count(ctx, vector.Filter{})
	if err != nil {
		degradeVectorStats(err)
		return
	}
	resp.TotalExperiences = total
	resp.VectorAvailable = true

	var cursor *string
	scanned := 0
	for scanned < distributionScanCap {
		points, next, err := pair.Vector.Scroll(ctx, vector.Filter{}, 1000, cursor)
		if err != nil {
			degradeVectorStats(err)
			resp.ExperienceTypes = map[string]int64{}
			resp.ExperienceCategories = map[string]int64{}
			resp.VectorAvailable = false
			return
		}
		for _, p := range points {
			if t, ok := p.Payload["experience_type"].(string); ok && t != "" {
				resp.ExperienceTypes[t]++
			}
			if cat, ok := p.Payload["category"].(string); ok && cat != "" {
				resp.ExperienceCategories[cat]++
			}
		}
		scanned += len(points)
		if next == nil || len(points) == 0 {
			break
		}
		cursor = next
	}
}

func degradeVectorStats(err error) {
	if errors.Is(err, vector.ErrUnavailable) && security.VectorUnavailableTotal != nil {
		security.VectorUnavailableTotal.Inc()
	}
	log.Warn("Vector store unavailable; stats degraded", "error", err)
}

func handleError(c *gin.Context, err error) {
	log.Error("Request failed", "path", c.Request.URL.Path, "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
