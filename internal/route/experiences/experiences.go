// Package experiences serves the cross-user /experiences admin API on top of
// the vector store, enriched with owner identity from the relational store.
package experiences

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/GoGangH/logit-admin/internal/experience"
	"github.com/GoGangH/logit-admin/internal/model"
	"github.com/GoGangH/logit-admin/internal/registry/clients"
	registryroute "github.com/GoGangH/logit-admin/internal/registry/route"
	"github.com/GoGangH/logit-admin/internal/route/envsel"
	"github.com/GoGangH/logit-admin/internal/security"
	"github.com/GoGangH/logit-admin/internal/store"
	"github.com/GoGangH/logit-admin/internal/vector"
	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func init() {
	registryroute.Register(registryroute.Plugin{
		Order: 120,
		Loader: func(r *gin.Engine, deps registryroute.Deps) error {
			g := r.Group("/experiences")
			g.GET("", func(c *gin.Context) { listExperiences(c, deps) })
			g.GET("/:experienceId", func(c *gin.Context) { getExperience(c, deps) })
			g.PATCH("/:experienceId", func(c *gin.Context) { patchExperience(c, deps) })
			g.DELETE("/:experienceId", func(c *gin.Context) { deleteExperience(c, deps) })
			return nil
		},
	})
}

type enrichedExperience struct {
	model.Experience
	UserEmail *string `json:"user_email,omitempty"`
	UserName  *string `json:"user_name,omitempty"`
}

// listExperiences pages all experience points, filtered server-side by type
// and category. The free-text search runs client-side against the fetched
// page only, so totals stay page-local while a search is active; the vector
// store has no substring match to push it down to.
func listExperiences(c *gin.Context, deps registryroute.Deps) {
	_, pair, err := envsel.Resolve(c, deps.Clients)
	if err != nil {
		handleError(c, err)
		return
	}

	filter := vector.Filter{}
	if t := c.Query("type"); t != "" {
		filter = filter.And("experience_type", t)
	}
	if cat := c.Query("category"); cat != "" {
		filter = filter.And("category", cat)
	}

	pager := experience.NewPager(pair.Vector)
	page, err := pager.ListPage(c.Request.Context(), filter,
		queryInt(c, "page", 1), queryInt(c, "pageSize", store.DefaultPageSize))
	if err != nil {
		handleError(c, err)
		return
	}

	enriched, err := enrich(c, pair, page.Data)
	if err != nil {
		handleError(c, err)
		return
	}

	total := page.Total
	totalPages := page.TotalPages
	if search := strings.ToLower(strings.TrimSpace(c.Query("search"))); search != "" {
		filtered := make([]enrichedExperience, 0, len(enriched))
		for _, e := range enriched {
			email := ""
			if e.UserEmail != nil {
				email = *e.UserEmail
			}
			if strings.Contains(strings.ToLower(e.Title), search) ||
				strings.Contains(strings.ToLower(email), search) {
				filtered = append(filtered, e)
			}
		}
		enriched = filtered
		total = int64(len(filtered))
		totalPages = 1
		if total > 0 {
			totalPages = int((total + int64(page.PageSize) - 1) / int64(page.PageSize))
		}
	}

	c.JSON(http.StatusOK, store.Page[enrichedExperience]{
		Data:       enriched,
		Total:      total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: totalPages,
	})
}

// enrich joins owner email/full_name onto experiences with one batched
// relational lookup.
func enrich(c *gin.Context, pair clients.Pair, experiences []model.Experience) ([]enrichedExperience, error) {
	ids := make([]uuid.UUID, 0, len(experiences))
	seen := map[uuid.UUID]bool{}
	for _, e := range experiences {
		uid, err := uuid.Parse(e.UserID)
		if err != nil || seen[uid] {
			continue
		}
		seen[uid] = true
		ids = append(ids, uid)
	}
	owners, err := pair.Store.UsersByIDs(c.Request.Context(), ids)
	if err != nil {
		return nil, err
	}

	enriched := make([]enrichedExperience, len(experiences))
	for i, e := range experiences {
		item := enrichedExperience{Experience: e}
		if uid, err := uuid.Parse(e.UserID); err == nil {
			if owner, ok := owners[uid]; ok {
				email := owner.Email
				item.UserEmail = &email
				item.UserName = owner.FullName
			}
		}
		enriched[i] = item
	}
	return enriched, nil
}

func getExperience(c *gin.Context, deps registryroute.Deps) {
	_, pair, err := envsel.Resolve(c, deps.Clients)
	if err != nil {
		handleError(c, err)
		return
	}
	id := c.Param("experienceId")

	point, err := pair.Vector.Retrieve(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	if point == nil {
		handleError(c, &store.NotFoundError{Resource: "experience", ID: id})
		return
	}
	exp, err := model.ExperienceFromPayload(point.ID, point.Payload)
	if err != nil {
		handleError(c, err)
		return
	}

	enriched, err := enrich(c, pair, []model.Experience{exp})
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, enriched[0])
}

// patchExperience merges the update through tagged-union validation. A
// format switch clears the other variants' content keys in storage so the
// point never carries two variants at once.
func patchExperience(c *gin.Context, deps registryroute.Deps) {
	_, pair, err := envsel.Resolve(c, deps.Clients)
	if err != nil {
		handleError(c, err)
		return
	}
	id := c.Param("experienceId")

	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		handleError(c, &store.ValidationError{Field: "body", Message: "invalid JSON body"})
		return
	}

	point, err := pair.Vector.Retrieve(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	if point == nil {
		handleError(c, &store.NotFoundError{Resource: "experience", ID: id})
		return
	}

	exp, err := model.ExperienceFromPayload(point.ID, point.Payload)
	if err != nil {
		handleError(c, err)
		return
	}
	if err := exp.ApplyUpdate(body); err != nil {
		handleError(c, &store.ValidationError{Field: "body", Message: err.Error()})
		return
	}
	exp.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

	payload := exp.Payload()
	for _, key := range []string{"situation", "task", "action", "result", "problem", "solution", "impact", "content"} {
		if _, ok := payload[key]; !ok {
			payload[key] = ""
		}
	}
	if err := pair.Vector.SetPayload(c.Request.Context(), id, payload); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, exp)
}

func deleteExperience(c *gin.Context, deps registryroute.Deps) {
	_, pair, err := envsel.Resolve(c, deps.Clients)
	if err != nil {
		handleError(c, err)
		return
	}
	id := c.Param("experienceId")

	point, err := pair.Vector.Retrieve(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	if point == nil {
		handleError(c, &store.NotFoundError{Resource: "experience", ID: id})
		return
	}
	if err := pair.Vector.DeletePoints(c.Request.Context(), []string{id}); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// --- Helpers ---

func handleError(c *gin.Context, err error) {
	var notFound *store.NotFoundError
	var validation *store.ValidationError

	switch {
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"code": "not_found", "error": err.Error()})
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"code": "validation_error", "error": err.Error(), "field": validation.Field})
	case errors.Is(err, vector.ErrUnavailable):
		if security.VectorUnavailableTotal != nil {
			security.VectorUnavailableTotal.Inc()
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "experience store unavailable"})
	default:
		log.Error("Request failed", "path", c.Request.URL.Path, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func queryInt(c *gin.Context, key string, def int) int {
	v := c.Query(key)
	if v == "" {
		return def
	}
	var i int
	if _, err := fmt.Sscanf(v, "%d", &i); err != nil {
		return def
	}
	return i
}
