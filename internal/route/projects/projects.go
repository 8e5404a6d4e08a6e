// Package projects serves the /projects admin API.
package projects

import (
	"errors"
	"fmt"
	"net/http"

	registryroute "github.com/GoGangH/logit-admin/internal/registry/route"
	"github.com/GoGangH/logit-admin/internal/route/envsel"
	"github.com/GoGangH/logit-admin/internal/store"
	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func init() {
	registryroute.Register(registryroute.Plugin{
		Order: 110,
		Loader: func(r *gin.Engine, deps registryroute.Deps) error {
			g := r.Group("/projects")
			g.GET("", func(c *gin.Context) { listProjects(c, deps) })
			g.GET("/:projectId", func(c *gin.Context) { getProject(c, deps) })
			g.PATCH("/:projectId", func(c *gin.Context) { patchProject(c, deps) })
			g.DELETE("/:projectId", func(c *gin.Context) { deleteProject(c, deps) })
			return nil
		},
	})
}

func listProjects(c *gin.Context, deps registryroute.Deps) {
	_, pair, err := envsel.Resolve(c, deps.Clients)
	if err != nil {
		handleError(c, err)
		return
	}

	page, err := pair.Store.ListProjects(c.Request.Context(), store.ProjectQuery{
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "pageSize", store.DefaultPageSize),
		Search:   c.Query("search"),
	})
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func getProject(c *gin.Context, deps registryroute.Deps) {
	_, pair, err := envsel.Resolve(c, deps.Clients)
	if err != nil {
		handleError(c, err)
		return
	}
	id, err := pathUUID(c, "projectId")
	if err != nil {
		handleError(c, err)
		return
	}

	detail, err := pair.Store.GetProject(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func patchProject(c *gin.Context, deps registryroute.Deps) {
	_, pair, err := envsel.Resolve(c, deps.Clients)
	if err != nil {
		handleError(c, err)
		return
	}
	id, err := pathUUID(c, "projectId")
	if err != nil {
		handleError(c, err)
		return
	}

	var update store.ProjectUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		handleError(c, &store.ValidationError{Field: "body", Message: "invalid JSON body"})
		return
	}

	project, err := pair.Store.UpdateProject(c.Request.Context(), id, update)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

// deleteProject is a soft delete: the row keeps its children and can be
// audited later. Hard deletion happens only through the per-user cascade.
func deleteProject(c *gin.Context, deps registryroute.Deps) {
	_, pair, err := envsel.Resolve(c, deps.Clients)
	if err != nil {
		handleError(c, err)
		return
	}
	id, err := pathUUID(c, "projectId")
	if err != nil {
		handleError(c, err)
		return
	}

	if err := pair.Store.SoftDeleteProject(c.Request.Context(), id); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// --- Helpers ---

func pathUUID(c *gin.Context, key string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(key))
	if err != nil {
		return uuid.Nil, &store.ValidationError{Field: key, Message: "must be a valid UUID"}
	}
	return id, nil
}

func handleError(c *gin.Context, err error) {
	var notFound *store.NotFoundError
	var validation *store.ValidationError
	var forbidden *store.ForbiddenError

	switch {
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"code": "not_found", "error": err.Error()})
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"code": "validation_error", "error": err.Error(), "field": validation.Field})
	case errors.As(err, &forbidden):
		c.JSON(http.StatusForbidden, gin.H{"code": "forbidden", "error": err.Error()})
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
