// Package users serves the /users admin API: account management plus the
// per-user project, chat, experience, and subscription sub-resources.
package users

import (
	"errors"
	"fmt"
	"net/http"

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
	registerRoutes()
}

func listUsers(c *gin.Context, deps registryroute.Deps) {
	_, pair, err := envsel.Resolve(c, deps.Clients)
	if err != nil {
		handleError(c, err)
		return
	}

	q := store.UserQuery{
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "pageSize", store.DefaultPageSize),
		Search:   c.Query("search"),
	}
	switch c.Query("isActive") {
	case "true":
		active := true
		q.IsActive = &active
	case "false":
		active := false
		q.IsActive = &active
	}

	page, err := pair.Store.ListUsers(c.Request.Context(), q)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func getUser(c *gin.Context, deps registryroute.Deps) {
	_, pair, err := envsel.Resolve(c, deps.Clients)
	if err != nil {
		handleError(c, err)
		return
	}
	id, err := pathUUID(c, "userId")
	if err != nil {
		handleError(c, err)
		return
	}

	summary, err := pair.Store.GetUser(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}

	// The experience count lives in the vector store; an outage zeroes the
	// count rather than failing the whole detail view.
	var experienceCount uint64
	count, err := pair.Vector.Count(c.Request.Context(), vector.Eq("user_id", id.String()))
	if err != nil {
		if !errors.Is(err, vector.ErrUnavailable) {
			handleError(c, err)
			return
		}
		observeVectorOutage()
		log.Warn("Vector store unavailable; reporting zero experiences", "userId", id)
	} else {
		experienceCount = count
	}

	c.JSON(http.StatusOK, userDetail{
		UserSummary:     *summary,
		ExperienceCount: int64(experienceCount),
	})
}

type userDetail struct {
	store.UserSummary
	ExperienceCount int64 `json:"experience_count"`
}

func patchUser(c *gin.Context, deps registryroute.Deps) {
	_, pair, err := envsel.Resolve(c, deps.Clients)
	if err != nil {
		handleError(c, err)
		return
	}
	id, err := pathUUID(c, "userId")
	if err != nil {
		handleError(c, err)
		return
	}

	var body struct {
		IsActive *bool `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.IsActive == nil {
		handleError(c, &store.ValidationError{Field: "is_active", Message: "is_active boolean is required"})
		return
	}

	user, err := pair.Store.SetUserActive(c.Request.Context(), id, *body.IsActive)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// deleteUser removes the account. The relational cascade commits first;
// vector cleanup afterwards is best-effort and never fails the request,
// since orphaned points are invisible once the user row is gone.
func deleteUser(c *gin.Context, deps registryroute.Deps) {
	_, pair, err := envsel.Resolve(c, deps.Clients)
	if err != nil {
		handleError(c, err)
		return
	}
	id, err := pathUUID(c, "userId")
	if err != nil {
		handleError(c, err)
		return
	}

	if err := pair.Store.DeleteUser(c.Request.Context(), id); err != nil {
		handleError(c, err)
		return
	}

	if err := pair.Vector.DeleteByFilter(c.Request.Context(), vector.Eq("user_id", id.String())); err != nil {
		log.Warn("Failed to delete user experiences from vector store", "userId", id, "error", err)
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
	case errors.Is(err, vector.ErrUnavailable):
		observeVectorOutage()
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "experience store unavailable"})
	default:
		log.Error("Request failed", "path", c.Request.URL.Path, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func observeVectorOutage() {
	if security.VectorUnavailableTotal != nil {
		security.VectorUnavailableTotal.Inc()
	}
}

func queryPtr(c *gin.Context, key string) *string {
	v := c.Query(key)
	if v == "" {
		return nil
	}
	return &v
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
