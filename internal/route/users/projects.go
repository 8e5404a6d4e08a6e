package users

import (
	"net/http"

	registryroute "github.com/GoGangH/logit-admin/internal/registry/route"
	"github.com/GoGangH/logit-admin/internal/route/envsel"
	"github.com/GoGangH/logit-admin/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func listUserProjects(c *gin.Context, deps registryroute.Deps) {
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

	page, err := pair.Store.ListUserProjects(c.Request.Context(),
		id, queryInt(c, "page", 1), queryInt(c, "pageSize", store.DefaultPageSize))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// deleteUserProjects hard-deletes projects with their questions and chats.
// A null (or absent) ids field targets every project the user owns.
func deleteUserProjects(c *gin.Context, deps registryroute.Deps) {
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
		IDs *[]string `json:"ids"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		handleError(c, &store.ValidationError{Field: "body", Message: "invalid JSON body"})
		return
	}

	var targets []uuid.UUID
	if body.IDs != nil {
		if len(*body.IDs) == 0 {
			handleError(c, &store.ValidationError{Field: "ids", Message: "ids must be non-empty or null"})
			return
		}
		targets = make([]uuid.UUID, 0, len(*body.IDs))
		for _, raw := range *body.IDs {
			pid, err := uuid.Parse(raw)
			if err != nil {
				handleError(c, &store.ValidationError{Field: "ids", Message: "ids must be valid UUIDs"})
				return
			}
			targets = append(targets, pid)
		}
	}

	deleted, err := pair.Store.DeleteProjects(c.Request.Context(), id, targets)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "deletedCount": deleted})
}
