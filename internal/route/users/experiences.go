package users

import (
	"net/http"
	"time"

	"github.com/GoGangH/logit-admin/internal/experience"
	"github.com/GoGangH/logit-admin/internal/model"
	registryroute "github.com/GoGangH/logit-admin/internal/registry/route"
	"github.com/GoGangH/logit-admin/internal/route/envsel"
	"github.com/GoGangH/logit-admin/internal/store"
	"github.com/GoGangH/logit-admin/internal/vector"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func listUserExperiences(c *gin.Context, deps registryroute.Deps) {
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

	pager := experience.NewPager(pair.Vector)
	page, err := pager.ListPage(c.Request.Context(),
		vector.Eq("user_id", id.String()),
		queryInt(c, "page", 1), queryInt(c, "pageSize", store.DefaultPageSize))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// createUserExperience stores an admin-authored experience point. The point
// carries an all-zero embedding vector: admin entries are browsable but do
// not participate in similarity search until the product re-embeds them.
func createUserExperience(c *gin.Context, deps registryroute.Deps) {
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

	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		handleError(c, &store.ValidationError{Field: "body", Message: "invalid JSON body"})
		return
	}

	now := time.Now().UTC().Format(time.RFC3339)
	body["user_id"] = id.String()
	body["created_at"] = now
	body["updated_at"] = now

	exp, err := model.ExperienceFromPayload(uuid.New().String(), body)
	if err != nil {
		handleError(c, &store.ValidationError{Field: "body", Message: err.Error()})
		return
	}

	zero := make([]float32, deps.Config.EmbeddingDimension)
	point := vector.Point{ID: exp.ID, Payload: exp.Payload()}
	if err := pair.Vector.Upsert(c.Request.Context(), point, zero); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, exp)
}

// deleteUserExperiences accepts {"ids": [...]} to delete specific points or
// {"ids": null} to wipe every experience the user owns.
func deleteUserExperiences(c *gin.Context, deps registryroute.Deps) {
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

	if body.IDs == nil {
		if err := pair.Vector.DeleteByFilter(c.Request.Context(), vector.Eq("user_id", id.String())); err != nil {
			handleError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
		return
	}
	if len(*body.IDs) == 0 {
		handleError(c, &store.ValidationError{Field: "ids", Message: "ids must be non-empty or null"})
		return
	}
	if err := pair.Vector.DeletePoints(c.Request.Context(), *body.IDs); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "deletedCount": len(*body.IDs)})
}
