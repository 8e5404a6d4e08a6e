package users

import (
	"net/http"

	registryroute "github.com/GoGangH/logit-admin/internal/registry/route"
	"github.com/GoGangH/logit-admin/internal/route/envsel"
	"github.com/GoGangH/logit-admin/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// listUserChats serves two shapes from one path. Without questionId it lists
// the questions the user has chatted on (offset paged); with questionId it
// pages that question's messages by cursor, newest first.
func listUserChats(c *gin.Context, deps registryroute.Deps) {
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

	rawQuestionID := c.Query("questionId")
	if rawQuestionID == "" {
		page, err := pair.Store.ListQuestionSummaries(c.Request.Context(),
			id, queryInt(c, "page", 1), queryInt(c, "pageSize", store.DefaultPageSize))
		if err != nil {
			handleError(c, err)
			return
		}
		c.JSON(http.StatusOK, page)
		return
	}

	questionID, err := uuid.Parse(rawQuestionID)
	if err != nil {
		handleError(c, &store.ValidationError{Field: "questionId", Message: "must be a valid UUID"})
		return
	}
	var cursor *uuid.UUID
	if raw := queryPtr(c, "cursor"); raw != nil {
		parsed, err := uuid.Parse(*raw)
		if err != nil {
			handleError(c, &store.ValidationError{Field: "cursor", Message: "must be a valid UUID"})
			return
		}
		cursor = &parsed
	}

	page, err := pair.Store.ListChatMessages(c.Request.Context(),
		id, questionID, cursor, queryInt(c, "limit", 30))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}
