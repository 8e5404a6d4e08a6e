package users

import (
	"net/http"
	"time"

	"github.com/GoGangH/logit-admin/internal/model"
	registryroute "github.com/GoGangH/logit-admin/internal/registry/route"
	"github.com/GoGangH/logit-admin/internal/route/envsel"
	"github.com/GoGangH/logit-admin/internal/security"
	"github.com/GoGangH/logit-admin/internal/store"
	"github.com/gin-gonic/gin"
)

func getUserSubscription(c *gin.Context, deps registryroute.Deps) {
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

	subs, err := pair.Store.ListSubscriptions(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": subs})
}

// issueUserSubscription mints (or renews) the user's MCP access credential
// and upserts the matching subscription row. Issuance is pinned to a single
// environment so tokens signed with one secret never leak into the other.
func issueUserSubscription(c *gin.Context, deps registryroute.Deps) {
	env, pair, err := envsel.Resolve(c, deps.Clients)
	if err != nil {
		handleError(c, err)
		return
	}
	id, err := pathUUID(c, "userId")
	if err != nil {
		handleError(c, err)
		return
	}

	if env != deps.Config.MCPIssuanceEnv {
		handleError(c, &store.ForbiddenError{Message: "MCP tokens are not issued in this environment"})
		return
	}
	secret := deps.Config.MCPSecret(env)
	if secret == "" {
		handleError(c, &store.ValidationError{Field: "env", Message: "MCP secret is not configured"})
		return
	}

	if _, err := pair.Store.GetUser(c.Request.Context(), id); err != nil {
		handleError(c, err)
		return
	}

	now := time.Now().UTC()
	token, expiresAt, err := security.IssueMCPToken(secret, id, now, deps.Config.MCPTokenTTL)
	if err != nil {
		handleError(c, err)
		return
	}

	sub, err := pair.Store.UpsertSubscription(c.Request.Context(), model.Subscription{
		UserID:    id,
		Type:      model.SubscriptionTypeMCP,
		IsActive:  true,
		Plan:      model.PlanFreeTrial,
		Token:     &token,
		StartedAt: &now,
		ExpiresAt: &expiresAt,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "expires_at": expiresAt, "subscription": sub})
}
