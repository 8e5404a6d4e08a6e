// Package envselect serves the /env endpoint toggling which environment the
// dashboard operates on.
package envselect

import (
	"net/http"

	"github.com/GoGangH/logit-admin/internal/config"
	registryroute "github.com/GoGangH/logit-admin/internal/registry/route"
	"github.com/GoGangH/logit-admin/internal/route/envsel"
	"github.com/gin-gonic/gin"
)

// cookieMaxAge keeps the selection for 30 days.
const cookieMaxAge = 30 * 24 * 60 * 60

func init() {
	registryroute.Register(registryroute.Plugin{
		Order: 140,
		Loader: func(r *gin.Engine, deps registryroute.Deps) error {
			r.GET("/env", func(c *gin.Context) { getEnv(c, deps) })
			r.POST("/env", func(c *gin.Context) { setEnv(c, deps) })
			return nil
		},
	})
}

func getEnv(c *gin.Context, deps registryroute.Deps) {
	env := config.EnvDev
	if raw, err := c.Cookie(envsel.CookieName); err == nil {
		if parsed, perr := config.ParseEnv(raw); perr == nil {
			env = parsed
		}
	}
	if env == config.EnvProduction && !deps.Clients.ProductionConfigured() {
		env = config.EnvDev
	}
	c.JSON(http.StatusOK, gin.H{
		"env":                  env,
		"productionConfigured": deps.Clients.ProductionConfigured(),
	})
}

func setEnv(c *gin.Context, deps registryroute.Deps) {
	var body struct {
		Env string `json:"env"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}
	env, err := config.ParseEnv(body.Env)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if env == config.EnvProduction && !deps.Clients.ProductionConfigured() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "production environment is not configured"})
		return
	}

	c.SetCookie(envsel.CookieName, string(env), cookieMaxAge, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"env": env})
}
