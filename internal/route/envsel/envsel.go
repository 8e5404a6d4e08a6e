// Package envsel resolves the environment a request is served against.
package envsel

import (
	"github.com/GoGangH/logit-admin/internal/config"
	"github.com/GoGangH/logit-admin/internal/registry/clients"
	"github.com/gin-gonic/gin"
)

// CookieName selects the environment handlers read from and write to.
const CookieName = "admin-server-env"

// Resolve reads the env cookie and returns the environment plus its client
// pair. Unknown cookie values, and a production selection while production is
// unconfigured, fall back to dev.
func Resolve(c *gin.Context, reg *clients.Registry) (config.Env, clients.Pair, error) {
	env := config.EnvDev
	if raw, err := c.Cookie(CookieName); err == nil {
		if parsed, perr := config.ParseEnv(raw); perr == nil {
			env = parsed
		}
	}
	if env == config.EnvProduction && !reg.ProductionConfigured() {
		env = config.EnvDev
	}
	c.Set("env", string(env))
	pair, err := reg.For(env)
	return env, pair, err
}
