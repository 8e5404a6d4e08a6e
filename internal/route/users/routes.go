package users

import (
	registryroute "github.com/GoGangH/logit-admin/internal/registry/route"
	"github.com/gin-gonic/gin"
)

func registerRoutes() {
	registryroute.Register(registryroute.Plugin{
		Order: 100,
		Loader: func(r *gin.Engine, deps registryroute.Deps) error {
			g := r.Group("/users")

			g.GET("", func(c *gin.Context) { listUsers(c, deps) })
			g.GET("/:userId", func(c *gin.Context) { getUser(c, deps) })
			g.PATCH("/:userId", func(c *gin.Context) { patchUser(c, deps) })
			g.DELETE("/:userId", func(c *gin.Context) { deleteUser(c, deps) })

			g.GET("/:userId/projects", func(c *gin.Context) { listUserProjects(c, deps) })
			g.DELETE("/:userId/projects", func(c *gin.Context) { deleteUserProjects(c, deps) })

			g.GET("/:userId/chats", func(c *gin.Context) { listUserChats(c, deps) })

			g.GET("/:userId/experiences", func(c *gin.Context) { listUserExperiences(c, deps) })
			g.POST("/:userId/experiences", func(c *gin.Context) { createUserExperience(c, deps) })
			g.DELETE("/:userId/experiences", func(c *gin.Context) { deleteUserExperiences(c, deps) })

			g.GET("/:userId/subscription", func(c *gin.Context) { getUserSubscription(c, deps) })
			g.POST("/:userId/subscription", func(c *gin.Context) { issueUserSubscription(c, deps) })

			return nil
		},
	})
}
