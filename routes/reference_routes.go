package routes

import (
	"github.com/gin-gonic/gin"
)

// referenceHandlers is the handler set every reference controller exposes.
type referenceHandlers interface {
	List(c *gin.Context)
	Get(c *gin.Context)
	Create(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
}

func SetupReferenceRoutes(api *gin.RouterGroup, path string, h referenceHandlers, authRequired, adminOnly gin.HandlerFunc) {
	group := api.Group(path)
	{
		group.GET("", h.List)
		group.GET("/:id", authRequired, h.Get)
		group.POST("", authRequired, adminOnly, h.Create)
		group.PUT("/:id", authRequired, adminOnly, h.Update)
		group.DELETE("/:id", authRequired, adminOnly, h.Delete)
	}
}
