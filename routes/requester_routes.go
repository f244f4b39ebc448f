package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/inquiry-desk/api-go/controllers"
)

func SetupRequesterRoutes(protected *gin.RouterGroup, requesterController *controllers.RequesterController, adminOnly gin.HandlerFunc) {
	requesters := protected.Group("/requesters")
	{
		requesters.GET("", requesterController.GetRequesters)
		requesters.GET("/:id", requesterController.GetRequester)
		requesters.GET("/:id/inquiries", requesterController.GetRequesterInquiries)

		requesters.POST("", adminOnly, requesterController.CreateRequester)
		requesters.PUT("/:id", adminOnly, requesterController.UpdateRequester)
		requesters.DELETE("/:id", adminOnly, requesterController.DeleteRequester)
	}
}
