package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/inquiry-desk/api-go/controllers"
)

func SetupAttachmentRoutes(protected *gin.RouterGroup, attachmentController *controllers.AttachmentController, adminOnly gin.HandlerFunc) {
	attachments := protected.Group("/attachments")
	{
		attachments.POST("/inquiry/:id", attachmentController.UploadToInquiry)
		attachments.POST("/response/:id", attachmentController.UploadToResponse)
		attachments.GET("/inquiry/:id", attachmentController.GetInquiryAttachments)
		attachments.GET("/response/:id", attachmentController.GetResponseAttachments)
		attachments.GET("/:id/file", attachmentController.GetAttachmentFile)

		attachments.DELETE("/:id", adminOnly, attachmentController.DeleteAttachment)
	}
}
