package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/inquiry-desk/api-go/controllers"
)

func SetupInquiryRoutes(protected *gin.RouterGroup, inquiryController *controllers.InquiryController, responseController *controllers.ResponseController) {
	inquiries := protected.Group("/inquiries")
	{
		inquiries.POST("", inquiryController.CreateInquiry)
		inquiries.GET("", inquiryController.GetInquiries)

		// Statistics
		inquiries.GET("/dashboard", inquiryController.GetDashboard)
		inquiries.GET("/charts/categories", inquiryController.GetCategoryChart)
		inquiries.GET("/charts/yearly/:year", inquiryController.GetYearlyChart)

		inquiries.GET("/:id", inquiryController.GetInquiry)
		inquiries.PUT("/:id", inquiryController.UpdateInquiry)
		inquiries.DELETE("/:id", inquiryController.DeleteInquiry)
		inquiries.PATCH("/:id/in-progress", inquiryController.MarkInProgress)

		// Responses
		inquiries.GET("/:id/responses", responseController.GetInquiryResponses)
		inquiries.POST("/:id/responses", responseController.AddResponse)
		inquiries.GET("/responses/user/:id", responseController.GetUserResponses)
	}
}
