package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/inquiry-desk/api-go/controllers"
)

func SetupUserRoutes(protected *gin.RouterGroup, userController *controllers.UserController, adminOnly gin.HandlerFunc) {
	users := protected.Group("/users")
	{
		users.GET("", userController.GetUsers)
		users.GET("/profile", userController.GetProfile)
		users.PUT("/profile/password", userController.ChangePassword)
		users.GET("/:id", userController.GetUser)

		// Account management
		users.POST("", adminOnly, userController.CreateUser)
		users.PUT("/:id", adminOnly, userController.UpdateUser)
		users.DELETE("/:id", adminOnly, userController.DeleteUser)
	}
}
