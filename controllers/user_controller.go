package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/inquiry-desk/api-go/middleware"
	"github.com/inquiry-desk/api-go/services"
)

type UserController struct {
	Users services.UserService
}

func NewUserController(users services.UserService) *UserController {
	return &UserController{Users: users}
}

func (uc *UserController) GetUsers(c *gin.Context) {
	users, err := uc.Users.List(c.Request.Context(), middleware.GetCaller(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: users})
}

func (uc *UserController) GetProfile(c *gin.Context) {
	user, err := uc.Users.Profile(c.Request.Context(), middleware.GetCaller(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: user})
}

func (uc *UserController) GetUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	user, err := uc.Users.Get(c.Request.Context(), middleware.GetCaller(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: user})
}

func (uc *UserController) CreateUser(c *gin.Context) {
	var input services.UserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := uc.Users.Create(c.Request.Context(), middleware.GetCaller(c), input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, StandardResponse{
		Success: true,
		Data:    user,
		Message: "User created successfully",
	})
}

func (uc *UserController) UpdateUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var input services.UserUpdate
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := uc.Users.Update(c.Request.Context(), middleware.GetCaller(c), id, input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data:    user,
		Message: "User updated successfully",
	})
}

func (uc *UserController) DeleteUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := uc.Users.Delete(c.Request.Context(), middleware.GetCaller(c), id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, StandardResponse{Success: true, Message: "User deleted successfully"})
}

func (uc *UserController) ChangePassword(c *gin.Context) {
	var input services.ChangePasswordInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	if err := uc.Users.ChangePassword(c.Request.Context(), middleware.GetCaller(c), input); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, StandardResponse{Success: true, Message: "Password changed successfully"})
}
