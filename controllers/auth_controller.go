package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/inquiry-desk/api-go/middleware"
	"github.com/inquiry-desk/api-go/services"
)

type AuthController struct {
	Auth services.AuthService
}

func NewAuthController(auth services.AuthService) *AuthController {
	return &AuthController{Auth: auth}
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

func (ac *AuthController) SignIn(c *gin.Context) {
	var input services.SignInInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := ac.Auth.SignIn(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data:    result,
		Message: "Signed in successfully",
	})
}

// SignUp creates an account with an explicit role. Admin only.
func (ac *AuthController) SignUp(c *gin.Context) {
	var input services.SignUpInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := ac.Auth.SignUp(c.Request.Context(), middleware.GetCaller(c), input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, StandardResponse{
		Success: true,
		Data:    user,
		Message: "User registered successfully",
	})
}

func (ac *AuthController) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := ac.Auth.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Message: "If the email is registered, a reset link has been sent",
	})
}

func (ac *AuthController) ResetPassword(c *gin.Context) {
	var input services.ResetPasswordInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	if err := ac.Auth.ResetPassword(c.Request.Context(), input); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Message: "Password has been reset",
	})
}
