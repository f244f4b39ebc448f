package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/inquiry-desk/api-go/middleware"
	"github.com/inquiry-desk/api-go/services"
)

type ResponseController struct {
	Responses services.ResponseService
}

func NewResponseController(responses services.ResponseService) *ResponseController {
	return &ResponseController{Responses: responses}
}

func (rc *ResponseController) AddResponse(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var input services.ResponseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	response, err := rc.Responses.AddResponse(c.Request.Context(), middleware.GetCaller(c), id, input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, StandardResponse{
		Success: true,
		Data:    response,
		Message: "Response added successfully",
	})
}

func (rc *ResponseController) GetInquiryResponses(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	responses, err := rc.Responses.ListByInquiry(c.Request.Context(), middleware.GetCaller(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: responses})
}

func (rc *ResponseController) GetUserResponses(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	responses, err := rc.Responses.ListByUser(c.Request.Context(), middleware.GetCaller(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: responses})
}
