package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/inquiry-desk/api-go/middleware"
	"github.com/inquiry-desk/api-go/services"
)

type RequesterController struct {
	Requesters services.RequesterService
}

func NewRequesterController(requesters services.RequesterService) *RequesterController {
	return &RequesterController{Requesters: requesters}
}

func (rc *RequesterController) CreateRequester(c *gin.Context) {
	var input services.RequesterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	requester, err := rc.Requesters.Create(c.Request.Context(), middleware.GetCaller(c), input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, StandardResponse{
		Success: true,
		Data:    requester,
		Message: "Requester created successfully",
	})
}

// GetRequesters lists the requesters visible to the caller. Supports
// page and pageSize query parameters.
func (rc *RequesterController) GetRequesters(c *gin.Context) {
	opts := listOptions(c)
	requesters, total, err := rc.Requesters.List(c.Request.Context(), middleware.GetCaller(c), opts)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, StandardResponse{
		Success:    true,
		Data:       requesters,
		Pagination: newPagination(opts, total),
	})
}

func (rc *RequesterController) GetRequester(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	requester, err := rc.Requesters.Get(c.Request.Context(), middleware.GetCaller(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: requester})
}

func (rc *RequesterController) UpdateRequester(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var input services.RequesterUpdate
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	requester, err := rc.Requesters.Update(c.Request.Context(), middleware.GetCaller(c), id, input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data:    requester,
		Message: "Requester updated successfully",
	})
}

func (rc *RequesterController) DeleteRequester(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := rc.Requesters.Delete(c.Request.Context(), middleware.GetCaller(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Message: "Requester deleted successfully"})
}

func (rc *RequesterController) GetRequesterInquiries(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	inquiries, err := rc.Requesters.Inquiries(c.Request.Context(), middleware.GetCaller(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: inquiries})
}
