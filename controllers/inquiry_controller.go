package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/inquiry-desk/api-go/errs"
	"github.com/inquiry-desk/api-go/middleware"
	"github.com/inquiry-desk/api-go/models"
	"github.com/inquiry-desk/api-go/repository"
	"github.com/inquiry-desk/api-go/services"
)

type InquiryController struct {
	Inquiries services.InquiryService
	validate  *validator.Validate
}

func NewInquiryController(inquiries services.InquiryService) *InquiryController {
	return &InquiryController{Inquiries: inquiries, validate: newValidator()}
}

// CreateInquiry records an inquiry taken by the signed-in officer.
func (ic *InquiryController) CreateInquiry(c *gin.Context) {
	var input services.InquiryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	inquiry, err := ic.Inquiries.Create(c.Request.Context(), middleware.GetCaller(c), input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, StandardResponse{
		Success: true,
		Data:    inquiry,
		Message: "Inquiry created successfully",
	})
}

// CreatePublicInquiry accepts the public intake form: a multipart body with
// the inquiry as JSON in "data" and optional files in "attachments".
func (ic *InquiryController) CreatePublicInquiry(c *gin.Context) {
	raw := c.PostForm("data")
	if raw == "" {
		respondError(c, errs.Validation("data", "Inquiry data is required"))
		return
	}

	var input services.InquiryInput
	if err := decodeJSON(ic.validate, raw, &input); err != nil {
		respondBindError(c, err)
		return
	}

	uploads, err := readUploads(c, "attachments")
	if err != nil {
		respondError(c, err)
		return
	}

	inquiry, err := ic.Inquiries.CreatePublic(c.Request.Context(), input, uploads)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, StandardResponse{
		Success: true,
		Data:    inquiry,
		Message: "Inquiry submitted successfully",
	})
}

// GetInquiries lists visible inquiries, newest first. Supports status,
// page and pageSize query parameters.
func (ic *InquiryController) GetInquiries(c *gin.Context) {
	filter := repository.InquiryFilter{
		ListOptions: listOptions(c),
		Status:      models.InquiryStatus(c.Query("status")),
	}

	inquiries, total, err := ic.Inquiries.List(c.Request.Context(), middleware.GetCaller(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, StandardResponse{
		Success:    true,
		Data:       inquiries,
		Pagination: newPagination(filter.ListOptions, total),
	})
}

func (ic *InquiryController) GetInquiry(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	inquiry, err := ic.Inquiries.Get(c.Request.Context(), middleware.GetCaller(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: inquiry})
}

func (ic *InquiryController) UpdateInquiry(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var input services.InquiryUpdate
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	inquiry, err := ic.Inquiries.Update(c.Request.Context(), middleware.GetCaller(c), id, input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data:    inquiry,
		Message: "Inquiry updated successfully",
	})
}

func (ic *InquiryController) DeleteInquiry(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := ic.Inquiries.Delete(c.Request.Context(), middleware.GetCaller(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Message: "Inquiry deleted successfully"})
}

func (ic *InquiryController) MarkInProgress(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	inquiry, err := ic.Inquiries.MarkInProgress(c.Request.Context(), middleware.GetCaller(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: inquiry})
}

func (ic *InquiryController) GetDashboard(c *gin.Context) {
	stats, err := ic.Inquiries.Dashboard(c.Request.Context(), middleware.GetCaller(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: stats})
}

func (ic *InquiryController) GetCategoryChart(c *gin.Context) {
	counts, err := ic.Inquiries.CategoryDistribution(c.Request.Context(), middleware.GetCaller(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: counts})
}

func (ic *InquiryController) GetYearlyChart(c *gin.Context) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		respondError(c, errs.Validation("year", "Invalid year"))
		return
	}

	counts, err := ic.Inquiries.MonthlyCounts(c.Request.Context(), middleware.GetCaller(c), year)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: counts, Meta: gin.H{"year": year}})
}
