package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/inquiry-desk/api-go/middleware"
	"github.com/inquiry-desk/api-go/models"
	"github.com/inquiry-desk/api-go/services"
)

type CategoryRequest struct {
	Name        string `json:"categoryName" binding:"required,max=100"`
	Description string `json:"description"`
}

type RankRequest struct {
	Name        string  `json:"rankName" binding:"required,max=50"`
	Description *string `json:"description"`
}

type EstablishmentRequest struct {
	Name string                   `json:"estbName" binding:"required,max=100"`
	Type models.EstablishmentType `json:"estbType" binding:"omitempty,oneof=military civil"`
}

// ReferenceController serves CRUD for one kind of lookup data. R is the
// request body and assign copies it onto a record.
type ReferenceController[T any, P services.Reference[T], R any] struct {
	Service *services.ReferenceService[T, P]
	label   string
	assign  func(R, P)
}

func NewCategoryController(s *services.ReferenceService[models.Category, *models.Category]) *ReferenceController[models.Category, *models.Category, CategoryRequest] {
	return &ReferenceController[models.Category, *models.Category, CategoryRequest]{
		Service: s,
		label:   "Category",
		assign: func(req CategoryRequest, c *models.Category) {
			c.Name = req.Name
			c.Description = req.Description
		},
	}
}

func NewRankController(s *services.ReferenceService[models.Rank, *models.Rank]) *ReferenceController[models.Rank, *models.Rank, RankRequest] {
	return &ReferenceController[models.Rank, *models.Rank, RankRequest]{
		Service: s,
		label:   "Rank",
		assign: func(req RankRequest, r *models.Rank) {
			r.Name = req.Name
			r.Description = req.Description
		},
	}
}

func NewEstablishmentController(s *services.ReferenceService[models.Establishment, *models.Establishment]) *ReferenceController[models.Establishment, *models.Establishment, EstablishmentRequest] {
	return &ReferenceController[models.Establishment, *models.Establishment, EstablishmentRequest]{
		Service: s,
		label:   "Establishment",
		assign: func(req EstablishmentRequest, e *models.Establishment) {
			e.Name = req.Name
			if req.Type != "" {
				e.Type = req.Type
			}
		},
	}
}

func (rc *ReferenceController[T, P, R]) List(c *gin.Context) {
	items, err := rc.Service.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: items})
}

func (rc *ReferenceController[T, P, R]) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	item, err := rc.Service.Get(c.Request.Context(), middleware.GetCaller(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: item})
}

func (rc *ReferenceController[T, P, R]) Create(c *gin.Context) {
	var req R
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	item := P(new(T))
	rc.assign(req, item)
	created, err := rc.Service.Create(c.Request.Context(), middleware.GetCaller(c), item)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, StandardResponse{
		Success: true,
		Data:    created,
		Message: rc.label + " created successfully",
	})
}

func (rc *ReferenceController[T, P, R]) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req R
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	updated, err := rc.Service.Update(c.Request.Context(), middleware.GetCaller(c), id, func(item P) {
		rc.assign(req, item)
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data:    updated,
		Message: rc.label + " updated successfully",
	})
}

func (rc *ReferenceController[T, P, R]) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := rc.Service.Delete(c.Request.Context(), middleware.GetCaller(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Message: rc.label + " deleted successfully"})
}
