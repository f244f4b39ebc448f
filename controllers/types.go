package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/inquiry-desk/api-go/errs"
	"github.com/inquiry-desk/api-go/repository"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type StandardResponse struct {
	Success    bool            `json:"success"`
	Data       interface{}     `json:"data,omitempty"`
	Meta       interface{}     `json:"meta,omitempty"`
	Pagination *PaginationMeta `json:"pagination,omitempty"`
	Message    string          `json:"message,omitempty"`
}

type ErrorResponse struct {
	Success bool              `json:"success"`
	Error   string            `json:"error"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type PaginationMeta struct {
	CurrentPage int   `json:"currentPage"`
	PageSize    int   `json:"pageSize"`
	TotalItems  int64 `json:"totalItems"`
	TotalPages  int   `json:"totalPages"`
}

func newPagination(opts repository.ListOptions, total int64) *PaginationMeta {
	pages := 0
	if opts.PageSize > 0 {
		pages = int((total + int64(opts.PageSize) - 1) / int64(opts.PageSize))
	}
	return &PaginationMeta{
		CurrentPage: opts.Page,
		PageSize:    opts.PageSize,
		TotalItems:  total,
		TotalPages:  pages,
	}
}

// RegisterValidation makes gin's validator report JSON field names.
func RegisterValidation() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(jsonFieldName)
	}
}

// newValidator validates payloads decoded outside gin binding with the same
// tags and field names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	v.RegisterTagNameFunc(jsonFieldName)
	return v
}

func jsonFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

func respondError(c *gin.Context, err error) {
	var e *errs.Error
	message := err.Error()
	var fields map[string]string
	if errors.As(err, &e) {
		message = e.Message
		fields = e.Fields()
	}

	status := http.StatusInternalServerError
	switch errs.KindOf(err) {
	case errs.ErrValidation:
		status = http.StatusBadRequest
	case errs.ErrAccessDenied:
		status = http.StatusForbidden
	case errs.ErrConflict:
		status = http.StatusConflict
	case errs.ErrNotFound:
		status = http.StatusNotFound
	case errs.ErrUnauthorized:
		status = http.StatusUnauthorized
	default:
		// The request logger reports the cause.
		_ = c.Error(err)
		message = "Internal server error"
		fields = nil
	}
	c.JSON(status, ErrorResponse{Success: false, Error: message, Fields: fields})
}

// respondBindError answers a failed ShouldBind* call.
func respondBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Error:   "Validation failed",
			Fields:  validationFields(verrs),
		})
		return
	}
	c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: "Invalid request body"})
}

func validationFields(verrs validator.ValidationErrors) map[string]string {
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	return fields
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	}
	return "is invalid"
}

// decodeJSON decodes raw into dst and validates it the way ShouldBindJSON would.
func decodeJSON(v *validator.Validate, raw string, dst interface{}) error {
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return err
	}
	return v.Struct(dst)
}

// parseID reads a positive integer path parameter, answering 400 when it is not one.
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: fmt.Sprintf("Invalid %s", name)})
		return 0, false
	}
	return uint(id), true
}

func listOptions(c *gin.Context) repository.ListOptions {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	pageSize, err := strconv.Atoi(c.DefaultQuery("pageSize", strconv.Itoa(defaultPageSize)))
	if err != nil || pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return repository.ListOptions{Page: page, PageSize: pageSize}
}
