package controllers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/inquiry-desk/api-go/errs"
	"github.com/inquiry-desk/api-go/middleware"
	"github.com/inquiry-desk/api-go/services"
)

type AttachmentController struct {
	Attachments services.AttachmentService
}

func NewAttachmentController(attachments services.AttachmentService) *AttachmentController {
	return &AttachmentController{Attachments: attachments}
}

// readUploads reads every file sent under field. A request without a
// multipart body yields no files.
func readUploads(c *gin.Context, field string) ([]services.Upload, error) {
	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, errs.Validation(field, "Invalid multipart form")
	}

	headers := form.File[field]
	uploads := make([]services.Upload, 0, len(headers))
	for _, fh := range headers {
		if fh.Size > services.MaxUploadSize {
			return nil, errs.Validation(field, "File %q exceeds the 10 MB limit", fh.Filename)
		}

		f, err := fh.Open()
		if err != nil {
			return nil, errs.Validation(field, "Could not read file %q", fh.Filename)
		}
		data, err := io.ReadAll(io.LimitReader(f, services.MaxUploadSize+1))
		f.Close()
		if err != nil {
			return nil, errs.Validation(field, "Could not read file %q", fh.Filename)
		}

		uploads = append(uploads, services.Upload{Name: fh.Filename, Data: data})
	}
	return uploads, nil
}

func (ac *AttachmentController) uploadFiles(c *gin.Context) ([]services.Upload, bool) {
	uploads, err := readUploads(c, "files")
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	if len(uploads) == 0 {
		respondError(c, errs.Validation("files", "At least one file is required"))
		return nil, false
	}
	return uploads, true
}

func (ac *AttachmentController) UploadToInquiry(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	uploads, ok := ac.uploadFiles(c)
	if !ok {
		return
	}

	attachments, err := ac.Attachments.UploadToInquiry(c.Request.Context(), middleware.GetCaller(c), id, uploads)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, StandardResponse{
		Success: true,
		Data:    attachments,
		Message: "Files uploaded successfully",
	})
}

func (ac *AttachmentController) UploadToResponse(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	uploads, ok := ac.uploadFiles(c)
	if !ok {
		return
	}

	attachments, err := ac.Attachments.UploadToResponse(c.Request.Context(), middleware.GetCaller(c), id, uploads)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, StandardResponse{
		Success: true,
		Data:    attachments,
		Message: "Files uploaded successfully",
	})
}

func (ac *AttachmentController) GetInquiryAttachments(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	attachments, err := ac.Attachments.ListByInquiry(c.Request.Context(), middleware.GetCaller(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: attachments})
}

func (ac *AttachmentController) GetResponseAttachments(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	attachments, err := ac.Attachments.ListByResponse(c.Request.Context(), middleware.GetCaller(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: attachments})
}

func (ac *AttachmentController) DeleteAttachment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := ac.Attachments.Delete(c.Request.Context(), middleware.GetCaller(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Message: "Attachment deleted successfully"})
}

// GetAttachmentFile sends the stored file to a caller who can see its parent.
func (ac *AttachmentController) GetAttachmentFile(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	file, err := ac.Attachments.OpenFile(c.Request.Context(), middleware.GetCaller(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("X-Content-Type-Options", "nosniff")
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", file.Name))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
