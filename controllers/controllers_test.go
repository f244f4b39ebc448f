package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/inquiry-desk/api-go/errs"
	"github.com/inquiry-desk/api-go/models"
	"github.com/inquiry-desk/api-go/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	RegisterValidation()
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRespondError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"Validation", errs.Validation("subject", "Subject is required"), http.StatusBadRequest, "Subject is required"},
		{"AccessDenied", errs.AccessDenied("Access denied"), http.StatusForbidden, "Access denied"},
		{"Conflict", errs.Conflict("Category already exists"), http.StatusConflict, "Category already exists"},
		{"NotFound", errs.NotFound("Inquiry not found"), http.StatusNotFound, "Inquiry not found"},
		{"Unauthorized", errs.Unauthorized("Invalid email or password"), http.StatusUnauthorized, "Invalid email or password"},
		{"Wrapped", errors.Join(errors.New("context"), errs.NotFound("User not found")), http.StatusNotFound, "User not found"},
		{"Internal", errors.New("pq: connection reset"), http.StatusInternalServerError, "Internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			respondError(c, tt.err)

			assert.Equal(t, tt.status, rec.Code)
			body := decodeError(t, rec)
			assert.False(t, body.Success)
			assert.Equal(t, tt.message, body.Error)
		})
	}

	t.Run("ValidationFields", func(t *testing.T) {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		respondError(c, errs.Validation("categoryId", "Invalid category ID"))
		assert.Equal(t, map[string]string{"categoryId": "Invalid category ID"}, decodeError(t, rec).Fields)
	})

	t.Run("InternalRecordsCause", func(t *testing.T) {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		respondError(c, errors.New("disk full"))
		require.Len(t, c.Errors, 1)
		assert.Equal(t, "disk full", c.Errors[0].Error())
	})
}

type stubUsers struct {
	services.UserService
	created *services.UserInput
}

func (s *stubUsers) Create(_ context.Context, _ *services.Caller, input services.UserInput) (*models.User, error) {
	s.created = &input
	return &models.User{ID: 7, Email: input.Email, Role: models.RoleOfficer}, nil
}

func TestBindingErrorsUseJSONNames(t *testing.T) {
	users := &stubUsers{}
	r := gin.New()
	r.POST("/users", NewUserController(users).CreateUser)

	body := `{"uFirstName":"Nimal","uEmail":"not-an-email","password":"abc"}`
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	fields := decodeError(t, rec).Fields
	assert.Equal(t, "is required", fields["uLastName"])
	assert.Equal(t, "is required", fields["department"])
	assert.Equal(t, "must be a valid email address", fields["uEmail"])
	assert.Equal(t, "must be at least 6 characters", fields["password"])
	assert.Nil(t, users.created)
}

func TestParseID(t *testing.T) {
	r := gin.New()
	r.GET("/items/:id", func(c *gin.Context) {
		id, ok := parseID(c, "id")
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id})
	})

	for path, want := range map[string]int{
		"/items/12":  http.StatusOK,
		"/items/0":   http.StatusBadRequest,
		"/items/-1":  http.StatusBadRequest,
		"/items/abc": http.StatusBadRequest,
	} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, want, rec.Code, path)
	}
}

func TestListOptions(t *testing.T) {
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/?page=3&pageSize=500", nil)

	opts := listOptions(c)
	assert.Equal(t, 3, opts.Page)
	assert.Equal(t, maxPageSize, opts.PageSize)

	p := newPagination(opts, 250)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, int64(250), p.TotalItems)
}

type stubInquiries struct {
	services.InquiryService
	input services.InquiryInput
	files []services.Upload
}

func (s *stubInquiries) CreatePublic(_ context.Context, input services.InquiryInput, files []services.Upload) (*models.Inquiry, error) {
	s.input = input
	s.files = files
	return &models.Inquiry{ID: 1, Subject: input.Subject, Status: models.StatusPending, IsPublic: true}, nil
}

func multipartBody(t *testing.T, data string, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	if data != "" {
		require.NoError(t, w.WriteField("data", data))
	}
	for name, content := range files {
		part, err := w.CreateFormFile("attachments", name)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf, w.FormDataContentType()
}

func TestCreatePublicInquiry(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		inquiries := &stubInquiries{}
		r := gin.New()
		r.POST("/public", NewInquiryController(inquiries).CreatePublicInquiry)

		data := `{"subject":"Pension delay","inquiryText":"Not received","categoryId":2,
			"newRequester":{"requesterType":"civil","nic":"901234567V","rFirstName":"Kamala","rLastName":"Perera","phoneNo":"0771234567"}}`
		body, contentType := multipartBody(t, data, map[string][]byte{"letter.pdf": []byte("%PDF-1.4\n")})
		req := httptest.NewRequest(http.MethodPost, "/public", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "Pension delay", inquiries.input.Subject)
		require.NotNil(t, inquiries.input.NewRequester)
		assert.Equal(t, models.RequesterCivil, inquiries.input.NewRequester.Type)
		require.Len(t, inquiries.files, 1)
		assert.Equal(t, "letter.pdf", inquiries.files[0].Name)
	})

	t.Run("MissingData", func(t *testing.T) {
		r := gin.New()
		r.POST("/public", NewInquiryController(&stubInquiries{}).CreatePublicInquiry)

		body, contentType := multipartBody(t, "", nil)
		req := httptest.NewRequest(http.MethodPost, "/public", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decodeError(t, rec).Fields, "data")
	})

	t.Run("NestedValidation", func(t *testing.T) {
		r := gin.New()
		r.POST("/public", NewInquiryController(&stubInquiries{}).CreatePublicInquiry)

		data := `{"subject":"Pension delay","inquiryText":"Not received","categoryId":2,
			"newRequester":{"requesterType":"navy","rFirstName":"Kamala","rLastName":"Perera","phoneNo":"077"}}`
		body, contentType := multipartBody(t, data, nil)
		req := httptest.NewRequest(http.MethodPost, "/public", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "must be one of: army civil", decodeError(t, rec).Fields["requesterType"])
	})
}

type stubAttachments struct {
	services.AttachmentService
	file *services.File
}

func (s *stubAttachments) OpenFile(_ context.Context, _ *services.Caller, id uint) (*services.File, error) {
	if s.file == nil || id != 7 {
		return nil, errs.NotFound("Attachment not found")
	}
	return s.file, nil
}

func TestGetAttachmentFile(t *testing.T) {
	attachments := &stubAttachments{file: &services.File{
		Name:        "inq_1_abc.png",
		ContentType: "image/png",
		Data:        []byte("\x89PNG\r\n\x1a\n<html><script>alert(1)</script>"),
	}}
	r := gin.New()
	r.GET("/attachments/:id/file", NewAttachmentController(attachments).GetAttachmentFile)

	t.Run("Success", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/attachments/7/file", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
		assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
		assert.Equal(t, `inline; filename="inq_1_abc.png"`, rec.Header().Get("Content-Disposition"))
		assert.Equal(t, attachments.file.Data, rec.Body.Bytes())
	})

	t.Run("NotFound", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/attachments/8/file", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Empty(t, rec.Header().Get("Content-Disposition"))
	})
}
