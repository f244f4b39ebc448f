package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/inquiry-desk/api-go/errs"
	"github.com/inquiry-desk/api-go/models"
	"github.com/inquiry-desk/api-go/repository"
	"github.com/inquiry-desk/api-go/storage"
	"github.com/sirupsen/logrus"
)

const MaxUploadSize = 10 << 20

// Upload is a file received from a client.
type Upload struct {
	Name string
	Data []byte
}

// validateUpload accepts images and PDFs up to MaxUploadSize, judged by
// content rather than the client's file name.
func validateUpload(u Upload) error {
	if len(u.Data) == 0 {
		return errs.Validation("attachments", "File %q is empty", u.Name)
	}
	if len(u.Data) > MaxUploadSize {
		return errs.Validation("attachments", "File %q exceeds the 10 MB limit", u.Name)
	}
	mtype := mimetype.Detect(u.Data)
	if !strings.HasPrefix(mtype.String(), "image/") && !mtype.Is("application/pdf") {
		return errs.Validation("attachments", "File %q has unsupported type %s", u.Name, mtype.String())
	}
	return nil
}

// File is a stored attachment ready to send to a client.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

type AttachmentService interface {
	UploadToInquiry(ctx context.Context, caller *Caller, inquiryID uint, files []Upload) ([]models.Attachment, error)
	UploadToResponse(ctx context.Context, caller *Caller, responseID uint, files []Upload) ([]models.Attachment, error)
	ListByInquiry(ctx context.Context, caller *Caller, inquiryID uint) ([]models.Attachment, error)
	ListByResponse(ctx context.Context, caller *Caller, responseID uint) ([]models.Attachment, error)
	Delete(ctx context.Context, caller *Caller, id uint) error
	// OpenFile returns the attachment's content to a caller who can see its parent.
	OpenFile(ctx context.Context, caller *Caller, id uint) (*File, error)
}

type attachmentService struct {
	store *repository.Store
	files storage.FileStore
	log   logrus.FieldLogger
}

func NewAttachmentService(store *repository.Store, files storage.FileStore, log logrus.FieldLogger) AttachmentService {
	return &attachmentService{store: store, files: files, log: log}
}

func (s *attachmentService) UploadToInquiry(ctx context.Context, caller *Caller, inquiryID uint, files []Upload) ([]models.Attachment, error) {
	if _, err := resolveInquiry(ctx, s.store, caller, inquiryID); err != nil {
		return nil, err
	}
	return s.save(ctx, files, func(a *models.Attachment) { a.InquiryID = &inquiryID })
}

func (s *attachmentService) UploadToResponse(ctx context.Context, caller *Caller, responseID uint, files []Upload) ([]models.Attachment, error) {
	if _, err := s.resolveResponse(ctx, caller, responseID); err != nil {
		return nil, err
	}
	return s.save(ctx, files, func(a *models.Attachment) { a.ResponseID = &responseID })
}

func (s *attachmentService) ListByInquiry(ctx context.Context, caller *Caller, inquiryID uint) ([]models.Attachment, error) {
	if _, err := resolveInquiry(ctx, s.store, caller, inquiryID); err != nil {
		return nil, err
	}
	attachments, err := s.store.Attachments.ListByInquiry(ctx, inquiryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attachments: %w", err)
	}
	return attachments, nil
}

func (s *attachmentService) ListByResponse(ctx context.Context, caller *Caller, responseID uint) ([]models.Attachment, error) {
	if _, err := s.resolveResponse(ctx, caller, responseID); err != nil {
		return nil, err
	}
	attachments, err := s.store.Attachments.ListByResponse(ctx, responseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attachments: %w", err)
	}
	return attachments, nil
}

// Delete removes the file first, then the record. A file that cannot be
// removed is treated as already gone.
func (s *attachmentService) Delete(ctx context.Context, caller *Caller, id uint) error {
	if err := requireAdmin(caller); err != nil {
		return err
	}
	attachment, err := s.store.Attachments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return errs.NotFound("Attachment not found")
		}
		return fmt.Errorf("failed to get attachment: %w", err)
	}

	if err := s.files.Delete(ctx, attachment.FilePath); err != nil {
		s.log.WithFields(logrus.Fields{
			"attachment_id": id,
			"path":          attachment.FilePath,
			"error":         err.Error(),
		}).Warn("failed to remove attachment file")
	}

	if err := s.store.Attachments.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return errs.NotFound("Attachment not found")
		}
		return fmt.Errorf("failed to delete attachment: %w", err)
	}
	return nil
}

func (s *attachmentService) OpenFile(ctx context.Context, caller *Caller, id uint) (*File, error) {
	if err := requireAuth(caller); err != nil {
		return nil, err
	}
	attachment, err := s.store.Attachments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			if caller.IsAdmin() {
				return nil, errs.NotFound("Attachment not found")
			}
			return nil, errs.AccessDenied("Attachment not found or access denied")
		}
		return nil, fmt.Errorf("failed to get attachment: %w", err)
	}

	switch {
	case attachment.InquiryID != nil:
		_, err = resolveInquiry(ctx, s.store, caller, *attachment.InquiryID)
	case attachment.ResponseID != nil:
		_, err = s.resolveResponse(ctx, caller, *attachment.ResponseID)
	}
	if err != nil {
		return nil, err
	}

	exists, err := s.files.Exists(ctx, attachment.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to check attachment file: %w", err)
	}
	if !exists {
		return nil, errs.NotFound("Attachment file not found")
	}

	rc, err := s.files.Open(ctx, attachment.FilePath)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return nil, errs.NotFound("Attachment file not found")
		}
		return nil, fmt.Errorf("failed to open attachment file: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read attachment file: %w", err)
	}
	return &File{
		Name:        path.Base(attachment.FilePath),
		ContentType: mimetype.Detect(data).String(),
		Data:        data,
	}, nil
}

// resolveResponse loads a response whose inquiry the caller can access.
func (s *attachmentService) resolveResponse(ctx context.Context, caller *Caller, id uint) (*models.Response, error) {
	if err := requireAuth(caller); err != nil {
		return nil, err
	}
	response, err := s.store.Responses.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			if caller.IsAdmin() {
				return nil, errs.NotFound("Response not found")
			}
			return nil, errs.AccessDenied("Response not found or access denied")
		}
		return nil, fmt.Errorf("failed to get response: %w", err)
	}
	if _, err := resolveInquiry(ctx, s.store, caller, response.InquiryID); err != nil {
		return nil, err
	}
	return response, nil
}

func (s *attachmentService) save(ctx context.Context, files []Upload, bind func(*models.Attachment)) ([]models.Attachment, error) {
	if len(files) == 0 {
		return nil, errs.Validation("attachments", "At least one file is required")
	}
	for _, f := range files {
		if err := validateUpload(f); err != nil {
			return nil, err
		}
	}

	attachments := make([]models.Attachment, 0, len(files))
	for _, f := range files {
		stored, err := s.files.Save(ctx, f.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to store attachment: %w", err)
		}
		attachment := models.Attachment{FilePath: stored}
		bind(&attachment)
		attachments = append(attachments, attachment)
	}

	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		for i := range attachments {
			if err := tx.Attachments.Create(ctx, &attachments[i]); err != nil {
				return fmt.Errorf("failed to create attachment: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return attachments, nil
}
