package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/inquiry-desk/api-go/errs"
	"github.com/inquiry-desk/api-go/metrics"
	"github.com/inquiry-desk/api-go/models"
	"github.com/inquiry-desk/api-go/notify"
	"github.com/inquiry-desk/api-go/repository"
	"github.com/inquiry-desk/api-go/storage"
	"github.com/sirupsen/logrus"
)

const (
	MaxPublicAttachments = 10
	summaryLength        = 150
)

type InquiryInput struct {
	Subject      string                `json:"subject" binding:"required,max=200"`
	InquiryText  string                `json:"inquiryText" binding:"required"`
	CategoryID   uint                  `json:"categoryId" binding:"required"`
	RequesterID  *uint                 `json:"requesterId"`
	NewRequester *RequesterInput       `json:"newRequester"`
	Status       *models.InquiryStatus `json:"status" binding:"omitempty,oneof=pending in_progress resolved closed"`
	IsPublic     *bool                 `json:"isPublic"`
}

type InquiryUpdate struct {
	Subject      *string               `json:"subject" binding:"omitempty,max=200"`
	InquiryText  *string               `json:"inquiryText"`
	CategoryID   *uint                 `json:"categoryId"`
	Status       *models.InquiryStatus `json:"status" binding:"omitempty,oneof=pending in_progress resolved closed"`
	IsPublic     *bool                 `json:"isPublic"`
	ResponseText *string               `json:"responseText"`
}

// Dashboard is the per-status breakdown of the inquiries a caller can see.
type Dashboard struct {
	Total      int64 `json:"total"`
	Pending    int64 `json:"pending"`
	InProgress int64 `json:"inProgress"`
	Resolved   int64 `json:"resolved"`
	Closed     int64 `json:"closed"`
}

type InquiryService interface {
	// Create records an inquiry taken by an officer and assigns it to them.
	Create(ctx context.Context, caller *Caller, input InquiryInput) (*models.Inquiry, error)
	// CreatePublic records an inquiry from the unauthenticated intake form.
	CreatePublic(ctx context.Context, input InquiryInput, files []Upload) (*models.Inquiry, error)
	List(ctx context.Context, caller *Caller, filter repository.InquiryFilter) ([]models.Inquiry, int64, error)
	Get(ctx context.Context, caller *Caller, id uint) (*models.Inquiry, error)
	Update(ctx context.Context, caller *Caller, id uint, input InquiryUpdate) (*models.Inquiry, error)
	Delete(ctx context.Context, caller *Caller, id uint) error
	MarkInProgress(ctx context.Context, caller *Caller, id uint) (*models.Inquiry, error)
	Dashboard(ctx context.Context, caller *Caller) (*Dashboard, error)
	CategoryDistribution(ctx context.Context, caller *Caller) ([]repository.CategoryCount, error)
	MonthlyCounts(ctx context.Context, caller *Caller, year int) ([]repository.MonthCount, error)
}

type inquiryService struct {
	store    *repository.Store
	notifier notify.Notifier
	files    storage.FileStore
	metrics  *metrics.Metrics
	log      logrus.FieldLogger
}

func NewInquiryService(store *repository.Store, notifier notify.Notifier, files storage.FileStore, m *metrics.Metrics, log logrus.FieldLogger) InquiryService {
	return &inquiryService{
		store:    store,
		notifier: notifier,
		files:    files,
		metrics:  m,
		log:      log,
	}
}

func (s *inquiryService) Create(ctx context.Context, caller *Caller, input InquiryInput) (*models.Inquiry, error) {
	if err := requireAuth(caller); err != nil {
		return nil, err
	}
	if err := validateInquiryInput(input); err != nil {
		return nil, err
	}

	status := models.StatusPending
	if input.Status != nil {
		status = *input.Status
	}
	inquiry := &models.Inquiry{
		Subject:     strings.TrimSpace(input.Subject),
		InquiryText: strings.TrimSpace(input.InquiryText),
		Status:      status,
		IsPublic:    input.IsPublic != nil && *input.IsPublic,
		CategoryID:  input.CategoryID,
	}

	var requester *models.Requester
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := checkCategory(ctx, tx, input.CategoryID); err != nil {
			return err
		}
		var err error
		if requester, err = resolveRequester(ctx, tx, input); err != nil {
			return err
		}

		inquiry.RequesterID = requester.ID
		if err := tx.Inquiries.Create(ctx, inquiry); err != nil {
			return inquiryWriteError(err)
		}

		// The assignment response is what makes the inquiry visible to its creator.
		assignment := &models.Response{
			InquiryID:    inquiry.ID,
			UserID:       caller.UserID,
			ResponseText: fmt.Sprintf("Inquiry assigned to %s", caller.FullName()),
		}
		if err := tx.Responses.Create(ctx, assignment); err != nil {
			return fmt.Errorf("failed to create assignment response: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.InquiryCreated("officer")
	s.sendConfirmation(ctx, requester, inquiry)
	return s.reload(ctx, inquiry.ID)
}

func (s *inquiryService) CreatePublic(ctx context.Context, input InquiryInput, files []Upload) (*models.Inquiry, error) {
	if err := validateInquiryInput(input); err != nil {
		return nil, err
	}
	if len(files) > MaxPublicAttachments {
		return nil, errs.Validation("attachments", "At most %d attachments are allowed", MaxPublicAttachments)
	}
	for _, f := range files {
		if err := validateUpload(f); err != nil {
			return nil, err
		}
	}
	if err := checkCategory(ctx, s.store, input.CategoryID); err != nil {
		return nil, err
	}

	// Files are written before the transaction; a later failure leaves them orphaned.
	paths := make([]string, 0, len(files))
	for _, f := range files {
		path, err := s.files.Save(ctx, f.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to store attachment: %w", err)
		}
		paths = append(paths, path)
	}

	inquiry := &models.Inquiry{
		Subject:     strings.TrimSpace(input.Subject),
		InquiryText: strings.TrimSpace(input.InquiryText),
		Status:      models.StatusPending,
		IsPublic:    true,
		CategoryID:  input.CategoryID,
	}

	var requester *models.Requester
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		if requester, err = resolveRequester(ctx, tx, input); err != nil {
			return err
		}

		inquiry.RequesterID = requester.ID
		if err := tx.Inquiries.Create(ctx, inquiry); err != nil {
			return inquiryWriteError(err)
		}

		for _, path := range paths {
			attachment := &models.Attachment{FilePath: path, InquiryID: &inquiry.ID}
			if err := tx.Attachments.Create(ctx, attachment); err != nil {
				return fmt.Errorf("failed to create attachment: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.InquiryCreated("public")
	s.sendConfirmation(ctx, requester, inquiry)
	return s.reload(ctx, inquiry.ID)
}

func (s *inquiryService) List(ctx context.Context, caller *Caller, filter repository.InquiryFilter) ([]models.Inquiry, int64, error) {
	if err := requireAuth(caller); err != nil {
		return nil, 0, err
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, errs.Validation("status", "Invalid status %q", filter.Status)
	}
	inquiries, total, err := s.store.Inquiries.List(ctx, scopeFor(caller), filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list inquiries: %w", err)
	}
	return inquiries, total, nil
}

func (s *inquiryService) Get(ctx context.Context, caller *Caller, id uint) (*models.Inquiry, error) {
	return resolveInquiry(ctx, s.store, caller, id)
}

func (s *inquiryService) Update(ctx context.Context, caller *Caller, id uint, input InquiryUpdate) (*models.Inquiry, error) {
	inquiry, err := resolveInquiry(ctx, s.store, caller, id)
	if err != nil {
		return nil, err
	}
	prior := inquiry.Status

	if input.Subject != nil {
		if strings.TrimSpace(*input.Subject) == "" {
			return nil, errs.Validation("subject", "Subject must not be empty")
		}
		inquiry.Subject = strings.TrimSpace(*input.Subject)
	}
	if input.InquiryText != nil {
		if strings.TrimSpace(*input.InquiryText) == "" {
			return nil, errs.Validation("inquiryText", "Inquiry text must not be empty")
		}
		inquiry.InquiryText = strings.TrimSpace(*input.InquiryText)
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, errs.Validation("status", "Invalid status %q", *input.Status)
		}
		inquiry.Status = *input.Status
	}
	if input.IsPublic != nil {
		inquiry.IsPublic = *input.IsPublic
	}
	if input.CategoryID != nil && *input.CategoryID != inquiry.CategoryID {
		if err := checkCategory(ctx, s.store, *input.CategoryID); err != nil {
			return nil, err
		}
		inquiry.CategoryID = *input.CategoryID
		inquiry.Category = nil
	}

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Inquiries.Update(ctx, inquiry); err != nil {
			return inquiryWriteError(err)
		}
		if input.ResponseText != nil && strings.TrimSpace(*input.ResponseText) != "" {
			response := &models.Response{
				InquiryID:    inquiry.ID,
				UserID:       caller.UserID,
				ResponseText: strings.TrimSpace(*input.ResponseText),
			}
			if err := tx.Responses.Create(ctx, response); err != nil {
				return fmt.Errorf("failed to create response: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if inquiry.Status.Completed() && inquiry.Status != prior {
		s.sendCompletion(ctx, inquiry)
	}
	return s.reload(ctx, inquiry.ID)
}

func (s *inquiryService) Delete(ctx context.Context, caller *Caller, id uint) error {
	if _, err := resolveInquiry(ctx, s.store, caller, id); err != nil {
		return err
	}

	paths, err := s.store.Inquiries.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return inquiryNotFound(caller)
		}
		return fmt.Errorf("failed to delete inquiry: %w", err)
	}

	for _, path := range paths {
		if err := s.files.Delete(ctx, path); err != nil {
			s.log.WithFields(logrus.Fields{
				"inquiry_id": id,
				"path":       path,
				"error":      err.Error(),
			}).Warn("failed to remove attachment file")
		}
	}
	return nil
}

func (s *inquiryService) MarkInProgress(ctx context.Context, caller *Caller, id uint) (*models.Inquiry, error) {
	inquiry, err := resolveInquiry(ctx, s.store, caller, id)
	if err != nil {
		return nil, err
	}
	changed, err := s.store.Inquiries.UpdateStatusIf(ctx, inquiry.ID, models.StatusPending, models.StatusInProgress)
	if err != nil {
		return nil, fmt.Errorf("failed to update status: %w", err)
	}
	if !changed {
		return inquiry, nil
	}
	return s.reload(ctx, inquiry.ID)
}

func (s *inquiryService) Dashboard(ctx context.Context, caller *Caller) (*Dashboard, error) {
	if err := requireAuth(caller); err != nil {
		return nil, err
	}
	counts, err := s.store.Inquiries.StatusCounts(ctx, scopeFor(caller))
	if err != nil {
		return nil, fmt.Errorf("failed to count inquiries: %w", err)
	}

	d := &Dashboard{
		Pending:    counts[models.StatusPending],
		InProgress: counts[models.StatusInProgress],
		Resolved:   counts[models.StatusResolved],
		Closed:     counts[models.StatusClosed],
	}
	d.Total = d.Pending + d.InProgress + d.Resolved + d.Closed
	return d, nil
}

func (s *inquiryService) CategoryDistribution(ctx context.Context, caller *Caller) ([]repository.CategoryCount, error) {
	if err := requireAuth(caller); err != nil {
		return nil, err
	}
	counts, err := s.store.Inquiries.CategoryCounts(ctx, scopeFor(caller))
	if err != nil {
		return nil, fmt.Errorf("failed to count inquiries by category: %w", err)
	}
	return counts, nil
}

func (s *inquiryService) MonthlyCounts(ctx context.Context, caller *Caller, year int) ([]repository.MonthCount, error) {
	if err := requireAuth(caller); err != nil {
		return nil, err
	}
	if year < 1970 || year > 9999 {
		return nil, errs.Validation("year", "Invalid year %d", year)
	}
	counts, err := s.store.Inquiries.MonthlyCounts(ctx, scopeFor(caller), year)
	if err != nil {
		return nil, fmt.Errorf("failed to count inquiries by month: %w", err)
	}
	return counts, nil
}

func (s *inquiryService) reload(ctx context.Context, id uint) (*models.Inquiry, error) {
	inquiry, err := s.store.Inquiries.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load inquiry: %w", err)
	}
	return inquiry, nil
}

// Notifications never fail the operation that triggered them.

func (s *inquiryService) sendConfirmation(ctx context.Context, requester *models.Requester, inquiry *models.Inquiry) {
	to := requester.ContactEmail()
	if to == "" {
		return
	}
	if err := s.notifier.SendConfirmation(ctx, to, inquiry.ID, inquiry.Subject, summarize(inquiry.InquiryText)); err != nil {
		s.log.WithFields(logrus.Fields{"inquiry_id": inquiry.ID, "error": err.Error()}).Error("failed to send confirmation")
	}
}

func (s *inquiryService) sendCompletion(ctx context.Context, inquiry *models.Inquiry) {
	requester := inquiry.Requester
	if requester == nil {
		var err error
		if requester, err = s.store.Requesters.FindByID(ctx, inquiry.RequesterID); err != nil {
			s.log.WithFields(logrus.Fields{"inquiry_id": inquiry.ID, "error": err.Error()}).Error("failed to load requester for completion notice")
			return
		}
	}
	to := requester.ContactEmail()
	if to == "" {
		return
	}
	if err := s.notifier.SendCompletion(ctx, to, inquiry.ID, inquiry.Subject); err != nil {
		s.log.WithFields(logrus.Fields{"inquiry_id": inquiry.ID, "error": err.Error()}).Error("failed to send completion notice")
	}
}

func summarize(text string) string {
	runes := []rune(text)
	if len(runes) <= summaryLength {
		return text
	}
	return string(runes[:summaryLength]) + "..."
}

func validateInquiryInput(input InquiryInput) error {
	if strings.TrimSpace(input.Subject) == "" {
		return errs.Validation("subject", "Subject is required")
	}
	if len([]rune(strings.TrimSpace(input.Subject))) > 200 {
		return errs.Validation("subject", "Subject must be at most 200 characters")
	}
	if strings.TrimSpace(input.InquiryText) == "" {
		return errs.Validation("inquiryText", "Inquiry text is required")
	}
	if input.CategoryID == 0 {
		return errs.Validation("categoryId", "Category is required")
	}
	if input.Status != nil && !input.Status.Valid() {
		return errs.Validation("status", "Invalid status %q", *input.Status)
	}
	if (input.RequesterID == nil) == (input.NewRequester == nil) {
		return errs.Validation("requesterId", "Provide exactly one of requesterId or newRequester")
	}
	return nil
}

func checkCategory(ctx context.Context, store *repository.Store, id uint) error {
	if _, err := store.Categories.FindByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return errs.Validation("categoryId", "Invalid category ID")
		}
		return fmt.Errorf("failed to look up category: %w", err)
	}
	return nil
}

func resolveRequester(ctx context.Context, store *repository.Store, input InquiryInput) (*models.Requester, error) {
	if input.NewRequester != nil {
		return resolveInlineRequester(ctx, store, *input.NewRequester)
	}
	requester, err := store.Requesters.FindByID(ctx, *input.RequesterID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errs.Validation("requesterId", "Invalid requester ID")
		}
		return nil, fmt.Errorf("failed to look up requester: %w", err)
	}
	return requester, nil
}

// resolveInquiry loads an inquiry the caller is allowed to act on. Officers
// get AccessDenied for both missing and forbidden inquiries.
func resolveInquiry(ctx context.Context, store *repository.Store, caller *Caller, id uint) (*models.Inquiry, error) {
	if err := requireAuth(caller); err != nil {
		return nil, err
	}

	inquiry, err := store.Inquiries.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, inquiryNotFound(caller)
		}
		return nil, fmt.Errorf("failed to get inquiry: %w", err)
	}

	responded := false
	if !caller.IsAdmin() && !inquiry.IsPublic {
		if responded, err = store.Inquiries.HasResponseFrom(ctx, id, caller.UserID); err != nil {
			return nil, fmt.Errorf("failed to check inquiry access: %w", err)
		}
	}
	if !CanAccessInquiry(caller, inquiry, responded) {
		return nil, errs.AccessDenied("Inquiry not found or access denied")
	}
	return inquiry, nil
}

func inquiryNotFound(caller *Caller) error {
	if caller.IsAdmin() {
		return errs.NotFound("Inquiry not found")
	}
	return errs.AccessDenied("Inquiry not found or access denied")
}

func inquiryWriteError(err error) error {
	if errors.Is(err, repository.ErrForeignKey) {
		return errs.Validation("categoryId", "Invalid category or requester ID")
	}
	return fmt.Errorf("failed to save inquiry: %w", err)
}
