package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/inquiry-desk/api-go/errs"
	"github.com/inquiry-desk/api-go/models"
	"github.com/inquiry-desk/api-go/repository"
)

type ResponseInput struct {
	ResponseText string `json:"responseText" binding:"required"`
}

type ResponseService interface {
	// AddResponse appends a response and moves a pending inquiry to in_progress.
	AddResponse(ctx context.Context, caller *Caller, inquiryID uint, input ResponseInput) (*models.Response, error)
	ListByInquiry(ctx context.Context, caller *Caller, inquiryID uint) ([]models.Response, error)
	ListByUser(ctx context.Context, caller *Caller, userID uint) ([]models.Response, error)
}

type responseService struct {
	store *repository.Store
}

func NewResponseService(store *repository.Store) ResponseService {
	return &responseService{store: store}
}

func (s *responseService) AddResponse(ctx context.Context, caller *Caller, inquiryID uint, input ResponseInput) (*models.Response, error) {
	inquiry, err := resolveInquiry(ctx, s.store, caller, inquiryID)
	if err != nil {
		return nil, err
	}
	text := strings.TrimSpace(input.ResponseText)
	if text == "" {
		return nil, errs.Validation("responseText", "Response text is required")
	}

	response := &models.Response{InquiryID: inquiry.ID, UserID: caller.UserID, ResponseText: text}
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Responses.Create(ctx, response); err != nil {
			return fmt.Errorf("failed to create response: %w", err)
		}
		if _, err := tx.Inquiries.UpdateStatusIf(ctx, inquiry.ID, models.StatusPending, models.StatusInProgress); err != nil {
			return fmt.Errorf("failed to update status: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	saved, err := s.store.Responses.FindByID(ctx, response.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load response: %w", err)
	}
	return saved, nil
}

func (s *responseService) ListByInquiry(ctx context.Context, caller *Caller, inquiryID uint) ([]models.Response, error) {
	if _, err := resolveInquiry(ctx, s.store, caller, inquiryID); err != nil {
		return nil, err
	}
	responses, err := s.store.Responses.ListByInquiry(ctx, inquiryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}
	return responses, nil
}

// ListByUser lets officers list only their own responses.
func (s *responseService) ListByUser(ctx context.Context, caller *Caller, userID uint) ([]models.Response, error) {
	if err := requireAuth(caller); err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && caller.UserID != userID {
		return nil, errs.AccessDenied("Officers can only list their own responses")
	}
	responses, err := s.store.Responses.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}
	return responses, nil
}
