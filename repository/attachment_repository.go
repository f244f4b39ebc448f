package repository

import (
	"context"

	"github.com/inquiry-desk/api-go/models"
	"gorm.io/gorm"
)

type AttachmentRepository interface {
	Create(ctx context.Context, attachment *models.Attachment) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*models.Attachment, error)
	ListByInquiry(ctx context.Context, inquiryID uint) ([]models.Attachment, error)
	ListByResponse(ctx context.Context, responseID uint) ([]models.Attachment, error)
}

type attachmentRepository struct {
	db *gorm.DB
}

func NewAttachmentRepository(db *gorm.DB) AttachmentRepository {
	return &attachmentRepository{db: db}
}

func (r *attachmentRepository) Create(ctx context.Context, attachment *models.Attachment) error {
	return translate(r.db.WithContext(ctx).Create(attachment).Error)
}

func (r *attachmentRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Attachment{}, id)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *attachmentRepository) FindByID(ctx context.Context, id uint) (*models.Attachment, error) {
	var attachment models.Attachment
	if err := r.db.WithContext(ctx).First(&attachment, id).Error; err != nil {
		return nil, translate(err)
	}
	return &attachment, nil
}

func (r *attachmentRepository) ListByInquiry(ctx context.Context, inquiryID uint) ([]models.Attachment, error) {
	var attachments []models.Attachment
	if err := r.db.WithContext(ctx).Where("inquiry_id = ?", inquiryID).Order("id").Find(&attachments).Error; err != nil {
		return nil, translate(err)
	}
	return attachments, nil
}

func (r *attachmentRepository) ListByResponse(ctx context.Context, responseID uint) ([]models.Attachment, error) {
	var attachments []models.Attachment
	if err := r.db.WithContext(ctx).Where("response_id = ?", responseID).Order("id").Find(&attachments).Error; err != nil {
		return nil, translate(err)
	}
	return attachments, nil
}
