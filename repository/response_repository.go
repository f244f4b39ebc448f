package repository

import (
	"context"

	"github.com/inquiry-desk/api-go/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ResponseRepository interface {
	Create(ctx context.Context, response *models.Response) error
	FindByID(ctx context.Context, id uint) (*models.Response, error)
	ListByInquiry(ctx context.Context, inquiryID uint) ([]models.Response, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Response, error)
}

type responseRepository struct {
	db *gorm.DB
}

func NewResponseRepository(db *gorm.DB) ResponseRepository {
	return &responseRepository{db: db}
}

func (r *responseRepository) Create(ctx context.Context, response *models.Response) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(response).Error)
}

func (r *responseRepository) FindByID(ctx context.Context, id uint) (*models.Response, error) {
	var response models.Response
	if err := r.db.WithContext(ctx).Preload("User").First(&response, id).Error; err != nil {
		return nil, translate(err)
	}
	return &response, nil
}

func (r *responseRepository) ListByInquiry(ctx context.Context, inquiryID uint) ([]models.Response, error) {
	var responses []models.Response
	err := r.db.WithContext(ctx).
		Where("inquiry_id = ?", inquiryID).
		Preload("User").
		Preload("Attachments").
		Order("created_at, id").
		Find(&responses).Error
	if err != nil {
		return nil, translate(err)
	}
	return responses, nil
}

func (r *responseRepository) ListByUser(ctx context.Context, userID uint) ([]models.Response, error) {
	var responses []models.Response
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Preload("Attachments").
		Order("created_at DESC, id DESC").
		Find(&responses).Error
	if err != nil {
		return nil, translate(err)
	}
	return responses, nil
}
