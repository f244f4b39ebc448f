package repository

import (
	"context"

	"github.com/inquiry-desk/api-go/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InquiryFilter narrows an inquiry listing.
type InquiryFilter struct {
	ListOptions
	Status models.InquiryStatus
}

type CategoryCount struct {
	CategoryID   uint   `json:"categoryId"`
	CategoryName string `json:"categoryName"`
	Count        int64  `json:"count"`
}

type MonthCount struct {
	Month int   `json:"month"`
	Count int64 `json:"count"`
}

type InquiryRepository interface {
	Create(ctx context.Context, inquiry *models.Inquiry) error
	// Update writes the editable columns only.
	Update(ctx context.Context, inquiry *models.Inquiry) error
	// Delete removes the inquiry with its responses and attachments and
	// returns the file paths the removed attachments pointed at.
	Delete(ctx context.Context, id uint) ([]string, error)
	FindByID(ctx context.Context, id uint) (*models.Inquiry, error)
	List(ctx context.Context, scope Scope, filter InquiryFilter) ([]models.Inquiry, int64, error)
	ListByRequester(ctx context.Context, scope Scope, requesterID uint) ([]models.Inquiry, error)
	HasResponseFrom(ctx context.Context, inquiryID, userID uint) (bool, error)
	// UpdateStatusIf moves the inquiry from one status to another and
	// reports whether a row changed.
	UpdateStatusIf(ctx context.Context, id uint, from, to models.InquiryStatus) (bool, error)
	StatusCounts(ctx context.Context, scope Scope) (map[models.InquiryStatus]int64, error)
	CategoryCounts(ctx context.Context, scope Scope) ([]CategoryCount, error)
	MonthlyCounts(ctx context.Context, scope Scope, year int) ([]MonthCount, error)
}

type inquiryRepository struct {
	db *gorm.DB
}

func NewInquiryRepository(db *gorm.DB) InquiryRepository {
	return &inquiryRepository{db: db}
}

func (r *inquiryRepository) Create(ctx context.Context, inquiry *models.Inquiry) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(inquiry).Error)
}

func (r *inquiryRepository) Update(ctx context.Context, inquiry *models.Inquiry) error {
	err := r.db.WithContext(ctx).Model(inquiry).
		Select("subject", "inquiry_text", "category_id", "status", "is_public").
		Updates(inquiry).Error
	return translate(err)
}

func (r *inquiryRepository) Delete(ctx context.Context, id uint) ([]string, error) {
	var paths []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inquiry models.Inquiry
		if err := tx.Select("id").First(&inquiry, id).Error; err != nil {
			return err
		}

		var responseIDs []uint
		if err := tx.Model(&models.Response{}).Where("inquiry_id = ?", id).Pluck("id", &responseIDs).Error; err != nil {
			return err
		}

		attachments := tx.Model(&models.Attachment{}).Where("inquiry_id = ?", id)
		if len(responseIDs) > 0 {
			attachments = attachments.Or("response_id IN ?", responseIDs)
		}
		if err := attachments.Pluck("file_path", &paths).Error; err != nil {
			return err
		}

		// Children first; the foreign keys would also cascade.
		deleteAttachments := tx.Where("inquiry_id = ?", id)
		if len(responseIDs) > 0 {
			deleteAttachments = deleteAttachments.Or("response_id IN ?", responseIDs)
		}
		if err := deleteAttachments.Delete(&models.Attachment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("inquiry_id = ?", id).Delete(&models.Response{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Inquiry{}, id).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return paths, nil
}

func (r *inquiryRepository) FindByID(ctx context.Context, id uint) (*models.Inquiry, error) {
	var inquiry models.Inquiry
	err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Requester.Rank").
		Preload("Requester.Establishment").
		Preload("Responses", func(db *gorm.DB) *gorm.DB { return db.Order("responses.created_at, responses.id") }).
		Preload("Responses.User").
		Preload("Responses.Attachments").
		Preload("Attachments").
		First(&inquiry, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &inquiry, nil
}

func (r *inquiryRepository) List(ctx context.Context, scope Scope, filter InquiryFilter) ([]models.Inquiry, int64, error) {
	query := scope.inquiries(r.db.WithContext(ctx).Model(&models.Inquiry{}))
	if filter.Status != "" {
		query = query.Where("inquiries.status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	var inquiries []models.Inquiry
	err := filter.apply(query.Preload("Category").Preload("Requester").Order("inquiries.created_at DESC, inquiries.id DESC")).
		Find(&inquiries).Error
	if err != nil {
		return nil, 0, translate(err)
	}
	return inquiries, total, nil
}

func (r *inquiryRepository) ListByRequester(ctx context.Context, scope Scope, requesterID uint) ([]models.Inquiry, error) {
	var inquiries []models.Inquiry
	err := scope.inquiries(r.db.WithContext(ctx).Model(&models.Inquiry{})).
		Where("inquiries.requester_id = ?", requesterID).
		Preload("Category").
		Order("inquiries.created_at DESC").
		Find(&inquiries).Error
	if err != nil {
		return nil, translate(err)
	}
	return inquiries, nil
}

func (r *inquiryRepository) HasResponseFrom(ctx context.Context, inquiryID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Response{}).
		Where("inquiry_id = ? AND user_id = ?", inquiryID, userID).
		Count(&count).Error
	if err != nil {
		return false, translate(err)
	}
	return count > 0, nil
}

func (r *inquiryRepository) UpdateStatusIf(ctx context.Context, id uint, from, to models.InquiryStatus) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Inquiry{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if result.Error != nil {
		return false, translate(result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *inquiryRepository) StatusCounts(ctx context.Context, scope Scope) (map[models.InquiryStatus]int64, error) {
	var rows []struct {
		Status models.InquiryStatus
		Count  int64
	}
	err := scope.inquiries(r.db.WithContext(ctx).Model(&models.Inquiry{})).
		Select("inquiries.status AS status, COUNT(*) AS count").
		Group("inquiries.status").
		Scan(&rows).Error
	if err != nil {
		return nil, translate(err)
	}

	counts := make(map[models.InquiryStatus]int64, len(models.Statuses))
	for _, s := range models.Statuses {
		counts[s] = 0
	}
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *inquiryRepository) CategoryCounts(ctx context.Context, scope Scope) ([]CategoryCount, error) {
	var counts []CategoryCount
	err := scope.inquiries(r.db.WithContext(ctx).Model(&models.Inquiry{})).
		Select("categories.id AS category_id, categories.category_name AS category_name, COUNT(*) AS count").
		Joins("JOIN categories ON categories.id = inquiries.category_id").
		Group("categories.id, categories.category_name").
		Order("count DESC, categories.category_name").
		Scan(&counts).Error
	if err != nil {
		return nil, translate(err)
	}
	return counts, nil
}

// MonthlyCounts returns twelve entries, one per month of year.
func (r *inquiryRepository) MonthlyCounts(ctx context.Context, scope Scope, year int) ([]MonthCount, error) {
	var rows []MonthCount
	err := scope.inquiries(r.db.WithContext(ctx).Model(&models.Inquiry{})).
		Select("CAST(EXTRACT(MONTH FROM inquiries.created_at) AS INTEGER) AS month, COUNT(*) AS count").
		Where("CAST(EXTRACT(YEAR FROM inquiries.created_at) AS INTEGER) = ?", year).
		Group("month").
		Scan(&rows).Error
	if err != nil {
		return nil, translate(err)
	}

	months := make([]MonthCount, 12)
	for i := range months {
		months[i].Month = i + 1
	}
	for _, row := range rows {
		if row.Month >= 1 && row.Month <= 12 {
			months[row.Month-1].Count = row.Count
		}
	}
	return months, nil
}
