package repository

import (
	"context"

	"github.com/inquiry-desk/api-go/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RequesterRepository interface {
	Create(ctx context.Context, requester *models.Requester) error
	Update(ctx context.Context, requester *models.Requester) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*models.Requester, error)
	// FindByIdentity returns every requester matching any of the given
	// identifiers. Nil or empty identifiers are ignored.
	FindByIdentity(ctx context.Context, officerRegNo, nic, email *string) ([]models.Requester, error)
	List(ctx context.Context, scope Scope, opts ListOptions) ([]models.Requester, int64, error)
	IsVisible(ctx context.Context, scope Scope, id uint) (bool, error)
	CountInquiries(ctx context.Context, id uint) (int64, error)
}

type requesterRepository struct {
	db *gorm.DB
}

func NewRequesterRepository(db *gorm.DB) RequesterRepository {
	return &requesterRepository{db: db}
}

func (r *requesterRepository) Create(ctx context.Context, requester *models.Requester) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(requester).Error)
}

func (r *requesterRepository) Update(ctx context.Context, requester *models.Requester) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Save(requester).Error)
}

func (r *requesterRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Requester{}, id)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *requesterRepository) FindByID(ctx context.Context, id uint) (*models.Requester, error) {
	var requester models.Requester
	err := r.db.WithContext(ctx).Preload("Rank").Preload("Establishment").First(&requester, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &requester, nil
}

func (r *requesterRepository) FindByIdentity(ctx context.Context, officerRegNo, nic, email *string) ([]models.Requester, error) {
	query := r.db.WithContext(ctx).Model(&models.Requester{})
	matched := false
	identities := []struct {
		column string
		value  *string
	}{{"officer_reg_no", officerRegNo}, {"nic", nic}, {"email", email}}
	for _, id := range identities {
		if id.value == nil || *id.value == "" {
			continue
		}
		if matched {
			query = query.Or(id.column+" = ?", *id.value)
		} else {
			query = query.Where(id.column+" = ?", *id.value)
			matched = true
		}
	}
	if !matched {
		return nil, nil
	}

	var requesters []models.Requester
	if err := query.Order("id").Find(&requesters).Error; err != nil {
		return nil, translate(err)
	}
	return requesters, nil
}

func (r *requesterRepository) List(ctx context.Context, scope Scope, opts ListOptions) ([]models.Requester, int64, error) {
	query := scope.requesters(r.db.WithContext(ctx).Model(&models.Requester{}))

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	var requesters []models.Requester
	err := opts.apply(query.Preload("Rank").Preload("Establishment").Order("requesters.id")).Find(&requesters).Error
	if err != nil {
		return nil, 0, translate(err)
	}
	return requesters, total, nil
}

func (r *requesterRepository) IsVisible(ctx context.Context, scope Scope, id uint) (bool, error) {
	var count int64
	query := scope.requesters(r.db.WithContext(ctx).Model(&models.Requester{}).Where("requesters.id = ?", id))
	if err := query.Count(&count).Error; err != nil {
		return false, translate(err)
	}
	return count > 0, nil
}

func (r *requesterRepository) CountInquiries(ctx context.Context, id uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Inquiry{}).Where("requester_id = ?", id).Count(&count).Error
	return count, translate(err)
}
