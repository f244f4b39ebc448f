package repository

import (
	"context"

	"github.com/inquiry-desk/api-go/models"
	"gorm.io/gorm"
)

// ReferenceRepository stores a named lookup table (categories, ranks,
// establishments) that other records point at.
type ReferenceRepository[T any] interface {
	Create(ctx context.Context, item *T) error
	Update(ctx context.Context, item *T) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*T, error)
	FindByName(ctx context.Context, name string) (*T, error)
	List(ctx context.Context) ([]T, error)
	// CountDependents returns how many records reference id.
	CountDependents(ctx context.Context, id uint) (int64, error)
}

type referenceRepository[T any] struct {
	db              *gorm.DB
	nameColumn      string
	dependentTable  string
	dependentColumn string
}

func NewCategoryRepository(db *gorm.DB) ReferenceRepository[models.Category] {
	return &referenceRepository[models.Category]{db: db, nameColumn: "category_name", dependentTable: "inquiries", dependentColumn: "category_id"}
}

func NewRankRepository(db *gorm.DB) ReferenceRepository[models.Rank] {
	return &referenceRepository[models.Rank]{db: db, nameColumn: "rank_name", dependentTable: "requesters", dependentColumn: "rank_id"}
}

func NewEstablishmentRepository(db *gorm.DB) ReferenceRepository[models.Establishment] {
	return &referenceRepository[models.Establishment]{db: db, nameColumn: "estb_name", dependentTable: "requesters", dependentColumn: "estb_id"}
}

func (r *referenceRepository[T]) Create(ctx context.Context, item *T) error {
	return translate(r.db.WithContext(ctx).Create(item).Error)
}

func (r *referenceRepository[T]) Update(ctx context.Context, item *T) error {
	return translate(r.db.WithContext(ctx).Save(item).Error)
}

func (r *referenceRepository[T]) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(new(T), id)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *referenceRepository[T]) FindByID(ctx context.Context, id uint) (*T, error) {
	var item T
	if err := r.db.WithContext(ctx).First(&item, id).Error; err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

func (r *referenceRepository[T]) FindByName(ctx context.Context, name string) (*T, error) {
	var item T
	if err := r.db.WithContext(ctx).Where(r.nameColumn+" = ?", name).First(&item).Error; err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

func (r *referenceRepository[T]) List(ctx context.Context) ([]T, error) {
	var items []T
	if err := r.db.WithContext(ctx).Order(r.nameColumn).Find(&items).Error; err != nil {
		return nil, translate(err)
	}
	return items, nil
}

func (r *referenceRepository[T]) CountDependents(ctx context.Context, id uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Table(r.dependentTable).Where(r.dependentColumn+" = ?", id).Count(&count).Error
	return count, translate(err)
}
