// Package repository implements persistence over gorm.
package repository

import (
	"context"
	"errors"

	"github.com/inquiry-desk/api-go/models"
	"gorm.io/gorm"
)

var (
	ErrNotFound   = errors.New("record not found")
	ErrDuplicate  = errors.New("duplicate key")
	ErrForeignKey = errors.New("foreign key violation")
)

// translate maps gorm errors onto the repository sentinels. The DB must be
// opened with TranslateError so driver errors arrive as gorm errors.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return ErrForeignKey
	}
	return err
}

// Scope restricts inquiry-derived reads to what a caller may see.
// All is set for admins; otherwise an inquiry is in scope when it is public
// or UserID has authored a response on it.
type Scope struct {
	UserID uint
	All    bool
}

const inquiryScopeSQL = "(inquiries.is_public = ? OR EXISTS (SELECT 1 FROM responses WHERE responses.inquiry_id = inquiries.id AND responses.user_id = ?))"

func (s Scope) inquiries(db *gorm.DB) *gorm.DB {
	if s.All {
		return db
	}
	return db.Where(inquiryScopeSQL, true, s.UserID)
}

func (s Scope) requesters(db *gorm.DB) *gorm.DB {
	if s.All {
		return db
	}
	return db.Where("EXISTS (SELECT 1 FROM inquiries WHERE inquiries.requester_id = requesters.id AND "+inquiryScopeSQL+")", true, s.UserID)
}

// ListOptions pages a listing. A zero PageSize returns everything.
type ListOptions struct {
	Page     int
	PageSize int
}

func (o ListOptions) apply(db *gorm.DB) *gorm.DB {
	if o.PageSize <= 0 {
		return db
	}
	page := o.Page
	if page < 1 {
		page = 1
	}
	return db.Offset((page - 1) * o.PageSize).Limit(o.PageSize)
}

// Store groups the repositories so services can run them in one transaction.
type Store struct {
	Users          UserRepository
	Requesters     RequesterRepository
	Inquiries      InquiryRepository
	Responses      ResponseRepository
	Attachments    AttachmentRepository
	Categories     ReferenceRepository[models.Category]
	Ranks          ReferenceRepository[models.Rank]
	Establishments ReferenceRepository[models.Establishment]

	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		Users:          NewUserRepository(db),
		Requesters:     NewRequesterRepository(db),
		Inquiries:      NewInquiryRepository(db),
		Responses:      NewResponseRepository(db),
		Attachments:    NewAttachmentRepository(db),
		Categories:     NewCategoryRepository(db),
		Ranks:          NewRankRepository(db),
		Establishments: NewEstablishmentRepository(db),
		db:             db,
	}
}

// Transaction runs fn against a Store bound to a single database
// transaction. A Store assembled without a DB runs fn directly.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	if s.db == nil {
		return fn(s)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
