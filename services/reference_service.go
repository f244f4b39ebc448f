package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/inquiry-desk/api-go/errs"
	"github.com/inquiry-desk/api-go/models"
	"github.com/inquiry-desk/api-go/repository"
)

// Reference is a named lookup record.
type Reference[T any] interface {
	*T
	GetID() uint
	GetName() string
}

// ReferenceService manages one kind of admin-maintained lookup data.
// Names are unique by exact match and records in use cannot be deleted.
type ReferenceService[T any, P Reference[T]] struct {
	repo       repository.ReferenceRepository[T]
	label      string
	dependents string
	minName    int
	check      func(P) error
}

func NewCategoryService(store *repository.Store) *ReferenceService[models.Category, *models.Category] {
	return &ReferenceService[models.Category, *models.Category]{
		repo:       store.Categories,
		label:      "Category",
		dependents: "inquiries",
		minName:    3,
	}
}

func NewRankService(store *repository.Store) *ReferenceService[models.Rank, *models.Rank] {
	return &ReferenceService[models.Rank, *models.Rank]{
		repo:       store.Ranks,
		label:      "Rank",
		dependents: "requesters",
		minName:    1,
	}
}

func NewEstablishmentService(store *repository.Store) *ReferenceService[models.Establishment, *models.Establishment] {
	return &ReferenceService[models.Establishment, *models.Establishment]{
		repo:       store.Establishments,
		label:      "Establishment",
		dependents: "requesters",
		minName:    1,
		check: func(e *models.Establishment) error {
			if e.Type == "" {
				e.Type = models.EstablishmentMilitary
			}
			if e.Type != models.EstablishmentMilitary && e.Type != models.EstablishmentCivil {
				return errs.Validation("estbType", "Establishment type must be military or civil")
			}
			return nil
		},
	}
}

func (s *ReferenceService[T, P]) List(ctx context.Context) ([]T, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", strings.ToLower(s.label), err)
	}
	return items, nil
}

func (s *ReferenceService[T, P]) Get(ctx context.Context, caller *Caller, id uint) (P, error) {
	if err := requireAuth(caller); err != nil {
		return nil, err
	}
	return s.find(ctx, id)
}

func (s *ReferenceService[T, P]) Create(ctx context.Context, caller *Caller, item P) (P, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if err := s.validate(ctx, item, 0); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, (*T)(item)); err != nil {
		return nil, s.writeError(item, err)
	}
	return item, nil
}

// Update loads the record, applies changes to it and saves it.
func (s *ReferenceService[T, P]) Update(ctx context.Context, caller *Caller, id uint, apply func(P)) (P, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	item, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	apply(item)
	if err := s.validate(ctx, item, id); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, (*T)(item)); err != nil {
		return nil, s.writeError(item, err)
	}
	return item, nil
}

func (s *ReferenceService[T, P]) Delete(ctx context.Context, caller *Caller, id uint) error {
	if err := requireAdmin(caller); err != nil {
		return err
	}
	if _, err := s.find(ctx, id); err != nil {
		return err
	}

	count, err := s.repo.CountDependents(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count dependents: %w", err)
	}
	if count > 0 {
		return errs.Conflict("%s is used by %d %s and cannot be deleted", s.label, count, s.dependents)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrForeignKey):
			return errs.Conflict("%s is in use and cannot be deleted", s.label)
		case errors.Is(err, repository.ErrNotFound):
			return errs.NotFound("%s not found", s.label)
		}
		return fmt.Errorf("failed to delete %s: %w", strings.ToLower(s.label), err)
	}
	return nil
}

func (s *ReferenceService[T, P]) find(ctx context.Context, id uint) (P, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errs.NotFound("%s not found", s.label)
		}
		return nil, fmt.Errorf("failed to get %s: %w", strings.ToLower(s.label), err)
	}
	return P(item), nil
}

// validate checks the name and that no other record already uses it.
// self is the id of the record being updated, or 0 on create.
func (s *ReferenceService[T, P]) validate(ctx context.Context, item P, self uint) error {
	name := item.GetName()
	if len([]rune(strings.TrimSpace(name))) < s.minName {
		return errs.Validation("name", "%s name must be at least %d characters", s.label, s.minName)
	}
	if s.check != nil {
		if err := s.check(item); err != nil {
			return err
		}
	}

	existing, err := s.repo.FindByName(ctx, name)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("failed to look up %s: %w", strings.ToLower(s.label), err)
	}
	if P(existing).GetID() != self {
		return errs.Conflict("%s %q already exists", s.label, name)
	}
	return nil
}

func (s *ReferenceService[T, P]) writeError(item P, err error) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return errs.Conflict("%s %q already exists", s.label, item.GetName())
	}
	return fmt.Errorf("failed to save %s: %w", strings.ToLower(s.label), err)
}
