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

// RequesterInput is the payload for a new requester, either standalone or
// inline with an inquiry.
type RequesterInput struct {
	Type            models.RequesterType `json:"requesterType" binding:"required,oneof=army civil"`
	OfficerRegNo    *string              `json:"officerRegNo" binding:"omitempty,max=50"`
	NIC             *string              `json:"nic" binding:"omitempty,max=20"`
	FirstName       string               `json:"rFirstName" binding:"required,max=50"`
	LastName        string               `json:"rLastName" binding:"required,max=50"`
	Email           *string              `json:"rEmail" binding:"omitempty,email,max=100"`
	PhoneNo         string               `json:"phoneNo" binding:"required,max=20"`
	RankID          *uint                `json:"rankId"`
	EstablishmentID *uint                `json:"estbId"`
}

// RequesterUpdate carries the fields to change. An empty string clears an
// optional identifier.
type RequesterUpdate struct {
	Type            *models.RequesterType `json:"requesterType" binding:"omitempty,oneof=army civil"`
	OfficerRegNo    *string               `json:"officerRegNo" binding:"omitempty,max=50"`
	NIC             *string               `json:"nic" binding:"omitempty,max=20"`
	FirstName       *string               `json:"rFirstName" binding:"omitempty,max=50"`
	LastName        *string               `json:"rLastName" binding:"omitempty,max=50"`
	Email           *string               `json:"rEmail" binding:"omitempty,max=100"`
	PhoneNo         *string               `json:"phoneNo" binding:"omitempty,max=20"`
	RankID          *uint                 `json:"rankId"`
	EstablishmentID *uint                 `json:"estbId"`
}

func (in RequesterInput) model() *models.Requester {
	return &models.Requester{
		Type:            in.Type,
		OfficerRegNo:    trimmed(in.OfficerRegNo),
		NIC:             trimmed(in.NIC),
		FirstName:       strings.TrimSpace(in.FirstName),
		LastName:        strings.TrimSpace(in.LastName),
		Email:           trimmed(in.Email),
		PhoneNo:         strings.TrimSpace(in.PhoneNo),
		RankID:          in.RankID,
		EstablishmentID: in.EstablishmentID,
	}
}

func (u RequesterUpdate) apply(r *models.Requester) {
	if u.Type != nil {
		r.Type = *u.Type
	}
	if u.OfficerRegNo != nil {
		r.OfficerRegNo = trimmed(u.OfficerRegNo)
	}
	if u.NIC != nil {
		r.NIC = trimmed(u.NIC)
	}
	if u.FirstName != nil {
		r.FirstName = strings.TrimSpace(*u.FirstName)
	}
	if u.LastName != nil {
		r.LastName = strings.TrimSpace(*u.LastName)
	}
	if u.Email != nil {
		r.Email = trimmed(u.Email)
	}
	if u.PhoneNo != nil {
		r.PhoneNo = strings.TrimSpace(*u.PhoneNo)
	}
	if u.RankID != nil {
		r.RankID = u.RankID
		r.Rank = nil
	}
	if u.EstablishmentID != nil {
		r.EstablishmentID = u.EstablishmentID
		r.Establishment = nil
	}
}

// trimmed returns nil for nil or blank values.
func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// ValidateRequester enforces the army/civil field rules. Army requesters
// need a registration number, rank and establishment and no NIC; civil
// requesters need a NIC and no registration number. A civil requester's
// rank and establishment are cleared.
func ValidateRequester(r *models.Requester) error {
	switch {
	case r.FirstName == "":
		return errs.Validation("rFirstName", "First name is required")
	case r.LastName == "":
		return errs.Validation("rLastName", "Last name is required")
	case r.PhoneNo == "":
		return errs.Validation("phoneNo", "Phone number is required")
	}

	switch r.Type {
	case models.RequesterArmy:
		if r.OfficerRegNo == nil {
			return errs.Validation("officerRegNo", "Officer registration number is required for army requesters")
		}
		if r.NIC != nil {
			return errs.Validation("nic", "NIC must not be provided for army requesters")
		}
		if r.RankID == nil {
			return errs.Validation("rankId", "Rank is required for army requesters")
		}
		if r.EstablishmentID == nil {
			return errs.Validation("estbId", "Establishment is required for army requesters")
		}
	case models.RequesterCivil:
		if r.NIC == nil {
			return errs.Validation("nic", "NIC is required for civil requesters")
		}
		if r.OfficerRegNo != nil {
			return errs.Validation("officerRegNo", "Officer registration number must not be provided for civil requesters")
		}
		r.RankID, r.Rank = nil, nil
		r.EstablishmentID, r.Establishment = nil, nil
	default:
		return errs.Validation("requesterType", "Requester type must be army or civil")
	}
	return nil
}

type RequesterService interface {
	Create(ctx context.Context, caller *Caller, input RequesterInput) (*models.Requester, error)
	List(ctx context.Context, caller *Caller, opts repository.ListOptions) ([]models.Requester, int64, error)
	Get(ctx context.Context, caller *Caller, id uint) (*models.Requester, error)
	Update(ctx context.Context, caller *Caller, id uint, input RequesterUpdate) (*models.Requester, error)
	Delete(ctx context.Context, caller *Caller, id uint) error
	Inquiries(ctx context.Context, caller *Caller, id uint) ([]models.Inquiry, error)
}

type requesterService struct {
	store *repository.Store
}

func NewRequesterService(store *repository.Store) RequesterService {
	return &requesterService{store: store}
}

func (s *requesterService) Create(ctx context.Context, caller *Caller, input RequesterInput) (*models.Requester, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}

	requester := input.model()
	if err := ValidateRequester(requester); err != nil {
		return nil, err
	}
	if err := checkRequesterReferences(ctx, s.store, requester); err != nil {
		return nil, err
	}

	matches, err := s.store.Requesters.FindByIdentity(ctx, requester.OfficerRegNo, requester.NIC, requester.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up requester: %w", err)
	}
	if len(matches) > 0 {
		return nil, errs.Conflict("A requester with this registration number, NIC or email already exists")
	}

	if err := s.store.Requesters.Create(ctx, requester); err != nil {
		return nil, requesterWriteError(err)
	}
	return s.store.Requesters.FindByID(ctx, requester.ID)
}

func (s *requesterService) List(ctx context.Context, caller *Caller, opts repository.ListOptions) ([]models.Requester, int64, error) {
	if err := requireAuth(caller); err != nil {
		return nil, 0, err
	}
	requesters, total, err := s.store.Requesters.List(ctx, scopeFor(caller), opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list requesters: %w", err)
	}
	return requesters, total, nil
}

func (s *requesterService) Get(ctx context.Context, caller *Caller, id uint) (*models.Requester, error) {
	if err := s.checkVisible(ctx, caller, id); err != nil {
		return nil, err
	}
	requester, err := s.store.Requesters.FindByID(ctx, id)
	if err != nil {
		return nil, requesterLookupError(caller, err)
	}
	return requester, nil
}

func (s *requesterService) Update(ctx context.Context, caller *Caller, id uint, input RequesterUpdate) (*models.Requester, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}

	requester, err := s.store.Requesters.FindByID(ctx, id)
	if err != nil {
		return nil, requesterLookupError(caller, err)
	}

	input.apply(requester)
	if err := ValidateRequester(requester); err != nil {
		return nil, err
	}
	if err := checkRequesterReferences(ctx, s.store, requester); err != nil {
		return nil, err
	}

	requester.Rank, requester.Establishment = nil, nil
	if err := s.store.Requesters.Update(ctx, requester); err != nil {
		return nil, requesterWriteError(err)
	}
	return s.store.Requesters.FindByID(ctx, id)
}

func (s *requesterService) Delete(ctx context.Context, caller *Caller, id uint) error {
	if err := requireAdmin(caller); err != nil {
		return err
	}

	count, err := s.store.Requesters.CountInquiries(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count inquiries: %w", err)
	}
	if count > 0 {
		return errs.Conflict("Requester has %d inquiries and cannot be deleted", count)
	}

	if err := s.store.Requesters.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrForeignKey) {
			return errs.Conflict("Requester is referenced by inquiries and cannot be deleted")
		}
		return requesterLookupError(caller, err)
	}
	return nil
}

func (s *requesterService) Inquiries(ctx context.Context, caller *Caller, id uint) ([]models.Inquiry, error) {
	if err := s.checkVisible(ctx, caller, id); err != nil {
		return nil, err
	}
	inquiries, err := s.store.Inquiries.ListByRequester(ctx, scopeFor(caller), id)
	if err != nil {
		return nil, fmt.Errorf("failed to list requester inquiries: %w", err)
	}
	return inquiries, nil
}

// checkVisible lets admins through and requires officers to see at least
// one of the requester's inquiries.
func (s *requesterService) checkVisible(ctx context.Context, caller *Caller, id uint) error {
	if err := requireAuth(caller); err != nil {
		return err
	}
	if caller.IsAdmin() {
		return nil
	}
	visible, err := s.store.Requesters.IsVisible(ctx, scopeFor(caller), id)
	if err != nil {
		return fmt.Errorf("failed to check requester visibility: %w", err)
	}
	if !visible {
		return errs.AccessDenied("Requester not found or access denied")
	}
	return nil
}

// resolveInlineRequester validates an inline requester and returns the
// existing record it matches, creating one when nothing matches.
func resolveInlineRequester(ctx context.Context, store *repository.Store, input RequesterInput) (*models.Requester, error) {
	requester := input.model()
	if err := ValidateRequester(requester); err != nil {
		return nil, err
	}

	matches, err := store.Requesters.FindByIdentity(ctx, requester.OfficerRegNo, requester.NIC, requester.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up requester: %w", err)
	}
	switch len(matches) {
	case 0:
	case 1:
		if !sameRequester(&matches[0], requester) {
			return nil, errs.Conflict("Requester details conflict with an existing requester")
		}
		return &matches[0], nil
	default:
		return nil, errs.Conflict("Requester details match more than one existing requester")
	}

	if err := checkRequesterReferences(ctx, store, requester); err != nil {
		return nil, err
	}
	if err := store.Requesters.Create(ctx, requester); err != nil {
		return nil, requesterWriteError(err)
	}
	return requester, nil
}

// sameRequester reports whether stored can stand for the payload: the
// types agree and no identifier present on both sides differs.
func sameRequester(stored, payload *models.Requester) bool {
	differs := func(a, b *string, equal func(string, string) bool) bool {
		return a != nil && b != nil && !equal(*a, *b)
	}
	exact := func(a, b string) bool { return a == b }

	return stored.Type == payload.Type &&
		!differs(stored.OfficerRegNo, payload.OfficerRegNo, exact) &&
		!differs(stored.NIC, payload.NIC, exact) &&
		!differs(stored.Email, payload.Email, strings.EqualFold)
}

func checkRequesterReferences(ctx context.Context, store *repository.Store, r *models.Requester) error {
	if r.RankID != nil {
		if _, err := store.Ranks.FindByID(ctx, *r.RankID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return errs.Validation("rankId", "Invalid rank ID")
			}
			return fmt.Errorf("failed to look up rank: %w", err)
		}
	}
	if r.EstablishmentID != nil {
		if _, err := store.Establishments.FindByID(ctx, *r.EstablishmentID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return errs.Validation("estbId", "Invalid establishment ID")
			}
			return fmt.Errorf("failed to look up establishment: %w", err)
		}
	}
	return nil
}

func requesterWriteError(err error) error {
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return errs.Conflict("A requester with this registration number, NIC or email already exists")
	case errors.Is(err, repository.ErrForeignKey):
		return errs.Validation("rankId", "Invalid rank or establishment ID")
	}
	return fmt.Errorf("failed to save requester: %w", err)
}

func requesterLookupError(caller *Caller, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		if caller.IsAdmin() {
			return errs.NotFound("Requester not found")
		}
		return errs.AccessDenied("Requester not found or access denied")
	}
	return fmt.Errorf("failed to get requester: %w", err)
}
