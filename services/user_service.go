package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/inquiry-desk/api-go/errs"
	"github.com/inquiry-desk/api-go/models"
	"github.com/inquiry-desk/api-go/repository"
	"github.com/inquiry-desk/api-go/utils"
)

const (
	MinPasswordLength       = 6
	MinChangePasswordLength = 8
)

type UserInput struct {
	FirstName  string `json:"uFirstName" binding:"required,max=50"`
	LastName   string `json:"uLastName" binding:"required,max=50"`
	Department string `json:"department" binding:"required,max=100"`
	Email      string `json:"uEmail" binding:"required,email,max=100"`
	Password   string `json:"password" binding:"required,min=6"`
}

// UserUpdate never touches the password or role.
type UserUpdate struct {
	FirstName  *string `json:"uFirstName" binding:"omitempty,max=50"`
	LastName   *string `json:"uLastName" binding:"omitempty,max=50"`
	Department *string `json:"department" binding:"omitempty,max=100"`
	Email      *string `json:"uEmail" binding:"omitempty,email,max=100"`
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
}

type UserService interface {
	List(ctx context.Context, caller *Caller) ([]models.User, error)
	Get(ctx context.Context, caller *Caller, id uint) (*models.User, error)
	Profile(ctx context.Context, caller *Caller) (*models.User, error)
	// Create adds an officer account.
	Create(ctx context.Context, caller *Caller, input UserInput) (*models.User, error)
	Update(ctx context.Context, caller *Caller, id uint, input UserUpdate) (*models.User, error)
	Delete(ctx context.Context, caller *Caller, id uint) error
	ChangePassword(ctx context.Context, caller *Caller, input ChangePasswordInput) error
}

type userService struct {
	store *repository.Store
}

func NewUserService(store *repository.Store) UserService {
	return &userService{store: store}
}

func (s *userService) List(ctx context.Context, caller *Caller) ([]models.User, error) {
	if err := requireAuth(caller); err != nil {
		return nil, err
	}
	if !caller.IsAdmin() {
		user, err := s.find(ctx, caller.UserID)
		if err != nil {
			return nil, err
		}
		return []models.User{*user}, nil
	}
	users, err := s.store.Users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *userService) Get(ctx context.Context, caller *Caller, id uint) (*models.User, error) {
	if err := requireAuth(caller); err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && caller.UserID != id {
		return nil, errs.AccessDenied("Officers can only view their own account")
	}
	return s.find(ctx, id)
}

func (s *userService) Profile(ctx context.Context, caller *Caller) (*models.User, error) {
	if err := requireAuth(caller); err != nil {
		return nil, err
	}
	return s.find(ctx, caller.UserID)
}

func (s *userService) Create(ctx context.Context, caller *Caller, input UserInput) (*models.User, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	return createUser(ctx, s.store, input, models.RoleOfficer)
}

func (s *userService) Update(ctx context.Context, caller *Caller, id uint, input UserUpdate) (*models.User, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.FirstName != nil {
		user.FirstName = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		user.LastName = strings.TrimSpace(*input.LastName)
	}
	if input.Department != nil {
		user.Department = strings.TrimSpace(*input.Department)
	}
	if input.Email != nil {
		email := normalizeEmail(*input.Email)
		if email != user.Email {
			if err := ensureEmailFree(ctx, s.store, email); err != nil {
				return nil, err
			}
			user.Email = email
		}
	}
	if user.FirstName == "" || user.LastName == "" {
		return nil, errs.Validation("uFirstName", "First and last name are required")
	}

	if err := s.store.Users.Update(ctx, user); err != nil {
		return nil, userWriteError(err)
	}
	return user, nil
}

func (s *userService) Delete(ctx context.Context, caller *Caller, id uint) error {
	if err := requireAdmin(caller); err != nil {
		return err
	}
	if _, err := s.find(ctx, id); err != nil {
		return err
	}

	count, err := s.store.Users.CountResponses(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count responses: %w", err)
	}
	if count > 0 {
		return errs.Conflict("User has authored %d responses and cannot be deleted", count)
	}

	if err := s.store.Users.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrForeignKey) {
			return errs.Conflict("User is referenced by responses and cannot be deleted")
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

func (s *userService) ChangePassword(ctx context.Context, caller *Caller, input ChangePasswordInput) error {
	if err := requireAuth(caller); err != nil {
		return err
	}
	if len(input.NewPassword) < MinChangePasswordLength {
		return errs.Validation("newPassword", "New password must be at least %d characters", MinChangePasswordLength)
	}
	if input.NewPassword != input.ConfirmPassword {
		return errs.Validation("confirmPassword", "Password confirmation does not match")
	}

	user, err := s.find(ctx, caller.UserID)
	if err != nil {
		return err
	}
	if !utils.CheckPassword(user.Password, input.CurrentPassword) {
		return errs.Validation("currentPassword", "Current password is incorrect")
	}
	return setPassword(ctx, s.store, user, input.NewPassword)
}

func (s *userService) find(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.store.Users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errs.NotFound("User not found")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func createUser(ctx context.Context, store *repository.Store, input UserInput, role models.Role) (*models.User, error) {
	email := normalizeEmail(input.Email)
	switch {
	case strings.TrimSpace(input.FirstName) == "":
		return nil, errs.Validation("uFirstName", "First name is required")
	case strings.TrimSpace(input.LastName) == "":
		return nil, errs.Validation("uLastName", "Last name is required")
	case email == "":
		return nil, errs.Validation("uEmail", "Email is required")
	case len(input.Password) < MinPasswordLength:
		return nil, errs.Validation("password", "Password must be at least %d characters", MinPasswordLength)
	case !role.Valid():
		return nil, errs.Validation("role", "Role must be officer or admin")
	}
	if err := ensureEmailFree(ctx, store, email); err != nil {
		return nil, err
	}

	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user := &models.User{
		FirstName:  strings.TrimSpace(input.FirstName),
		LastName:   strings.TrimSpace(input.LastName),
		Department: strings.TrimSpace(input.Department),
		Email:      email,
		Password:   hashed,
		Role:       role,
	}
	if err := store.Users.Create(ctx, user); err != nil {
		return nil, userWriteError(err)
	}
	return user, nil
}

func setPassword(ctx context.Context, store *repository.Store, user *models.User, plain string) error {
	hashed, err := utils.HashPassword(plain)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = hashed
	if err := store.Users.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

func ensureEmailFree(ctx context.Context, store *repository.Store, email string) error {
	_, err := store.Users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return errs.Conflict("A user with email %s already exists", email)
	case errors.Is(err, repository.ErrNotFound):
		return nil
	}
	return fmt.Errorf("failed to look up user: %w", err)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func userWriteError(err error) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return errs.Conflict("A user with this email already exists")
	}
	return fmt.Errorf("failed to save user: %w", err)
}
