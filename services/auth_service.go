package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/inquiry-desk/api-go/errs"
	"github.com/inquiry-desk/api-go/models"
	"github.com/inquiry-desk/api-go/notify"
	"github.com/inquiry-desk/api-go/repository"
	"github.com/inquiry-desk/api-go/utils"
	"github.com/sirupsen/logrus"
)

type SignInInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type SignUpInput struct {
	UserInput
	Role models.Role `json:"role" binding:"required,oneof=officer admin"`
}

type ResetPasswordInput struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=6"`
}

type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type AuthService interface {
	SignIn(ctx context.Context, input SignInInput) (*AuthResult, error)
	// SignUp lets an admin create an account with any role.
	SignUp(ctx context.Context, caller *Caller, input SignUpInput) (*models.User, error)
	// Authenticate resolves a bearer token to the current state of its user.
	Authenticate(ctx context.Context, token string) (*Caller, error)
	// ForgotPassword emails a reset link when the address is known. It
	// reports success either way.
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, input ResetPasswordInput) error
}

type authService struct {
	store    *repository.Store
	tokens   *utils.TokenManager
	notifier notify.Notifier
	log      logrus.FieldLogger
}

func NewAuthService(store *repository.Store, tokens *utils.TokenManager, notifier notify.Notifier, log logrus.FieldLogger) AuthService {
	return &authService{store: store, tokens: tokens, notifier: notifier, log: log}
}

func (s *authService) SignIn(ctx context.Context, input SignInInput) (*AuthResult, error) {
	user, err := s.store.Users.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errs.Unauthorized("Invalid email or password")
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if !utils.CheckPassword(user.Password, input.Password) {
		return nil, errs.Unauthorized("Invalid email or password")
	}

	token, err := s.tokens.Issue(utils.UserClaims{UserID: user.ID, Email: user.Email, Role: user.Role})
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &AuthResult{Token: token, User: user}, nil
}

func (s *authService) SignUp(ctx context.Context, caller *Caller, input SignUpInput) (*models.User, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	return createUser(ctx, s.store, input.UserInput, input.Role)
}

func (s *authService) Authenticate(ctx context.Context, token string) (*Caller, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, errs.Unauthorized("Invalid or expired token")
	}

	// The stored role wins over the one in the token.
	user, err := s.store.Users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errs.Unauthorized("User no longer exists")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &Caller{
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}, nil
}

func (s *authService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.store.Users.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.log.WithField("error", err.Error()).Error("failed to look up user for password reset")
		}
		return nil
	}

	token, err := s.tokens.IssueReset(user.ID, user.Password)
	if err != nil {
		s.log.WithFields(logrus.Fields{"user_id": user.ID, "error": err.Error()}).Error("failed to issue reset token")
		return nil
	}
	if err := s.notifier.SendPasswordReset(ctx, user.Email, token); err != nil {
		s.log.WithFields(logrus.Fields{"user_id": user.ID, "error": err.Error()}).Error("failed to send password reset")
	}
	return nil
}

func (s *authService) ResetPassword(ctx context.Context, input ResetPasswordInput) error {
	if len(input.NewPassword) < MinPasswordLength {
		return errs.Validation("newPassword", "Password must be at least %d characters", MinPasswordLength)
	}
	userID, fp, err := s.tokens.ParseReset(input.Token)
	if err != nil {
		return errs.Validation("token", "Invalid or expired reset token")
	}

	user, err := s.store.Users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return errs.Validation("token", "Invalid or expired reset token")
		}
		return fmt.Errorf("failed to load user: %w", err)
	}
	// A token stops working once the password it was issued against changes.
	if !utils.ResetMatches(fp, user.Password) {
		return errs.Validation("token", "Invalid or expired reset token")
	}
	return setPassword(ctx, s.store, user, input.NewPassword)
}
