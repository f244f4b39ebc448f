// Package services holds the business rules: access scoping, the inquiry
// lifecycle and the admin-managed records.
package services

import (
	"github.com/inquiry-desk/api-go/errs"
	"github.com/inquiry-desk/api-go/models"
	"github.com/inquiry-desk/api-go/repository"
)

// Caller is the authenticated user an operation runs on behalf of.
type Caller struct {
	UserID    uint
	Email     string
	Role      models.Role
	FirstName string
	LastName  string
}

func (c *Caller) IsAdmin() bool {
	return c != nil && c.Role == models.RoleAdmin
}

func (c *Caller) FullName() string {
	u := models.User{FirstName: c.FirstName, LastName: c.LastName}
	return u.FullName()
}

// CanAccessInquiry reports whether caller may read or change inquiry.
// responded tells whether the caller has authored a response on it.
// Admins see everything; officers see public inquiries and those they
// have responded to.
func CanAccessInquiry(caller *Caller, inquiry *models.Inquiry, responded bool) bool {
	if caller == nil || inquiry == nil {
		return false
	}
	if caller.IsAdmin() {
		return true
	}
	return inquiry.IsPublic || responded
}

// scopeFor is the SQL form of CanAccessInquiry.
func scopeFor(caller *Caller) repository.Scope {
	if caller.IsAdmin() {
		return repository.Scope{All: true}
	}
	return repository.Scope{UserID: caller.UserID}
}

func requireAuth(caller *Caller) error {
	if caller == nil || caller.UserID == 0 {
		return errs.Unauthorized("Authentication required")
	}
	return nil
}

func requireAdmin(caller *Caller) error {
	if err := requireAuth(caller); err != nil {
		return err
	}
	if !caller.IsAdmin() {
		return errs.AccessDenied("Admin role required")
	}
	return nil
}
