package models

import (
	"strings"
	"time"
)

type Role string

const (
	RoleOfficer Role = "officer"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleOfficer || r == RoleAdmin
}

// User is a system account: an officer who handles inquiries or an admin.
type User struct {
	ID         uint       `gorm:"primaryKey;autoIncrement" json:"userId"`
	FirstName  string     `gorm:"type:varchar(50);not null" json:"uFirstName"`
	LastName   string     `gorm:"type:varchar(50);not null" json:"uLastName"`
	Department string     `gorm:"type:varchar(100);not null" json:"department"`
	Email      string     `gorm:"type:varchar(100);uniqueIndex;not null" json:"uEmail"`
	Password   string     `gorm:"type:varchar(255);not null" json:"-"` // bcrypt hash, never serialized
	Role       Role       `gorm:"type:varchar(20);not null;default:'officer'" json:"role"`
	Responses  []Response `gorm:"foreignKey:UserID" json:"responses,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
