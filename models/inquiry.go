package models

import "time"

type InquiryStatus string

const (
	StatusPending    InquiryStatus = "pending"
	StatusInProgress InquiryStatus = "in_progress"
	StatusResolved   InquiryStatus = "resolved"
	StatusClosed     InquiryStatus = "closed"
)

// Statuses lists every status in lifecycle order.
var Statuses = []InquiryStatus{StatusPending, StatusInProgress, StatusResolved, StatusClosed}

func (s InquiryStatus) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// Completed reports whether s ends the inquiry's handling.
func (s InquiryStatus) Completed() bool {
	return s == StatusResolved || s == StatusClosed
}

type Inquiry struct {
	ID          uint          `gorm:"primaryKey;autoIncrement" json:"inquiryId"`
	Subject     string        `gorm:"type:varchar(200);not null" json:"subject"`
	InquiryText string        `gorm:"type:text;not null" json:"inquiryText"`
	Status      InquiryStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	IsPublic    bool          `gorm:"not null;default:false" json:"isPublic"`
	CategoryID  uint          `gorm:"not null;index" json:"categoryId"`
	Category    *Category     `gorm:"foreignKey:CategoryID;constraint:OnDelete:RESTRICT" json:"category,omitempty"`
	RequesterID uint          `gorm:"not null;index" json:"requesterId"`
	Requester   *Requester    `gorm:"foreignKey:RequesterID;constraint:OnDelete:RESTRICT" json:"requester,omitempty"`
	Responses   []Response    `gorm:"foreignKey:InquiryID;constraint:OnDelete:CASCADE" json:"responses,omitempty"`
	Attachments []Attachment  `gorm:"foreignKey:InquiryID;constraint:OnDelete:CASCADE" json:"attachments,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}
