package models

import "time"

// Response is an append-only note on an inquiry. The first one on an
// inquiry taken by phone records which user it was assigned to.
type Response struct {
	ID           uint         `gorm:"primaryKey;autoIncrement" json:"responseId"`
	ResponseText string       `gorm:"type:text;not null" json:"responseText"`
	InquiryID    uint         `gorm:"not null;index" json:"inquiryId"`
	UserID       uint         `gorm:"not null;index" json:"userId"`
	User         *User        `gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT" json:"user,omitempty"`
	Attachments  []Attachment `gorm:"foreignKey:ResponseID;constraint:OnDelete:CASCADE" json:"attachments,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
}
