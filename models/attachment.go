package models

import "time"

// Attachment points at a stored file. Exactly one of InquiryID and
// ResponseID is set.
type Attachment struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"attachmentId"`
	FilePath   string    `gorm:"type:varchar(500);not null" json:"filePath"`
	InquiryID  *uint     `gorm:"index" json:"inquiryId,omitempty"`
	ResponseID *uint     `gorm:"index" json:"responseId,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}
