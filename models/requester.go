package models

import "time"

type RequesterType string

const (
	RequesterArmy  RequesterType = "army"
	RequesterCivil RequesterType = "civil"
)

// Requester is the person an inquiry is filed on behalf of.
// Army requesters carry a registration number, rank and establishment;
// civil requesters carry a NIC. The nullable identity columns are unique when set.
type Requester struct {
	ID              uint           `gorm:"primaryKey;autoIncrement" json:"requesterId"`
	Type            RequesterType  `gorm:"column:requester_type;type:varchar(10);not null;default:'army'" json:"requesterType"`
	OfficerRegNo    *string        `gorm:"type:varchar(50);uniqueIndex" json:"officerRegNo,omitempty"`
	NIC             *string        `gorm:"column:nic;type:varchar(20);uniqueIndex" json:"nic,omitempty"`
	FirstName       string         `gorm:"type:varchar(50);not null" json:"rFirstName"`
	LastName        string         `gorm:"type:varchar(50);not null" json:"rLastName"`
	Email           *string        `gorm:"type:varchar(100);uniqueIndex" json:"rEmail,omitempty"`
	PhoneNo         string         `gorm:"type:varchar(20);not null" json:"phoneNo"`
	RankID          *uint          `gorm:"index" json:"rankId,omitempty"`
	Rank            *Rank          `gorm:"foreignKey:RankID;constraint:OnDelete:RESTRICT" json:"rank,omitempty"`
	EstablishmentID *uint          `gorm:"column:estb_id;index" json:"estbId,omitempty"`
	Establishment   *Establishment `gorm:"foreignKey:EstablishmentID;constraint:OnDelete:RESTRICT" json:"establishment,omitempty"`
	Inquiries       []Inquiry      `gorm:"foreignKey:RequesterID" json:"inquiries,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

// ContactEmail returns the requester's email, or "" when none is on file.
func (r *Requester) ContactEmail() string {
	if r == nil || r.Email == nil {
		return ""
	}
	return *r.Email
}
