package models

import "time"

type EstablishmentType string

const (
	EstablishmentMilitary EstablishmentType = "military"
	EstablishmentCivil    EstablishmentType = "civil"
)

type Category struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"categoryId"`
	Name        string    `gorm:"column:category_name;type:varchar(100);uniqueIndex;not null" json:"categoryName"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Rank struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"rankId"`
	Name        string    `gorm:"column:rank_name;type:varchar(50);uniqueIndex;not null" json:"rankName"`
	Description *string   `gorm:"type:text" json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Establishment struct {
	ID        uint              `gorm:"primaryKey;autoIncrement" json:"estbId"`
	Name      string            `gorm:"column:estb_name;type:varchar(100);uniqueIndex;not null" json:"estbName"`
	Type      EstablishmentType `gorm:"column:estb_type;type:varchar(50);not null;default:'military'" json:"estbType"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

func (c *Category) GetID() uint     { return c.ID }
func (c *Category) GetName() string { return c.Name }

func (r *Rank) GetID() uint     { return r.ID }
func (r *Rank) GetName() string { return r.Name }

func (e *Establishment) GetID() uint     { return e.ID }
func (e *Establishment) GetName() string { return e.Name }
