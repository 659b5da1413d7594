package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Household groups persons under a unique household number
type Household struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	HouseholdNumber string     `gorm:"type:varchar(100);uniqueIndex;not null" json:"household_number"`
	Address         string     `gorm:"type:varchar(255)" json:"address"`
	HeadPersonID    *uuid.UUID `gorm:"type:uuid" json:"head_person_id"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (h *Household) BeforeCreate(_ *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}

// Person gender codes
const (
	GenderMale   = "M"
	GenderFemale = "F"
	GenderOther  = "O"
)

// Person is a registered resident, optionally attached to a household
type Person struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	FullName           string     `gorm:"type:varchar(100);not null" json:"full_name"`
	Birthdate          *time.Time `json:"birthdate"`
	Gender             string     `gorm:"type:varchar(1)" json:"gender"` // M, F, O
	CurrentHouseholdID *uuid.UUID `gorm:"type:uuid;index" json:"current_household_id"`
	RelationToHead     string     `gorm:"type:varchar(100)" json:"relation_to_head"`
	CreatedAt          time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *Person) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// PersonHistory actions
const (
	HistoryActionCreated = "created"
	HistoryActionUpdated = "updated"
	HistoryActionMoved   = "moved"
	HistoryActionSplit   = "house_split"
)

// PersonHistory records every registry mutation touching a person, including
// household moves and splits
type PersonHistory struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	PersonID        uuid.UUID  `gorm:"type:uuid;not null;index" json:"person_id"`
	Action          string     `gorm:"type:varchar(50);not null" json:"action"`
	FromHouseholdID *uuid.UUID `gorm:"type:uuid" json:"from_household_id"`
	ToHouseholdID   *uuid.UUID `gorm:"type:uuid" json:"to_household_id"`
	Note            string     `gorm:"type:varchar(255)" json:"note"`
	PerformedBy     uuid.UUID  `gorm:"type:uuid;not null" json:"performed_by"`
	PerformedAt     time.Time  `gorm:"autoCreateTime" json:"performed_at"`
}

func (h *PersonHistory) BeforeCreate(_ *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}
