package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Statuses of temporary absence/residence requests
const (
	RequestStatusNew      = "new"
	RequestStatusApproved = "approved"
	RequestStatusRejected = "rejected"
)

// TempAbsence registers a person being temporarily away from their household
type TempAbsence struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PersonID     uuid.UUID `gorm:"type:uuid;not null;index" json:"person_id"`
	FromDate     time.Time `gorm:"not null" json:"from_date"`
	ToDate       time.Time `gorm:"not null" json:"to_date"`
	Reason       string    `gorm:"type:varchar(255);not null" json:"reason"`
	Status       string    `gorm:"type:varchar(20);not null;default:new" json:"status"`
	RegisteredBy uuid.UUID `gorm:"type:uuid;not null" json:"registered_by"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (t *TempAbsence) BeforeCreate(_ *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// TempResidence registers a person temporarily staying with a host household
type TempResidence struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PersonID        uuid.UUID `gorm:"type:uuid;not null;index" json:"person_id"`
	FromDate        time.Time `gorm:"not null" json:"from_date"`
	ToDate          time.Time `gorm:"not null" json:"to_date"`
	HostHouseholdID uuid.UUID `gorm:"type:uuid;not null" json:"host_household_id"`
	Reason          string    `gorm:"type:varchar(255);not null" json:"reason"`
	Status          string    `gorm:"type:varchar(20);not null;default:new" json:"status"`
	RegisteredBy    uuid.UUID `gorm:"type:uuid;not null" json:"registered_by"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (t *TempResidence) BeforeCreate(_ *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
