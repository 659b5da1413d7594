package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Complaint statuses
const (
	ComplaintStatusNew      = "new"
	ComplaintStatusPending  = "pending"
	ComplaintStatusResolved = "resolved"
)

// Complaint is a citizen-filed report. Repeated submissions with the same
// normalized content are merged into the existing row by bumping
// DuplicateCount instead of inserting a second complaint.
type Complaint struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ReporterPersonID uuid.UUID `gorm:"type:uuid;not null;index" json:"reporter_person_id"`
	Content          string    `gorm:"type:varchar(1000);not null" json:"content"`
	Category         string    `gorm:"type:varchar(100);not null" json:"category"`
	Status           string    `gorm:"type:varchar(20);not null;default:new" json:"status"`
	CreatedBy        uuid.UUID `gorm:"type:uuid;not null" json:"created_by"`
	DuplicateCount   int       `gorm:"not null;default:1" json:"duplicate_count"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c *Complaint) BeforeCreate(_ *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// ComplaintReport links each individual submission (including merged
// duplicates) back to the reporting person
type ComplaintReport struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ComplaintID      uuid.UUID `gorm:"type:uuid;not null;index" json:"complaint_id"`
	ReporterPersonID uuid.UUID `gorm:"type:uuid;not null" json:"reporter_person_id"`
	ReportedAt       time.Time `gorm:"autoCreateTime" json:"reported_at"`
}

func (r *ComplaintReport) BeforeCreate(_ *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// Notification is an in-app message for a user (e.g. complaint status changes)
type Notification struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Title     string    `gorm:"type:varchar(255);not null" json:"title"`
	Body      string    `gorm:"type:varchar(1000);not null" json:"body"`
	IsRead    bool      `gorm:"not null;default:false" json:"is_read"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (n *Notification) BeforeCreate(_ *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
