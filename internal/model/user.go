package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents an authenticated actor (principal). Users are never hard
// deleted — deactivation flips IsActive and the access guard re-checks it on
// every request.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username     string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"type:varchar(100);index" json:"email"`
	Phone        string    `gorm:"type:varchar(20)" json:"phone"`
	FullName     string    `gorm:"type:varchar(100)" json:"full_name"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"` // Omit password hash from JSON requests/responses
	IsActive     bool      `gorm:"not null;default:true" json:"is_active"`
	Roles        []Role    `gorm:"many2many:user_roles;" json:"roles,omitempty"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// RefreshToken is the persisted side of a long-lived refresh credential. Only
// the SHA-256 fingerprint of the plaintext is stored; the plaintext is handed
// to the client exactly once at issuance and is not recoverable from this row.
type RefreshToken struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User       User      `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	TokenHash  string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"-"`
	DeviceInfo string    `gorm:"type:varchar(255)" json:"device_info"`
	Revoked    bool      `gorm:"not null;default:false" json:"revoked"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	ExpiresAt  time.Time `gorm:"not null;index" json:"expires_at"`
}

func (t *RefreshToken) BeforeCreate(_ *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// Active reports whether the token can still be used at the given instant.
func (t *RefreshToken) Active(now time.Time) bool {
	return !t.Revoked && now.Before(t.ExpiresAt)
}
