// Package store provides persistent storage for taskforge accounts, session
// tokens, and tasks.
package store

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Account represents a registered user. The password hash never leaves the
// credential path and is excluded from JSON serialization.
type Account struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name         string    `gorm:"not null" json:"name"`
	Age          *int      `json:"age,omitempty"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null" json:"updated_at"`

	// Relationships
	Tokens []SessionToken `gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE" json:"-"`
	Tasks  []Task         `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
}

// BeforeCreate hook for Account model.
func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}

// SessionToken is one live bearer credential for an account. An account holds
// one row per concurrent device or session.
type SessionToken struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	AccountID string    `gorm:"not null;index;type:varchar(36)" json:"account_id"`
	Token     string    `gorm:"not null;uniqueIndex" json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

// BeforeCreate hook for SessionToken model.
func (s *SessionToken) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}

// IsExpired checks if the token has expired.
func (s *SessionToken) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Task is owned by exactly one account.
type Task struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	OwnerID     string    `gorm:"not null;index;type:varchar(36)" json:"owner_id"`
	Description string    `gorm:"not null" json:"description"`
	IsCompleted bool      `gorm:"not null;default:false" json:"is_completed"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

// BeforeCreate hook for Task model.
func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	return nil
}
