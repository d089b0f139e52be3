package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// User represents a durable chat identity. A record is created on the first
// successful authentication of a previously unseen external id and is never
// deleted afterwards.
type User struct {
	// UserID is the durable, opaque identifier used everywhere inside the engine (UUID).
	UserID string `gorm:"primaryKey" json:"userId"`
	// ExternalID is the stable id assigned by the external identity provider.
	ExternalID string `gorm:"uniqueIndex;not null" json:"-"`
	// Name is the unique display name reported by the identity provider.
	Name string `gorm:"uniqueIndex;not null" json:"name"`
	// Email is optional; the identity provider may not expose one.
	Email *string `json:"-"`
	// Rooms holds the ids of rooms the user is a member of.
	Rooms pq.StringArray `gorm:"type:text[];default:'{}'" json:"-"`
}

// BeforeCreate is a GORM hook that assigns a fresh UUID when the UserID is not
// set yet.
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.UserID == "" {
		u.UserID = uuid.New().String()
	}
	return
}
