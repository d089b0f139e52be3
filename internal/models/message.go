package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// SystemAuthor is the sentinel author id used for join/leave notices.
const SystemAuthor = "system"

// Message is a single chat message. It belongs to exactly one room and is
// deleted either individually or together with its room.
type Message struct {
	// MessageID is the unique identifier of the message (UUID).
	MessageID string `gorm:"primaryKey" json:"messageId"`
	// RoomID references the owning room.
	RoomID string `gorm:"index;not null" json:"-"`
	// Author is the UserID of the sender, or SystemAuthor for notices.
	Author string `gorm:"not null" json:"author"`
	// Text is the message body.
	Text string `gorm:"type:text;not null" json:"text"`
	// ReadBy grows monotonically and is seeded with the author at creation.
	ReadBy    pq.StringArray `gorm:"type:text[];default:'{}'" json:"readBy"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// BeforeCreate assigns a fresh UUID and seeds ReadBy with the author.
func (m *Message) BeforeCreate(tx *gorm.DB) (err error) {
	if m.MessageID == "" {
		m.MessageID = uuid.New().String()
	}
	if len(m.ReadBy) == 0 {
		m.ReadBy = pq.StringArray{m.Author}
	}
	return
}
