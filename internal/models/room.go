package models

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Room is a conversation between two (or more) users. Messages live in their
// own table and reference the room by id; the room only tracks membership.
type Room struct {
	// RoomID is the unique identifier of the room (UUID).
	RoomID string `gorm:"primaryKey" json:"roomId"`
	// PairKey is the normalized key of the founding participant pair. The unique
	// index on it closes the concurrent find-or-create race at the store level.
	PairKey string `gorm:"uniqueIndex;not null" json:"-"`
	// Participants is the ever growing set of users that ever belonged to the room.
	Participants pq.StringArray `gorm:"type:text[];default:'{}'" json:"-"`
	// ActiveParticipants is the subset of Participants currently in the conversation.
	ActiveParticipants pq.StringArray `gorm:"type:text[];default:'{}'" json:"-"`
	// CreatedAt is the room creation timestamp.
	CreatedAt time.Time `json:"-"`
}

// BeforeCreate assigns a fresh UUID when the RoomID is not set yet.
func (r *Room) BeforeCreate(tx *gorm.DB) (err error) {
	if r.RoomID == "" {
		r.RoomID = uuid.New().String()
	}
	return
}

// PairKeyFor builds the order-independent lookup key for a set of participant ids.
func PairKeyFor(participantIDs ...string) string {
	ids := make([]string, len(participantIDs))
	copy(ids, participantIDs)
	sort.Strings(ids)
	return strings.Join(ids, ":")
}
