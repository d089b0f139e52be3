package models

import "encoding/json"

// Chat event names. The names are the wire contract shared with clients; the
// same constants double as Redis Pub/Sub frame labels for cross-process fan-out.
const (
	EventFindUsers        = "findUsers"
	EventIsUserOnline     = "isUserOnline"
	EventFindRoom         = "findRoom"
	EventCreateRoom       = "createRoom"
	EventConnectToRoom    = "connectToRoom"
	EventLeaveRoom        = "leaveRoom"
	EventDeleteRoom       = "deleteRoom"
	EventMessage          = "message"
	EventUpdateMessage    = "message:update"
	EventDeleteMessage    = "message:delete"
	EventReadMessages     = "readMessages"
	EventLoadMoreMessages = "loadMoreMessages"
	EventGetUserRooms     = "getUserRooms"

	// Server-to-client only.
	EventUserOnline  = "userOnline"
	EventUserOffline = "userOffline"
	EventNewRoom     = "newRoom"
	EventCustomError = "customError"
)

// Envelope is the framing of every WebSocket exchange. Client requests carry an
// ID; the matching reply echoes it. Server pushes have no ID.
type Envelope struct {
	Event   string          `json:"event"`
	ID      *int64          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Frame is the unit published to Redis so that every server process sharing the
// stores can deliver a broadcast to its local connections. ExcludeConn names
// the connection that must not receive a room frame (the sending one);
// TargetConn addresses a frame to exactly one connection instead.
type Frame struct {
	RoomID      string          `json:"roomId,omitempty"`
	Event       string          `json:"event"`
	ExcludeConn string          `json:"excludeConn,omitempty"`
	TargetConn  string          `json:"targetConn,omitempty"`
	Payload     json.RawMessage `json:"payload"`
}

// Participant is the identity slice of a room member exposed to clients.
type Participant struct {
	UserID   string `json:"userId"`
	Name     string `json:"name"`
	IsOnline bool   `json:"isOnline"`
}

// RoomSummary is the enriched view of a room returned by getUserRooms,
// findRoom and createRoom.
type RoomSummary struct {
	RoomID              string        `json:"roomId"`
	Participants        []Participant `json:"participants"`
	Messages            []Message     `json:"messages"`
	MessagesCount       int64         `json:"messagesCount"`
	UnreadMessagesCount int64         `json:"unreadMessagesCount"`
}

// UserMatch is one findUsers result row.
type UserMatch struct {
	UserID   string `json:"userId"`
	Name     string `json:"name"`
	IsOnline bool   `json:"isOnline"`
}

// FindUsersResult is the findUsers reply: one page of matches plus the total
// number of matching users.
type FindUsersResult struct {
	Users []UserMatch `json:"users"`
	Total int64       `json:"total"`
}
