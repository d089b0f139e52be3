package chathub

import (
	"context"
	"encoding/json"

	"github.com/olegdemchenko/chat-service/internal/models"
)

type sendMessagePayload struct {
	RoomID string `json:"roomId"`
	Text   string `json:"text"`
}

type updateMessagePayload struct {
	RoomID    string `json:"roomId"`
	MessageID string `json:"messageId"`
	NewText   string `json:"newText"`
}

type deleteMessagePayload struct {
	RoomID    string `json:"roomId"`
	MessageID string `json:"messageId"`
}

type readMessagesPayload struct {
	MessageIDs []string `json:"messageIds"`
}

// messagePush is the body of message / message:update pushes.
type messagePush struct {
	RoomID  string         `json:"roomId"`
	Message models.Message `json:"message"`
}

// messageDeletePush is the body of message:delete pushes.
type messageDeletePush struct {
	RoomID    string `json:"roomId"`
	MessageID string `json:"messageId"`
}

// handleSendMessage persists the message, fans it out to everyone in the room
// except the sender and acknowledges the sender with the persisted form.
func (r *Router) handleSendMessage(_ context.Context, client Client, payload json.RawMessage) (interface{}, error) {
	var p sendMessagePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, err
	}
	room, err := r.Storage.GetRoomByID(p.RoomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, nil
	}

	msg, err := r.Storage.CreateMessage(p.RoomID, client.GetUserID(), p.Text)
	if err != nil {
		return nil, err
	}
	if err := r.Hub.BroadcastRoom(p.RoomID, models.EventMessage,
		messagePush{RoomID: p.RoomID, Message: *msg}, client.GetConnID()); err != nil {
		return nil, err
	}
	return msg, nil
}

// sendSystemNotice persists a system-authored message and fans it out to every
// member of the room, the triggering connection included.
func (r *Router) sendSystemNotice(roomID, text string) error {
	msg, err := r.Storage.CreateMessage(roomID, models.SystemAuthor, text)
	if err != nil {
		return err
	}
	return r.Hub.BroadcastRoom(roomID, models.EventMessage,
		messagePush{RoomID: roomID, Message: *msg}, "")
}

func (r *Router) handleUpdateMessage(_ context.Context, client Client, payload json.RawMessage) (interface{}, error) {
	var p updateMessagePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, err
	}
	msg, err := r.Storage.UpdateMessageText(p.MessageID, p.NewText)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, nil
	}
	if err := r.Hub.BroadcastRoom(p.RoomID, models.EventUpdateMessage,
		messagePush{RoomID: p.RoomID, Message: *msg}, client.GetConnID()); err != nil {
		return nil, err
	}
	return msg, nil
}

// handleDeleteMessage broadcasts the deletion before removing the record, so
// no subscriber can observe a reference the store no longer resolves. Deleting
// an already deleted message is a no-op.
func (r *Router) handleDeleteMessage(_ context.Context, client Client, payload json.RawMessage) (interface{}, error) {
	var p deleteMessagePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, err
	}
	if err := r.Hub.BroadcastRoom(p.RoomID, models.EventDeleteMessage,
		messageDeletePush{RoomID: p.RoomID, MessageID: p.MessageID}, client.GetConnID()); err != nil {
		return nil, err
	}
	if err := r.Storage.DeleteMessage(p.MessageID); err != nil {
		return nil, err
	}
	return true, nil
}

// handleReadMessages is fire-and-forget: read receipts are only visible via
// recomputed unread counts, no broadcast follows.
func (r *Router) handleReadMessages(_ context.Context, client Client, payload json.RawMessage) (interface{}, error) {
	var p readMessagesPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, err
	}
	if err := r.Storage.MarkMessagesRead(p.MessageIDs, client.GetUserID()); err != nil {
		return nil, err
	}
	return nil, nil
}
