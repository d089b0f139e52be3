package chathub

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/olegdemchenko/chat-service/internal/config"
	"github.com/olegdemchenko/chat-service/internal/models"

	"github.com/samber/lo"
)

type findRoomPayload struct {
	UserIDs []string `json:"userIds"`
}

type createRoomPayload struct {
	UserID string `json:"userId"`
}

type roomIDPayload struct {
	RoomID string `json:"roomId"`
}

type loadMorePayload struct {
	RoomID string `json:"roomId"`
	Skip   int    `json:"skip"`
}

// buildRoomSummary enriches a room for one viewer: the other participants'
// identities and online statuses, the most recent message page and the counts.
// Enrichment is explicit id-based lookups, not stored object graphs.
func (r *Router) buildRoomSummary(ctx context.Context, room *models.Room, viewerID string) (*models.RoomSummary, error) {
	otherIDs := lo.Filter(room.Participants, func(id string, _ int) bool {
		return id != viewerID
	})
	users, err := r.Storage.GetUsersByIDs(otherIDs)
	if err != nil {
		return nil, err
	}
	participants := make([]models.Participant, 0, len(users))
	for _, u := range users {
		online, err := r.Registry.IsOnline(ctx, u.UserID)
		if err != nil {
			log.Printf("WARNING: Failed to check online status of %s: %v", u.UserID, err)
		}
		participants = append(participants, models.Participant{
			UserID:   u.UserID,
			Name:     u.Name,
			IsOnline: online,
		})
	}

	messages, err := r.Storage.LoadMessages(room.RoomID, 0, config.MessagesPerPage)
	if err != nil {
		return nil, err
	}
	count, err := r.Storage.CountMessages(room.RoomID)
	if err != nil {
		return nil, err
	}
	unread, err := r.Storage.CountUnread(room.RoomID, viewerID)
	if err != nil {
		return nil, err
	}

	return &models.RoomSummary{
		RoomID:              room.RoomID,
		Participants:        participants,
		Messages:            messages,
		MessagesCount:       count,
		UnreadMessagesCount: unread,
	}, nil
}

func (r *Router) handleGetUserRooms(ctx context.Context, client Client, _ json.RawMessage) (interface{}, error) {
	rooms, err := r.Storage.GetUserRooms(client.GetUserID())
	if err != nil {
		return nil, err
	}
	summaries := make([]models.RoomSummary, 0, len(rooms))
	for i := range rooms {
		summary, err := r.buildRoomSummary(ctx, &rooms[i], client.GetUserID())
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, *summary)
	}
	return summaries, nil
}

func (r *Router) handleFindRoom(ctx context.Context, client Client, payload json.RawMessage) (interface{}, error) {
	var p findRoomPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, err
	}
	ids := p.UserIDs
	if !lo.Contains(ids, client.GetUserID()) {
		ids = append(ids, client.GetUserID())
	}
	room, err := r.Storage.FindRoomByParticipants(ids)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, nil
	}
	return r.buildRoomSummary(ctx, room, client.GetUserID())
}

func (r *Router) handleCreateRoom(ctx context.Context, client Client, payload json.RawMessage) (interface{}, error) {
	var p createRoomPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, err
	}
	caller := client.GetUserID()
	if p.UserID == "" || p.UserID == caller {
		return nil, fmt.Errorf("invalid peer id %q", p.UserID)
	}

	room, err := r.Storage.CreateRoom([]string{caller, p.UserID})
	if err != nil {
		return nil, err
	}
	if err := r.Storage.AddRoomToUser(caller, room.RoomID); err != nil {
		return nil, err
	}
	if err := r.Storage.AddRoomToUser(p.UserID, room.RoomID); err != nil {
		return nil, err
	}
	r.Hub.JoinRoom(client, room.RoomID)

	// A currently online peer learns about the room immediately; the newRoom
	// frame also joins their connection to the room's group on delivery.
	online, err := r.Registry.IsOnline(ctx, p.UserID)
	if err != nil {
		log.Printf("WARNING: Failed to check online status of %s: %v", p.UserID, err)
	}
	if online {
		peerConn, err := r.Registry.ResolveConn(ctx, p.UserID)
		if err == nil {
			peerView, err := r.buildRoomSummary(ctx, room, p.UserID)
			if err != nil {
				return nil, err
			}
			if err := r.Hub.SendDirect(peerConn, room.RoomID, models.EventNewRoom, peerView); err != nil {
				log.Printf("ERROR: Failed to notify peer %s about room %s: %v", p.UserID, room.RoomID, err)
			}
		}
	}

	return r.buildRoomSummary(ctx, room, caller)
}

func (r *Router) handleConnectToRoom(ctx context.Context, client Client, payload json.RawMessage) (interface{}, error) {
	var p roomIDPayload
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

	caller := client.GetUserID()
	if err := r.Storage.AddActiveParticipant(p.RoomID, caller); err != nil {
		return nil, err
	}
	if err := r.Storage.AddRoomToUser(caller, p.RoomID); err != nil {
		return nil, err
	}
	r.Hub.JoinRoom(client, p.RoomID)

	if err := r.sendSystemNotice(p.RoomID, fmt.Sprintf("User %s joined the conversation", r.userName(caller))); err != nil {
		return nil, err
	}
	return true, nil
}

// handleLeaveRoom serves both leaveRoom and deleteRoom. When the leaver is one
// of the last two active participants, the room would drop below two parties
// and is destroyed together with its whole history; otherwise only the active
// set shrinks and the remaining members get a system notice.
func (r *Router) handleLeaveRoom(ctx context.Context, client Client, payload json.RawMessage) (interface{}, error) {
	var p roomIDPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, err
	}
	caller := client.GetUserID()

	room, err := r.Storage.GetRoomByID(p.RoomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		// Already gone, likely deleted by the other party.
		r.Hub.LeaveRoom(client.GetConnID(), p.RoomID)
		return true, nil
	}

	if err := r.Storage.RemoveRoomFromUser(caller, p.RoomID); err != nil {
		return nil, err
	}

	if lo.Contains(room.ActiveParticipants, caller) {
		if len(room.ActiveParticipants) <= 2 {
			if err := r.Storage.DeleteRoom(p.RoomID); err != nil {
				return nil, err
			}
		} else {
			if err := r.Storage.RemoveActiveParticipant(p.RoomID, caller); err != nil {
				return nil, err
			}
			if err := r.sendSystemNotice(p.RoomID, fmt.Sprintf("User %s left the conversation", r.userName(caller))); err != nil {
				return nil, err
			}
		}
	}

	r.Hub.LeaveRoom(client.GetConnID(), p.RoomID)
	return true, nil
}

func (r *Router) handleLoadMoreMessages(_ context.Context, _ Client, payload json.RawMessage) (interface{}, error) {
	var p loadMorePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, err
	}
	return r.Storage.LoadMessages(p.RoomID, p.Skip, config.MessagesPerPage)
}

func (r *Router) userName(userID string) string {
	user, err := r.Storage.GetUserByID(userID)
	if err != nil || user == nil {
		return userID
	}
	return user.Name
}
