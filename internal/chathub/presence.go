package chathub

import (
	"context"
	"log"

	"github.com/olegdemchenko/chat-service/internal/models"
	"github.com/olegdemchenko/chat-service/internal/session"
	"github.com/olegdemchenko/chat-service/internal/storage"
)

// presencePayload is the body of userOnline/userOffline pushes.
type presencePayload struct {
	UserID string `json:"userId"`
}

// Presence coordinates the connect/disconnect lifecycle: it binds the
// connection to its user, recomputes the user's broadcast groups from the
// durable active-participant sets, and announces the online transition.
type Presence struct {
	Hub      *Hub
	Registry *session.Registry
	Storage  storage.Storage
}

func NewPresence(hub *Hub, registry *session.Registry, s storage.Storage) *Presence {
	return &Presence{Hub: hub, Registry: registry, Storage: s}
}

// HandleConnect wires an authenticated connection into the engine. Group
// membership is derived from the active rooms at this moment; rooms created or
// joined later are added by their handlers.
func (p *Presence) HandleConnect(ctx context.Context, client Client) error {
	if err := p.Registry.Bind(ctx, client.GetConnID(), client.GetUserID()); err != nil {
		return err
	}

	roomIDs, err := p.Storage.GetUserRoomIDs(client.GetUserID())
	if err != nil {
		return err
	}
	for _, roomID := range roomIDs {
		p.Hub.JoinRoom(client, roomID)
		if err := p.Hub.BroadcastRoom(roomID, models.EventUserOnline,
			presencePayload{UserID: client.GetUserID()}, client.GetConnID()); err != nil {
			log.Printf("ERROR: Failed to announce user %s online in room %s: %v",
				client.GetUserID(), roomID, err)
		}
	}
	return nil
}

// HandleDisconnect announces the offline transition to the groups the
// connection was subscribed to, unsubscribes it and tears down the registry
// binding. Safe to call when nothing was set up.
func (p *Presence) HandleDisconnect(ctx context.Context, client Client) {
	connID := client.GetConnID()
	for _, roomID := range p.Hub.RoomsOf(connID) {
		if err := p.Hub.BroadcastRoom(roomID, models.EventUserOffline,
			presencePayload{UserID: client.GetUserID()}, connID); err != nil {
			log.Printf("ERROR: Failed to announce user %s offline in room %s: %v",
				client.GetUserID(), roomID, err)
		}
		p.Hub.LeaveRoom(connID, roomID)
	}
	if err := p.Registry.Unbind(ctx, connID); err != nil {
		log.Printf("ERROR: Failed to unbind connection %s: %v", connID, err)
	}
	p.Hub.UnregisterCh <- client
}
