package chathub

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/olegdemchenko/chat-service/internal/models"
	"github.com/olegdemchenko/chat-service/internal/storage"

	"github.com/redis/go-redis/v9"
)

// Hub owns every live connection of this process and the local room broadcast
// groups. All fan-out travels through Redis Pub/Sub, so the groups of every
// process sharing the stores stay consistent: a frame published by any process
// is delivered by the process that owns the target connection.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]Client            // connID -> client
	rooms   map[string]map[string]Client // roomID -> connID -> client
	joined  map[string]map[string]bool   // connID -> roomID set (reverse index)

	RegisterCh   chan Client
	UnregisterCh chan Client
	// PubSubCh carries fan-out frames, normally fed by the Redis listener.
	PubSubCh chan models.Frame

	Storage storage.Storage
	Redis   *redis.Client
}

// NewHub builds a hub. rdb may be nil in tests; the Pub/Sub listener is only
// started when a Redis client is present.
func NewHub(s storage.Storage, rdb *redis.Client) *Hub {
	return &Hub{
		clients:      make(map[string]Client),
		rooms:        make(map[string]map[string]Client),
		joined:       make(map[string]map[string]bool),
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		PubSubCh:     make(chan models.Frame, 64),
		Storage:      s,
		Redis:        rdb,
	}
}

// Run is the hub's dispatcher goroutine.
func (h *Hub) Run() {
	if h.Redis != nil {
		h.StartPubSubListener()
	}

	for {
		select {
		case client := <-h.RegisterCh:
			h.mu.Lock()
			h.clients[client.GetConnID()] = client
			h.mu.Unlock()

		case client := <-h.UnregisterCh:
			h.removeClient(client)

		case frame := <-h.PubSubCh:
			h.handleFrame(frame)
		}
	}
}

func (h *Hub) removeClient(client Client) {
	connID := client.GetConnID()
	h.mu.Lock()
	if _, ok := h.clients[connID]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, connID)
	for roomID := range h.joined[connID] {
		delete(h.rooms[roomID], connID)
		if len(h.rooms[roomID]) == 0 {
			delete(h.rooms, roomID)
		}
	}
	delete(h.joined, connID)
	h.mu.Unlock()
	client.Close()
}

// handleFrame delivers one fan-out frame to the local connections it targets.
func (h *Hub) handleFrame(frame models.Frame) {
	env := models.Envelope{Event: frame.Event, Payload: frame.Payload}

	if frame.TargetConn != "" {
		h.mu.RLock()
		client, ok := h.clients[frame.TargetConn]
		h.mu.RUnlock()
		if !ok {
			// The connection lives on another process, or is already gone.
			return
		}
		// A newRoom frame also subscribes the receiving connection to the
		// fresh room's group, so later broadcasts reach it.
		if frame.Event == models.EventNewRoom && frame.RoomID != "" {
			h.JoinRoom(client, frame.RoomID)
		}
		h.deliver(client, env)
		return
	}

	h.mu.RLock()
	members := make([]Client, 0, len(h.rooms[frame.RoomID]))
	for connID, client := range h.rooms[frame.RoomID] {
		if connID == frame.ExcludeConn {
			continue
		}
		members = append(members, client)
	}
	h.mu.RUnlock()

	for _, client := range members {
		h.deliver(client, env)
	}
}

// deliver is best effort: a connection that cannot keep up loses the event
// instead of stalling the dispatcher.
func (h *Hub) deliver(client Client, env models.Envelope) {
	select {
	case client.GetSendChannel() <- env:
	default:
		log.Printf("WARNING: dropping %s event for slow connection %s", env.Event, client.GetConnID())
	}
}

// JoinRoom subscribes a connection to a room's local broadcast group.
func (h *Hub) JoinRoom(client Client, roomID string) {
	connID := client.GetConnID()
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[string]Client)
	}
	h.rooms[roomID][connID] = client
	if h.joined[connID] == nil {
		h.joined[connID] = make(map[string]bool)
	}
	h.joined[connID][roomID] = true
}

// LeaveRoom unsubscribes a connection from a room's group. Safe when the
// connection never joined.
func (h *Hub) LeaveRoom(connID, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members, ok := h.rooms[roomID]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(h.rooms, roomID)
		}
	}
	if rooms, ok := h.joined[connID]; ok {
		delete(rooms, roomID)
	}
}

// RoomsOf returns the ids of the rooms the connection is currently joined to.
func (h *Hub) RoomsOf(connID string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	roomIDs := make([]string, 0, len(h.joined[connID]))
	for roomID := range h.joined[connID] {
		roomIDs = append(roomIDs, roomID)
	}
	return roomIDs
}

// BroadcastRoom publishes an event to a room's group. excludeConn may name a
// connection to skip (the sender); empty means broadcast-all.
func (h *Hub) BroadcastRoom(roomID, event string, payload interface{}, excludeConn string) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return h.Storage.PublishFrame(roomChannel(roomID), models.Frame{
		RoomID:      roomID,
		Event:       event,
		ExcludeConn: excludeConn,
		Payload:     raw,
	})
}

// SendDirect publishes an event addressed to a single connection, wherever it
// lives. roomID is carried for frames that imply a group join on delivery.
func (h *Hub) SendDirect(connID, roomID, event string, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return h.Storage.PublishFrame(directChannel(connID), models.Frame{
		RoomID:     roomID,
		Event:      event,
		TargetConn: connID,
		Payload:    raw,
	})
}
