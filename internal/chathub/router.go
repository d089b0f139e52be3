package chathub

import (
	"context"
	"encoding/json"
	"log"

	"github.com/olegdemchenko/chat-service/internal/models"
	"github.com/olegdemchenko/chat-service/internal/session"
	"github.com/olegdemchenko/chat-service/internal/storage"
)

// HandlerFunc processes one client event and returns the reply payload, or an
// error that the dispatcher turns into a customError.
type HandlerFunc func(ctx context.Context, client Client, payload json.RawMessage) (interface{}, error)

type errorPayload struct {
	Message string `json:"message"`
}

// Router maps event names to handlers. The table is built once at startup;
// there is no reflective or decorator-based dispatch.
type Router struct {
	Hub      *Hub
	Storage  storage.Storage
	Registry *session.Registry

	handlers map[string]HandlerFunc
}

func NewRouter(hub *Hub, s storage.Storage, registry *session.Registry) *Router {
	r := &Router{Hub: hub, Storage: s, Registry: registry}
	r.handlers = map[string]HandlerFunc{
		models.EventFindUsers:        r.handleFindUsers,
		models.EventIsUserOnline:     r.handleIsUserOnline,
		models.EventFindRoom:         r.handleFindRoom,
		models.EventCreateRoom:       r.handleCreateRoom,
		models.EventConnectToRoom:    r.handleConnectToRoom,
		models.EventLeaveRoom:        r.handleLeaveRoom,
		models.EventDeleteRoom:       r.handleLeaveRoom,
		models.EventMessage:          r.handleSendMessage,
		models.EventUpdateMessage:    r.handleUpdateMessage,
		models.EventDeleteMessage:    r.handleDeleteMessage,
		models.EventReadMessages:     r.handleReadMessages,
		models.EventLoadMoreMessages: r.handleLoadMoreMessages,
		models.EventGetUserRooms:     r.handleGetUserRooms,
	}
	return r
}

// Dispatch runs the handler for one inbound envelope synchronously, so every
// failure is observed here: it is either returned to the caller as a
// customError or logged, never lost as a stray rejection.
func (r *Router) Dispatch(ctx context.Context, client Client, env models.Envelope) {
	handler, ok := r.handlers[env.Event]
	if !ok {
		log.Printf("WARNING: Unknown event %q from connection %s", env.Event, client.GetConnID())
		r.replyError(client, env.ID, "unknown event: "+env.Event)
		return
	}

	result, err := handler(ctx, client, env.Payload)
	if err != nil {
		log.Printf("ERROR: %s handler failed for connection %s: %v", env.Event, client.GetConnID(), err)
		r.replyError(client, env.ID, env.Event+" failed")
		return
	}
	if env.ID == nil {
		// Fire-and-forget event, nothing to reply.
		return
	}
	r.reply(client, env.Event, env.ID, result)
}

func (r *Router) reply(client Client, event string, id *int64, payload interface{}) {
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Printf("ERROR: Failed to marshal %s reply: %v", event, err)
		return
	}
	r.Hub.deliver(client, models.Envelope{Event: event, ID: id, Payload: raw})
}

func (r *Router) replyError(client Client, id *int64, message string) {
	raw, _ := json.Marshal(errorPayload{Message: message})
	r.Hub.deliver(client, models.Envelope{Event: models.EventCustomError, ID: id, Payload: raw})
}
