package handler

import (
	"github.com/olegdemchenko/chat-service/internal/auth"
	"github.com/olegdemchenko/chat-service/internal/chathub"
	"github.com/olegdemchenko/chat-service/internal/storage"
)

// Handler wires the HTTP surface to the engine.
type Handler struct {
	Hub      *chathub.Hub
	Router   *chathub.Router
	Presence *chathub.Presence
	Storage  storage.Storage
	Auth     auth.Provider
	// DevAuth issues local tokens when no external identity provider is
	// configured; nil otherwise.
	DevAuth *auth.JWTProvider
}

func NewHandler(hub *chathub.Hub, router *chathub.Router, presence *chathub.Presence,
	s storage.Storage, provider auth.Provider, devAuth *auth.JWTProvider) *Handler {
	return &Handler{
		Hub:      hub,
		Router:   router,
		Presence: presence,
		Storage:  s,
		Auth:     provider,
		DevAuth:  devAuth,
	}
}
