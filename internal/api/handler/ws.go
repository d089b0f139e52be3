package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/olegdemchenko/chat-service/internal/auth"
	"github.com/olegdemchenko/chat-service/internal/chathub"
	"github.com/olegdemchenko/chat-service/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allows connections from any origin. Tighten for production.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWebSocket upgrades the HTTP connection, resolves the bearer credential
// into a durable user and hands the connection to the engine. An invalid
// credential gets a customError envelope and the connection is refused; the
// process is never torn down by a bad token.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	token := bearerToken(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to upgrade connection"})
		return
	}

	ctx := c.Request.Context()
	user, err := h.resolveUser(ctx, token)
	if err != nil {
		writeCustomError(conn, "User token is invalid")
		conn.Close()
		if !errors.Is(err, auth.ErrInvalidToken) {
			log.Printf("ERROR: Authentication failed: %v", err)
		}
		return
	}

	client := &chathub.WebSocketClient{
		ConnID:   uuid.New().String(),
		UserID:   user.UserID,
		Conn:     conn,
		Hub:      h.Hub,
		Router:   h.Router,
		Presence: h.Presence,
		Send:     make(chan models.Envelope, 256),
	}

	h.Hub.RegisterCh <- client
	if err := h.Presence.HandleConnect(context.Background(), client); err != nil {
		log.Printf("ERROR: Failed to set up presence for user %s: %v", user.UserID, err)
		writeCustomError(conn, "Failed to establish session")
		h.Hub.UnregisterCh <- client
		conn.Close()
		return
	}

	client.Run()
}

// resolveUser authenticates the token and upserts the durable user record:
// find by external id, create on first contact.
func (h *Handler) resolveUser(ctx context.Context, token string) (*models.User, error) {
	info, err := h.Auth.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	user, err := h.Storage.FindUserByExternalID(info.ID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		user = &models.User{
			ExternalID: info.ID,
			Name:       info.Name,
			Email:      info.Email,
		}
		if err := h.Storage.CreateUser(user); err != nil {
			return nil, err
		}
		log.Printf("INFO: New user %s registered (external id %s)", user.UserID, info.ID)
	}
	return user, nil
}

func bearerToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return c.Query("token")
}

func writeCustomError(conn *websocket.Conn, message string) {
	payload, _ := json.Marshal(gin.H{"message": message})
	data, _ := json.Marshal(models.Envelope{Event: models.EventCustomError, Payload: payload})
	conn.WriteMessage(websocket.TextMessage, data)
}
