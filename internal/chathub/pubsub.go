package chathub

import (
	"context"
	"encoding/json"
	"log"

	"github.com/olegdemchenko/chat-service/internal/models"
)

const (
	roomChannelPrefix   = "room:"
	directChannelPrefix = "direct:"
)

func roomChannel(roomID string) string { return roomChannelPrefix + roomID }

func directChannel(connID string) string { return directChannelPrefix + connID }

// StartPubSubListener subscribes to every fan-out channel and feeds the
// received frames into the hub's dispatch loop. Every server process runs one
// listener; each delivers only to its own connections.
func (h *Hub) StartPubSubListener() {
	go func() {
		ctx := context.Background()
		pubsub := h.Redis.PSubscribe(ctx, roomChannelPrefix+"*", directChannelPrefix+"*")
		defer pubsub.Close()

		ch := pubsub.Channel()
		for msg := range ch {
			var frame models.Frame
			if err := json.Unmarshal([]byte(msg.Payload), &frame); err != nil {
				log.Printf("ERROR: Failed to unmarshal pubsub frame on %s: %v", msg.Channel, err)
				continue
			}
			h.PubSubCh <- frame
		}
	}()
}
