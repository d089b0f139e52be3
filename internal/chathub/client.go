package chathub

import "github.com/olegdemchenko/chat-service/internal/models"

// Client is the interface for one live connection. It abstracts the transport
// so the hub can manage different client types uniformly.
type Client interface {
	// GetConnID returns the transport connection identifier.
	GetConnID() string
	// GetUserID returns the durable identity bound to the connection.
	GetUserID() string

	// GetSendChannel returns the channel the hub writes outbound envelopes to.
	// It is a send-only channel.
	GetSendChannel() chan<- models.Envelope

	// Run starts the client's read and write pumps.
	Run()
	// Close shuts down the client's connection and associated channels.
	Close()
}
