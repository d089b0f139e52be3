package chathub_test

import (
	"context"
	"testing"
	"time"

	"github.com/olegdemchenko/chat-service/internal/chathub"
	"github.com/olegdemchenko/chat-service/internal/models"
	"github.com/olegdemchenko/chat-service/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestPresence_HandleConnect(t *testing.T) {
	ctx := context.Background()
	storageMock := new(MockStorage)
	registry := session.NewRegistry(newFakeSessionStore())
	hub := chathub.NewHub(storageMock, nil)
	presence := chathub.NewPresence(hub, registry, storageMock)

	storageMock.On("GetUserRoomIDs", "user_A").Return([]string{"room1", "room2"}, nil)

	var published []models.Frame
	storageMock.On("PublishFrame", mock.AnythingOfType("string"), mock.AnythingOfType("models.Frame")).
		Run(func(args mock.Arguments) { published = append(published, args.Get(1).(models.Frame)) }).
		Return(nil)

	clientA := newMockClient("conn_A", "user_A")
	err := presence.HandleConnect(ctx, clientA)
	assert.NoError(t, err)

	online, err := registry.IsOnline(ctx, "user_A")
	assert.NoError(t, err)
	assert.True(t, online)

	assert.ElementsMatch(t, []string{"room1", "room2"}, hub.RoomsOf("conn_A"))

	assert.Len(t, published, 2)
	for _, frame := range published {
		assert.Equal(t, models.EventUserOnline, frame.Event)
		assert.Equal(t, "conn_A", frame.ExcludeConn)
	}
}

func TestPresence_HandleDisconnect(t *testing.T) {
	ctx := context.Background()
	storageMock := new(MockStorage)
	registry := session.NewRegistry(newFakeSessionStore())
	hub := chathub.NewHub(storageMock, nil)
	presence := chathub.NewPresence(hub, registry, storageMock)

	storageMock.On("GetUserRoomIDs", "user_A").Return([]string{"room1"}, nil)

	var published []models.Frame
	storageMock.On("PublishFrame", mock.AnythingOfType("string"), mock.AnythingOfType("models.Frame")).
		Run(func(args mock.Arguments) { published = append(published, args.Get(1).(models.Frame)) }).
		Return(nil)

	go hub.Run()

	clientA := newMockClient("conn_A", "user_A")
	hub.RegisterCh <- clientA
	assert.NoError(t, presence.HandleConnect(ctx, clientA))

	presence.HandleDisconnect(ctx, clientA)
	time.Sleep(100 * time.Millisecond)

	online, err := registry.IsOnline(ctx, "user_A")
	assert.NoError(t, err)
	assert.False(t, online)
	assert.Empty(t, hub.RoomsOf("conn_A"))

	events := make([]string, 0, len(published))
	for _, frame := range published {
		events = append(events, frame.Event)
	}
	assert.Contains(t, events, models.EventUserOffline)
}

// Disconnecting twice must not fail: the second teardown finds nothing to do.
func TestPresence_HandleDisconnectTwice(t *testing.T) {
	ctx := context.Background()
	storageMock := new(MockStorage)
	registry := session.NewRegistry(newFakeSessionStore())
	hub := chathub.NewHub(storageMock, nil)
	presence := chathub.NewPresence(hub, registry, storageMock)

	storageMock.On("GetUserRoomIDs", "user_A").Return([]string{}, nil)

	go hub.Run()

	clientA := newMockClient("conn_A", "user_A")
	hub.RegisterCh <- clientA
	assert.NoError(t, presence.HandleConnect(ctx, clientA))

	presence.HandleDisconnect(ctx, clientA)
	presence.HandleDisconnect(ctx, clientA)
	time.Sleep(100 * time.Millisecond)

	online, err := registry.IsOnline(ctx, "user_A")
	assert.NoError(t, err)
	assert.False(t, online)
}
