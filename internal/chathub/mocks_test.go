package chathub_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/olegdemchenko/chat-service/internal/chathub"
	"github.com/olegdemchenko/chat-service/internal/models"
	"github.com/olegdemchenko/chat-service/internal/session"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockStorage is a mock implementation of the storage.Storage interface.
// It uses testify/mock to allow flexible expectation setting in tests.
type MockStorage struct {
	mock.Mock
}

// User operations
func (m *MockStorage) FindUserByExternalID(externalID string) (*models.User, error) {
	args := m.Called(externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStorage) CreateUser(user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockStorage) GetUserByID(userID string) (*models.User, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStorage) GetUsersByIDs(userIDs []string) ([]models.User, error) {
	args := m.Called(userIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockStorage) FindUsers(query, excludeUserID string, page, limit int) ([]models.User, int64, error) {
	args := m.Called(query, excludeUserID, page, limit)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockStorage) AddRoomToUser(userID, roomID string) error {
	args := m.Called(userID, roomID)
	return args.Error(0)
}

func (m *MockStorage) RemoveRoomFromUser(userID, roomID string) error {
	args := m.Called(userID, roomID)
	return args.Error(0)
}

// Room operations
func (m *MockStorage) CreateRoom(participantIDs []string) (*models.Room, error) {
	args := m.Called(participantIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Room), args.Error(1)
}

func (m *MockStorage) FindRoomByParticipants(participantIDs []string) (*models.Room, error) {
	args := m.Called(participantIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Room), args.Error(1)
}

func (m *MockStorage) GetRoomByID(roomID string) (*models.Room, error) {
	args := m.Called(roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Room), args.Error(1)
}

func (m *MockStorage) AddActiveParticipant(roomID, userID string) error {
	args := m.Called(roomID, userID)
	return args.Error(0)
}

func (m *MockStorage) RemoveActiveParticipant(roomID, userID string) error {
	args := m.Called(roomID, userID)
	return args.Error(0)
}

func (m *MockStorage) GetUserRooms(userID string) ([]models.Room, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Room), args.Error(1)
}

func (m *MockStorage) GetUserRoomIDs(userID string) ([]string, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockStorage) DeleteRoom(roomID string) error {
	args := m.Called(roomID)
	return args.Error(0)
}

// Message operations
func (m *MockStorage) CreateMessage(roomID, author, text string) (*models.Message, error) {
	args := m.Called(roomID, author, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

func (m *MockStorage) UpdateMessageText(messageID, newText string) (*models.Message, error) {
	args := m.Called(messageID, newText)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

func (m *MockStorage) DeleteMessage(messageID string) error {
	args := m.Called(messageID)
	return args.Error(0)
}

func (m *MockStorage) MarkMessagesRead(messageIDs []string, userID string) error {
	args := m.Called(messageIDs, userID)
	return args.Error(0)
}

func (m *MockStorage) LoadMessages(roomID string, skip, limit int) ([]models.Message, error) {
	args := m.Called(roomID, skip, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Message), args.Error(1)
}

func (m *MockStorage) CountMessages(roomID string) (int64, error) {
	args := m.Called(roomID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStorage) CountUnread(roomID, userID string) (int64, error) {
	args := m.Called(roomID, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStorage) PublishFrame(channel string, frame models.Frame) error {
	args := m.Called(channel, frame)
	return args.Error(0)
}

// mockClient implements the chathub.Client interface for tests. Delivered
// envelopes are collected in RecvChannel.
type mockClient struct {
	connID      string
	userID      string
	RecvChannel chan models.Envelope
}

func newMockClient(connID, userID string) *mockClient {
	return &mockClient{
		connID:      connID,
		userID:      userID,
		RecvChannel: make(chan models.Envelope, 16),
	}
}

func (c *mockClient) GetConnID() string                      { return c.connID }
func (c *mockClient) GetUserID() string                      { return c.userID }
func (c *mockClient) GetSendChannel() chan<- models.Envelope { return c.RecvChannel }
func (c *mockClient) Run()                                   {}
func (c *mockClient) Close()                                 {}

// fakeSessionStore is an in-memory session.Store for tests.
type fakeSessionStore struct {
	mu   sync.Mutex
	kv   map[string]string
	sets map[string]map[string]bool
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{
		kv:   make(map[string]string),
		sets: make(map[string]map[string]bool),
	}
}

func (s *fakeSessionStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	val, ok := s.kv[key]
	if !ok {
		return "", session.ErrNotFound
	}
	return val, nil
}

func (s *fakeSessionStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kv[key] = value
	return nil
}

func (s *fakeSessionStore) Del(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.kv, key)
	return nil
}

func (s *fakeSessionStore) SetAdd(_ context.Context, key, member string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sets[key] == nil {
		s.sets[key] = make(map[string]bool)
	}
	s.sets[key][member] = true
	return nil
}

func (s *fakeSessionStore) SetRemove(_ context.Context, key, member string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sets[key], member)
	return nil
}

func (s *fakeSessionStore) SetIsMember(_ context.Context, key, member string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sets[key][member], nil
}

func (s *fakeSessionStore) SetMembers(_ context.Context, key string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	members := make([]string, 0, len(s.sets[key]))
	for member := range s.sets[key] {
		members = append(members, member)
	}
	return members, nil
}

// dispatch marshals the payload, dispatches it through the router with a
// request id and returns the reply envelope delivered to the client.
func dispatch(t *testing.T, router *chathub.Router, client *mockClient, event string, payload interface{}) models.Envelope {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	id := int64(1)
	router.Dispatch(context.Background(), client, models.Envelope{Event: event, ID: &id, Payload: raw})
	select {
	case env := <-client.RecvChannel:
		return env
	default:
		t.Fatalf("no reply for event %s", event)
		return models.Envelope{}
	}
}
