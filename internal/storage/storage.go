package storage

import (
	"context"

	"github.com/olegdemchenko/chat-service/internal/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Storage is the durable document-store surface of the engine. Absence of a
// record is reported as a nil result, not as an error.
type Storage interface {
	// Users
	FindUserByExternalID(externalID string) (*models.User, error)
	CreateUser(user *models.User) error
	GetUserByID(userID string) (*models.User, error)
	GetUsersByIDs(userIDs []string) ([]models.User, error)
	FindUsers(query, excludeUserID string, page, limit int) ([]models.User, int64, error)
	AddRoomToUser(userID, roomID string) error
	RemoveRoomFromUser(userID, roomID string) error

	// Rooms
	CreateRoom(participantIDs []string) (*models.Room, error)
	FindRoomByParticipants(participantIDs []string) (*models.Room, error)
	GetRoomByID(roomID string) (*models.Room, error)
	AddActiveParticipant(roomID, userID string) error
	RemoveActiveParticipant(roomID, userID string) error
	GetUserRooms(userID string) ([]models.Room, error)
	GetUserRoomIDs(userID string) ([]string, error)
	DeleteRoom(roomID string) error

	// Messages
	CreateMessage(roomID, author, text string) (*models.Message, error)
	UpdateMessageText(messageID, newText string) (*models.Message, error)
	DeleteMessage(messageID string) error
	MarkMessagesRead(messageIDs []string, userID string) error
	LoadMessages(roomID string, skip, limit int) ([]models.Message, error)
	CountMessages(roomID string) (int64, error)
	CountUnread(roomID, userID string) (int64, error)

	PublishFrame(channel string, frame models.Frame) error
}

// Service implements Storage over PostgreSQL (documents) and Redis (fan-out).
type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
	Ctx   context.Context
}

// NewStorageService Constructor
func NewStorageService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{
		DB:    db,
		Redis: rdb,
		Ctx:   context.Background(),
	}
}
