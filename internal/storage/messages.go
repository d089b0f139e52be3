package storage

import (
	"encoding/json"
	"errors"
	"log"

	"github.com/olegdemchenko/chat-service/internal/models"

	"gorm.io/gorm"
)

// CreateMessage persists a new message for a room. ReadBy is seeded with the
// author by the model hook, so the sender never counts toward their own unread.
func (s *Service) CreateMessage(roomID, author, text string) (*models.Message, error) {
	msg := &models.Message{
		RoomID: roomID,
		Author: author,
		Text:   text,
	}
	if err := s.DB.Create(msg).Error; err != nil {
		log.Printf("ERROR: Failed to save message for room %s: %v", roomID, err)
		return nil, err
	}
	return msg, nil
}

// UpdateMessageText replaces the text and bumps UpdatedAt, returning the new
// state. Returns nil when the message no longer exists.
func (s *Service) UpdateMessageText(messageID, newText string) (*models.Message, error) {
	res := s.DB.Model(&models.Message{}).
		Where("message_id = ?", messageID).
		Update("text", newText)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}

	var msg models.Message
	if err := s.DB.Where("message_id = ?", messageID).First(&msg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &msg, nil
}

// DeleteMessage removes the message record. Deleting twice is safe: the second
// call matches nothing and is a no-op.
func (s *Service) DeleteMessage(messageID string) error {
	return s.DB.Where("message_id = ?", messageID).Delete(&models.Message{}).Error
}

// MarkMessagesRead adds the user to the readBy set of each message with a
// single atomic update. The guard keeps the set monotonic: a user already in
// readBy is never appended again, so unread counts only ever decrease.
func (s *Service) MarkMessagesRead(messageIDs []string, userID string) error {
	if len(messageIDs) == 0 {
		return nil
	}
	return s.DB.Model(&models.Message{}).
		Where("message_id IN ? AND NOT (? = ANY(read_by))", messageIDs, userID).
		Update("read_by", gorm.Expr("array_append(read_by, ?)", userID)).Error
}

// LoadMessages returns one page of the room's history, newest first. The
// caller tracks skip across pages; no cursor token is issued.
func (s *Service) LoadMessages(roomID string, skip, limit int) ([]models.Message, error) {
	var messages []models.Message
	err := s.DB.Where("room_id = ?", roomID).
		Order("created_at desc").
		Offset(skip).
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		log.Printf("ERROR: Failed to load messages for room %s: %v", roomID, err)
		return nil, err
	}
	return messages, nil
}

func (s *Service) CountMessages(roomID string) (int64, error) {
	var count int64
	err := s.DB.Model(&models.Message{}).Where("room_id = ?", roomID).Count(&count).Error
	return count, err
}

// CountUnread computes the user's unread count for a room on demand. The cost
// scales with the room's message volume, which is acceptable for direct and
// small-group conversations.
func (s *Service) CountUnread(roomID, userID string) (int64, error) {
	var count int64
	err := s.DB.Model(&models.Message{}).
		Where("room_id = ? AND NOT (? = ANY(read_by))", roomID, userID).
		Count(&count).Error
	return count, err
}

// PublishFrame pushes a fan-out frame to a Redis channel so every server
// process sharing the session store can deliver it to its local connections.
func (s *Service) PublishFrame(channel string, frame models.Frame) error {
	payload, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	return s.Redis.Publish(s.Ctx, channel, payload).Err()
}
