package storage

import (
	"errors"
	"log"

	"github.com/olegdemchenko/chat-service/internal/models"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateRoom creates a room seeded with the given participants, both as
// members and as active participants. The unique index on the normalized pair
// key makes concurrent creation for the same pair converge on one room: the
// loser of the race gets the winner's record back.
func (s *Service) CreateRoom(participantIDs []string) (*models.Room, error) {
	room := &models.Room{
		PairKey:            models.PairKeyFor(participantIDs...),
		Participants:       pq.StringArray(participantIDs),
		ActiveParticipants: pq.StringArray(participantIDs),
	}
	res := s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "pair_key"}},
		DoNothing: true,
	}).Create(room)
	if res.Error != nil {
		log.Printf("ERROR: Failed to create room for pair %s: %v", room.PairKey, res.Error)
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// Lost the race: another process created the room first.
		var existing models.Room
		if err := s.DB.Where("pair_key = ?", room.PairKey).First(&existing).Error; err != nil {
			return nil, err
		}
		return &existing, nil
	}
	return room, nil
}

// FindRoomByParticipants returns the room containing all the given
// participants, regardless of order, or nil when the pair has no room yet.
func (s *Service) FindRoomByParticipants(participantIDs []string) (*models.Room, error) {
	var room models.Room
	err := s.DB.Where("participants @> ?", pq.StringArray(participantIDs)).First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (s *Service) GetRoomByID(roomID string) (*models.Room, error) {
	var room models.Room
	err := s.DB.Where("room_id = ?", roomID).First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		log.Printf("ERROR: Failed to get room %s: %v", roomID, err)
		return nil, err
	}
	return &room, nil
}

// AddActiveParticipant atomically adds the user to the room's active set. The
// guard keeps duplicate joins from growing the array; no read precedes the
// write, so two participants joining concurrently cannot lose updates.
func (s *Service) AddActiveParticipant(roomID, userID string) error {
	return s.DB.Model(&models.Room{}).
		Where("room_id = ? AND NOT (? = ANY(active_participants))", roomID, userID).
		Updates(map[string]interface{}{
			"active_participants": gorm.Expr("array_append(active_participants, ?)", userID),
			"participants":        gorm.Expr("CASE WHEN ? = ANY(participants) THEN participants ELSE array_append(participants, ?) END", userID, userID),
		}).Error
}

// RemoveActiveParticipant atomically removes the user from the active set.
// Participants keeps the user forever.
func (s *Service) RemoveActiveParticipant(roomID, userID string) error {
	return s.DB.Model(&models.Room{}).
		Where("room_id = ?", roomID).
		Update("active_participants", gorm.Expr("array_remove(active_participants, ?)", userID)).Error
}

// GetUserRooms returns every room the user is actively participating in.
func (s *Service) GetUserRooms(userID string) ([]models.Room, error) {
	var rooms []models.Room
	if err := s.DB.Where("? = ANY(active_participants)", userID).Find(&rooms).Error; err != nil {
		log.Printf("ERROR: Failed to load rooms for user %s: %v", userID, err)
		return nil, err
	}
	return rooms, nil
}

// GetUserRoomIDs returns just the ids of the user's active rooms.
func (s *Service) GetUserRoomIDs(userID string) ([]string, error) {
	var roomIDs []string
	if err := s.DB.Model(&models.Room{}).
		Where("? = ANY(active_participants)", userID).
		Pluck("room_id", &roomIDs).Error; err != nil {
		return nil, err
	}
	return roomIDs, nil
}

// DeleteRoom destroys the room, every message it owns and every user-side
// membership reference, in that order. Deleting an absent room is a no-op.
func (s *Service) DeleteRoom(roomID string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("room_id = ?", roomID).Delete(&models.Message{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.User{}).
			Where("? = ANY(rooms)", roomID).
			Update("rooms", gorm.Expr("array_remove(rooms, ?)", roomID)).Error; err != nil {
			return err
		}
		return tx.Where("room_id = ?", roomID).Delete(&models.Room{}).Error
	})
}
