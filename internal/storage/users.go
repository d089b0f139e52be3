package storage

import (
	"errors"
	"log"

	"github.com/olegdemchenko/chat-service/internal/models"

	"gorm.io/gorm"
)

// FindUserByExternalID looks a user up by the identity-provider id. Returns
// nil when no such user exists yet.
func (s *Service) FindUserByExternalID(externalID string) (*models.User, error) {
	var user models.User
	err := s.DB.Where("external_id = ?", externalID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateUser persists a new user. The UserID is assigned by the BeforeCreate hook.
func (s *Service) CreateUser(user *models.User) error {
	if err := s.DB.Create(user).Error; err != nil {
		log.Printf("ERROR: Failed to create user %s: %v", user.ExternalID, err)
		return err
	}
	return nil
}

func (s *Service) GetUserByID(userID string) (*models.User, error) {
	var user models.User
	err := s.DB.Where("user_id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUsersByIDs loads the identity slices used to enrich room summaries.
func (s *Service) GetUsersByIDs(userIDs []string) ([]models.User, error) {
	var users []models.User
	if len(userIDs) == 0 {
		return users, nil
	}
	if err := s.DB.Where("user_id IN ?", userIDs).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// FindUsers searches users by a name fragment, excluding the caller, and
// returns one page of matches plus the total match count.
func (s *Service) FindUsers(query, excludeUserID string, page, limit int) ([]models.User, int64, error) {
	search := s.DB.Model(&models.User{}).
		Where("name ILIKE ?", "%"+query+"%").
		Where("user_id <> ?", excludeUserID)

	var total int64
	if err := search.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var match []models.User
	if err := search.Order("name asc").Offset(page * limit).Limit(limit).Find(&match).Error; err != nil {
		return nil, 0, err
	}
	return match, total, nil
}

// AddRoomToUser appends the room id to the user's membership list with an
// atomic array update, guarded against duplicates.
func (s *Service) AddRoomToUser(userID, roomID string) error {
	return s.DB.Model(&models.User{}).
		Where("user_id = ? AND NOT (? = ANY(rooms))", userID, roomID).
		Update("rooms", gorm.Expr("array_append(rooms, ?)", roomID)).Error
}

// RemoveRoomFromUser drops the room id from the user's membership list.
// Removing an id that is not there is a no-op.
func (s *Service) RemoveRoomFromUser(userID, roomID string) error {
	return s.DB.Model(&models.User{}).
		Where("user_id = ?", userID).
		Update("rooms", gorm.Expr("array_remove(rooms, ?)", roomID)).Error
}
