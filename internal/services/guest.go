package services

import (
	"errors"
	"time"

	"github.com/5inee/predict-battle/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GuestService struct {
	db *gorm.DB
}

func NewGuestService(db *gorm.DB) *GuestService {
	return &GuestService{db: db}
}

// RegisterGuest upserts a guest identity. An empty guestID gets a fresh
// server-issued id; re-registering refreshes the inactivity window.
func (s *GuestService) RegisterGuest(guestID, username string) (*models.Guest, error) {
	if guestID == "" {
		guestID = uuid.NewString()
	}

	now := time.Now()

	var guest models.Guest
	if err := s.db.Where("guest_id = ?", guestID).First(&guest).Error; err == nil {
		guest.Username = username
		guest.LastSeenAt = now
		if err := s.db.Save(&guest).Error; err != nil {
			return nil, err
		}
		return &guest, nil
	}

	guest = models.Guest{
		GuestID:    guestID,
		Username:   username,
		LastSeenAt: now,
	}
	if err := s.db.Create(&guest).Error; err != nil {
		// Concurrent registration of the same id: the stored row wins.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if err := s.db.Where("guest_id = ?", guestID).First(&guest).Error; err != nil {
				return nil, err
			}
			return &guest, nil
		}
		return nil, err
	}
	return &guest, nil
}

// GetGuest returns a guest by id. Expired records are dropped lazily and
// reported as not found.
func (s *GuestService) GetGuest(guestID string) (*models.Guest, error) {
	var guest models.Guest
	if err := s.db.Where("guest_id = ?", guestID).First(&guest).Error; err != nil {
		return nil, ErrGuestNotFound
	}

	if guest.Expired(time.Now()) {
		s.db.Delete(&guest)
		return nil, ErrGuestNotFound
	}

	return &guest, nil
}
