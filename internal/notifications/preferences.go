// Package notifications owns the per-user reminder preferences: preferred
// channel plus optional contact overrides.
package notifications

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"citasalud-server/internal/models"
)

// PreferenceStore reads and writes notification preferences. Get returns
// (nil, nil) when the user has never saved one.
type PreferenceStore interface {
	Get(ctx context.Context, userID string) (*models.NotificationPreference, error)
	Set(ctx context.Context, pref *models.NotificationPreference) error
}

// GormPreferenceStore keeps one preference row per user in MySQL.
type GormPreferenceStore struct {
	db *gorm.DB
}

func NewGormPreferenceStore(db *gorm.DB) *GormPreferenceStore {
	return &GormPreferenceStore{db: db}
}

func (s *GormPreferenceStore) Get(ctx context.Context, userID string) (*models.NotificationPreference, error) {
	var pref models.NotificationPreference
	err := s.db.WithContext(ctx).First(&pref, "user_id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &pref, nil
}

// Set replaces the user's preference wholesale.
func (s *GormPreferenceStore) Set(ctx context.Context, pref *models.NotificationPreference) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(pref).Error
}
