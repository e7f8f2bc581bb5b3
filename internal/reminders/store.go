package reminders

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"citasalud-server/internal/models"
)

// Store owns the reminder collection. FindByAppointment returns (nil, nil)
// when no reminder exists yet for the appointment.
type Store interface {
	FindByAppointment(ctx context.Context, appointmentID string) (*models.Reminder, error)
	Create(ctx context.Context, r *models.Reminder) error
	Save(ctx context.Context, r *models.Reminder) error
	// ListRetryable returns reminders whose delivery has not succeeded and
	// that still have attempts left.
	ListRetryable(ctx context.Context, maxAttempts int) ([]models.Reminder, error)
	// ListByAffiliate returns the reminder log for the user's appointments.
	ListByAffiliate(ctx context.Context, affiliateID string) ([]models.Reminder, error)
}

// GormStore implements Store on the MySQL database.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) FindByAppointment(ctx context.Context, appointmentID string) (*models.Reminder, error) {
	var r models.Reminder
	err := s.db.WithContext(ctx).First(&r, "appointment_id = ?", appointmentID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &r, nil
}

func (s *GormStore) Create(ctx context.Context, r *models.Reminder) error {
	return s.db.WithContext(ctx).Create(r).Error
}

func (s *GormStore) Save(ctx context.Context, r *models.Reminder) error {
	return s.db.WithContext(ctx).Save(r).Error
}

func (s *GormStore) ListRetryable(ctx context.Context, maxAttempts int) ([]models.Reminder, error) {
	var out []models.Reminder
	err := s.db.WithContext(ctx).
		Where("status IN ? AND attempts < ?",
			[]models.ReminderStatus{models.ReminderFailed, models.ReminderPending}, maxAttempts).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *GormStore) ListByAffiliate(ctx context.Context, affiliateID string) ([]models.Reminder, error) {
	var out []models.Reminder
	err := s.db.WithContext(ctx).
		Joins("JOIN appointments ON appointments.id = reminders.appointment_id").
		Where("appointments.affiliate_id = ?", affiliateID).
		Order("reminders.created_at desc").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
