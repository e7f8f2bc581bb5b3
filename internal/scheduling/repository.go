package scheduling

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"citasalud-server/internal/models"
)

// Filter narrows an appointment listing; zero values match everything.
type Filter struct {
	DateFrom    string
	DateTo      string
	Status      models.AppointmentStatus
	LocationID  string
	SpecialtyID string
}

// Repository is the persistence boundary of the booking engine. The service
// is the only writer of the appointment collection.
type Repository interface {
	Create(ctx context.Context, appt *models.Appointment) error
	FindByID(ctx context.Context, id string) (*models.Appointment, error)
	Save(ctx context.Context, appt *models.Appointment) error
	ListByAffiliate(ctx context.Context, affiliateID string, f Filter) ([]models.Appointment, error)
	// TakenSlots returns the times held by scheduled appointments for the
	// professional on the date, in no particular order.
	TakenSlots(ctx context.Context, professionalID, date string) ([]string, error)
	// SlotTaken reports whether a scheduled appointment other than excludeID
	// holds the (professional, date, time) slot.
	SlotTaken(ctx context.Context, professionalID, date, timeOfDay, excludeID string) (bool, error)
	// ListScheduled returns every appointment in scheduled state, with the
	// owning affiliate preloaded. Used by the reminder scan.
	ListScheduled(ctx context.Context) ([]models.Appointment, error)
}

// GormRepository implements Repository on the MySQL store.
type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) Create(ctx context.Context, appt *models.Appointment) error {
	return r.db.WithContext(ctx).Create(appt).Error
}

func (r *GormRepository) FindByID(ctx context.Context, id string) (*models.Appointment, error) {
	var appt models.Appointment
	if err := r.db.WithContext(ctx).First(&appt, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &appt, nil
}

func (r *GormRepository) Save(ctx context.Context, appt *models.Appointment) error {
	return r.db.WithContext(ctx).Save(appt).Error
}

func (r *GormRepository) ListByAffiliate(ctx context.Context, affiliateID string, f Filter) ([]models.Appointment, error) {
	q := r.db.WithContext(ctx).Where("affiliate_id = ?", affiliateID).Order("date asc, time asc")
	if f.DateFrom != "" {
		q = q.Where("date >= ?", f.DateFrom)
	}
	if f.DateTo != "" {
		q = q.Where("date <= ?", f.DateTo)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.LocationID != "" {
		q = q.Where("location_id = ?", f.LocationID)
	}
	if f.SpecialtyID != "" {
		q = q.Where("specialty_id = ?", f.SpecialtyID)
	}

	var appts []models.Appointment
	if err := q.Find(&appts).Error; err != nil {
		return nil, err
	}
	return appts, nil
}

func (r *GormRepository) TakenSlots(ctx context.Context, professionalID, date string) ([]string, error) {
	var times []string
	err := r.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where("professional_id = ? AND date = ? AND status = ?", professionalID, date, models.StatusScheduled).
		Pluck("time", &times).Error
	if err != nil {
		return nil, err
	}
	return times, nil
}

func (r *GormRepository) SlotTaken(ctx context.Context, professionalID, date, timeOfDay, excludeID string) (bool, error) {
	q := r.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where("professional_id = ? AND date = ? AND time = ? AND status = ?",
			professionalID, date, timeOfDay, models.StatusScheduled)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormRepository) ListScheduled(ctx context.Context) ([]models.Appointment, error) {
	var appts []models.Appointment
	err := r.db.WithContext(ctx).
		Preload("Affiliate").
		Where("status = ?", models.StatusScheduled).
		Find(&appts).Error
	if err != nil {
		return nil, err
	}
	return appts, nil
}
