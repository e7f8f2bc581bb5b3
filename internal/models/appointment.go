package models

import (
	"fmt"
	"time"
)

// AppointmentStatus represents the lifecycle state of an appointment
type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusCompleted AppointmentStatus = "completed"
	StatusNoShow    AppointmentStatus = "no_show"
)

// Appointment represents a booked medical appointment. Date and Time are kept
// as the calendar values the slot grid works with ("2006-01-02" / "15:04");
// StartsAt derives the wall-clock instant when cutoff checks need it.
type Appointment struct {
	BaseModel
	AffiliateID    string            `gorm:"size:36;index" json:"affiliateId"`
	LocationID     string            `gorm:"size:36" json:"locationId"`
	SpecialtyID    string            `gorm:"size:36" json:"specialtyId"`
	ProfessionalID string            `gorm:"size:36;index" json:"professionalId"`
	Date           string            `gorm:"size:10;index" json:"date"`
	Time           string            `gorm:"size:5" json:"time"`
	Status         AppointmentStatus `gorm:"size:20;default:'scheduled'" json:"status"`
	CancelReason   string            `gorm:"size:255" json:"cancelReason,omitempty"`
	ModifiedAt     *time.Time        `json:"modifiedAt,omitempty"`
	Notes          string            `gorm:"type:text" json:"notes,omitempty"`

	Affiliate User `gorm:"foreignKey:AffiliateID" json:"-"`
}

// StartsAt parses the appointment's date and time in the given location.
func (a *Appointment) StartsAt(loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02 15:04", a.Date+" "+a.Time, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid appointment datetime %q %q: %w", a.Date, a.Time, err)
	}
	return t, nil
}
