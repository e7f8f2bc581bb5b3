// Package scheduling implements the appointment booking engine: slot
// availability on the daily grid, double-booking prevention, the 24-hour
// modification cutoff and the appointment lifecycle.
package scheduling

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"citasalud-server/internal/catalog"
	"citasalud-server/internal/metrics"
	"citasalud-server/internal/models"
)

// cutoff is the protection window: appointments starting sooner than this
// can no longer be rescheduled or cancelled.
const cutoff = 24 * time.Hour

// Service owns the appointment collection and enforces all booking rules.
type Service struct {
	repo    Repository
	catalog *catalog.Catalog
	metrics *metrics.Metrics
	now     func() time.Time
	loc     *time.Location
}

// Option configures a Service.
type Option func(*Service)

// WithClock substitutes the wall clock, letting tests pin the cutoff boundary.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the timezone appointment dates are interpreted in.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

// NewService creates the booking engine. metrics may be nil.
func NewService(repo Repository, cat *catalog.Catalog, m *metrics.Metrics, opts ...Option) *Service {
	s := &Service{
		repo:    repo,
		catalog: cat,
		metrics: m,
		now:     time.Now,
		loc:     time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AvailableSlots returns the free times for a professional on a date: the
// daily grid minus the slots held by scheduled appointments, in grid order.
// An unknown professional or malformed date yields an empty list, not an
// error; only storage failures are reported.
func (s *Service) AvailableSlots(ctx context.Context, professionalID, date string) ([]string, error) {
	if _, ok := s.catalog.ProfessionalByID(professionalID); !ok {
		return []string{}, nil
	}
	if _, err := time.ParseInLocation("2006-01-02", date, s.loc); err != nil {
		return []string{}, nil
	}

	taken, err := s.repo.TakenSlots(ctx, professionalID, date)
	if err != nil {
		return nil, fmt.Errorf("listing taken slots: %w", err)
	}

	used := make(map[string]struct{}, len(taken))
	for _, t := range taken {
		used[t] = struct{}{}
	}

	free := make([]string, 0, len(slotTemplate))
	for _, t := range slotTemplate {
		if _, ok := used[t]; !ok {
			free = append(free, t)
		}
	}
	return free, nil
}

// ScheduleRequest carries the fields needed to book an appointment.
type ScheduleRequest struct {
	AffiliateID    string
	LocationID     string
	SpecialtyID    string
	ProfessionalID string
	Date           string
	Time           string
	Notes          string
}

// Schedule books a new appointment. It fails with ErrInvalid on an
// incomplete or inconsistent request and ErrSlotTaken when another scheduled
// appointment already holds the slot; nothing is written on failure.
func (s *Service) Schedule(ctx context.Context, req ScheduleRequest) (*models.Appointment, error) {
	if req.AffiliateID == "" {
		return nil, fmt.Errorf("%w: missing affiliate", ErrInvalid)
	}
	if err := s.validateSlot(req.Date, req.Time); err != nil {
		return nil, err
	}
	if !s.catalog.ValidSelection(req.LocationID, req.SpecialtyID, req.ProfessionalID) {
		s.metrics.BookingRejected("invalid")
		return nil, fmt.Errorf("%w: location, specialty and professional do not match", ErrInvalid)
	}

	taken, err := s.repo.SlotTaken(ctx, req.ProfessionalID, req.Date, req.Time, "")
	if err != nil {
		return nil, fmt.Errorf("checking slot: %w", err)
	}
	if taken {
		s.metrics.BookingRejected("conflict")
		return nil, ErrSlotTaken
	}

	appt := &models.Appointment{
		AffiliateID:    req.AffiliateID,
		LocationID:     req.LocationID,
		SpecialtyID:    req.SpecialtyID,
		ProfessionalID: req.ProfessionalID,
		Date:           req.Date,
		Time:           req.Time,
		Status:         models.StatusScheduled,
		Notes:          req.Notes,
	}
	if err := s.repo.Create(ctx, appt); err != nil {
		return nil, fmt.Errorf("creating appointment: %w", err)
	}

	s.metrics.AppointmentScheduled()
	return appt, nil
}

// Reschedule moves an appointment to a new date and time. The cutoff is
// computed against the appointment's current scheduled time, before any
// conflict check, and no field is written unless every check passes.
func (s *Service) Reschedule(ctx context.Context, id, newDate, newTime string) (*models.Appointment, error) {
	if err := s.validateSlot(newDate, newTime); err != nil {
		return nil, err
	}

	appt, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.metrics.BookingRejected("not_found")
		}
		return nil, err
	}

	if err := s.checkCutoff(appt); err != nil {
		return nil, err
	}

	taken, err := s.repo.SlotTaken(ctx, appt.ProfessionalID, newDate, newTime, appt.ID)
	if err != nil {
		return nil, fmt.Errorf("checking slot: %w", err)
	}
	if taken {
		s.metrics.BookingRejected("conflict")
		return nil, ErrSlotTaken
	}

	now := s.now()
	appt.Date = newDate
	appt.Time = newTime
	appt.ModifiedAt = &now
	if err := s.repo.Save(ctx, appt); err != nil {
		return nil, fmt.Errorf("saving appointment: %w", err)
	}

	s.metrics.AppointmentRescheduled()
	return appt, nil
}

// Cancel marks an appointment cancelled, recording the reason. The freed slot
// becomes available immediately since availability only counts scheduled
// appointments.
func (s *Service) Cancel(ctx context.Context, id, reason string) (*models.Appointment, error) {
	appt, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.metrics.BookingRejected("not_found")
		}
		return nil, err
	}

	if reason == "" {
		s.metrics.BookingRejected("invalid")
		return nil, fmt.Errorf("%w: cancellation reason is required", ErrInvalid)
	}

	if err := s.checkCutoff(appt); err != nil {
		return nil, err
	}

	appt.Status = models.StatusCancelled
	appt.CancelReason = reason
	if err := s.repo.Save(ctx, appt); err != nil {
		return nil, fmt.Errorf("saving appointment: %w", err)
	}

	s.metrics.AppointmentCancelled()
	return appt, nil
}

// List returns the affiliate's appointments matching the filter, ordered by
// date and time.
func (s *Service) List(ctx context.Context, affiliateID string, f Filter) ([]models.Appointment, error) {
	return s.repo.ListByAffiliate(ctx, affiliateID, f)
}

// Get returns one appointment; callers enforce ownership.
func (s *Service) Get(ctx context.Context, id string) (*models.Appointment, error) {
	return s.repo.FindByID(ctx, id)
}

// Summary aggregates an affiliate's appointment history: current-year counts
// per state plus the next three upcoming appointments.
type Summary struct {
	Year      int                  `json:"year"`
	Total     int                  `json:"total"`
	Completed int                  `json:"completed"`
	Cancelled int                  `json:"cancelled"`
	NoShow    int                  `json:"noShow"`
	Upcoming  []models.Appointment `json:"upcoming"`
}

// Summarize computes the dashboard metrics for an affiliate.
func (s *Service) Summarize(ctx context.Context, affiliateID string) (*Summary, error) {
	appts, err := s.repo.ListByAffiliate(ctx, affiliateID, Filter{})
	if err != nil {
		return nil, err
	}

	now := s.now()
	sum := &Summary{Year: now.Year(), Upcoming: []models.Appointment{}}

	yearPrefix := fmt.Sprintf("%04d-", sum.Year)
	var upcoming []models.Appointment
	for _, a := range appts {
		if len(a.Date) >= len(yearPrefix) && a.Date[:len(yearPrefix)] == yearPrefix {
			sum.Total++
			switch a.Status {
			case models.StatusCompleted:
				sum.Completed++
			case models.StatusCancelled:
				sum.Cancelled++
			case models.StatusNoShow:
				sum.NoShow++
			}
		}
		if a.Status == models.StatusScheduled {
			if starts, err := a.StartsAt(s.loc); err == nil && starts.After(now) {
				upcoming = append(upcoming, a)
			}
		}
	}

	sort.Slice(upcoming, func(i, j int) bool {
		if upcoming[i].Date != upcoming[j].Date {
			return upcoming[i].Date < upcoming[j].Date
		}
		return upcoming[i].Time < upcoming[j].Time
	})
	if len(upcoming) > 3 {
		upcoming = upcoming[:3]
	}
	sum.Upcoming = append(sum.Upcoming, upcoming...)

	return sum, nil
}

func (s *Service) validateSlot(date, timeOfDay string) error {
	if _, err := time.ParseInLocation("2006-01-02", date, s.loc); err != nil {
		s.metrics.BookingRejected("invalid")
		return fmt.Errorf("%w: bad date %q", ErrInvalid, date)
	}
	if !onGrid(timeOfDay) {
		s.metrics.BookingRejected("invalid")
		return fmt.Errorf("%w: time %q is not on the slot grid", ErrInvalid, timeOfDay)
	}
	return nil
}

// checkCutoff rejects mutations of appointments starting in less than 24
// hours. Exactly 24h out still passes.
func (s *Service) checkCutoff(appt *models.Appointment) error {
	starts, err := appt.StartsAt(s.loc)
	if err != nil {
		return err
	}
	if starts.Sub(s.now()) < cutoff {
		s.metrics.BookingRejected("cutoff")
		return ErrTooLate
	}
	return nil
}
