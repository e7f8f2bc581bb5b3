// Package reminders runs the periodic scan that emits one reminder per
// appointment entering the 24-hour lookahead window, and retries failed
// deliveries on later ticks.
package reminders

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"citasalud-server/internal/metrics"
	"citasalud-server/internal/models"
	"citasalud-server/internal/notifications"
)

// Trigger window around the nominal 24-hour mark. The scan is periodic, not
// continuous, so the window is two hours wide to guarantee every appointment
// is seen at least once.
const (
	windowLow  = 23.0
	windowHigh = 25.0
)

// AppointmentSource supplies the scheduled appointments to scan, with the
// owning affiliate loaded for contact resolution.
type AppointmentSource interface {
	ListScheduled(ctx context.Context) ([]models.Appointment, error)
}

// Scheduler scans appointments and emits reminders.
type Scheduler struct {
	appts       AppointmentSource
	store       Store
	prefs       notifications.PreferenceStore
	sender      Sender
	metrics     *metrics.Metrics
	log         zerolog.Logger
	now         func() time.Time
	loc         *time.Location
	interval    time.Duration
	maxAttempts int
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock substitutes the wall clock for deterministic window tests.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// WithLocation sets the timezone appointment dates are interpreted in.
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) { s.loc = loc }
}

// WithInterval overrides the tick interval.
func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) { s.interval = d }
}

// WithMaxAttempts overrides the delivery attempt cap.
func WithMaxAttempts(n int) Option {
	return func(s *Scheduler) { s.maxAttempts = n }
}

// New creates a reminder scheduler. metrics may be nil.
func New(appts AppointmentSource, store Store, prefs notifications.PreferenceStore, sender Sender,
	m *metrics.Metrics, log zerolog.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		appts:       appts,
		store:       store,
		prefs:       prefs,
		sender:      sender,
		metrics:     m,
		log:         log,
		now:         time.Now,
		loc:         time.Local,
		interval:    30 * time.Minute,
		maxAttempts: 3,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run scans once immediately, then on every tick until the context is
// cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.scanLogged(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.scanLogged(ctx)
		}
	}
}

func (s *Scheduler) scanLogged(ctx context.Context) {
	if err := s.Scan(ctx); err != nil {
		s.log.Error().Err(err).Msg("reminder scan failed")
	}
}

// Scan performs one pass: retry unfinished deliveries, then emit a reminder
// for every scheduled appointment inside the trigger window that has none
// yet. Emission is idempotent per appointment.
func (s *Scheduler) Scan(ctx context.Context) error {
	appts, err := s.appts.ListScheduled(ctx)
	if err != nil {
		return fmt.Errorf("listing scheduled appointments: %w", err)
	}
	byID := make(map[string]models.Appointment, len(appts))
	for _, a := range appts {
		byID[a.ID] = a
	}

	if err := s.retryUnfinished(ctx, byID); err != nil {
		return err
	}

	now := s.now()
	for _, appt := range appts {
		starts, err := appt.StartsAt(s.loc)
		if err != nil {
			s.log.Warn().Err(err).Str("appointment_id", appt.ID).Msg("skipping appointment with bad datetime")
			continue
		}

		hoursUntil := starts.Sub(now).Hours()
		if hoursUntil < windowLow || hoursUntil > windowHigh {
			continue
		}

		existing, err := s.store.FindByAppointment(ctx, appt.ID)
		if err != nil {
			return fmt.Errorf("looking up reminder: %w", err)
		}
		if existing != nil {
			continue
		}

		channel, to, err := s.resolveContact(ctx, appt)
		if err != nil {
			return err
		}

		reminder := &models.Reminder{
			AppointmentID: appt.ID,
			Channel:       channel,
			Status:        models.ReminderPending,
		}
		s.deliver(ctx, reminder, appt, to)
		if err := s.store.Create(ctx, reminder); err != nil {
			return fmt.Errorf("creating reminder: %w", err)
		}
	}

	return nil
}

// retryUnfinished re-attempts failed deliveries, up to maxAttempts total.
// Reminders whose appointment is no longer scheduled are left alone.
func (s *Scheduler) retryUnfinished(ctx context.Context, scheduled map[string]models.Appointment) error {
	pending, err := s.store.ListRetryable(ctx, s.maxAttempts)
	if err != nil {
		return fmt.Errorf("listing retryable reminders: %w", err)
	}

	for i := range pending {
		r := &pending[i]
		appt, ok := scheduled[r.AppointmentID]
		if !ok {
			continue
		}
		_, to, err := s.resolveContact(ctx, appt)
		if err != nil {
			return err
		}
		s.deliver(ctx, r, appt, to)
		if err := s.store.Save(ctx, r); err != nil {
			return fmt.Errorf("saving reminder: %w", err)
		}
	}
	return nil
}

// resolveContact picks the channel and address: the user's saved preference
// wins, the default is email to the affiliate's registered address.
func (s *Scheduler) resolveContact(ctx context.Context, appt models.Appointment) (models.ReminderChannel, string, error) {
	pref, err := s.prefs.Get(ctx, appt.AffiliateID)
	if err != nil {
		return "", "", fmt.Errorf("loading notification preference: %w", err)
	}

	channel := models.ChannelEmail
	if pref != nil && pref.Channel != "" {
		channel = pref.Channel
	}

	var to string
	switch channel {
	case models.ChannelSMS:
		if pref != nil && pref.Phone != "" {
			to = pref.Phone
		} else {
			to = appt.Affiliate.Phone
		}
	default:
		if pref != nil && pref.Email != "" {
			to = pref.Email
		} else {
			to = appt.Affiliate.Email
		}
	}
	return channel, to, nil
}

func (s *Scheduler) deliver(ctx context.Context, r *models.Reminder, appt models.Appointment, to string) {
	r.Attempts++
	if err := s.sender.Send(ctx, Delivery{Channel: r.Channel, To: to, Appointment: appt}); err != nil {
		r.Status = models.ReminderFailed
		s.metrics.ReminderDelivery(string(r.Channel), "failed")
		s.log.Warn().Err(err).
			Str("appointment_id", appt.ID).
			Int("attempts", r.Attempts).
			Msg("reminder delivery failed")
		return
	}
	r.Status = models.ReminderSent
	r.SentAt = s.now()
	s.metrics.ReminderDelivery(string(r.Channel), "sent")
}
