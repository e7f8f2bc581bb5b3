package reminders

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"citasalud-server/internal/models"
)

type memApptSource struct {
	appts []models.Appointment
}

func (m *memApptSource) ListScheduled(ctx context.Context) ([]models.Appointment, error) {
	out := make([]models.Appointment, 0, len(m.appts))
	for _, a := range m.appts {
		if a.Status == models.StatusScheduled {
			out = append(out, a)
		}
	}
	return out, nil
}

type memReminderStore struct {
	byAppt map[string]*models.Reminder
	seq    int
}

func newMemReminderStore() *memReminderStore {
	return &memReminderStore{byAppt: make(map[string]*models.Reminder)}
}

func (m *memReminderStore) FindByAppointment(ctx context.Context, appointmentID string) (*models.Reminder, error) {
	r, ok := m.byAppt[appointmentID]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (m *memReminderStore) Create(ctx context.Context, r *models.Reminder) error {
	if r.ID == "" {
		m.seq++
		r.ID = fmt.Sprintf("rem-%d", m.seq)
	}
	stored := *r
	m.byAppt[r.AppointmentID] = &stored
	return nil
}

func (m *memReminderStore) Save(ctx context.Context, r *models.Reminder) error {
	stored := *r
	m.byAppt[r.AppointmentID] = &stored
	return nil
}

func (m *memReminderStore) ListRetryable(ctx context.Context, maxAttempts int) ([]models.Reminder, error) {
	var out []models.Reminder
	for _, r := range m.byAppt {
		if (r.Status == models.ReminderFailed || r.Status == models.ReminderPending) && r.Attempts < maxAttempts {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memReminderStore) ListByAffiliate(ctx context.Context, affiliateID string) ([]models.Reminder, error) {
	return nil, nil
}

type memPrefs struct {
	prefs map[string]*models.NotificationPreference
}

func (m *memPrefs) Get(ctx context.Context, userID string) (*models.NotificationPreference, error) {
	if m.prefs == nil {
		return nil, nil
	}
	return m.prefs[userID], nil
}

func (m *memPrefs) Set(ctx context.Context, pref *models.NotificationPreference) error {
	if m.prefs == nil {
		m.prefs = make(map[string]*models.NotificationPreference)
	}
	m.prefs[pref.UserID] = pref
	return nil
}

// fakeSender fails its first failFirst sends, then succeeds.
type fakeSender struct {
	failFirst int
	calls     int
	sent      []Delivery
}

func (f *fakeSender) Send(ctx context.Context, d Delivery) error {
	f.calls++
	if f.calls <= f.failFirst {
		return errors.New("transport down")
	}
	f.sent = append(f.sent, d)
	return nil
}

// Appointments are at 2025-03-10 09:00 UTC throughout; the clock moves per
// test to place "now" inside or outside the trigger window.
func scheduledAppt(id string) models.Appointment {
	return models.Appointment{
		BaseModel:      models.BaseModel{ID: id},
		AffiliateID:    "user-1",
		ProfessionalID: "3",
		Date:           "2025-03-10",
		Time:           "09:00",
		Status:         models.StatusScheduled,
		Affiliate: models.User{
			Email: "maria@example.com",
			Phone: "3001234567",
		},
	}
}

func newTestScheduler(appts *memApptSource, store *memReminderStore, prefs *memPrefs,
	sender *fakeSender, now time.Time) *Scheduler {
	return New(appts, store, prefs, sender, nil, zerolog.Nop(),
		WithClock(func() time.Time { return now }),
		WithLocation(time.UTC),
	)
}

func TestScanEmitsReminderInsideWindow(t *testing.T) {
	appts := &memApptSource{appts: []models.Appointment{scheduledAppt("a1")}}
	store := newMemReminderStore()
	sender := &fakeSender{}
	now := time.Date(2025, 3, 9, 9, 30, 0, 0, time.UTC) // 23.5h before

	sched := newTestScheduler(appts, store, &memPrefs{}, sender, now)
	require.NoError(t, sched.Scan(context.Background()))

	r, err := store.FindByAppointment(context.Background(), "a1")
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, models.ReminderSent, r.Status)
	assert.Equal(t, models.ChannelEmail, r.Channel, "email is the default channel")
	assert.Equal(t, 1, r.Attempts)
	assert.Equal(t, now, r.SentAt)

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "maria@example.com", sender.sent[0].To)
}

func TestScanIsIdempotent(t *testing.T) {
	appts := &memApptSource{appts: []models.Appointment{scheduledAppt("a1")}}
	store := newMemReminderStore()
	sender := &fakeSender{}
	now := time.Date(2025, 3, 9, 10, 0, 0, 0, time.UTC)

	sched := newTestScheduler(appts, store, &memPrefs{}, sender, now)
	require.NoError(t, sched.Scan(context.Background()))
	require.NoError(t, sched.Scan(context.Background()))

	assert.Len(t, sender.sent, 1, "two scans in the same window must emit exactly one reminder")
	assert.Len(t, store.byAppt, 1)
	assert.Equal(t, 1, store.byAppt["a1"].Attempts)
}

func TestScanWindowEdges(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"25h before, upper edge", time.Date(2025, 3, 9, 8, 0, 0, 0, time.UTC), true},
		{"just over 25h before", time.Date(2025, 3, 9, 7, 59, 0, 0, time.UTC), false},
		{"23h before, lower edge", time.Date(2025, 3, 9, 10, 0, 0, 0, time.UTC), true},
		{"just under 23h before", time.Date(2025, 3, 9, 10, 1, 0, 0, time.UTC), false},
		{"appointment already started", time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			appts := &memApptSource{appts: []models.Appointment{scheduledAppt("a1")}}
			store := newMemReminderStore()
			sender := &fakeSender{}

			sched := newTestScheduler(appts, store, &memPrefs{}, sender, tc.now)
			require.NoError(t, sched.Scan(context.Background()))

			if tc.want {
				assert.Len(t, store.byAppt, 1)
			} else {
				assert.Empty(t, store.byAppt)
			}
		})
	}
}

func TestScanSkipsNonScheduledAppointments(t *testing.T) {
	cancelled := scheduledAppt("a1")
	cancelled.Status = models.StatusCancelled
	appts := &memApptSource{appts: []models.Appointment{cancelled}}
	store := newMemReminderStore()
	sender := &fakeSender{}
	now := time.Date(2025, 3, 9, 9, 30, 0, 0, time.UTC)

	sched := newTestScheduler(appts, store, &memPrefs{}, sender, now)
	require.NoError(t, sched.Scan(context.Background()))
	assert.Empty(t, store.byAppt)
}

func TestScanHonorsPreferredChannel(t *testing.T) {
	appts := &memApptSource{appts: []models.Appointment{scheduledAppt("a1")}}
	store := newMemReminderStore()
	sender := &fakeSender{}
	prefs := &memPrefs{prefs: map[string]*models.NotificationPreference{
		"user-1": {UserID: "user-1", Channel: models.ChannelSMS, Phone: "3119998877"},
	}}
	now := time.Date(2025, 3, 9, 9, 30, 0, 0, time.UTC)

	sched := newTestScheduler(appts, store, prefs, sender, now)
	require.NoError(t, sched.Scan(context.Background()))

	r := store.byAppt["a1"]
	require.NotNil(t, r)
	assert.Equal(t, models.ChannelSMS, r.Channel)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "3119998877", sender.sent[0].To, "preference phone overrides the profile contact")
}

func TestScanFallsBackToProfileContact(t *testing.T) {
	appts := &memApptSource{appts: []models.Appointment{scheduledAppt("a1")}}
	store := newMemReminderStore()
	sender := &fakeSender{}
	prefs := &memPrefs{prefs: map[string]*models.NotificationPreference{
		"user-1": {UserID: "user-1", Channel: models.ChannelSMS},
	}}
	now := time.Date(2025, 3, 9, 9, 30, 0, 0, time.UTC)

	sched := newTestScheduler(appts, store, prefs, sender, now)
	require.NoError(t, sched.Scan(context.Background()))

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "3001234567", sender.sent[0].To)
}

// The product policy promises up to two retries at later ticks; the sender in
// production is a simulation that never fails, but the state machine is real.
func TestScanRetriesFailedDelivery(t *testing.T) {
	appts := &memApptSource{appts: []models.Appointment{scheduledAppt("a1")}}
	store := newMemReminderStore()
	sender := &fakeSender{failFirst: 1}
	now := time.Date(2025, 3, 9, 9, 30, 0, 0, time.UTC)

	sched := newTestScheduler(appts, store, &memPrefs{}, sender, now)
	require.NoError(t, sched.Scan(context.Background()))

	r := store.byAppt["a1"]
	require.NotNil(t, r)
	assert.Equal(t, models.ReminderFailed, r.Status)
	assert.Equal(t, 1, r.Attempts)

	// Next tick: the retry succeeds, still one reminder record.
	require.NoError(t, sched.Scan(context.Background()))
	r = store.byAppt["a1"]
	assert.Equal(t, models.ReminderSent, r.Status)
	assert.Equal(t, 2, r.Attempts)
	assert.Len(t, store.byAppt, 1)
}

func TestScanStopsRetryingAtAttemptCap(t *testing.T) {
	appts := &memApptSource{appts: []models.Appointment{scheduledAppt("a1")}}
	store := newMemReminderStore()
	sender := &fakeSender{failFirst: 100}
	now := time.Date(2025, 3, 9, 9, 30, 0, 0, time.UTC)

	sched := newTestScheduler(appts, store, &memPrefs{}, sender, now)
	for i := 0; i < 5; i++ {
		require.NoError(t, sched.Scan(context.Background()))
	}

	r := store.byAppt["a1"]
	require.NotNil(t, r)
	assert.Equal(t, models.ReminderFailed, r.Status)
	assert.Equal(t, 3, r.Attempts, "three total attempts, then give up")
}

func TestRetrySkipsCancelledAppointments(t *testing.T) {
	appt := scheduledAppt("a1")
	appts := &memApptSource{appts: []models.Appointment{appt}}
	store := newMemReminderStore()
	sender := &fakeSender{failFirst: 1}
	now := time.Date(2025, 3, 9, 9, 30, 0, 0, time.UTC)

	sched := newTestScheduler(appts, store, &memPrefs{}, sender, now)
	require.NoError(t, sched.Scan(context.Background()))
	require.Equal(t, models.ReminderFailed, store.byAppt["a1"].Status)

	// The appointment gets cancelled between ticks; the failed reminder is
	// left alone.
	appts.appts[0].Status = models.StatusCancelled
	require.NoError(t, sched.Scan(context.Background()))
	assert.Equal(t, 1, store.byAppt["a1"].Attempts)
}
