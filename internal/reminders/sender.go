package reminders

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"citasalud-server/internal/models"
)

// Delivery is one reminder send: the channel, the resolved contact address
// and the appointment being reminded about.
type Delivery struct {
	Channel     models.ReminderChannel
	To          string
	Appointment models.Appointment
}

// Sender delivers a reminder over a channel.
type Sender interface {
	Send(ctx context.Context, d Delivery) error
}

// SimulatedSender is the production sender: no real email or SMS transport is
// wired, so it records the send in the log and reports success. Swapping in a
// real transport means implementing Sender and changing nothing else.
type SimulatedSender struct {
	log zerolog.Logger
}

func NewSimulatedSender(log zerolog.Logger) *SimulatedSender {
	return &SimulatedSender{log: log}
}

func (s *SimulatedSender) Send(ctx context.Context, d Delivery) error {
	if d.To == "" {
		return fmt.Errorf("no contact address for %s reminder", d.Channel)
	}
	s.log.Info().
		Str("channel", string(d.Channel)).
		Str("to", d.To).
		Str("appointment_id", d.Appointment.ID).
		Str("date", d.Appointment.Date).
		Str("time", d.Appointment.Time).
		Msg("reminder delivered")
	return nil
}
