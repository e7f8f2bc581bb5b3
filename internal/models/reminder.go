package models

import (
	"time"
)

// ReminderChannel is the delivery channel for a reminder
type ReminderChannel string

const (
	ChannelEmail ReminderChannel = "email"
	ChannelSMS   ReminderChannel = "sms"
)

// ReminderStatus represents the delivery state of a reminder
type ReminderStatus string

const (
	ReminderSent    ReminderStatus = "sent"
	ReminderFailed  ReminderStatus = "failed"
	ReminderPending ReminderStatus = "pending"
)

// Reminder records the notification emitted for an appointment entering the
// 24-hour lookahead window. The unique index on AppointmentID backs the
// one-reminder-per-appointment invariant.
type Reminder struct {
	BaseModel
	AppointmentID string          `gorm:"size:36;uniqueIndex" json:"appointmentId"`
	Channel       ReminderChannel `gorm:"size:10" json:"channel"`
	SentAt        time.Time       `json:"sentAt"`
	Status        ReminderStatus  `gorm:"size:10;default:'pending'" json:"status"`
	Attempts      int             `gorm:"default:0" json:"attempts"`

	Appointment Appointment `gorm:"foreignKey:AppointmentID" json:"-"`
}
