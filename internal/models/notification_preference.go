package models

// NotificationPreference stores a user's preferred reminder channel and
// optional contact overrides. One row per user, replaced wholesale on save.
type NotificationPreference struct {
	UserID  string          `gorm:"primaryKey;size:36" json:"userId"`
	Channel ReminderChannel `gorm:"size:10;default:'email'" json:"channel"`
	Email   string          `gorm:"size:255" json:"email,omitempty"`
	Phone   string          `gorm:"size:15" json:"phone,omitempty"`
}
