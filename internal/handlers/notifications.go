package handlers

import (
	"github.com/gin-gonic/gin"

	"citasalud-server/internal/middleware"
	"citasalud-server/internal/models"
	"citasalud-server/internal/notifications"
	"citasalud-server/internal/reminders"
	"citasalud-server/internal/utils"
)

// NotificationHandler serves reminder preferences and the reminder log.
type NotificationHandler struct {
	Prefs     notifications.PreferenceStore
	Reminders reminders.Store
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(prefs notifications.PreferenceStore, store reminders.Store) *NotificationHandler {
	return &NotificationHandler{Prefs: prefs, Reminders: store}
}

// GetPreferences returns the authenticated user's notification preference,
// or the defaults when none has been saved.
func (h *NotificationHandler) GetPreferences(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	pref, err := h.Prefs.Get(c.Request.Context(), userID)
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch preferences: "+err.Error())
		return
	}
	if pref == nil {
		pref = &models.NotificationPreference{UserID: userID, Channel: models.ChannelEmail}
	}

	utils.Success(c, "Preferences fetched successfully", pref)
}

// UpdatePreferencesRequest represents the request body for saving preferences.
type UpdatePreferencesRequest struct {
	Channel models.ReminderChannel `json:"channel" binding:"required,oneof=email sms"`
	Email   string                 `json:"email" binding:"omitempty,email"`
	Phone   string                 `json:"phone" binding:"omitempty,numeric,min=7,max=15"`
}

// UpdatePreferences replaces the user's notification preference wholesale.
func (h *NotificationHandler) UpdatePreferences(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var req UpdatePreferencesRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	// The contact field for the chosen channel must be present when there is
	// no registered address to fall back to; the reminder scan falls back to
	// the profile contact, so only the channel itself is mandatory here.
	pref := &models.NotificationPreference{
		UserID:  userID,
		Channel: req.Channel,
		Email:   req.Email,
		Phone:   req.Phone,
	}
	if err := h.Prefs.Set(c.Request.Context(), pref); err != nil {
		utils.InternalServerError(c, "Failed to save preferences: "+err.Error())
		return
	}

	utils.Success(c, "Preferences saved successfully", pref)
}

// GetReminders returns the reminder log for the authenticated user's
// appointments.
func (h *NotificationHandler) GetReminders(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	log, err := h.Reminders.ListByAffiliate(c.Request.Context(), userID)
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch reminders: "+err.Error())
		return
	}

	utils.Success(c, "Reminders fetched successfully", log)
}
