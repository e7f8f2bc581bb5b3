package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"citasalud-server/internal/middleware"
	"citasalud-server/internal/models"
	"citasalud-server/internal/scheduling"
	"citasalud-server/internal/utils"
)

// AppointmentHandler handles appointment booking requests. All business rules
// live in the scheduling service; the handler only binds, authorizes and maps
// errors to HTTP statuses.
type AppointmentHandler struct {
	Service *scheduling.Service
}

// NewAppointmentHandler creates a new AppointmentHandler.
func NewAppointmentHandler(svc *scheduling.Service) *AppointmentHandler {
	return &AppointmentHandler{Service: svc}
}

func respondSchedulingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, scheduling.ErrSlotTaken):
		utils.Conflict(c, "This slot is already taken. Please choose another one.")
	case errors.Is(err, scheduling.ErrTooLate):
		utils.UnprocessableEntity(c, "Appointments cannot be modified or cancelled less than 24 hours in advance.")
	case errors.Is(err, scheduling.ErrNotFound):
		utils.NotFound(c, "Appointment not found")
	case errors.Is(err, scheduling.ErrInvalid):
		utils.BadRequest(c, err.Error())
	default:
		utils.InternalServerError(c, "Unexpected error: "+err.Error())
	}
}

// GetAvailability returns the free slots for a professional on a date.
func (h *AppointmentHandler) GetAvailability(c *gin.Context) {
	professionalID := c.Query("professionalId")
	date := c.Query("date")
	if professionalID == "" || date == "" {
		utils.BadRequest(c, "professionalId and date query parameters are required")
		return
	}

	slots, err := h.Service.AvailableSlots(c.Request.Context(), professionalID, date)
	if err != nil {
		utils.InternalServerError(c, "Failed to compute availability: "+err.Error())
		return
	}

	utils.Success(c, "Available slots fetched successfully", gin.H{
		"professionalId": professionalID,
		"date":           date,
		"slots":          slots,
	})
}

// CreateAppointmentRequest represents the request body for booking.
type CreateAppointmentRequest struct {
	LocationID     string `json:"locationId" binding:"required"`
	SpecialtyID    string `json:"specialtyId" binding:"required"`
	ProfessionalID string `json:"professionalId" binding:"required"`
	Date           string `json:"date" binding:"required"`
	Time           string `json:"time" binding:"required"`
	Notes          string `json:"notes"`
}

// CreateAppointment books an appointment for the authenticated affiliate.
func (h *AppointmentHandler) CreateAppointment(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var req CreateAppointmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	appt, err := h.Service.Schedule(c.Request.Context(), scheduling.ScheduleRequest{
		AffiliateID:    userID,
		LocationID:     req.LocationID,
		SpecialtyID:    req.SpecialtyID,
		ProfessionalID: req.ProfessionalID,
		Date:           req.Date,
		Time:           req.Time,
		Notes:          req.Notes,
	})
	if err != nil {
		respondSchedulingError(c, err)
		return
	}

	utils.Created(c, "Appointment scheduled successfully", appt)
}

// ListAppointments returns the authenticated user's appointments, optionally
// filtered by date range, status, location or specialty.
func (h *AppointmentHandler) ListAppointments(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	f := scheduling.Filter{
		DateFrom:    c.Query("dateFrom"),
		DateTo:      c.Query("dateTo"),
		Status:      models.AppointmentStatus(c.Query("status")),
		LocationID:  c.Query("locationId"),
		SpecialtyID: c.Query("specialtyId"),
	}

	appts, err := h.Service.List(c.Request.Context(), userID, f)
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch appointments: "+err.Error())
		return
	}

	utils.Success(c, "Appointments fetched successfully", appts)
}

// GetSummary returns the dashboard metrics for the authenticated user.
func (h *AppointmentHandler) GetSummary(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	summary, err := h.Service.Summarize(c.Request.Context(), userID)
	if err != nil {
		utils.InternalServerError(c, "Failed to compute summary: "+err.Error())
		return
	}

	utils.Success(c, "Summary computed successfully", summary)
}

// GetAppointmentByID fetches one appointment, restricted to its owner or a
// coordinator.
func (h *AppointmentHandler) GetAppointmentByID(c *gin.Context) {
	appt, ok := h.ownedAppointment(c)
	if !ok {
		return
	}
	utils.Success(c, "Appointment fetched successfully", appt)
}

// RescheduleAppointmentRequest represents the request body for rescheduling.
type RescheduleAppointmentRequest struct {
	Date string `json:"date" binding:"required"`
	Time string `json:"time" binding:"required"`
}

// RescheduleAppointment moves an appointment to a new slot.
func (h *AppointmentHandler) RescheduleAppointment(c *gin.Context) {
	appt, ok := h.ownedAppointment(c)
	if !ok {
		return
	}

	var req RescheduleAppointmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	updated, err := h.Service.Reschedule(c.Request.Context(), appt.ID, req.Date, req.Time)
	if err != nil {
		respondSchedulingError(c, err)
		return
	}

	utils.Success(c, "Appointment rescheduled successfully", updated)
}

// CancelAppointmentRequest represents the request body for cancellation.
type CancelAppointmentRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// CancelAppointment cancels an appointment, freeing its slot.
func (h *AppointmentHandler) CancelAppointment(c *gin.Context) {
	appt, ok := h.ownedAppointment(c)
	if !ok {
		return
	}

	var req CancelAppointmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	updated, err := h.Service.Cancel(c.Request.Context(), appt.ID, req.Reason)
	if err != nil {
		respondSchedulingError(c, err)
		return
	}

	utils.Success(c, "Appointment cancelled successfully. The slot has been freed.", updated)
}

// ownedAppointment loads the appointment from the path id and checks the
// requester owns it (coordinators may access any). Writes the error response
// itself when returning ok=false.
func (h *AppointmentHandler) ownedAppointment(c *gin.Context) (*models.Appointment, bool) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return nil, false
	}

	appt, err := h.Service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondSchedulingError(c, err)
		return nil, false
	}

	role, _ := middleware.GetUserRoleFromContext(c)
	if appt.AffiliateID != userID && role != models.RoleCoordinator {
		utils.Forbidden(c, "You are not authorized to access this appointment")
		return nil, false
	}
	return appt, true
}
