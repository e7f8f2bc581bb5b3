package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"citasalud-server/internal/catalog"
	"citasalud-server/internal/models"
	"citasalud-server/internal/scheduling"
	"citasalud-server/internal/utils"
)

// fakeRepo is a minimal in-memory scheduling.Repository for handler tests.
type fakeRepo struct {
	appts map[string]*models.Appointment
	seq   int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{appts: make(map[string]*models.Appointment)}
}

func (f *fakeRepo) Create(ctx context.Context, a *models.Appointment) error {
	if a.ID == "" {
		f.seq++
		a.ID = fmt.Sprintf("appt-%d", f.seq)
	}
	stored := *a
	f.appts[a.ID] = &stored
	return nil
}

func (f *fakeRepo) FindByID(ctx context.Context, id string) (*models.Appointment, error) {
	a, ok := f.appts[id]
	if !ok {
		return nil, scheduling.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeRepo) Save(ctx context.Context, a *models.Appointment) error {
	stored := *a
	f.appts[a.ID] = &stored
	return nil
}

func (f *fakeRepo) ListByAffiliate(ctx context.Context, affiliateID string, flt scheduling.Filter) ([]models.Appointment, error) {
	var out []models.Appointment
	for _, a := range f.appts {
		if a.AffiliateID == affiliateID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date+out[i].Time < out[j].Date+out[j].Time })
	return out, nil
}

func (f *fakeRepo) TakenSlots(ctx context.Context, professionalID, date string) ([]string, error) {
	var out []string
	for _, a := range f.appts {
		if a.ProfessionalID == professionalID && a.Date == date && a.Status == models.StatusScheduled {
			out = append(out, a.Time)
		}
	}
	return out, nil
}

func (f *fakeRepo) SlotTaken(ctx context.Context, professionalID, date, timeOfDay, excludeID string) (bool, error) {
	for _, a := range f.appts {
		if a.ID != excludeID && a.ProfessionalID == professionalID &&
			a.Date == date && a.Time == timeOfDay && a.Status == models.StatusScheduled {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) ListScheduled(ctx context.Context) ([]models.Appointment, error) {
	return nil, nil
}

// newTestRouter wires the appointment routes behind a stub auth middleware
// that authenticates everything as user-1 (affiliate).
func newTestRouter(t *testing.T) (*gin.Engine, *fakeRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := newFakeRepo()
	now := time.Date(2025, 3, 8, 9, 0, 0, 0, time.UTC)
	svc := scheduling.NewService(repo, catalog.New(), nil,
		scheduling.WithClock(func() time.Time { return now }),
		scheduling.WithLocation(time.UTC),
	)
	h := NewAppointmentHandler(svc)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", "user-1")
		c.Set("userRole", models.RoleAffiliate)
		c.Next()
	})
	r.GET("/appointments/availability", h.GetAvailability)
	r.POST("/appointments", h.CreateAppointment)
	r.GET("/appointments", h.ListAppointments)
	r.GET("/appointments/summary", h.GetSummary)
	r.GET("/appointments/:id", h.GetAppointmentByID)
	r.PATCH("/appointments/:id/reschedule", h.RescheduleAppointment)
	r.PATCH("/appointments/:id/cancel", h.CancelAppointment)
	return r, repo
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func bookingBody() gin.H {
	return gin.H{
		"locationId":     "1",
		"specialtyId":    "2",
		"professionalId": "3",
		"date":           "2025-03-10",
		"time":           "09:00",
	}
}

func TestCreateAndAvailabilityFlow(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/appointments", bookingBody())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodGet, "/appointments/availability?professionalId=3&date=2025-03-10", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp utils.ResponseData
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp.Data.(map[string]interface{})
	slots := data["slots"].([]interface{})
	assert.Len(t, slots, 15)
	assert.NotContains(t, slots, "09:00")
}

func TestCreateConflictReturns409(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/appointments", bookingBody())
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodPost, "/appointments", bookingBody())
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCancelInsideCutoffReturns422(t *testing.T) {
	r, repo := newTestRouter(t)

	// Appointment later today, inside the 24-hour window.
	appt := &models.Appointment{
		AffiliateID:    "user-1",
		LocationID:     "1",
		SpecialtyID:    "2",
		ProfessionalID: "3",
		Date:           "2025-03-08",
		Time:           "15:00",
		Status:         models.StatusScheduled,
	}
	require.NoError(t, repo.Create(context.Background(), appt))

	w := doJSON(t, r, http.MethodPatch, "/appointments/"+appt.ID+"/cancel", gin.H{"reason": "No puedo asistir"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestRescheduleForeignAppointmentForbidden(t *testing.T) {
	r, repo := newTestRouter(t)

	appt := &models.Appointment{
		AffiliateID:    "someone-else",
		LocationID:     "1",
		SpecialtyID:    "2",
		ProfessionalID: "3",
		Date:           "2025-03-10",
		Time:           "09:00",
		Status:         models.StatusScheduled,
	}
	require.NoError(t, repo.Create(context.Background(), appt))

	w := doJSON(t, r, http.MethodPatch, "/appointments/"+appt.ID+"/reschedule",
		gin.H{"date": "2025-03-11", "time": "10:00"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAppointmentNotFoundReturns404(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/appointments/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCancelMissingReasonReturns400(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/appointments", bookingBody())
	require.Equal(t, http.StatusCreated, w.Code)

	var resp utils.ResponseData
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	id := resp.Data.(map[string]interface{})["id"].(string)

	w = doJSON(t, r, http.MethodPatch, "/appointments/"+id+"/cancel", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAvailabilityRequiresParams(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/appointments/availability?professionalId=3", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
