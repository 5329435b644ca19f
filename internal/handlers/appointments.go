package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/alishahabi1/patient-appointment-booking/internal/admin"
	"github.com/alishahabi1/patient-appointment-booking/internal/availability"
	"github.com/alishahabi1/patient-appointment-booking/internal/model"
	"github.com/alishahabi1/patient-appointment-booking/internal/storage"
)

// Store is the persistence surface the handlers need. *storage.Repository
// implements it.
type Store interface {
	Create(ctx context.Context, appt model.Appointment) (model.Appointment, error)
	All(ctx context.Context) ([]model.Appointment, error)
	ByPhone(ctx context.Context, phone string) ([]model.Appointment, error)
	BookedBetween(ctx context.Context, from, to time.Time) ([]time.Time, error)
	Delete(ctx context.Context, id int64) (model.Appointment, error)
}

const minPhoneLength = 7

var (
	dateRe      = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timestampRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}$`)
)

type AppointmentsHandler struct {
	store    Store
	sessions *admin.Sessions
	logger   *slog.Logger
	loc      *time.Location
}

func NewAppointmentsHandler(store Store, sessions *admin.Sessions, logger *slog.Logger, loc *time.Location) *AppointmentsHandler {
	return &AppointmentsHandler{
		store:    store,
		sessions: sessions,
		logger:   logger,
		loc:      loc,
	}
}

type createAppointmentRequest struct {
	PatientType       string `json:"patient_type"`
	FirstName         string `json:"first_name"`
	LastName          string `json:"last_name"`
	Phone             string `json:"phone"`
	Email             string `json:"email"`
	InsuranceProvider string `json:"insurance_provider"`
	InsuranceID       string `json:"insurance_id"`
	Reason            string `json:"reason"`
	AppointmentDt     string `json:"appointment_dt"`
}

type appointmentItem struct {
	ID                int64   `json:"id"`
	PatientType       string  `json:"patient_type"`
	FirstName         string  `json:"first_name"`
	LastName          string  `json:"last_name"`
	Phone             string  `json:"phone"`
	Email             *string `json:"email"`
	InsuranceProvider *string `json:"insurance_provider"`
	InsuranceID       *string `json:"insurance_id"`
	Reason            string  `json:"reason"`
	AppointmentDt     string  `json:"appointment_dt"`
	CreatedAt         string  `json:"created_at"`
}

type slotItem struct {
	Time      string `json:"time"`
	Datetime  string `json:"datetime"`
	Available bool   `json:"available"`
}

// Collection serves /appointments: POST creates a booking (public), GET lists
// every appointment (admin only).
func (h *AppointmentsHandler) Collection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.create(w, r)
	case http.MethodGet:
		h.list(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *AppointmentsHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	req.PatientType = strings.TrimSpace(req.PatientType)
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Reason = strings.TrimSpace(req.Reason)
	req.AppointmentDt = strings.TrimSpace(req.AppointmentDt)

	required := []struct {
		field string
		value string
	}{
		{"patient_type", req.PatientType},
		{"first_name", req.FirstName},
		{"last_name", req.LastName},
		{"phone", req.Phone},
		{"reason", req.Reason},
		{"appointment_dt", req.AppointmentDt},
	}
	for _, f := range required {
		if f.value == "" {
			writeError(w, http.StatusBadRequest, f.field+" is required")
			return
		}
	}

	if !model.ValidPatientType(req.PatientType) {
		writeError(w, http.StatusBadRequest, "patient_type must be 'new' or 'existing'")
		return
	}

	if !timestampRe.MatchString(req.AppointmentDt) {
		writeError(w, http.StatusBadRequest, "appointment_dt must match YYYY-MM-DDTHH:MM:SS")
		return
	}
	startsAt, err := time.ParseInLocation(availability.TimestampLayout, req.AppointmentDt, h.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "appointment_dt must match YYYY-MM-DDTHH:MM:SS")
		return
	}

	appt := model.Appointment{
		PatientType:       req.PatientType,
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		Phone:             req.Phone,
		Email:             optional(req.Email),
		InsuranceProvider: optional(req.InsuranceProvider),
		InsuranceID:       optional(req.InsuranceID),
		Reason:            req.Reason,
		AppointmentAt:     startsAt,
	}

	created, err := h.store.Create(r.Context(), appt)
	if err != nil {
		if errors.Is(err, storage.ErrSlotTaken) {
			writeError(w, http.StatusConflict, "This time slot is no longer available. Please choose another.")
			return
		}
		h.logger.Error("create appointment failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, h.toItem(created))
}

func (h *AppointmentsHandler) list(w http.ResponseWriter, r *http.Request) {
	if !h.sessions.Authenticated(r) {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	appts, err := h.store.All(r.Context())
	if err != nil {
		h.logger.Error("list appointments failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, h.toItems(appts))
}

// ByID serves /appointments/{id}: DELETE removes an appointment (admin only).
func (h *AppointmentsHandler) ByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if !h.sessions.Authenticated(r) {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	raw := strings.TrimPrefix(r.URL.Path, "/appointments/")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "id must be numeric")
		return
	}

	if _, err := h.store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "appointment not found")
			return
		}
		h.logger.Error("delete appointment failed", "err", err, "id", id)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Timeslots serves GET /timeslots?date=YYYY-MM-DD with the open slots for
// that day. Weekends and fully-booked days yield an empty array.
func (h *AppointmentsHandler) Timeslots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if !dateRe.MatchString(date) {
		writeError(w, http.StatusBadRequest, "date must match YYYY-MM-DD")
		return
	}
	day, err := time.ParseInLocation(availability.DateLayout, date, h.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be a valid calendar date")
		return
	}

	booked, err := h.store.BookedBetween(r.Context(), day, day.AddDate(0, 0, 1))
	if err != nil {
		h.logger.Error("load booked slots failed", "err", err, "date", date)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	items := make([]slotItem, 0, 16)
	for _, slot := range availability.DaySlots(day, booked) {
		if !slot.Available {
			continue
		}
		items = append(items, slotItem{
			Time:      slot.StartsAt.Format(availability.ClockLayout),
			Datetime:  slot.StartsAt.Format(availability.TimestampLayout),
			Available: true,
		})
	}
	writeJSON(w, http.StatusOK, items)
}

// Lookup serves GET /my-appointments?phone= for patient self-service. The
// phone number itself is the (weak) access credential.
func (h *AppointmentsHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	phone := strings.TrimSpace(r.URL.Query().Get("phone"))
	if len(phone) < minPhoneLength {
		writeError(w, http.StatusBadRequest, "phone must be at least 7 characters")
		return
	}

	appts, err := h.store.ByPhone(r.Context(), phone)
	if err != nil {
		h.logger.Error("lookup by phone failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, h.toItems(appts))
}

func (h *AppointmentsHandler) toItem(appt model.Appointment) appointmentItem {
	return appointmentItem{
		ID:                appt.ID,
		PatientType:       appt.PatientType,
		FirstName:         appt.FirstName,
		LastName:          appt.LastName,
		Phone:             appt.Phone,
		Email:             appt.Email,
		InsuranceProvider: appt.InsuranceProvider,
		InsuranceID:       appt.InsuranceID,
		Reason:            appt.Reason,
		AppointmentDt:     appt.AppointmentAt.In(h.loc).Format(availability.TimestampLayout),
		CreatedAt:         appt.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (h *AppointmentsHandler) toItems(appts []model.Appointment) []appointmentItem {
	items := make([]appointmentItem, 0, len(appts))
	for _, appt := range appts {
		items = append(items, h.toItem(appt))
	}
	return items
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
