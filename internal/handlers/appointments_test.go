package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/alishahabi1/patient-appointment-booking/internal/admin"
	"github.com/alishahabi1/patient-appointment-booking/internal/model"
	"github.com/alishahabi1/patient-appointment-booking/internal/storage"
)

// fakeStore mimics the repository, including its uniqueness guarantee on the
// appointment instant.
type fakeStore struct {
	nextID int64
	appts  []model.Appointment
	err    error
}

func (f *fakeStore) Create(_ context.Context, appt model.Appointment) (model.Appointment, error) {
	if f.err != nil {
		return model.Appointment{}, f.err
	}
	for _, existing := range f.appts {
		if existing.AppointmentAt.Equal(appt.AppointmentAt) {
			return model.Appointment{}, storage.ErrSlotTaken
		}
	}
	f.nextID++
	appt.ID = f.nextID
	appt.CreatedAt = time.Now().UTC()
	f.appts = append(f.appts, appt)
	return appt, nil
}

func (f *fakeStore) All(context.Context) ([]model.Appointment, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := append([]model.Appointment(nil), f.appts...)
	sort.Slice(out, func(i, j int) bool { return out[i].AppointmentAt.Before(out[j].AppointmentAt) })
	return out, nil
}

func (f *fakeStore) ByPhone(_ context.Context, phone string) ([]model.Appointment, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []model.Appointment
	for _, appt := range f.appts {
		if appt.Phone == phone {
			out = append(out, appt)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AppointmentAt.Before(out[j].AppointmentAt) })
	return out, nil
}

func (f *fakeStore) BookedBetween(_ context.Context, from, to time.Time) ([]time.Time, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []time.Time
	for _, appt := range f.appts {
		if !appt.AppointmentAt.Before(from) && appt.AppointmentAt.Before(to) {
			out = append(out, appt.AppointmentAt)
		}
	}
	return out, nil
}

func (f *fakeStore) Delete(_ context.Context, id int64) (model.Appointment, error) {
	if f.err != nil {
		return model.Appointment{}, f.err
	}
	for i, appt := range f.appts {
		if appt.ID == id {
			f.appts = append(f.appts[:i], f.appts[i+1:]...)
			return appt, nil
		}
	}
	return model.Appointment{}, storage.ErrNotFound
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newTestHandler(store Store) (*AppointmentsHandler, *admin.Sessions) {
	sessions := admin.NewSessions("test-signing-secret", "", "letmein", false)
	return NewAppointmentsHandler(store, sessions, testLogger(), time.UTC), sessions
}

func bookingBody(dt string) string {
	return fmt.Sprintf(`{
		"patient_type": "new",
		"first_name": "Jane",
		"last_name": "Doe",
		"phone": "5555550123",
		"reason": "checkup",
		"appointment_dt": %q
	}`, dt)
}

func postAppointment(h *AppointmentsHandler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "http://example.com/appointments", strings.NewReader(body))
	rw := httptest.NewRecorder()
	h.Collection(rw, req)
	return rw
}

func TestCreateAppointment(t *testing.T) {
	h, _ := newTestHandler(&fakeStore{})

	rw := postAppointment(h, bookingBody("2026-03-16T09:00:00"))
	if rw.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rw.Code, rw.Body.String())
	}

	var created appointmentItem
	if err := json.Unmarshal(rw.Body.Bytes(), &created); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("expected assigned id")
	}
	if created.AppointmentDt != "2026-03-16T09:00:00" {
		t.Fatalf("unexpected appointment_dt %q", created.AppointmentDt)
	}
	if created.CreatedAt == "" {
		t.Fatal("expected created_at to be set")
	}
	if created.Email != nil {
		t.Fatalf("expected nil email, got %q", *created.Email)
	}
}

func TestCreateAppointment_DuplicateSlotConflicts(t *testing.T) {
	h, _ := newTestHandler(&fakeStore{})

	if rw := postAppointment(h, bookingBody("2026-03-16T09:00:00")); rw.Code != http.StatusCreated {
		t.Fatalf("first booking: expected 201, got %d", rw.Code)
	}
	rw := postAppointment(h, bookingBody("2026-03-16T09:00:00"))
	if rw.Code != http.StatusConflict {
		t.Fatalf("second booking: expected 409, got %d", rw.Code)
	}
}

func TestCreateAppointment_Validation(t *testing.T) {
	h, _ := newTestHandler(&fakeStore{})

	cases := []struct {
		name string
		body string
	}{
		{"invalid json", `{`},
		{"missing first_name", `{"patient_type":"new","last_name":"Doe","phone":"5555550123","reason":"checkup","appointment_dt":"2026-03-16T09:00:00"}`},
		{"blank phone", `{"patient_type":"new","first_name":"Jane","last_name":"Doe","phone":"  ","reason":"checkup","appointment_dt":"2026-03-16T09:00:00"}`},
		{"bad patient_type", `{"patient_type":"robot","first_name":"Jane","last_name":"Doe","phone":"5555550123","reason":"checkup","appointment_dt":"2026-03-16T09:00:00"}`},
		{"bad timestamp", bookingBody("2026-03-16 09:00")},
		{"impossible timestamp", bookingBody("2026-13-40T09:00:00")},
	}
	for _, tc := range cases {
		if rw := postAppointment(h, tc.body); rw.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", tc.name, rw.Code)
		}
	}
}

func TestTimeslots(t *testing.T) {
	store := &fakeStore{}
	h, _ := newTestHandler(store)

	// Book 09:00 on a Monday, then ask for that day's slots.
	if rw := postAppointment(h, bookingBody("2026-03-16T09:00:00")); rw.Code != http.StatusCreated {
		t.Fatalf("booking failed: %d", rw.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "http://example.com/timeslots?date=2026-03-16", nil)
	rw := httptest.NewRecorder()
	h.Timeslots(rw, req)
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rw.Code)
	}

	var slots []slotItem
	if err := json.Unmarshal(rw.Body.Bytes(), &slots); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if len(slots) != 15 {
		t.Fatalf("expected 15 open slots after one booking, got %d", len(slots))
	}
	for _, s := range slots {
		if !s.Available {
			t.Fatalf("slot %s should be available", s.Datetime)
		}
		if s.Datetime == "2026-03-16T09:00:00" {
			t.Fatal("booked slot must not be listed")
		}
	}
	if slots[0].Time != "09:30" || slots[len(slots)-1].Time != "16:30" {
		t.Fatalf("unexpected slot range %s..%s", slots[0].Time, slots[len(slots)-1].Time)
	}
}

func TestTimeslots_WeekendEmpty(t *testing.T) {
	h, _ := newTestHandler(&fakeStore{})

	// 2026-03-14 is a Saturday.
	req := httptest.NewRequest(http.MethodGet, "http://example.com/timeslots?date=2026-03-14", nil)
	rw := httptest.NewRecorder()
	h.Timeslots(rw, req)
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rw.Code)
	}
	if body := strings.TrimSpace(rw.Body.String()); body != "[]" {
		t.Fatalf("expected empty array, got %s", body)
	}
}

func TestTimeslots_BadDate(t *testing.T) {
	h, _ := newTestHandler(&fakeStore{})

	for _, q := range []string{"", "date=16-03-2026", "date=2026-3-16", "date=notadate"} {
		req := httptest.NewRequest(http.MethodGet, "http://example.com/timeslots?"+q, nil)
		rw := httptest.NewRecorder()
		h.Timeslots(rw, req)
		if rw.Code != http.StatusBadRequest {
			t.Fatalf("query %q: expected 400, got %d", q, rw.Code)
		}
	}
}

func TestLookup(t *testing.T) {
	h, _ := newTestHandler(&fakeStore{})

	// Two bookings for the same phone, inserted out of order.
	if rw := postAppointment(h, bookingBody("2026-03-17T10:00:00")); rw.Code != http.StatusCreated {
		t.Fatalf("booking failed: %d", rw.Code)
	}
	if rw := postAppointment(h, bookingBody("2026-03-16T09:00:00")); rw.Code != http.StatusCreated {
		t.Fatalf("booking failed: %d", rw.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "http://example.com/my-appointments?phone=5555550123", nil)
	rw := httptest.NewRecorder()
	h.Lookup(rw, req)
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rw.Code)
	}

	var appts []appointmentItem
	if err := json.Unmarshal(rw.Body.Bytes(), &appts); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if len(appts) != 2 {
		t.Fatalf("expected 2 appointments, got %d", len(appts))
	}
	if appts[0].AppointmentDt != "2026-03-16T09:00:00" || appts[1].AppointmentDt != "2026-03-17T10:00:00" {
		t.Fatalf("expected ascending order, got %s then %s", appts[0].AppointmentDt, appts[1].AppointmentDt)
	}
}

func TestLookup_UnknownPhoneEmptyArray(t *testing.T) {
	h, _ := newTestHandler(&fakeStore{})

	req := httptest.NewRequest(http.MethodGet, "http://example.com/my-appointments?phone=5555559999", nil)
	rw := httptest.NewRecorder()
	h.Lookup(rw, req)
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rw.Code)
	}
	if body := strings.TrimSpace(rw.Body.String()); body != "[]" {
		t.Fatalf("expected empty array, got %s", body)
	}
}

func TestLookup_ShortPhone(t *testing.T) {
	h, _ := newTestHandler(&fakeStore{})

	for _, phone := range []string{"", "123456", "  12345  "} {
		req := httptest.NewRequest(http.MethodGet, "http://example.com/my-appointments?phone="+strings.TrimSpace(phone), nil)
		rw := httptest.NewRecorder()
		h.Lookup(rw, req)
		if rw.Code != http.StatusBadRequest {
			t.Fatalf("phone %q: expected 400, got %d", phone, rw.Code)
		}
	}
}

func TestListRequiresAdmin(t *testing.T) {
	h, sessions := newTestHandler(&fakeStore{})

	req := httptest.NewRequest(http.MethodGet, "http://example.com/appointments", nil)
	rw := httptest.NewRecorder()
	h.Collection(rw, req)
	if rw.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without session, got %d", rw.Code)
	}

	cookie, err := sessions.IssueCookie()
	if err != nil {
		t.Fatalf("IssueCookie failed: %v", err)
	}
	authed := httptest.NewRequest(http.MethodGet, "http://example.com/appointments", nil)
	authed.AddCookie(cookie)
	rwOK := httptest.NewRecorder()
	h.Collection(rwOK, authed)
	if rwOK.Code != http.StatusOK {
		t.Fatalf("expected 200 with session, got %d", rwOK.Code)
	}
	if body := strings.TrimSpace(rwOK.Body.String()); body != "[]" {
		t.Fatalf("expected empty array, got %s", body)
	}
}

func TestDeleteAppointment(t *testing.T) {
	h, sessions := newTestHandler(&fakeStore{})

	if rw := postAppointment(h, bookingBody("2026-03-16T09:00:00")); rw.Code != http.StatusCreated {
		t.Fatalf("booking failed: %d", rw.Code)
	}
	cookie, err := sessions.IssueCookie()
	if err != nil {
		t.Fatalf("IssueCookie failed: %v", err)
	}

	del := func(path string, withCookie bool) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodDelete, "http://example.com"+path, nil)
		if withCookie {
			req.AddCookie(cookie)
		}
		rw := httptest.NewRecorder()
		h.ByID(rw, req)
		return rw
	}

	if rw := del("/appointments/1", false); rw.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without session, got %d", rw.Code)
	}
	if rw := del("/appointments/abc", true); rw.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-numeric id, got %d", rw.Code)
	}
	if rw := del("/appointments/42", true); rw.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown id, got %d", rw.Code)
	}
	if rw := del("/appointments/1", true); rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rw.Code)
	}

	// The deleted appointment no longer shows up in lookups.
	req := httptest.NewRequest(http.MethodGet, "http://example.com/my-appointments?phone=5555550123", nil)
	rw := httptest.NewRecorder()
	h.Lookup(rw, req)
	if body := strings.TrimSpace(rw.Body.String()); body != "[]" {
		t.Fatalf("expected empty array after delete, got %s", body)
	}
}
