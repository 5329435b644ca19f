package storage

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/alishahabi1/patient-appointment-booking/internal/model"
	"github.com/alishahabi1/patient-appointment-booking/internal/outbox"
	"github.com/alishahabi1/patient-appointment-booking/libs/db"
)

// ErrSlotTaken reports a unique-index violation on appointment_dt: another
// booking holds that instant. The DB constraint is the only double-booking
// guard, so a lost race between two concurrent bookings surfaces here.
var ErrSlotTaken = errors.New("appointment slot already taken")

var ErrNotFound = errors.New("appointment not found")

type Repository struct {
	pool   *db.Pool
	outbox *outbox.Repository
}

func NewRepository(pool *db.Pool, outboxRepo *outbox.Repository) *Repository {
	return &Repository{pool: pool, outbox: outboxRepo}
}

const appointmentColumns = `id, patient_type, first_name, last_name, phone, email,
	insurance_provider, insurance_id, reason, appointment_dt, created_at`

// Create inserts the appointment and a booked event in one transaction.
// Returns ErrSlotTaken when the unique index on appointment_dt rejects the row.
func (r *Repository) Create(ctx context.Context, appt model.Appointment) (model.Appointment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return model.Appointment{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
		INSERT INTO appointments
			(patient_type, first_name, last_name, phone, email, insurance_provider, insurance_id, reason, appointment_dt)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`, appt.PatientType, appt.FirstName, appt.LastName, appt.Phone, appt.Email,
		appt.InsuranceProvider, appt.InsuranceID, appt.Reason, appt.AppointmentAt).
		Scan(&appt.ID, &appt.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return model.Appointment{}, ErrSlotTaken
		}
		return model.Appointment{}, err
	}

	if err := r.insertEvent(ctx, tx, outbox.EventAppointmentBooked, appt); err != nil {
		return model.Appointment{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return model.Appointment{}, err
	}
	return appt, nil
}

func (r *Repository) All(ctx context.Context) ([]model.Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		ORDER BY appointment_dt ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAppointments(rows)
}

func (r *Repository) ByPhone(ctx context.Context, phone string) ([]model.Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE phone = $1
		ORDER BY appointment_dt ASC
	`, phone)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAppointments(rows)
}

// BookedBetween returns the booked instants in [from, to), used to mark slot
// availability for one day.
func (r *Repository) BookedBetween(ctx context.Context, from, to time.Time) ([]time.Time, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT appointment_dt
		FROM appointments
		WHERE appointment_dt >= $1 AND appointment_dt < $2
		ORDER BY appointment_dt ASC
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var booked []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		booked = append(booked, t)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return booked, nil
}

// Delete hard-deletes the appointment and records a cancelled event in the
// same transaction. Returns ErrNotFound for an unknown id.
func (r *Repository) Delete(ctx context.Context, id int64) (model.Appointment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return model.Appointment{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
		DELETE FROM appointments
		WHERE id = $1
		RETURNING `+appointmentColumns+`
	`, id)
	appt, err := scanAppointment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Appointment{}, ErrNotFound
		}
		return model.Appointment{}, err
	}

	if err := r.insertEvent(ctx, tx, outbox.EventAppointmentCancelled, appt); err != nil {
		return model.Appointment{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return model.Appointment{}, err
	}
	return appt, nil
}

func (r *Repository) insertEvent(ctx context.Context, tx pgx.Tx, eventType string, appt model.Appointment) error {
	if r.outbox == nil {
		return nil
	}
	payload, err := json.Marshal(map[string]any{
		"appointment_id": appt.ID,
		"patient_type":   appt.PatientType,
		"phone":          appt.Phone,
		"appointment_dt": appt.AppointmentAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	return r.outbox.Insert(ctx, tx, outbox.Event{
		AggregateType: "appointment",
		AggregateID:   strconv.FormatInt(appt.ID, 10),
		EventType:     eventType,
		Payload:       payload,
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAppointment(row rowScanner) (model.Appointment, error) {
	var appt model.Appointment
	err := row.Scan(
		&appt.ID,
		&appt.PatientType,
		&appt.FirstName,
		&appt.LastName,
		&appt.Phone,
		&appt.Email,
		&appt.InsuranceProvider,
		&appt.InsuranceID,
		&appt.Reason,
		&appt.AppointmentAt,
		&appt.CreatedAt,
	)
	return appt, err
}

func scanAppointments(rows pgx.Rows) ([]model.Appointment, error) {
	var appts []model.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, appt)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return appts, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
