package model

import "time"

// Patient types accepted by the booking workflow.
const (
	PatientTypeNew      = "new"
	PatientTypeExisting = "existing"
)

// Appointment is the sole persisted entity. Optional contact/insurance
// fields are nil when the patient left them blank.
type Appointment struct {
	ID                int64
	PatientType       string
	FirstName         string
	LastName          string
	Phone             string
	Email             *string
	InsuranceProvider *string
	InsuranceID       *string
	Reason            string
	AppointmentAt     time.Time
	CreatedAt         time.Time
}

func ValidPatientType(s string) bool {
	return s == PatientTypeNew || s == PatientTypeExisting
}
