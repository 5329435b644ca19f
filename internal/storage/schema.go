package storage

import (
	"context"

	"github.com/alishahabi1/patient-appointment-booking/libs/db"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS appointments (
	id                 BIGSERIAL PRIMARY KEY,
	patient_type       TEXT NOT NULL CHECK (patient_type IN ('new', 'existing')),
	first_name         TEXT NOT NULL,
	last_name          TEXT NOT NULL,
	phone              TEXT NOT NULL,
	email              TEXT,
	insurance_provider TEXT,
	insurance_id       TEXT,
	reason             TEXT NOT NULL,
	appointment_dt     TIMESTAMPTZ NOT NULL,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_appointments_dt ON appointments (appointment_dt);
CREATE INDEX IF NOT EXISTS idx_appointments_phone ON appointments (phone);

CREATE TABLE IF NOT EXISTS outbox_events (
	id             BIGSERIAL PRIMARY KEY,
	event_id       UUID NOT NULL DEFAULT gen_random_uuid(),
	aggregate_type TEXT NOT NULL,
	aggregate_id   TEXT NOT NULL,
	event_type     TEXT NOT NULL,
	payload        JSONB NOT NULL,
	traceparent    TEXT,
	tracestate     TEXT,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	published_at   TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_outbox_unpublished ON outbox_events (id) WHERE published_at IS NULL;
`

// EnsureSchema creates the appointments and outbox tables if missing. The
// unique index on appointment_dt is the double-booking guard.
func EnsureSchema(ctx context.Context, pool *db.Pool) error {
	_, err := pool.Exec(ctx, schemaSQL)
	return err
}
