// Package store persists appointments and SMS logs for the reminder and
// cancellation workflow. PostgresStore is used in production; SQLiteStore
// serves single-node and development deployments.
package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/maditrack-server/internal/domain"
)

// Store defines the datastore operations the workflow depends on.
type Store interface {
	// ListScheduledAppointmentsOn returns every appointment on the given date
	// (YYYY-MM-DD) whose status is scheduled.
	ListScheduledAppointmentsOn(ctx context.Context, date string) ([]domain.Appointment, error)

	// NextScheduledAppointmentForPhone returns the earliest scheduled appointment
	// for the phone number, ordered by date, then time, then ID.
	// Returns domain.ErrNotFound when there is none.
	NextScheduledAppointmentForPhone(ctx context.Context, phone string) (*domain.Appointment, error)

	// CancelAppointment marks the appointment cancelled only if it is still
	// scheduled. Returns domain.ErrNotFound for an unknown ID and
	// domain.ErrConflict when the appointment is no longer scheduled.
	CancelAppointment(ctx context.Context, id string, at time.Time) error

	// AppendSMSLog stores one outbound SMS attempt. ID and CreatedAt are
	// assigned when empty.
	AppendSMSLog(ctx context.Context, entry *domain.SMSLog) error

	// Health checks connectivity to the underlying database.
	Health(ctx context.Context) error

	// Close releases the underlying connection.
	Close() error
}

const appointmentColumns = `id, patient_id, patient_name, patient_phone, doctor_id,
	appointment_date, appointment_time, status, cancelled_at, created_at`

// scanner is an interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanAppointment scans a row selected with appointmentColumns.
func scanAppointment(s scanner) (*domain.Appointment, error) {
	a := &domain.Appointment{}
	var status string
	var cancelledAt sql.NullTime

	err := s.Scan(
		&a.ID, &a.PatientID, &a.PatientName, &a.PatientPhone, &a.DoctorID,
		&a.Date, &a.Time, &status, &cancelledAt, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.Status = domain.AppointmentStatus(status)
	if cancelledAt.Valid {
		t := cancelledAt.Time
		a.CancelledAt = &t
	}
	return a, nil
}

func scanAppointments(rows *sql.Rows) ([]domain.Appointment, error) {
	defer rows.Close()

	appointments := make([]domain.Appointment, 0)
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appointments = append(appointments, *a)
	}
	return appointments, rows.Err()
}
