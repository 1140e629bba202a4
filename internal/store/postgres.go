package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/maditrack-server/internal/domain"
)

// PostgresStore implements the Store interface using PostgreSQL.
// It expects the schema to already exist (created via migrations).
type PostgresStore struct {
	db     *sql.DB
	logger *logrus.Logger
}

// NewPostgresStore wraps an open PostgreSQL connection.
func NewPostgresStore(db *sql.DB, logger *logrus.Logger) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	return &PostgresStore{db: db, logger: logger}, nil
}

// ListScheduledAppointmentsOn returns scheduled appointments on a date.
func (s *PostgresStore) ListScheduledAppointmentsOn(ctx context.Context, date string) ([]domain.Appointment, error) {
	query := `SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE appointment_date = $1 AND status = $2
		ORDER BY appointment_time ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, date, string(domain.AppointmentScheduled))
	if err != nil {
		s.logger.WithError(err).WithField("date", date).Error("Failed to query scheduled appointments")
		return nil, fmt.Errorf("querying appointments for %s: %w", date, err)
	}

	appointments, err := scanAppointments(rows)
	if err != nil {
		return nil, fmt.Errorf("scanning appointments for %s: %w", date, err)
	}
	return appointments, nil
}

// NextScheduledAppointmentForPhone returns the earliest scheduled appointment for a phone.
func (s *PostgresStore) NextScheduledAppointmentForPhone(ctx context.Context, phone string) (*domain.Appointment, error) {
	query := `SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE patient_phone = $1 AND status = $2
		ORDER BY appointment_date ASC, appointment_time ASC, id ASC
		LIMIT 1`

	a, err := scanAppointment(s.db.QueryRowContext(ctx, query, phone, string(domain.AppointmentScheduled)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("no scheduled appointment for phone: %w", domain.ErrNotFound)
		}
		s.logger.WithError(err).Error("Failed to look up next scheduled appointment")
		return nil, fmt.Errorf("querying next appointment: %w", err)
	}
	return a, nil
}

// CancelAppointment cancels the appointment if it is still scheduled.
func (s *PostgresStore) CancelAppointment(ctx context.Context, id string, at time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE appointments
		SET status = $1, cancelled_at = $2
		WHERE id = $3 AND status = $4`,
		string(domain.AppointmentCancelled), at.UTC(), id, string(domain.AppointmentScheduled),
	)
	if err != nil {
		s.logger.WithError(err).WithField("appointment_id", id).Error("Failed to cancel appointment")
		return fmt.Errorf("cancelling appointment %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading cancel result for %s: %w", id, err)
	}
	if affected == 1 {
		return nil
	}

	var status string
	err = s.db.QueryRowContext(ctx, `SELECT status FROM appointments WHERE id = $1`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("appointment %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("checking appointment %s: %w", id, err)
	}
	return fmt.Errorf("appointment %s is %s: %w", id, status, domain.ErrConflict)
}

// AppendSMSLog inserts one SMS log entry.
func (s *PostgresStore) AppendSMSLog(ctx context.Context, entry *domain.SMSLog) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sms_logs (id, appointment_id, patient_id, phone_number, message, status, error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.ID, entry.AppointmentID, entry.PatientID, entry.PhoneNumber,
		entry.Message, string(entry.Status), entry.Error, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting sms log for appointment %s: %w", entry.AppointmentID, err)
	}
	return nil
}

// Health pings the database.
func (s *PostgresStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
