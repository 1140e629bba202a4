package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/maditrack-server/internal/domain"
)

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
	logger *logrus.Logger
}

// NewSQLiteStore opens (or creates) the SQLite database at dbPath and
// ensures the schema exists.
func NewSQLiteStore(dbPath string, logger *logrus.Logger) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}
	// the reminder fan-out writes logs concurrently
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	logger.WithField("path", dbPath).Info("SQLite store opened")

	return &SQLiteStore{
		db:     db,
		dbPath: dbPath,
		logger: logger,
	}, nil
}

// createSchema creates the tables and indexes. It mirrors migrations/000001.
func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS patients (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		phone TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS appointments (
		id TEXT PRIMARY KEY,
		patient_id TEXT NOT NULL REFERENCES patients(id),
		patient_name TEXT NOT NULL,
		patient_phone TEXT NOT NULL,
		doctor_id TEXT NOT NULL,
		appointment_date TEXT NOT NULL,
		appointment_time TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'scheduled'
			CHECK (status IN ('scheduled', 'completed', 'cancelled')),
		cancelled_at DATETIME,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_appointments_date_status ON appointments(appointment_date, status);
	CREATE INDEX IF NOT EXISTS idx_appointments_phone_status ON appointments(patient_phone, status, appointment_date);

	CREATE TABLE IF NOT EXISTS sms_logs (
		id TEXT PRIMARY KEY,
		appointment_id TEXT NOT NULL REFERENCES appointments(id),
		patient_id TEXT NOT NULL,
		phone_number TEXT NOT NULL,
		message TEXT NOT NULL,
		status TEXT NOT NULL CHECK (status IN ('sent', 'failed')),
		error TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sms_logs_appointment ON sms_logs(appointment_id);
	`

	_, err := db.Exec(schema)
	return err
}

// ListScheduledAppointmentsOn returns scheduled appointments on a date.
func (s *SQLiteStore) ListScheduledAppointmentsOn(ctx context.Context, date string) ([]domain.Appointment, error) {
	query := `SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE appointment_date = ? AND status = ?
		ORDER BY appointment_time ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, date, string(domain.AppointmentScheduled))
	if err != nil {
		return nil, fmt.Errorf("querying appointments for %s: %w", date, err)
	}

	appointments, err := scanAppointments(rows)
	if err != nil {
		return nil, fmt.Errorf("scanning appointments for %s: %w", date, err)
	}
	return appointments, nil
}

// NextScheduledAppointmentForPhone returns the earliest scheduled appointment for a phone.
func (s *SQLiteStore) NextScheduledAppointmentForPhone(ctx context.Context, phone string) (*domain.Appointment, error) {
	query := `SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE patient_phone = ? AND status = ?
		ORDER BY appointment_date ASC, appointment_time ASC, id ASC
		LIMIT 1`

	a, err := scanAppointment(s.db.QueryRowContext(ctx, query, phone, string(domain.AppointmentScheduled)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("no scheduled appointment for phone: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("querying next appointment: %w", err)
	}
	return a, nil
}

// CancelAppointment cancels the appointment if it is still scheduled.
func (s *SQLiteStore) CancelAppointment(ctx context.Context, id string, at time.Time) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE appointments SET status = ?, cancelled_at = ? WHERE id = ? AND status = ?`,
		string(domain.AppointmentCancelled), at.UTC(), id, string(domain.AppointmentScheduled),
	)
	if err != nil {
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
	err = s.db.QueryRowContext(ctx, `SELECT status FROM appointments WHERE id = ?`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("appointment %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("checking appointment %s: %w", id, err)
	}
	return fmt.Errorf("appointment %s is %s: %w", id, status, domain.ErrConflict)
}

// AppendSMSLog inserts one SMS log entry.
func (s *SQLiteStore) AppendSMSLog(ctx context.Context, entry *domain.SMSLog) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sms_logs (id, appointment_id, patient_id, phone_number, message, status, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.AppointmentID, entry.PatientID, entry.PhoneNumber,
		entry.Message, string(entry.Status), entry.Error, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting sms log for appointment %s: %w", entry.AppointmentID, err)
	}
	return nil
}

// Health pings the database.
func (s *SQLiteStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
