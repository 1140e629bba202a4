package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maditrack-server/internal/domain"
)

func createTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLiteStore(dbPath, newTestLogger())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// seedAppointment inserts a patient (if new) and an appointment directly.
func seedAppointment(t *testing.T, s *SQLiteStore, a domain.Appointment) {
	t.Helper()

	_, err := s.db.Exec(`INSERT OR IGNORE INTO patients (id, name, phone) VALUES (?, ?, ?)`,
		a.PatientID, a.PatientName, a.PatientPhone)
	require.NoError(t, err)

	_, err = s.db.Exec(`
		INSERT INTO appointments (id, patient_id, patient_name, patient_phone, doctor_id,
			appointment_date, appointment_time, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.PatientID, a.PatientName, a.PatientPhone, a.DoctorID, a.Date, a.Time, string(a.Status))
	require.NoError(t, err)
}

func appointment(id, phone, date, tm string, status domain.AppointmentStatus) domain.Appointment {
	return domain.Appointment{
		ID:           id,
		PatientID:    "pat-" + phone,
		PatientName:  "Patient " + phone,
		PatientPhone: phone,
		DoctorID:     "doc-1",
		Date:         date,
		Time:         tm,
		Status:       status,
	}
}

func TestNewSQLiteStore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "clinic.db")

	s, err := NewSQLiteStore(dbPath, newTestLogger())
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(dbPath)
	assert.NoError(t, err, "Database file should exist")
	assert.NoError(t, s.Health(context.Background()))
}

func TestSQLiteStore_ListScheduledAppointmentsOn(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	seedAppointment(t, s, appointment("a1", "+15550000001", "2026-10-16", "10:00", domain.AppointmentScheduled))
	seedAppointment(t, s, appointment("a2", "+15550000002", "2026-10-16", "09:00", domain.AppointmentScheduled))
	seedAppointment(t, s, appointment("a3", "+15550000003", "2026-10-16", "11:00", domain.AppointmentCancelled))
	seedAppointment(t, s, appointment("a4", "+15550000004", "2026-10-16", "12:00", domain.AppointmentCompleted))
	seedAppointment(t, s, appointment("a5", "+15550000005", "2026-10-17", "09:00", domain.AppointmentScheduled))

	appointments, err := s.ListScheduledAppointmentsOn(ctx, "2026-10-16")
	require.NoError(t, err)

	require.Len(t, appointments, 2)
	assert.Equal(t, "a2", appointments[0].ID)
	assert.Equal(t, "a1", appointments[1].ID)
	assert.False(t, appointments[0].CreatedAt.IsZero())

	none, err := s.ListScheduledAppointmentsOn(ctx, "2026-12-25")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestSQLiteStore_NextScheduledAppointmentForPhone(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	phone := "+15550000001"

	seedAppointment(t, s, appointment("late", phone, "2026-11-02", "09:00", domain.AppointmentScheduled))
	seedAppointment(t, s, appointment("early-b", phone, "2026-10-20", "15:00", domain.AppointmentScheduled))
	seedAppointment(t, s, appointment("early-a", phone, "2026-10-20", "08:00", domain.AppointmentScheduled))
	seedAppointment(t, s, appointment("earliest-cancelled", phone, "2026-10-18", "08:00", domain.AppointmentCancelled))

	a, err := s.NextScheduledAppointmentForPhone(ctx, phone)
	require.NoError(t, err)
	assert.Equal(t, "early-a", a.ID)

	_, err = s.NextScheduledAppointmentForPhone(ctx, "+15559999999")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestSQLiteStore_CancelAppointment(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	phone := "+15550000001"
	at := time.Date(2026, 10, 15, 18, 30, 0, 0, time.UTC)

	seedAppointment(t, s, appointment("a1", phone, "2026-10-20", "08:00", domain.AppointmentScheduled))
	seedAppointment(t, s, appointment("a2", phone, "2026-10-21", "08:00", domain.AppointmentScheduled))

	require.NoError(t, s.CancelAppointment(ctx, "a1", at))

	// the cancelled appointment no longer counts as the next one
	next, err := s.NextScheduledAppointmentForPhone(ctx, phone)
	require.NoError(t, err)
	assert.Equal(t, "a2", next.ID)

	var status string
	var cancelledAt time.Time
	require.NoError(t, s.db.QueryRow(`SELECT status, cancelled_at FROM appointments WHERE id = ?`, "a1").Scan(&status, &cancelledAt))
	assert.Equal(t, "cancelled", status)
	assert.True(t, at.Equal(cancelledAt))

	err = s.CancelAppointment(ctx, "a1", at)
	assert.True(t, errors.Is(err, domain.ErrConflict), "second cancel must not apply")

	err = s.CancelAppointment(ctx, "missing", at)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestSQLiteStore_CancelAppointment_ConcurrentCallsApplyOnce(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	seedAppointment(t, s, appointment("a1", "+15550000001", "2026-10-20", "08:00", domain.AppointmentScheduled))

	const callers = 8
	var wg sync.WaitGroup
	results := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = s.CancelAppointment(ctx, "a1", time.Now())
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, errors.Is(err, domain.ErrConflict))
	}
	assert.Equal(t, 1, succeeded)
}

func TestSQLiteStore_AppendSMSLog(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	seedAppointment(t, s, appointment("a1", "+15550000001", "2026-10-16", "09:00", domain.AppointmentScheduled))

	sent := &domain.SMSLog{
		AppointmentID: "a1",
		PatientID:     "pat-+15550000001",
		PhoneNumber:   "+15550000001",
		Message:       "Reminder",
		Status:        domain.SMSSent,
	}
	failed := &domain.SMSLog{
		AppointmentID: "a1",
		PatientID:     "pat-+15550000001",
		PhoneNumber:   "+15550000001",
		Message:       "Reminder",
		Status:        domain.SMSFailed,
		Error:         "carrier rejected",
	}

	require.NoError(t, s.AppendSMSLog(ctx, sent))
	require.NoError(t, s.AppendSMSLog(ctx, failed))
	assert.NotEqual(t, sent.ID, failed.ID)

	var count int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM sms_logs WHERE appointment_id = ?`, "a1").Scan(&count))
	assert.Equal(t, 2, count)

	var errText string
	require.NoError(t, s.db.QueryRow(`SELECT error FROM sms_logs WHERE id = ?`, failed.ID).Scan(&errText))
	assert.Equal(t, "carrier rejected", errText)
}
