package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/maditrack-server/internal/domain"
	"github.com/maditrack-server/internal/store"
)

func TestDatabaseConnectionAndMigrations(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	defer func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate PostgreSQL container: %v", err)
		}
	}()

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel) // Reduce noise in tests

	databaseURL, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, Migrate(databaseURL, filepath.Join("..", "..", "migrations"), logger))

	// a second run finds nothing to apply
	require.NoError(t, Migrate(databaseURL, filepath.Join("..", "..", "migrations"), logger))

	db, err := NewConnection(ctx, Config{
		Host:        host,
		Port:        port.Int(),
		Database:    "testdb",
		Username:    "testuser",
		Password:    "testpass",
		MaxConns:    10,
		MinConns:    2,
		MaxConnLife: time.Hour,
		MaxConnIdle: 30 * time.Minute,
		SSLMode:     "disable",
	}, logger)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Health(ctx))
	assert.NotZero(t, db.Stats().TotalConns())

	_, err = db.Pool.Exec(ctx, `INSERT INTO patients (id, name, phone) VALUES ('p1', 'Ana', '+15550000001')`)
	require.NoError(t, err)
	_, err = db.Pool.Exec(ctx, `
		INSERT INTO appointments (id, patient_id, patient_name, patient_phone, doctor_id, appointment_date, appointment_time)
		VALUES ('a1', 'p1', 'Ana', '+15550000001', 'd1', '2026-10-16', '09:00')`)
	require.NoError(t, err)

	s, err := store.NewPostgresStore(db.SQL(), logger)
	require.NoError(t, err)

	appointments, err := s.ListScheduledAppointmentsOn(ctx, "2026-10-16")
	require.NoError(t, err)
	require.Len(t, appointments, 1)
	assert.Equal(t, domain.AppointmentScheduled, appointments[0].Status)

	require.NoError(t, s.AppendSMSLog(ctx, &domain.SMSLog{
		AppointmentID: "a1",
		PatientID:     "p1",
		PhoneNumber:   "+15550000001",
		Message:       "Reminder",
		Status:        domain.SMSSent,
	}))
	require.NoError(t, s.CancelAppointment(ctx, "a1", time.Now()))

	_, err = db.Pool.Exec(ctx, `INSERT INTO appointments (id, patient_id, patient_name, patient_phone, doctor_id, appointment_date, appointment_time)
		VALUES ('bad', 'p1', 'Ana', '+15550000001', 'd1', '16/10/2026', '09:00')`)
	assert.Error(t, err, "dates must be stored as YYYY-MM-DD")

	runner, err := NewMigrationRunner(databaseURL, filepath.Join("..", "..", "migrations"), logger)
	require.NoError(t, err)
	defer runner.Close()

	version, dirty, err := runner.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)

	require.NoError(t, runner.Down())
	_, _, err = runner.Version()
	assert.ErrorIs(t, err, migrate.ErrNilVersion)
}

func TestConfigFrom(t *testing.T) {
	cfg := ConfigFrom(domain.DatabaseConfig{
		Host:            "db",
		Port:            5432,
		Database:        "maditrack",
		Username:        "clinic",
		Password:        "secret",
		SSLMode:         "require",
		MaxOpenConns:    20,
		MaxIdleConns:    4,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: time.Minute,
	})

	assert.Equal(t, int32(20), cfg.MaxConns)
	assert.Equal(t, int32(4), cfg.MinConns)
	assert.Equal(t, time.Hour, cfg.MaxConnLife)
	assert.Equal(t, time.Minute, cfg.MaxConnIdle)
	assert.Equal(t, "require", cfg.SSLMode)
}
