package database

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/sirupsen/logrus"
)

// MigrationRunner applies the SQL files under migrations/ with golang-migrate
type MigrationRunner struct {
	migrate *migrate.Migrate
	log     *logrus.Logger
}

// NewMigrationRunner creates a runner for a postgres:// URL and a migrations directory
func NewMigrationRunner(databaseURL, migrationsPath string, logger *logrus.Logger) (*MigrationRunner, error) {
	m, err := migrate.New("file://"+migrationsPath, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("creating migration instance: %w", err)
	}
	return &MigrationRunner{migrate: m, log: logger}, nil
}

// Up applies all pending migrations. No pending migrations is not an error.
func (mr *MigrationRunner) Up() error {
	err := mr.migrate.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		mr.log.Info("Database schema is up to date")
		return nil
	}
	if err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}
	mr.logVersion("Database schema migrated")
	return nil
}

// Down rolls back the most recent migration.
func (mr *MigrationRunner) Down() error {
	err := mr.migrate.Steps(-1)
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("rolling back migration: %w", err)
	}
	mr.logVersion("Rolled back one migration")
	return nil
}

// Version returns the current schema version and whether it is dirty
func (mr *MigrationRunner) Version() (uint, bool, error) {
	return mr.migrate.Version()
}

func (mr *MigrationRunner) logVersion(msg string) {
	version, dirty, err := mr.migrate.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		mr.log.Info(msg + ", no migrations applied")
		return
	}
	if err != nil {
		mr.log.WithError(err).Warn("Could not read schema version")
		return
	}
	mr.log.WithFields(logrus.Fields{"version": version, "dirty": dirty}).Info(msg)
}

// Close releases the migration source and database handles
func (mr *MigrationRunner) Close() error {
	sourceErr, dbErr := mr.migrate.Close()
	return errors.Join(sourceErr, dbErr)
}

// Migrate runs all pending migrations and closes the runner.
func Migrate(databaseURL, migrationsPath string, logger *logrus.Logger) error {
	runner, err := NewMigrationRunner(databaseURL, migrationsPath, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := runner.Close(); err != nil {
			logger.WithError(err).Warn("Closing migration runner")
		}
	}()
	return runner.Up()
}
