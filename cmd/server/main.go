package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/maditrack-server/internal/api"
	"github.com/maditrack-server/internal/cache"
	"github.com/maditrack-server/internal/config"
	"github.com/maditrack-server/internal/database"
	"github.com/maditrack-server/internal/logging"
	"github.com/maditrack-server/internal/scheduler"
	"github.com/maditrack-server/internal/service"
	"github.com/maditrack-server/internal/store"
	"github.com/maditrack-server/pkg/sms"
)

func main() {
	// Load configuration
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	if err := run(ctx, configManager, logger); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}

	logger.Info("Server stopped")
}

func run(ctx context.Context, configManager *config.Manager, logger *logrus.Logger) error {
	cfg := configManager.GetConfig()

	st, closeStore, err := openStore(ctx, configManager, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	coordination, err := cache.New(cfg.Cache, logger)
	if err != nil {
		return fmt.Errorf("failed to create coordination cache: %w", err)
	}
	defer coordination.Close()

	gateway, err := sms.New(cfg.SMS, logger)
	if err != nil {
		return fmt.Errorf("failed to create SMS gateway: %w", err)
	}

	var signatures *sms.SignatureValidator
	if cfg.SMS.ValidateSignatures {
		signatures = sms.NewSignatureValidator(cfg.SMS.AuthToken, cfg.SMS.PublicWebhookURL)
	}

	dispatcher := service.NewReminderDispatcher(st, gateway, coordination, cfg.Reminders, logger)
	reminders := scheduler.NewReminderScheduler(dispatcher, cfg.Reminders, logger)
	if cfg.Reminders.Enabled {
		if err := reminders.Start(); err != nil {
			return err
		}
		defer reminders.Stop()
	} else {
		logger.Info("Reminder schedule disabled, runs only via the trigger endpoint")
	}

	server := api.NewServer(configManager, api.Dependencies{
		Store:         st,
		Matcher:       service.NewDefaultDiagnosisMatcher(logger),
		Cancellations: service.NewCancellationService(st, gateway, coordination, cfg.Cache, logger),
		Reminders:     reminders,
		Signatures:    signatures,
	}, logger)

	logger.WithFields(logrus.Fields{
		"host":        cfg.Server.Host,
		"port":        cfg.Server.Port,
		"environment": cfg.Environment,
		"db_driver":   cfg.Database.Driver,
		"sms":         cfg.SMS.Provider,
	}).Info("Starting clinic server")

	return server.Start(ctx)
}

// openStore connects the datastore selected by database.driver and applies
// migrations for PostgreSQL when auto_migrate is set.
func openStore(ctx context.Context, configManager *config.Manager, logger *logrus.Logger) (store.Store, func(), error) {
	dbCfg := configManager.GetDatabaseConfig()

	switch dbCfg.Driver {
	case "sqlite":
		st, err := store.NewSQLiteStore(dbCfg.SQLitePath, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open SQLite store: %w", err)
		}
		return st, func() {
			if err := st.Close(); err != nil {
				logger.WithError(err).Warn("Failed to close SQLite store")
			}
		}, nil

	case "postgres", "":
		if dbCfg.AutoMigrate {
			if err := database.Migrate(configManager.GetDatabaseURL(), dbCfg.MigrationsPath, logger); err != nil {
				return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
			}
		}

		db, err := database.NewConnection(ctx, database.ConfigFrom(*dbCfg), logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		st, err := store.NewPostgresStore(db.SQL(), logger)
		if err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to create PostgreSQL store: %w", err)
		}
		return st, db.Close, nil

	default:
		return nil, nil, fmt.Errorf("unsupported database driver: %q", dbCfg.Driver)
	}
}
