package app

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/altuslabsxyz/alert-dispatch/internal/domain/repository"
	"github.com/altuslabsxyz/alert-dispatch/internal/infrastructure/config"
	"github.com/altuslabsxyz/alert-dispatch/internal/infrastructure/observability"
	"github.com/altuslabsxyz/alert-dispatch/internal/infrastructure/provisioning"
	"github.com/altuslabsxyz/alert-dispatch/internal/infrastructure/server"
	"github.com/altuslabsxyz/alert-dispatch/internal/usecase/notify"
)

// ServiceName identifies the process in logs and telemetry.
const ServiceName = "alert-dispatch"

// Application holds all application dependencies and lifecycle
type Application struct {
	config        *config.Config
	configPath    string
	configManager *config.ConfigManager
	watcher       *config.Watcher
	logger        *AtomicLogger
	telemetry     *observability.Telemetry
	version       string

	// Storage
	contactPointRepo repository.ContactPointRepository
	txManager        repository.TransactionManager
	dbCloser         io.Closer // For cleanup
	provisioner      *provisioning.Provisioner

	// Outbound senders
	clients *Clients

	// Receivers currently served, swapped on reload
	receivers *notify.ReceiverRegistry

	// Use cases
	useCases *UseCases

	// HTTP layer
	handlers *server.Handlers
	server   *server.Server
}

// New creates a new Application instance
func New(configPath, version string) (*Application, error) {
	app := &Application{configPath: configPath, version: version}

	if err := app.bootstrap(configPath); err != nil {
		if app.dbCloser != nil {
			_ = app.dbCloser.Close()
		}
		return nil, err
	}

	return app, nil
}

// Start runs the application until context is cancelled
func (app *Application) Start(ctx context.Context) error {
	app.logger.Info("starting alert-dispatch",
		"version", app.version,
		"port", app.config.Server.Port,
		"receivers", app.receivers.Len(),
	)

	if app.watcher != nil {
		app.watcher.Start()
	}

	return app.server.Run(ctx)
}

// Shutdown gracefully stops the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down alert-dispatch")

	var errs []error
	if app.watcher != nil {
		if err := app.watcher.Stop(); err != nil {
			errs = append(errs, err)
		}
	}

	if app.telemetry != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := app.telemetry.Shutdown(ctx); err != nil {
			app.logger.Error("failed to shut down telemetry", "error", err)
			errs = append(errs, err)
		}
	}

	if app.dbCloser != nil {
		if err := app.dbCloser.Close(); err != nil {
			app.logger.Error("failed to close database", "error", err)
			errs = append(errs, err)
		}
	}

	app.logger.Info("alert-dispatch stopped")
	return errors.Join(errs...)
}
