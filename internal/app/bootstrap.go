package app

import (
	"context"
	"fmt"

	"github.com/altuslabsxyz/alert-dispatch/internal/infrastructure/observability"
)

// bootstrap wires every component in dependency order.
func (app *Application) bootstrap(configPath string) error {
	if err := app.loadConfig(configPath); err != nil {
		return err
	}

	if err := app.setupLogger(); err != nil {
		return err
	}

	telemetry, err := observability.NewTelemetry(ServiceName, app.version)
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	app.telemetry = telemetry

	if err := app.setupConfigManager(configPath); err != nil {
		return err
	}

	if err := app.initializeStorage(); err != nil {
		return err
	}

	if err := app.initializeClients(); err != nil {
		return err
	}

	if err := app.reloadReceivers(context.Background(), app.config); err != nil {
		return fmt.Errorf("loading receivers: %w", err)
	}

	if err := app.initializeUseCases(); err != nil {
		return err
	}

	app.initializeHTTP()

	return app.setupWatcher()
}
