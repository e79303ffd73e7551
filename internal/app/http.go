package app

import (
	"github.com/altuslabsxyz/alert-dispatch/internal/adapter/handler"
	"github.com/altuslabsxyz/alert-dispatch/internal/infrastructure/server"
)

func (app *Application) initializeHTTP() {
	app.handlers = &server.Handlers{
		Alertmanager: handler.NewAlertmanagerWebhookHandler(
			app.useCases.Dispatch,
			app.config.Server.WebhookToken,
			app.logger,
		),
		Receivers: handler.NewReceiversHandler(app.receivers, app.useCases.Dispatch, app.logger),
		Metrics:   app.telemetry.Handler(),
	}

	app.server = server.New(server.Config{
		Port:            app.config.Server.Port,
		ReadTimeout:     app.config.Server.ReadTimeout,
		WriteTimeout:    app.config.Server.WriteTimeout,
		ShutdownTimeout: app.config.Server.ShutdownTimeout,
	}, app.handlers, app.logger)
}
