package app

import (
	"github.com/altuslabsxyz/alert-dispatch/internal/usecase/notify"
)

// UseCases holds all business logic use cases
type UseCases struct {
	Dispatch *notify.DispatchUseCase
}

func (app *Application) initializeUseCases() error {
	app.useCases = &UseCases{
		Dispatch: notify.NewDispatchUseCase(
			app.receivers,
			app.logger,
			app.telemetry.Metrics,
			app.telemetry.Tracer,
		),
	}

	return nil
}
