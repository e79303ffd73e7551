package app

import (
	"context"
	"fmt"
	"net/url"

	"github.com/altuslabsxyz/alert-dispatch/internal/domain/entity"
	"github.com/altuslabsxyz/alert-dispatch/internal/infrastructure/config"
	"github.com/altuslabsxyz/alert-dispatch/internal/infrastructure/integrations"
	"github.com/altuslabsxyz/alert-dispatch/internal/infrastructure/provisioning"
	"github.com/altuslabsxyz/alert-dispatch/internal/infrastructure/template"
	"github.com/altuslabsxyz/alert-dispatch/internal/usecase/notify"
)

// reloadReceivers provisions contact points from cfg and rebuilds the
// receiver registry from the repository. Nothing is swapped on error.
func (app *Application) reloadReceivers(ctx context.Context, cfg *config.Config) error {
	tmpl, err := newTemplate(cfg)
	if err != nil {
		return err
	}

	desired := provisioning.FromReceivers(cfg.Receivers)
	var deletes []string
	if path := cfg.Provisioning.ContactPointsFile; path != "" {
		f, err := provisioning.LoadFile(path)
		if err != nil {
			return err
		}
		desired = append(desired, f.ContactPoints()...)
		deletes = f.Deletes()
	}

	// Build before writing so an invalid contact point never reaches storage.
	build := app.integrationBuilder(tmpl)
	for _, cp := range desired {
		if _, err := notify.NewReceiver(cp, build); err != nil {
			return err
		}
	}

	if err := app.provisioner.Sync(ctx, desired, deletes); err != nil {
		return fmt.Errorf("provisioning contact points: %w", err)
	}

	receivers, err := notify.LoadReceivers(ctx, app.contactPointRepo, build)
	if err != nil {
		return err
	}

	if app.receivers == nil {
		app.receivers = notify.NewReceiverRegistry()
	}
	app.receivers.Replace(receivers)
	app.telemetry.Metrics.SetReceivers(ctx, len(receivers))

	app.logger.Info("receivers loaded",
		"count", len(receivers),
		"externalURL", tmpl.ExternalURL().String(),
	)
	return nil
}

func (app *Application) integrationBuilder(tmpl *template.Template) notify.BuildFunc {
	deps := integrations.Dependencies{
		WebhookSender: app.clients.Webhook,
		EmailSender:   app.clients.Email,
		Template:      tmpl,
		Logger:        app.logger,
	}
	return func(ic entity.IntegrationConfig) (notify.Notifier, error) {
		return integrations.Build(ic, deps)
	}
}

func newTemplate(cfg *config.Config) (*template.Template, error) {
	externalURL, err := url.Parse(cfg.ExternalURL)
	if err != nil {
		return nil, fmt.Errorf("parsing external_url: %w", err)
	}
	tmpl, err := template.New(externalURL, template.WithDefinitionFiles(cfg.Templates.Files...))
	if err != nil {
		return nil, fmt.Errorf("loading templates: %w", err)
	}
	return tmpl, nil
}
