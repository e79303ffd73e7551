// Package integrations maps integration type strings to their constructors.
package integrations

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/altuslabsxyz/alert-dispatch/internal/domain/entity"
	domainerrors "github.com/altuslabsxyz/alert-dispatch/internal/domain/errors"
	"github.com/altuslabsxyz/alert-dispatch/internal/domain/logger"
	"github.com/altuslabsxyz/alert-dispatch/internal/infrastructure/channels"
	"github.com/altuslabsxyz/alert-dispatch/internal/infrastructure/discord"
	"github.com/altuslabsxyz/alert-dispatch/internal/infrastructure/email"
	"github.com/altuslabsxyz/alert-dispatch/internal/infrastructure/pagerduty"
	"github.com/altuslabsxyz/alert-dispatch/internal/infrastructure/slack"
	"github.com/altuslabsxyz/alert-dispatch/internal/infrastructure/template"
	"github.com/altuslabsxyz/alert-dispatch/internal/infrastructure/webhook"
)

// Notifier is the capability every integration implements.
type Notifier interface {
	Notify(ctx context.Context, alerts ...*entity.Alert) (bool, error)
	SendResolved() bool
}

// Dependencies are the shared collaborators handed to every constructor.
type Dependencies struct {
	WebhookSender channels.WebhookSender
	EmailSender   channels.EmailSender
	Template      *template.Template
	Logger        logger.Logger
}

// Factory validates settings and builds a notifier.
type Factory func(settings channels.Settings, deps Dependencies, opts ...channels.Option) (Notifier, error)

var factories = map[string]Factory{
	discord.Type: func(s channels.Settings, deps Dependencies, opts ...channels.Option) (Notifier, error) {
		cfg, err := discord.NewConfig(s)
		if err != nil {
			return nil, err
		}
		return discord.NewNotifier(cfg, deps.WebhookSender, deps.Template, opts...), nil
	},
	slack.Type: func(s channels.Settings, deps Dependencies, opts ...channels.Option) (Notifier, error) {
		cfg, err := slack.NewConfig(s)
		if err != nil {
			return nil, err
		}
		return slack.NewNotifier(cfg, deps.WebhookSender, deps.Template, opts...), nil
	},
	pagerduty.Type: func(s channels.Settings, deps Dependencies, opts ...channels.Option) (Notifier, error) {
		cfg, err := pagerduty.NewConfig(s)
		if err != nil {
			return nil, err
		}
		return pagerduty.NewNotifier(cfg, deps.WebhookSender, deps.Template, opts...), nil
	},
	email.Type: func(s channels.Settings, deps Dependencies, opts ...channels.Option) (Notifier, error) {
		if deps.EmailSender == nil {
			return nil, domainerrors.NewConfigurationError("email integration requires smtp to be configured")
		}
		cfg, err := email.NewConfig(s)
		if err != nil {
			return nil, err
		}
		return email.NewNotifier(cfg, deps.EmailSender, deps.Template, opts...), nil
	},
	webhook.Type: func(s channels.Settings, deps Dependencies, opts ...channels.Option) (Notifier, error) {
		cfg, err := webhook.NewConfig(s)
		if err != nil {
			return nil, err
		}
		return webhook.NewNotifier(cfg, deps.WebhookSender, deps.Template, opts...), nil
	},
}

// Types returns the supported integration types, sorted.
func Types() []string {
	types := make([]string, 0, len(factories))
	for t := range factories {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Build constructs the notifier for one integration configuration.
func Build(cfg entity.IntegrationConfig, deps Dependencies) (Notifier, error) {
	factory, ok := factories[strings.ToLower(cfg.Type)]
	if !ok {
		return nil, domainerrors.NewConfigurationErrorf("unsupported integration type %q (supported: %s)",
			cfg.Type, strings.Join(Types(), ", "))
	}

	opts := []channels.Option{
		channels.WithMetadata(channels.Metadata{
			UID:                   cfg.UID,
			Name:                  cfg.Name,
			Type:                  strings.ToLower(cfg.Type),
			DisableResolveMessage: cfg.DisableResolveMessage,
		}),
		channels.WithLogger(deps.Logger),
	}
	n, err := factory(channels.Settings(cfg.Settings), deps, opts...)
	if err != nil {
		return nil, fmt.Errorf("integration %s (%s): %w", cfg.Name, cfg.Type, err)
	}
	return n, nil
}
