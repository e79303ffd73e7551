package app

import (
	"fmt"

	"github.com/altuslabsxyz/alert-dispatch/internal/infrastructure/channels"
	"github.com/altuslabsxyz/alert-dispatch/internal/infrastructure/sender"
)

// Clients holds the outbound senders shared by all integrations
type Clients struct {
	Webhook channels.WebhookSender
	Email   channels.EmailSender // nil when SMTP is disabled
}

func (app *Application) initializeClients() error {
	httpCfg := app.config.HTTP
	app.clients = &Clients{
		Webhook: sender.NewHTTPSender(sender.HTTPSenderOptions{
			Timeout:       httpCfg.Timeout,
			SkipTLSVerify: httpCfg.SkipTLSVerify,
			UserAgent:     httpCfg.UserAgent,
			Logger:        app.logger,
		}),
	}

	if httpCfg.SkipTLSVerify {
		app.logger.Warn("TLS verification disabled for outbound webhooks")
	}

	smtpCfg := app.config.SMTP
	if smtpCfg.Enabled {
		smtp, err := sender.NewSMTPSender(sender.SMTPConfig{
			Host:          smtpCfg.Host,
			Port:          smtpCfg.Port,
			Username:      smtpCfg.Username,
			Password:      smtpCfg.Password,
			From:          smtpCfg.From,
			FromName:      smtpCfg.FromName,
			TLSPolicy:     smtpCfg.TLS,
			SkipTLSVerify: smtpCfg.SkipTLSVerify,
			Timeout:       smtpCfg.Timeout,
		}, app.logger)
		if err != nil {
			return fmt.Errorf("smtp init: %w", err)
		}
		app.clients.Email = smtp

		app.logger.Info("SMTP sender enabled",
			"host", smtpCfg.Host,
			"port", smtpCfg.Port,
		)
	}

	return nil
}
