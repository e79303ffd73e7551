// Package email delivers alert groups as email.
package email

import (
	"context"
	"strings"

	"github.com/altuslabsxyz/alert-dispatch/internal/domain/entity"
	domainerrors "github.com/altuslabsxyz/alert-dispatch/internal/domain/errors"
	"github.com/altuslabsxyz/alert-dispatch/internal/infrastructure/channels"
	"github.com/altuslabsxyz/alert-dispatch/internal/infrastructure/template"
)

// Type is the integration type string.
const Type = "email"

// Config is the validated email configuration.
type Config struct {
	Addresses   []string
	SingleEmail bool
	Subject     string
	Message     string
}

// NewConfig validates an email settings document. addresses may be
// separated by semicolons, commas or newlines.
func NewConfig(settings channels.Settings) (*Config, error) {
	raw, err := settings.String("addresses", "")
	if err != nil {
		return nil, err
	}
	addresses := splitAddresses(raw)
	if len(addresses) == 0 {
		return nil, domainerrors.NewConfigurationError("could not find addresses in settings")
	}

	cfg := &Config{Addresses: addresses}
	if cfg.SingleEmail, err = settings.Bool("single_email", false); err != nil {
		return nil, err
	}
	if cfg.Subject, err = settings.String("subject", template.DefaultTitle); err != nil {
		return nil, err
	}
	if cfg.Message, err = settings.String("message", template.DefaultMessage); err != nil {
		return nil, err
	}
	return cfg, nil
}

func splitAddresses(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ';' || r == ',' || r == '\n'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// Notifier sends alert groups by email.
type Notifier struct {
	channels.Base
	cfg    *Config
	sender channels.EmailSender
	tmpl   *template.Template
}

// NewNotifier creates an email notifier.
func NewNotifier(cfg *Config, sender channels.EmailSender, tmpl *template.Template, opts ...channels.Option) *Notifier {
	return &Notifier{
		Base:   channels.NewBase(Type, opts...),
		cfg:    cfg,
		sender: sender,
		tmpl:   tmpl,
	}
}

// Notify renders the subject and body and hands them to the email sender.
func (n *Notifier) Notify(ctx context.Context, alerts ...*entity.Alert) (bool, error) {
	exp := n.tmpl.Expander(ctx, alerts)
	subject := exp.Text(n.cfg.Subject)
	body := exp.Text(n.cfg.Message)
	if err := exp.Err(); err != nil {
		n.Logger.Debug("failed to render email", "uid", n.UID, "error", err)
		return false, err
	}

	cmd := &channels.SendEmailSettings{
		To:          n.cfg.Addresses,
		SingleEmail: n.cfg.SingleEmail,
		Subject:     strings.TrimSpace(subject),
		Body:        body,
	}
	if err := n.sender.SendEmail(ctx, cmd); err != nil {
		n.Logger.Debug("failed to send email", "uid", n.UID, "error", err)
		return false, err
	}
	return true, nil
}
