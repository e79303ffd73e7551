// Package webhook delivers alert groups as a generic JSON document.
package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/altuslabsxyz/alert-dispatch/internal/domain/entity"
	domainerrors "github.com/altuslabsxyz/alert-dispatch/internal/domain/errors"
	"github.com/altuslabsxyz/alert-dispatch/internal/infrastructure/channels"
	"github.com/altuslabsxyz/alert-dispatch/internal/infrastructure/template"
)

// Type is the integration type string.
const Type = "webhook"

const (
	stateAlerting = "alerting"
	stateOK       = "ok"
)

// Config is the validated webhook configuration.
type Config struct {
	URL        string
	HTTPMethod string
	User       string
	Password   string
	MaxAlerts  int
	Headers    map[string]string
	Title      string
	Message    string
}

// NewConfig validates a webhook settings document.
func NewConfig(settings channels.Settings) (*Config, error) {
	u, err := settings.RequiredString("url", "could not find url property in settings")
	if err != nil {
		return nil, err
	}

	cfg := &Config{URL: u}
	if cfg.HTTPMethod, err = settings.String("http_method", http.MethodPost); err != nil {
		return nil, err
	}
	cfg.HTTPMethod = strings.ToUpper(cfg.HTTPMethod)
	if cfg.HTTPMethod != http.MethodPost && cfg.HTTPMethod != http.MethodPut {
		return nil, domainerrors.NewConfigurationErrorf("invalid value for http_method: %q", cfg.HTTPMethod)
	}
	if cfg.User, err = settings.String("username", ""); err != nil {
		return nil, err
	}
	if cfg.Password, err = settings.String("password", ""); err != nil {
		return nil, err
	}
	if cfg.MaxAlerts, err = settings.Int("max_alerts", 0); err != nil {
		return nil, err
	}
	if cfg.MaxAlerts < 0 {
		return nil, domainerrors.NewConfigurationError("max_alerts must not be negative")
	}
	if cfg.Headers, err = settings.StringMap("http_headers"); err != nil {
		return nil, err
	}
	if cfg.Title, err = settings.String("title", template.DefaultTitle); err != nil {
		return nil, err
	}
	if cfg.Message, err = settings.String("message", template.DefaultMessage); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Message is the JSON document posted to the endpoint.
type Message struct {
	*template.ExtendedData

	// Version of the document layout.
	Version         string `json:"version"`
	GroupKey        string `json:"groupKey"`
	TruncatedAlerts int    `json:"truncatedAlerts"`

	Title   string `json:"title"`
	State   string `json:"state"`
	Message string `json:"message"`
}

// Notifier posts alert groups to an arbitrary HTTP endpoint.
type Notifier struct {
	channels.Base
	cfg    *Config
	sender channels.WebhookSender
	tmpl   *template.Template
}

// NewNotifier creates a webhook notifier.
func NewNotifier(cfg *Config, sender channels.WebhookSender, tmpl *template.Template, opts ...channels.Option) *Notifier {
	return &Notifier{
		Base:   channels.NewBase(Type, opts...),
		cfg:    cfg,
		sender: sender,
		tmpl:   tmpl,
	}
}

// Notify renders the group into a Message and sends it.
func (n *Notifier) Notify(ctx context.Context, alerts ...*entity.Alert) (bool, error) {
	group := entity.NewAlertGroup("", nil, alerts...)
	alerts, truncated := truncateAlerts(n.cfg.MaxAlerts, alerts)

	exp := n.tmpl.Expander(ctx, alerts)
	groupKey, _ := entity.GroupKey(ctx)

	msg := &Message{
		ExtendedData:    exp.Data(),
		Version:         "1",
		GroupKey:        groupKey,
		TruncatedAlerts: truncated,
		Title:           exp.Text(n.cfg.Title),
		Message:         exp.Text(n.cfg.Message),
		State:           stateAlerting,
	}
	if group.Status() == entity.StatusResolved {
		msg.State = stateOK
	}
	if err := exp.Err(); err != nil {
		n.Logger.Debug("failed to render webhook message", "uid", n.UID, "error", err)
		return false, err
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return false, domainerrors.NewInternalError("marshalling webhook message", err)
	}

	cmd := &channels.SendWebhookSettings{
		URL:         n.cfg.URL,
		User:        n.cfg.User,
		Password:    n.cfg.Password,
		Body:        string(body),
		HTTPMethod:  n.cfg.HTTPMethod,
		HTTPHeader:  n.cfg.Headers,
		ContentType: "application/json",
	}
	if err := n.sender.SendWebhook(ctx, cmd); err != nil {
		n.Logger.Debug("failed to send webhook", "uid", n.UID, "error", err)
		return false, err
	}
	return true, nil
}

// truncateAlerts keeps the first maxAlerts alerts. Zero means no limit.
func truncateAlerts(maxAlerts int, alerts []*entity.Alert) ([]*entity.Alert, int) {
	if maxAlerts > 0 && len(alerts) > maxAlerts {
		return alerts[:maxAlerts], len(alerts) - maxAlerts
	}
	return alerts, 0
}
