// Package pagerduty delivers alert groups as PagerDuty Events API v2 events.
package pagerduty

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"sort"
	"unicode/utf8"

	"github.com/PagerDuty/go-pagerduty"

	"github.com/altuslabsxyz/alert-dispatch/internal/domain/entity"
	domainerrors "github.com/altuslabsxyz/alert-dispatch/internal/domain/errors"
	"github.com/altuslabsxyz/alert-dispatch/internal/infrastructure/channels"
	"github.com/altuslabsxyz/alert-dispatch/internal/infrastructure/template"
)

const (
	// Type is the integration type string.
	Type = "pagerduty"

	// DefaultEventsAPIURL is the Events API v2 enqueue endpoint.
	DefaultEventsAPIURL = "https://events.pagerduty.com/v2/enqueue"

	DefaultSeverity = "critical"

	eventActionTrigger = "trigger"
	eventActionResolve = "resolve"

	// PagerDuty rejects summaries longer than this.
	maxSummaryRunes = 1024
)

var validSeverities = map[string]bool{
	"critical": true,
	"error":    true,
	"warning":  true,
	"info":     true,
}

var defaultDetails = map[string]string{
	"firing":       `{{ template "__text_alert_list" .Alerts.Firing }}`,
	"resolved":     `{{ template "__text_alert_list" .Alerts.Resolved }}`,
	"num_firing":   `{{ .Alerts.Firing | len }}`,
	"num_resolved": `{{ .Alerts.Resolved | len }}`,
}

// Config is the validated PagerDuty configuration.
type Config struct {
	IntegrationKey string
	Severity       string
	Class          string
	Component      string
	Group          string
	Summary        string
	Source         string
	Client         string
	ClientURL      string
	URL            string
	Details        map[string]string
}

// NewConfig validates a PagerDuty settings document.
func NewConfig(settings channels.Settings) (*Config, error) {
	key, err := settings.RequiredString("integration_key", "could not find integration key property in settings")
	if err != nil {
		return nil, err
	}

	cfg := &Config{IntegrationKey: key}
	fields := []struct {
		key  string
		def  string
		dest *string
	}{
		{"severity", DefaultSeverity, &cfg.Severity},
		{"class", "", &cfg.Class},
		{"component", "", &cfg.Component},
		{"group", "", &cfg.Group},
		{"summary", template.DefaultTitle, &cfg.Summary},
		{"client", channels.DefaultUsername, &cfg.Client},
		{"source", "", &cfg.Source},
		{"client_url", "{{ .ExternalURL }}", &cfg.ClientURL},
		{"url", DefaultEventsAPIURL, &cfg.URL},
	}
	for _, f := range fields {
		if *f.dest, err = settings.String(f.key, f.def); err != nil {
			return nil, err
		}
	}

	if cfg.Source == "" {
		cfg.Source = cfg.Client
	}

	custom, err := settings.StringMap("details")
	if err != nil {
		return nil, err
	}
	cfg.Details = make(map[string]string, len(defaultDetails)+len(custom))
	for k, v := range defaultDetails {
		cfg.Details[k] = v
	}
	for k, v := range custom {
		cfg.Details[k] = v
	}
	return cfg, nil
}

type link struct {
	HRef string `json:"href"`
	Text string `json:"text"`
}

// Notifier sends alert groups to PagerDuty.
type Notifier struct {
	channels.Base
	cfg    *Config
	sender channels.WebhookSender
	tmpl   *template.Template
}

// NewNotifier creates a PagerDuty notifier.
func NewNotifier(cfg *Config, sender channels.WebhookSender, tmpl *template.Template, opts ...channels.Option) *Notifier {
	return &Notifier{
		Base:   channels.NewBase(Type, opts...),
		cfg:    cfg,
		sender: sender,
		tmpl:   tmpl,
	}
}

// Notify triggers or resolves the incident of the alert group.
func (n *Notifier) Notify(ctx context.Context, alerts ...*entity.Alert) (bool, error) {
	event, err := n.buildEvent(ctx, alerts)
	if err != nil {
		n.Logger.Debug("failed to render pagerduty event", "uid", n.UID, "error", err)
		return false, err
	}

	body, err := json.Marshal(event)
	if err != nil {
		return false, domainerrors.NewInternalError("marshalling pagerduty event", err)
	}

	cmd := &channels.SendWebhookSettings{
		URL:         n.cfg.URL,
		Body:        string(body),
		HTTPMethod:  http.MethodPost,
		ContentType: "application/json",
	}
	if err := n.sender.SendWebhook(ctx, cmd); err != nil {
		n.Logger.Debug("failed to send pagerduty event", "uid", n.UID, "error", err)
		return false, err
	}
	return true, nil
}

func (n *Notifier) buildEvent(ctx context.Context, alerts []*entity.Alert) (*pagerduty.V2Event, error) {
	group := entity.NewAlertGroup("", nil, alerts...)
	exp := n.tmpl.Expander(ctx, alerts)

	action := eventActionTrigger
	if group.Status() == entity.StatusResolved {
		action = eventActionResolve
	}

	keys := make([]string, 0, len(n.cfg.Details))
	for k := range n.cfg.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	details := make(map[string]string, len(keys))
	for _, k := range keys {
		details[k] = exp.Text(n.cfg.Details[k])
	}

	severity := exp.Text(n.cfg.Severity)
	if !validSeverities[severity] {
		severity = DefaultSeverity
	}

	groupKey, _ := entity.GroupKey(ctx)
	event := &pagerduty.V2Event{
		RoutingKey: n.cfg.IntegrationKey,
		Action:     action,
		DedupKey:   dedupKey(groupKey),
		Client:     exp.Text(n.cfg.Client),
		ClientURL:  exp.Text(n.cfg.ClientURL),
		Links: []interface{}{link{
			HRef: template.AlertListURL(n.tmpl.ExternalURLFor(ctx)),
			Text: "External URL",
		}},
		Payload: &pagerduty.V2Payload{
			Summary:   truncate(exp.Text(n.cfg.Summary), maxSummaryRunes),
			Source:    exp.Text(n.cfg.Source),
			Severity:  severity,
			Class:     exp.Text(n.cfg.Class),
			Component: exp.Text(n.cfg.Component),
			Group:     exp.Text(n.cfg.Group),
			Details:   details,
		},
	}
	if err := exp.Err(); err != nil {
		return nil, err
	}
	return event, nil
}

// dedupKey hashes the group key so all notifications of one group map to
// the same incident.
func dedupKey(groupKey string) string {
	sum := sha256.Sum256([]byte(groupKey))
	return hex.EncodeToString(sum[:])
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}
