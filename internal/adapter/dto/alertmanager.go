package dto

import (
	"time"

	"github.com/prometheus/common/model"

	"github.com/altuslabsxyz/alert-dispatch/internal/domain/entity"
)

// AlertmanagerWebhookPayload is the JSON body of an Alertmanager webhook.
type AlertmanagerWebhookPayload struct {
	Version           string              `json:"version"`
	GroupKey          string              `json:"groupKey"`
	TruncatedAlerts   int                 `json:"truncatedAlerts"`
	Status            string              `json:"status"`
	Receiver          string              `json:"receiver"`
	GroupLabels       map[string]string   `json:"groupLabels"`
	CommonLabels      map[string]string   `json:"commonLabels"`
	CommonAnnotations map[string]string   `json:"commonAnnotations"`
	ExternalURL       string              `json:"externalURL"`
	Alerts            []AlertmanagerAlert `json:"alerts"`
}

// AlertmanagerAlert is a single alert in the webhook payload.
type AlertmanagerAlert struct {
	Status       string            `json:"status"`
	Labels       map[string]string `json:"labels"`
	Annotations  map[string]string `json:"annotations"`
	StartsAt     time.Time         `json:"startsAt"`
	EndsAt       time.Time         `json:"endsAt"`
	GeneratorURL string            `json:"generatorURL"`
	Fingerprint  string            `json:"fingerprint"`
}

// IsFiring returns true if the alert is firing.
func (a *AlertmanagerAlert) IsFiring() bool {
	return a.Status == "firing"
}

// IsResolved returns true if the alert is resolved.
func (a *AlertmanagerAlert) IsResolved() bool {
	return a.Status == "resolved"
}

// ToEntity converts the webhook alert into a domain alert.
// Anything other than "resolved" is treated as firing.
func (a *AlertmanagerAlert) ToEntity() *entity.Alert {
	alert := entity.NewAlert(a.Labels, a.Annotations)
	if a.IsResolved() {
		alert.Status = entity.StatusResolved
	}
	alert.StartsAt = a.StartsAt
	alert.EndsAt = a.EndsAt
	alert.GeneratorURL = a.GeneratorURL
	return alert
}

// ToDispatchInput converts the payload into a dispatch request.
// receiver overrides the payload's receiver when non-empty.
func (p *AlertmanagerWebhookPayload) ToDispatchInput(receiver string) DispatchInput {
	if receiver == "" {
		receiver = p.Receiver
	}

	groupLabels := make(model.LabelSet, len(p.GroupLabels))
	for k, v := range p.GroupLabels {
		groupLabels[model.LabelName(k)] = model.LabelValue(v)
	}

	alerts := make([]*entity.Alert, 0, len(p.Alerts))
	for i := range p.Alerts {
		alerts = append(alerts, p.Alerts[i].ToEntity())
	}

	return DispatchInput{
		Receiver:    receiver,
		GroupKey:    p.GroupKey,
		GroupLabels: groupLabels,
		ExternalURL: p.ExternalURL,
		Alerts:      alerts,
	}
}
