package entity

import (
	"time"

	"github.com/prometheus/common/model"
)

// AlertStatus represents whether an alert is currently active.
type AlertStatus string

const (
	StatusFiring   AlertStatus = "firing"
	StatusResolved AlertStatus = "resolved"
)

// Reserved annotations carry structural metadata. They are used for
// link and value derivation and are never rendered verbatim.
const (
	DashboardUIDAnnotation = "__dashboardUid__"
	PanelIDAnnotation      = "__panelId__"
	ValueStringAnnotation  = "__value_string__"
	ImageTokenAnnotation   = "__alertImageToken__"
)

// ReservedAnnotations lists every annotation stripped before rendering.
var ReservedAnnotations = []model.LabelName{
	DashboardUIDAnnotation,
	PanelIDAnnotation,
	ValueStringAnnotation,
	ImageTokenAnnotation,
}

// Alert is a single alert instance produced by the evaluation pipeline.
// It is read-only within the dispatch engine.
type Alert struct {
	// Labels identify the alert. Label names are unique.
	Labels model.LabelSet

	// Annotations provide additional contextual information.
	Annotations model.LabelSet

	// Status is set by the upstream pipeline.
	Status AlertStatus

	// StartsAt is when the alert started firing.
	StartsAt time.Time

	// EndsAt is when the alert stopped firing, zero while active.
	EndsAt time.Time

	// GeneratorURL links back to the rule that produced the alert.
	GeneratorURL string
}

// NewAlert creates a firing alert with the given labels and annotations.
func NewAlert(labels, annotations map[string]string) *Alert {
	a := &Alert{
		Labels:      make(model.LabelSet, len(labels)),
		Annotations: make(model.LabelSet, len(annotations)),
		Status:      StatusFiring,
	}
	for k, v := range labels {
		a.Labels[model.LabelName(k)] = model.LabelValue(v)
	}
	for k, v := range annotations {
		a.Annotations[model.LabelName(k)] = model.LabelValue(v)
	}
	return a
}

// Name returns the alertname label.
func (a *Alert) Name() string {
	return string(a.Labels[model.AlertNameLabel])
}

// Fingerprint returns the label set fingerprint as a hex string.
func (a *Alert) Fingerprint() string {
	return a.Labels.Fingerprint().String()
}

// IsFiring returns true if the alert is still active.
func (a *Alert) IsFiring() bool {
	return a.Status != StatusResolved
}

// IsResolved returns true if the alert stopped firing.
func (a *Alert) IsResolved() bool {
	return a.Status == StatusResolved
}

// GetLabel returns the value of a label, or empty string if not found.
func (a *Alert) GetLabel(key string) string {
	return string(a.Labels[model.LabelName(key)])
}

// GetAnnotation returns the value of an annotation, or empty string if not found.
func (a *Alert) GetAnnotation(key string) string {
	return string(a.Annotations[model.LabelName(key)])
}

// AlertGroup is an ordered set of alerts sharing a group key.
type AlertGroup struct {
	Key    string
	Labels model.LabelSet
	Alerts []*Alert
}

// NewAlertGroup creates a group from the given alerts.
func NewAlertGroup(key string, labels model.LabelSet, alerts ...*Alert) *AlertGroup {
	return &AlertGroup{Key: key, Labels: labels, Alerts: alerts}
}

// Firing returns the active alerts, keeping the group order.
func (g *AlertGroup) Firing() []*Alert {
	return filterAlerts(g.Alerts, (*Alert).IsFiring)
}

// Resolved returns the alerts that stopped firing, keeping the group order.
func (g *AlertGroup) Resolved() []*Alert {
	return filterAlerts(g.Alerts, (*Alert).IsResolved)
}

// Status is firing while at least one alert fires.
func (g *AlertGroup) Status() AlertStatus {
	for _, a := range g.Alerts {
		if a.IsFiring() {
			return StatusFiring
		}
	}
	return StatusResolved
}

// AllResolved returns true if the group is non-empty and nothing fires.
func (g *AlertGroup) AllResolved() bool {
	return len(g.Alerts) > 0 && g.Status() == StatusResolved
}

// CommonLabels returns the labels shared with equal values by every alert.
func (g *AlertGroup) CommonLabels() model.LabelSet {
	return commonSet(g.Alerts, func(a *Alert) model.LabelSet { return a.Labels })
}

// CommonAnnotations returns the annotations shared with equal values by every alert.
func (g *AlertGroup) CommonAnnotations() model.LabelSet {
	return commonSet(g.Alerts, func(a *Alert) model.LabelSet { return a.Annotations })
}

func filterAlerts(alerts []*Alert, keep func(*Alert) bool) []*Alert {
	out := make([]*Alert, 0, len(alerts))
	for _, a := range alerts {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out
}

func commonSet(alerts []*Alert, get func(*Alert) model.LabelSet) model.LabelSet {
	common := model.LabelSet{}
	if len(alerts) == 0 {
		return common
	}
	for name, value := range get(alerts[0]) {
		common[name] = value
	}
	for _, a := range alerts[1:] {
		set := get(a)
		for name, value := range common {
			if v, ok := set[name]; !ok || v != value {
				delete(common, name)
			}
		}
	}
	return common
}
