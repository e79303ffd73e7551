package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the dispatch instruments.
type Metrics struct {
	notificationsTotal   metric.Int64Counter
	notificationDuration metric.Float64Histogram
	notificationsSkipped metric.Int64Counter
	dispatchesTotal      metric.Int64Counter
	alertsReceived       metric.Int64Counter
	receiversLoaded      metric.Int64Gauge
}

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	if m.notificationsTotal, err = meter.Int64Counter(
		"alert_dispatch_notifications_total",
		metric.WithDescription("Notifications attempted, by integration type and outcome"),
	); err != nil {
		return nil, fmt.Errorf("creating notifications counter: %w", err)
	}

	if m.notificationDuration, err = meter.Float64Histogram(
		"alert_dispatch_notification_duration_seconds",
		metric.WithDescription("Time spent rendering and sending one notification"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("creating notification duration histogram: %w", err)
	}

	if m.notificationsSkipped, err = meter.Int64Counter(
		"alert_dispatch_notifications_skipped_total",
		metric.WithDescription("Notifications skipped because resolve messages are disabled"),
	); err != nil {
		return nil, fmt.Errorf("creating skipped counter: %w", err)
	}

	if m.dispatchesTotal, err = meter.Int64Counter(
		"alert_dispatch_dispatches_total",
		metric.WithDescription("Alert groups dispatched to a receiver"),
	); err != nil {
		return nil, fmt.Errorf("creating dispatches counter: %w", err)
	}

	if m.alertsReceived, err = meter.Int64Counter(
		"alert_dispatch_alerts_received_total",
		metric.WithDescription("Alerts received, by status"),
	); err != nil {
		return nil, fmt.Errorf("creating alerts counter: %w", err)
	}

	if m.receiversLoaded, err = meter.Int64Gauge(
		"alert_dispatch_receivers",
		metric.WithDescription("Receivers currently loaded"),
	); err != nil {
		return nil, fmt.Errorf("creating receivers gauge: %w", err)
	}

	return m, nil
}

// RecordNotification records one Notify call.
func (m *Metrics) RecordNotification(ctx context.Context, integrationType, receiver string, duration time.Duration, success bool) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	attrs := metric.WithAttributes(
		attribute.String("integration", integrationType),
		attribute.String("receiver", receiver),
		attribute.String("outcome", outcome),
	)
	m.notificationsTotal.Add(ctx, 1, attrs)
	m.notificationDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordSkipped records a notification suppressed by disable_resolve_message.
func (m *Metrics) RecordSkipped(ctx context.Context, integrationType, receiver string) {
	m.notificationsSkipped.Add(ctx, 1, metric.WithAttributes(
		attribute.String("integration", integrationType),
		attribute.String("receiver", receiver),
	))
}

// RecordDispatch records one alert group handed to a receiver.
func (m *Metrics) RecordDispatch(ctx context.Context, receiver string, firing, resolved int) {
	m.dispatchesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("receiver", receiver)))
	m.alertsReceived.Add(ctx, int64(firing), metric.WithAttributes(attribute.String("status", "firing")))
	m.alertsReceived.Add(ctx, int64(resolved), metric.WithAttributes(attribute.String("status", "resolved")))
}

// SetReceivers records the number of loaded receivers.
func (m *Metrics) SetReceivers(ctx context.Context, n int) {
	m.receiversLoaded.Record(ctx, int64(n))
}
