package notify

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/common/model"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/altuslabsxyz/alert-dispatch/internal/adapter/dto"
	"github.com/altuslabsxyz/alert-dispatch/internal/domain/entity"
	domainerrors "github.com/altuslabsxyz/alert-dispatch/internal/domain/errors"
	"github.com/altuslabsxyz/alert-dispatch/internal/infrastructure/observability"
)

// DispatchUseCase delivers alert groups to the integrations of a receiver.
type DispatchUseCase struct {
	receivers ReceiverStore
	logger    Logger
	metrics   *observability.Metrics
	tracer    trace.Tracer
}

// NewDispatchUseCase creates a new DispatchUseCase with dependencies.
// metrics and tracer may be nil.
func NewDispatchUseCase(
	receivers ReceiverStore,
	logger Logger,
	metrics *observability.Metrics,
	tracer trace.Tracer,
) *DispatchUseCase {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("")
	}
	return &DispatchUseCase{
		receivers: receivers,
		logger:    logger,
		metrics:   metrics,
		tracer:    tracer,
	}
}

// Execute sends the alert group to every integration of the receiver concurrently.
// Integration failures are reported per integration in the output, not as an error.
func (uc *DispatchUseCase) Execute(ctx context.Context, input dto.DispatchInput) (*dto.DispatchOutput, error) {
	if len(input.Alerts) == 0 {
		return nil, entity.ErrEmptyAlertGroup
	}

	receiver, ok := uc.receivers.Get(input.Receiver)
	if !ok {
		return nil, fmt.Errorf("%w: %s", entity.ErrReceiverNotFound, input.Receiver)
	}

	output := &dto.DispatchOutput{
		NotificationID: uuid.New().String(),
		Receiver:       receiver.Name,
		Results:        make([]dto.IntegrationResult, len(receiver.Integrations)),
	}

	ctx, span := uc.tracer.Start(ctx, "notify.Dispatch", trace.WithAttributes(
		attribute.String("notification.id", output.NotificationID),
		attribute.String("receiver", receiver.Name),
		attribute.String("group.key", input.GroupKey),
		attribute.Int("alerts", len(input.Alerts)),
	))
	defer span.End()

	ctx = uc.notificationContext(ctx, input, receiver.Name)

	group := entity.NewAlertGroup(input.GroupKey, input.GroupLabels, input.Alerts...)
	allResolved := group.AllResolved()

	if uc.metrics != nil {
		uc.metrics.RecordDispatch(ctx, receiver.Name, len(group.Firing()), len(group.Resolved()))
	}

	var wg sync.WaitGroup
	for i, integration := range receiver.Integrations {
		wg.Add(1)
		go func(i int, integration Integration) {
			defer wg.Done()
			output.Results[i] = uc.notifyIntegration(ctx, receiver.Name, integration, allResolved, input.Alerts)
		}(i, integration)
	}
	wg.Wait()

	if failed := output.Failed(); failed > 0 {
		span.SetStatus(codes.Error, fmt.Sprintf("%d of %d integrations failed", failed, len(output.Results)))
	}

	uc.logger.Info("alert group dispatched",
		"notificationID", output.NotificationID,
		"receiver", receiver.Name,
		"groupKey", input.GroupKey,
		"alerts", len(input.Alerts),
		"integrations", len(output.Results),
		"failed", output.Failed(),
	)

	return output, nil
}

// TestReceiver sends a synthetic firing alert through every integration of a receiver.
func (uc *DispatchUseCase) TestReceiver(ctx context.Context, name string) (*dto.DispatchOutput, error) {
	alert := entity.NewAlert(
		map[string]string{"alertname": "TestAlert", "instance": "Grafana"},
		map[string]string{"summary": "Notification test"},
	)
	alert.StartsAt = time.Now().UTC()

	return uc.Execute(ctx, dto.DispatchInput{
		Receiver:    name,
		GroupKey:    "test-" + uuid.New().String(),
		GroupLabels: model.LabelSet{"alertname": "TestAlert", "instance": "Grafana"},
		Alerts:      []*entity.Alert{alert},
	})
}

func (uc *DispatchUseCase) notificationContext(ctx context.Context, input dto.DispatchInput, receiver string) context.Context {
	ctx = entity.WithGroupKey(ctx, input.GroupKey)
	ctx = entity.WithReceiverName(ctx, receiver)

	groupLabels := input.GroupLabels
	if groupLabels == nil {
		groupLabels = model.LabelSet{}
	}
	ctx = entity.WithGroupLabels(ctx, groupLabels)

	if input.ExternalURL != "" {
		u, err := url.Parse(input.ExternalURL)
		if err != nil {
			uc.logger.Warn("ignoring invalid external URL",
				"externalURL", input.ExternalURL,
				"error", err,
			)
		} else {
			ctx = entity.WithExternalURL(ctx, u)
		}
	}
	return ctx
}

func (uc *DispatchUseCase) notifyIntegration(
	ctx context.Context,
	receiver string,
	integration Integration,
	allResolved bool,
	alerts []*entity.Alert,
) dto.IntegrationResult {
	result := dto.IntegrationResult{
		Name: integration.Name,
		Type: integration.Type,
		UID:  integration.UID,
	}

	if allResolved && !integration.Notifier.SendResolved() {
		result.Skipped = true
		if uc.metrics != nil {
			uc.metrics.RecordSkipped(ctx, integration.Type, receiver)
		}
		uc.logger.Debug("resolve message disabled, skipping integration",
			"receiver", receiver,
			"integration", integration.Name,
			"type", integration.Type,
		)
		return result
	}

	ctx, span := uc.tracer.Start(ctx, "notify.Integration", trace.WithAttributes(
		attribute.String("integration.type", integration.Type),
		attribute.String("integration.uid", integration.UID),
	))
	defer span.End()

	start := time.Now()
	ok, err := integration.Notifier.Notify(ctx, alerts...)
	duration := time.Since(start)

	result.Success = ok && err == nil
	if err != nil {
		result.Err = err
		result.Error = err.Error()
		result.Retryable = domainerrors.IsRetryable(err)

		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		uc.logger.Warn("failed to notify integration",
			"receiver", receiver,
			"integration", integration.Name,
			"type", integration.Type,
			"retryable", result.Retryable,
			"error", err,
		)
	}

	if uc.metrics != nil {
		uc.metrics.RecordNotification(ctx, integration.Type, receiver, duration, result.Success)
	}
	return result
}
