// Package harness provides an in-process test harness for e2e testing.
// It runs the full dispatch pipeline against mock chat and paging services.
package harness

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/altuslabsxyz/alert-dispatch/internal/adapter/dto"
	"github.com/altuslabsxyz/alert-dispatch/internal/adapter/handler"
	"github.com/altuslabsxyz/alert-dispatch/internal/domain/entity"
	"github.com/altuslabsxyz/alert-dispatch/internal/infrastructure/integrations"
	"github.com/altuslabsxyz/alert-dispatch/internal/infrastructure/persistence/memory"
	"github.com/altuslabsxyz/alert-dispatch/internal/infrastructure/sender"
	"github.com/altuslabsxyz/alert-dispatch/internal/infrastructure/server"
	"github.com/altuslabsxyz/alert-dispatch/internal/infrastructure/template"
	"github.com/altuslabsxyz/alert-dispatch/internal/usecase/notify"
	"github.com/altuslabsxyz/alert-dispatch/test/e2e/mocks"
)

const (
	// ReceiverName is the contact point fanning out to every mock service.
	ReceiverName = "ops"

	// ExternalURL is the external URL used when rendering links.
	ExternalURL = "http://grafana.example.com/"

	// WebhookToken guards the Alertmanager endpoint.
	WebhookToken = "e2e-token"
)

// TestHarness manages the in-process test environment
type TestHarness struct {
	t *testing.T

	// Mock services
	Discord   *mocks.MockService
	Slack     *mocks.MockService
	PagerDuty *mocks.MockService
	Webhook   *mocks.MockService

	// Repository and receivers
	ContactPoints *memory.ContactPointRepository
	Receivers     *notify.ReceiverRegistry

	// Use case
	Dispatch *notify.DispatchUseCase

	// Server
	Server *httptest.Server

	// Logger
	Logger *slog.Logger
}

// NewTestHarness creates a new test harness with all components wired together
func NewTestHarness(t *testing.T) *TestHarness {
	t.Helper()

	h := &TestHarness{
		t: t,
	}

	// Create logger (suppress during tests unless verbose)
	h.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))

	h.Discord = mocks.NewMockService("discord")
	h.Slack = mocks.NewMockService("slack")
	h.PagerDuty = mocks.NewMockService("pagerduty")
	h.Webhook = mocks.NewMockService("webhook")

	h.ContactPoints = memory.NewContactPointRepository()
	ctx := context.Background()
	if err := h.ContactPoints.Save(ctx, h.opsContactPoint()); err != nil {
		t.Fatalf("saving contact point: %v", err)
	}

	externalURL, err := url.Parse(ExternalURL)
	if err != nil {
		t.Fatalf("parsing external url: %v", err)
	}
	tmpl, err := template.New(externalURL)
	if err != nil {
		t.Fatalf("creating template: %v", err)
	}

	deps := integrations.Dependencies{
		WebhookSender: sender.NewHTTPSender(sender.HTTPSenderOptions{
			Timeout: 5 * time.Second,
			Logger:  h.Logger,
		}),
		Template: tmpl,
		Logger:   h.Logger,
	}
	build := func(ic entity.IntegrationConfig) (notify.Notifier, error) {
		return integrations.Build(ic, deps)
	}

	receivers, err := notify.LoadReceivers(ctx, h.ContactPoints, build)
	if err != nil {
		t.Fatalf("loading receivers: %v", err)
	}
	h.Receivers = notify.NewReceiverRegistry(receivers...)

	h.Dispatch = notify.NewDispatchUseCase(h.Receivers, h.Logger, nil, nil)

	h.Server = httptest.NewServer(server.NewRouter(&server.Handlers{
		Alertmanager: handler.NewAlertmanagerWebhookHandler(h.Dispatch, WebhookToken, h.Logger),
		Receivers:    handler.NewReceiversHandler(h.Receivers, h.Dispatch, h.Logger),
	}))

	t.Cleanup(func() {
		h.Server.Close()
		h.Discord.Close()
		h.Slack.Close()
		h.PagerDuty.Close()
		h.Webhook.Close()
	})

	return h
}

func (h *TestHarness) opsContactPoint() *entity.ContactPoint {
	return entity.NewContactPoint(ReceiverName,
		entity.IntegrationConfig{
			Name:     "ops-discord",
			Type:     "discord",
			Settings: map[string]any{"url": h.Discord.URL() + "/api/webhooks/1/abc"},
		},
		entity.IntegrationConfig{
			Name:     "ops-slack",
			Type:     "slack",
			Settings: map[string]any{"url": h.Slack.URL() + "/services/T000/B000/XXX"},
		},
		entity.IntegrationConfig{
			Name: "ops-pagerduty",
			Type: "pagerduty",
			Settings: map[string]any{
				"integration_key": "e2e-routing-key",
				"url":             h.PagerDuty.URL() + "/v2/enqueue",
			},
		},
		entity.IntegrationConfig{
			Name:                  "ops-webhook",
			Type:                  "webhook",
			DisableResolveMessage: true,
			Settings:              map[string]any{"url": h.Webhook.URL() + "/hook"},
		},
	)
}

// Services returns every mock service.
func (h *TestHarness) Services() []*mocks.MockService {
	return []*mocks.MockService{h.Discord, h.Slack, h.PagerDuty, h.Webhook}
}

// Reset clears all captured requests
func (h *TestHarness) Reset() {
	for _, s := range h.Services() {
		s.Reset()
	}
}

// ServerURL returns the base URL of the test server
func (h *TestHarness) ServerURL() string {
	return h.Server.URL
}

// WebhookURL returns the full webhook URL
func (h *TestHarness) WebhookURL() string {
	return h.Server.URL + "/webhook/alertmanager"
}

// NewPayload builds an Alertmanager webhook payload for the ops receiver.
func NewPayload(alerts []dto.AlertmanagerAlert) dto.AlertmanagerWebhookPayload {
	status := "firing"
	allResolved := len(alerts) > 0
	for _, alert := range alerts {
		if alert.Status != "resolved" {
			allResolved = false
			break
		}
	}
	if allResolved {
		status = "resolved"
	}

	payload := dto.AlertmanagerWebhookPayload{
		Version:     "4",
		GroupKey:    "{}:{alertname=\"e2e\"}",
		Status:      status,
		Receiver:    ReceiverName,
		GroupLabels: map[string]string{},
		Alerts:      alerts,
		ExternalURL: "http://alertmanager:9093",
	}
	if len(alerts) > 0 {
		payload.GroupLabels = map[string]string{"alertname": alerts[0].Labels["alertname"]}
		payload.CommonLabels = alerts[0].Labels
		payload.CommonAnnotations = alerts[0].Annotations
	}
	return payload
}

// SendAlert sends alerts to the test server
func (h *TestHarness) SendAlert(alerts []dto.AlertmanagerAlert) (*http.Response, error) {
	return h.SendPayload(NewPayload(alerts), WebhookToken)
}

// SendPayload posts payload with the given bearer token; an empty token
// sends no Authorization header.
func (h *TestHarness) SendPayload(payload dto.AlertmanagerWebhookPayload, token string) (*http.Response, error) {
	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.WebhookURL(), bytes.NewReader(jsonPayload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return h.client().Do(req)
}

// Get performs a GET against the test server.
func (h *TestHarness) Get(path string) (*http.Response, error) {
	return h.client().Get(h.Server.URL + path)
}

// Post performs an empty POST against the test server.
func (h *TestHarness) Post(path string) (*http.Response, error) {
	return h.client().Post(h.Server.URL+path, "application/json", nil)
}

func (h *TestHarness) client() *http.Client {
	return &http.Client{
		Timeout: 10 * time.Second,
	}
}

// DecodeResponse decodes a JSON response body into v and closes it.
func DecodeResponse(resp *http.Response, v any) error {
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(v)
}

// WaitForRequests waits until every given service received at least count requests
func (h *TestHarness) WaitForRequests(count int, timeout time.Duration, services ...*mocks.MockService) bool {
	deadline := time.Now().Add(timeout)
	for _, s := range services {
		remaining := time.Until(deadline)
		if remaining <= 0 || !s.WaitForRequests(count, remaining) {
			return false
		}
	}
	return true
}
