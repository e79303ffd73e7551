// Package e2e provides in-process end-to-end tests against mock services.
// These tests run without Docker and exercise the real HTTP sender.
package e2e

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/altuslabsxyz/alert-dispatch/internal/adapter/dto"
	"github.com/altuslabsxyz/alert-dispatch/test/e2e/harness"
	"github.com/altuslabsxyz/alert-dispatch/test/e2e/mocks"
)

const waitTimeout = 5 * time.Second

func sendAndDecode(t *testing.T, h *harness.TestHarness, alerts []dto.AlertmanagerAlert, wantStatus int) dto.DispatchOutput {
	t.Helper()

	resp, err := h.SendAlert(alerts)
	if err != nil {
		t.Fatalf("Failed to send alert: %v", err)
	}
	if resp.StatusCode != wantStatus {
		resp.Body.Close()
		t.Fatalf("Expected status %d, got %d", wantStatus, resp.StatusCode)
	}

	var out dto.DispatchOutput
	if err := harness.DecodeResponse(resp, &out); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return out
}

func lastJSON(t *testing.T, s *mocks.MockService) map[string]any {
	t.Helper()

	req, ok := s.Last()
	if !ok {
		t.Fatalf("%s received no request", s.Name())
	}
	body, err := req.JSON()
	if err != nil {
		t.Fatalf("%s body is not JSON: %v", s.Name(), err)
	}
	return body
}

func firstEmbedTitle(t *testing.T, body map[string]any) string {
	t.Helper()

	embeds, ok := body["embeds"].([]any)
	if !ok || len(embeds) == 0 {
		t.Fatalf("Expected embeds in discord payload, got %v", body["embeds"])
	}
	title, _ := embeds[0].(map[string]any)["title"].(string)
	return title
}

// TestAlertDeliveryDiscord tests that a firing group reaches the Discord webhook
func TestAlertDeliveryDiscord(t *testing.T) {
	h := harness.NewTestHarness(t)

	alert := harness.CreateTestAlert("high_cpu_critical", nil)
	out := sendAndDecode(t, h, []dto.AlertmanagerAlert{alert}, http.StatusOK)

	if out.Receiver != harness.ReceiverName {
		t.Errorf("Expected receiver %q, got %q", harness.ReceiverName, out.Receiver)
	}
	if out.NotificationID == "" {
		t.Error("Expected a notification id")
	}

	if !h.WaitForRequests(1, waitTimeout, h.Discord) {
		t.Fatal("Timeout waiting for Discord request")
	}

	req, _ := h.Discord.Last()
	if req.Path != "/api/webhooks/1/abc" {
		t.Errorf("Expected webhook path, got %s", req.Path)
	}
	if ct := req.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected JSON content type, got %s", ct)
	}

	body := lastJSON(t, h.Discord)
	if body["username"] != "Grafana" {
		t.Errorf("Expected default username Grafana, got %v", body["username"])
	}
	title := firstEmbedTitle(t, body)
	if !strings.HasPrefix(title, "[FIRING:1]") || !strings.Contains(title, "HighCPU") {
		t.Errorf("Unexpected embed title %q", title)
	}
}

// TestAlertDeliverySlack tests that a firing group reaches the Slack incoming webhook
func TestAlertDeliverySlack(t *testing.T) {
	h := harness.NewTestHarness(t)

	alert := harness.CreateTestAlert("memory_pressure_warning", nil)
	sendAndDecode(t, h, []dto.AlertmanagerAlert{alert}, http.StatusOK)

	if !h.WaitForRequests(1, waitTimeout, h.Slack) {
		t.Fatal("Timeout waiting for Slack request")
	}

	body := lastJSON(t, h.Slack)
	attachments, ok := body["attachments"].([]any)
	if !ok || len(attachments) != 1 {
		t.Fatalf("Expected one attachment, got %v", body["attachments"])
	}
	title, _ := attachments[0].(map[string]any)["title"].(string)
	if !strings.Contains(title, "MemoryPressure") {
		t.Errorf("Expected title to name the alert, got %q", title)
	}

	t.Logf("Slack title: %s", title)
}

// TestAlertDeliveryPagerDuty tests that a firing group triggers a PagerDuty event
func TestAlertDeliveryPagerDuty(t *testing.T) {
	h := harness.NewTestHarness(t)

	alert := harness.CreateTestAlert("service_down_critical", nil)
	sendAndDecode(t, h, []dto.AlertmanagerAlert{alert}, http.StatusOK)

	if !h.WaitForRequests(1, waitTimeout, h.PagerDuty) {
		t.Fatal("Timeout waiting for PagerDuty request")
	}

	body := lastJSON(t, h.PagerDuty)
	if body["event_action"] != "trigger" {
		t.Errorf("Expected trigger event, got %v", body["event_action"])
	}
	if body["routing_key"] != "e2e-routing-key" {
		t.Errorf("Expected routing key, got %v", body["routing_key"])
	}
	if key, _ := body["dedup_key"].(string); key == "" {
		t.Error("Expected a dedup key")
	}
}

// TestAlertResolution tests that resolved groups reach integrations that send resolved
// notifications and skip the one that disables them
func TestAlertResolution(t *testing.T) {
	h := harness.NewTestHarness(t)

	alert := harness.CreateTestAlert("disk_space_critical", nil)
	sendAndDecode(t, h, []dto.AlertmanagerAlert{alert}, http.StatusOK)

	if !h.WaitForRequests(1, waitTimeout, h.Services()...) {
		t.Fatal("Timeout waiting for firing notifications")
	}
	firingDedup := lastJSON(t, h.PagerDuty)["dedup_key"]

	resolved := harness.CreateResolvedAlert(alert)
	out := sendAndDecode(t, h, []dto.AlertmanagerAlert{resolved}, http.StatusOK)

	if !h.WaitForRequests(2, waitTimeout, h.Discord, h.Slack, h.PagerDuty) {
		t.Fatal("Timeout waiting for resolved notifications")
	}

	title := firstEmbedTitle(t, lastJSON(t, h.Discord))
	if !strings.HasPrefix(title, "[RESOLVED:1]") {
		t.Errorf("Expected resolved title, got %q", title)
	}

	pd := lastJSON(t, h.PagerDuty)
	if pd["event_action"] != "resolve" {
		t.Errorf("Expected resolve event, got %v", pd["event_action"])
	}
	if pd["dedup_key"] != firingDedup {
		t.Errorf("Expected resolve to reuse dedup key %v, got %v", firingDedup, pd["dedup_key"])
	}

	if got := h.Webhook.Count(); got != 1 {
		t.Errorf("Expected webhook to skip the resolved group, got %d requests", got)
	}

	var skipped int
	for _, r := range out.Results {
		if r.Skipped {
			skipped++
			if r.Type != "webhook" {
				t.Errorf("Expected only the webhook to be skipped, got %s", r.Type)
			}
		}
	}
	if skipped != 1 {
		t.Errorf("Expected 1 skipped integration, got %d", skipped)
	}
}

// TestMultipleAlertsInBatch tests that a group is delivered as one request per integration
func TestMultipleAlertsInBatch(t *testing.T) {
	h := harness.NewTestHarness(t)

	alerts := []dto.AlertmanagerAlert{
		harness.CreateTestAlert("high_cpu_critical", map[string]string{"instance": "server-01"}),
		harness.CreateTestAlert("high_cpu_critical", map[string]string{"instance": "server-02"}),
		harness.CreateTestAlert("high_cpu_critical", map[string]string{"instance": "server-03"}),
	}
	out := sendAndDecode(t, h, alerts, http.StatusOK)

	if len(out.Results) != 4 {
		t.Fatalf("Expected 4 integration results, got %d", len(out.Results))
	}
	for _, r := range out.Results {
		if !r.Success {
			t.Errorf("Integration %s failed: %s", r.Name, r.Error)
		}
	}

	for _, s := range h.Services() {
		if got := s.Count(); got != 1 {
			t.Errorf("Expected 1 request to %s, got %d", s.Name(), got)
		}
	}

	title := firstEmbedTitle(t, lastJSON(t, h.Discord))
	if !strings.HasPrefix(title, "[FIRING:3]") {
		t.Errorf("Expected title counting 3 alerts, got %q", title)
	}

	alertsSent, _ := lastJSON(t, h.Webhook)["alerts"].([]any)
	if len(alertsSent) != 3 {
		t.Errorf("Expected 3 alerts in webhook payload, got %d", len(alertsSent))
	}
}

// TestServiceFailureHandling tests that one failing service does not block the others
func TestServiceFailureHandling(t *testing.T) {
	h := harness.NewTestHarness(t)
	h.Discord.SetStatus(http.StatusInternalServerError)

	alert := harness.CreateTestAlert("backup_failed_critical", nil)
	out := sendAndDecode(t, h, []dto.AlertmanagerAlert{alert}, http.StatusBadGateway)

	if out.Failed() != 1 {
		t.Errorf("Expected 1 failed integration, got %d", out.Failed())
	}
	for _, r := range out.Results {
		switch r.Type {
		case "discord":
			if r.Success || !r.Retryable {
				t.Errorf("Expected retryable discord failure, got %+v", r)
			}
		default:
			if !r.Success {
				t.Errorf("Expected %s to succeed, got %s", r.Type, r.Error)
			}
		}
	}

	if !h.WaitForRequests(1, waitTimeout, h.Slack, h.PagerDuty, h.Webhook) {
		t.Error("Other services should still receive the group")
	}
}

// TestClientErrorIsNotRetried tests that a 4xx rejection does not ask Alertmanager to retry
func TestClientErrorIsNotRetried(t *testing.T) {
	h := harness.NewTestHarness(t)
	h.Slack.SetStatus(http.StatusBadRequest)

	alert := harness.CreateTestAlert("high_cpu_critical", nil)
	out := sendAndDecode(t, h, []dto.AlertmanagerAlert{alert}, http.StatusOK)

	if out.Failed() != 1 {
		t.Errorf("Expected 1 failed integration, got %d", out.Failed())
	}
}

// TestWebhookAuthentication tests the bearer token check on the webhook endpoint
func TestWebhookAuthentication(t *testing.T) {
	h := harness.NewTestHarness(t)

	alert := harness.CreateTestAlert("high_cpu_critical", nil)
	for _, token := range []string{"", "wrong"} {
		resp, err := h.SendPayload(harness.NewPayload([]dto.AlertmanagerAlert{alert}), token)
		if err != nil {
			t.Fatalf("Failed to send alert: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("Token %q: expected status 401, got %d", token, resp.StatusCode)
		}
	}

	for _, s := range h.Services() {
		if s.Count() != 0 {
			t.Errorf("Expected no requests to %s", s.Name())
		}
	}
}

// TestUnknownReceiver tests that a payload for an unconfigured receiver is rejected
func TestUnknownReceiver(t *testing.T) {
	h := harness.NewTestHarness(t)

	payload := harness.NewPayload([]dto.AlertmanagerAlert{harness.CreateTestAlert("high_cpu_critical", nil)})
	payload.Receiver = "nobody"

	resp, err := h.SendPayload(payload, harness.WebhookToken)
	if err != nil {
		t.Fatalf("Failed to send alert: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", resp.StatusCode)
	}
}

// TestReceiversAPI tests listing receivers and sending a test notification
func TestReceiversAPI(t *testing.T) {
	h := harness.NewTestHarness(t)

	resp, err := h.Get("/api/v1/receivers")
	if err != nil {
		t.Fatalf("Failed to list receivers: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	var receivers []struct {
		Name         string `json:"name"`
		Integrations []struct {
			Type         string `json:"type"`
			SendResolved bool   `json:"sendResolved"`
		} `json:"integrations"`
	}
	if err := harness.DecodeResponse(resp, &receivers); err != nil {
		t.Fatalf("Failed to decode receivers: %v", err)
	}
	if len(receivers) != 1 || receivers[0].Name != harness.ReceiverName {
		t.Fatalf("Expected the ops receiver, got %+v", receivers)
	}
	if len(receivers[0].Integrations) != 4 {
		t.Errorf("Expected 4 integrations, got %d", len(receivers[0].Integrations))
	}

	resp, err = h.Post("/api/v1/receivers/" + harness.ReceiverName + "/test")
	if err != nil {
		t.Fatalf("Failed to test receiver: %v", err)
	}
	var out dto.DispatchOutput
	if err := harness.DecodeResponse(resp, &out); err != nil {
		t.Fatalf("Failed to decode test output: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d: %+v", resp.StatusCode, out)
	}

	title := firstEmbedTitle(t, lastJSON(t, h.Discord))
	if !strings.Contains(title, "TestAlert") {
		t.Errorf("Expected test alert title, got %q", title)
	}

	resp, err = h.Post("/api/v1/receivers/nobody/test")
	if err != nil {
		t.Fatalf("Failed to test receiver: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected status 404 for unknown receiver, got %d", resp.StatusCode)
	}
}

// TestHealthEndpoint tests the health check endpoint
func TestHealthEndpoint(t *testing.T) {
	h := harness.NewTestHarness(t)

	resp, err := h.Get("/health")
	if err != nil {
		t.Fatalf("Failed to call health endpoint: %v", err)
	}

	var body map[string]string
	if err := harness.DecodeResponse(resp, &body); err != nil {
		t.Fatalf("Failed to decode health response: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
	if body["status"] != "ok" {
		t.Errorf("Expected status ok, got %q", body["status"])
	}
}
