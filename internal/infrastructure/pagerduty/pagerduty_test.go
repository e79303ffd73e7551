package pagerduty

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/PagerDuty/go-pagerduty"
	"github.com/prometheus/common/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altuslabsxyz/alert-dispatch/internal/domain/entity"
	domainerrors "github.com/altuslabsxyz/alert-dispatch/internal/domain/errors"
	"github.com/altuslabsxyz/alert-dispatch/internal/infrastructure/channels"
	"github.com/altuslabsxyz/alert-dispatch/internal/infrastructure/channels/channelstest"
	"github.com/altuslabsxyz/alert-dispatch/internal/infrastructure/sender"
	"github.com/altuslabsxyz/alert-dispatch/internal/infrastructure/template"
)

func templateForTests(t *testing.T) *template.Template {
	t.Helper()
	externalURL, err := url.Parse("http://localhost")
	require.NoError(t, err)
	tmpl, err := template.New(externalURL)
	require.NoError(t, err)
	return tmpl
}

func notifyContext() context.Context {
	ctx := entity.WithGroupKey(context.Background(), "alertname")
	return entity.WithGroupLabels(ctx, model.LabelSet{"alertname": ""})
}

func TestNewConfig(t *testing.T) {
	t.Run("sets defaults", func(t *testing.T) {
		cfg, err := NewConfig(channels.Settings{"integration_key": "key"})
		require.NoError(t, err)
		assert.Equal(t, "critical", cfg.Severity)
		assert.Equal(t, DefaultEventsAPIURL, cfg.URL)
		assert.Equal(t, "Grafana", cfg.Client)
		assert.Equal(t, template.DefaultTitle, cfg.Summary)
		assert.Contains(t, cfg.Details, "num_firing")
	})

	t.Run("source defaults to client", func(t *testing.T) {
		cfg, err := NewConfig(channels.Settings{"integration_key": "key", "client": "Ops Bridge"})
		require.NoError(t, err)
		assert.Equal(t, "Ops Bridge", cfg.Source)

		cfg, err = NewConfig(channels.Settings{"integration_key": "key", "client": "Ops Bridge", "source": "prom-eu"})
		require.NoError(t, err)
		assert.Equal(t, "prom-eu", cfg.Source)

		cfg, err = NewConfig(channels.Settings{"integration_key": "key"})
		require.NoError(t, err)
		assert.Equal(t, "Grafana", cfg.Source)
	})

	t.Run("custom details merge over defaults", func(t *testing.T) {
		cfg, err := NewConfig(channels.Settings{
			"integration_key": "key",
			"details":         map[string]any{"runbook": "{{ .CommonAnnotations.runbook }}", "firing": "x"},
		})
		require.NoError(t, err)
		assert.Equal(t, "x", cfg.Details["firing"])
		assert.Equal(t, "{{ .CommonAnnotations.runbook }}", cfg.Details["runbook"])
	})

	t.Run("requires integration key", func(t *testing.T) {
		_, err := NewConfig(channels.Settings{})
		require.Error(t, err)
		assert.True(t, domainerrors.IsConfigurationError(err))
		assert.Contains(t, err.Error(), "could not find integration key property in settings")
	})
}

func TestNotifier_Notify(t *testing.T) {
	tmpl := templateForTests(t)

	t.Run("triggers with hashed group key", func(t *testing.T) {
		s := channelstest.NewSender()
		cfg, err := NewConfig(channels.Settings{"integration_key": "key", "severity": "warning", "class": "{{ .CommonLabels.alertname }}"})
		require.NoError(t, err)

		alert := entity.NewAlert(map[string]string{"alertname": "alert1", "lbl1": "val1"}, nil)
		ok, err := NewNotifier(cfg, s, tmpl).Notify(notifyContext(), alert)
		require.NoError(t, err)
		require.True(t, ok)

		var event pagerduty.V2Event
		require.NoError(t, json.Unmarshal([]byte(s.Webhook.Body), &event))

		assert.Equal(t, DefaultEventsAPIURL, s.Webhook.URL)
		assert.Equal(t, "key", event.RoutingKey)
		assert.Equal(t, "trigger", event.Action)
		assert.Equal(t, "6e3538104c14b583da237e9693b76debbc17f0f8058ef20492e5853096cf8733", event.DedupKey)
		assert.Equal(t, "Grafana", event.Client)
		assert.Equal(t, "http://localhost", event.ClientURL)
		require.NotNil(t, event.Payload)
		assert.Equal(t, "[FIRING:1]  (val1)", event.Payload.Summary)
		assert.Equal(t, "warning", event.Payload.Severity)
		assert.Equal(t, "alert1", event.Payload.Class)

		details, ok := event.Payload.Details.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "1", details["num_firing"])
		assert.Equal(t, "0", details["num_resolved"])
	})

	t.Run("resolves when every alert is resolved", func(t *testing.T) {
		s := channelstest.NewSender()
		cfg, err := NewConfig(channels.Settings{"integration_key": "key"})
		require.NoError(t, err)

		alert := entity.NewAlert(map[string]string{"alertname": "alert1"}, nil)
		alert.Status = entity.StatusResolved

		_, err = NewNotifier(cfg, s, tmpl).Notify(notifyContext(), alert)
		require.NoError(t, err)

		var event pagerduty.V2Event
		require.NoError(t, json.Unmarshal([]byte(s.Webhook.Body), &event))
		assert.Equal(t, "resolve", event.Action)
	})

	t.Run("unknown severity falls back to critical", func(t *testing.T) {
		s := channelstest.NewSender()
		cfg, err := NewConfig(channels.Settings{"integration_key": "key", "severity": "{{ .CommonLabels.severity }}"})
		require.NoError(t, err)

		_, err = NewNotifier(cfg, s, tmpl).Notify(notifyContext(), entity.NewAlert(map[string]string{"alertname": "a", "severity": "page"}, nil))
		require.NoError(t, err)

		var event pagerduty.V2Event
		require.NoError(t, json.Unmarshal([]byte(s.Webhook.Body), &event))
		assert.Equal(t, "critical", event.Payload.Severity)
	})

	t.Run("detail render errors are reported in key order", func(t *testing.T) {
		cfg, err := NewConfig(channels.Settings{
			"integration_key": "key",
			"details": map[string]any{
				"c_detail": `{{ template "missing.c" . }}`,
				"a_detail": `{{ template "missing.a" . }}`,
				"b_detail": `{{ template "missing.b" . }}`,
			},
		})
		require.NoError(t, err)

		n := NewNotifier(cfg, channelstest.NewSender(), tmpl)
		for i := 0; i < 20; i++ {
			ok, err := n.Notify(notifyContext(), entity.NewAlert(map[string]string{"alertname": "a"}, nil))
			require.False(t, ok)
			require.True(t, domainerrors.IsRenderError(err))
			require.Contains(t, err.Error(), `template "missing.a" not defined`)
		}
	})

	t.Run("render error skips the sender", func(t *testing.T) {
		s := channelstest.NewSender()
		cfg, err := NewConfig(channels.Settings{"integration_key": "key", "summary": `{{ template "missing" . }}`})
		require.NoError(t, err)

		ok, err := NewNotifier(cfg, s, tmpl).Notify(notifyContext(), entity.NewAlert(map[string]string{"alertname": "a"}, nil))
		assert.False(t, ok)
		assert.True(t, domainerrors.IsRenderError(err))
		assert.Zero(t, s.WebhookCalls())
	})
}

// mockPagerDutyServer creates a test server that mocks PagerDuty Events API v2
func mockPagerDutyServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(handler))
}

func TestNotifier_EventsAPI(t *testing.T) {
	tmpl := templateForTests(t)

	t.Run("sends event to custom url", func(t *testing.T) {
		var receivedEvent pagerduty.V2Event
		server := mockPagerDutyServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "POST", r.Method)
			assert.Equal(t, "/v2/enqueue", r.URL.Path)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&receivedEvent))

			w.WriteHeader(http.StatusAccepted)
			_ = json.NewEncoder(w).Encode(pagerduty.V2EventResponse{Status: "success", DedupKey: receivedEvent.DedupKey})
		})
		defer server.Close()

		cfg, err := NewConfig(channels.Settings{"integration_key": "routing-key", "url": server.URL + "/v2/enqueue"})
		require.NoError(t, err)

		ok, err := NewNotifier(cfg, sender.NewHTTPSender(sender.HTTPSenderOptions{}), tmpl).
			Notify(notifyContext(), entity.NewAlert(map[string]string{"alertname": "HighCPU"}, nil))

		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "routing-key", receivedEvent.RoutingKey)
		assert.Equal(t, "trigger", receivedEvent.Action)
	})

	t.Run("returns rejection for non-2xx status", func(t *testing.T) {
		server := mockPagerDutyServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"status":"invalid_event","message":"bad request"}`))
		})
		defer server.Close()

		cfg, err := NewConfig(channels.Settings{"integration_key": "routing-key", "url": server.URL})
		require.NoError(t, err)

		ok, err := NewNotifier(cfg, sender.NewHTTPSender(sender.HTTPSenderOptions{}), tmpl).
			Notify(notifyContext(), entity.NewAlert(map[string]string{"alertname": "HighCPU"}, nil))

		assert.False(t, ok)
		require.Error(t, err)
		assert.True(t, domainerrors.IsRejectedError(err))
		assert.Contains(t, err.Error(), "400")
		assert.Contains(t, err.Error(), "invalid_event")
	})
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))

	long := strings.Repeat("é", 2000)
	got := truncate(long, maxSummaryRunes)
	assert.Equal(t, maxSummaryRunes, utf8.RuneCountInString(got))
	assert.True(t, strings.HasSuffix(got, "…"))
}
