package app

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altuslabsxyz/alert-dispatch/internal/adapter/dto"
	"github.com/altuslabsxyz/alert-dispatch/internal/domain/entity"
	"github.com/altuslabsxyz/alert-dispatch/internal/infrastructure/config"
)

func writeConfig(t *testing.T, hookURL string) string {
	t.Helper()
	dir := t.TempDir()

	cpFile := filepath.Join(dir, "contact_points.yaml")
	require.NoError(t, os.WriteFile(cpFile, []byte(fmt.Sprintf(`apiVersion: 1
contactPoints:
  - name: oncall
    receivers:
      - uid: oncall-webhook
        type: webhook
        settings:
          url: %s/oncall
`, hookURL)), 0o600))

	cfgFile := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte(fmt.Sprintf(`server:
  port: 0
logging:
  level: error
storage:
  type: memory
external_url: http://grafana.example.com/
provisioning:
  contact_points_file: %s
receivers:
  - name: ops
    integrations:
      - type: webhook
        settings:
          url: %s/ops
`, cpFile, hookURL)), 0o600))

	return cfgFile
}

func TestNew_DispatchesThroughLoadedReceivers(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	application, err := New(writeConfig(t, srv.URL), "test")
	require.NoError(t, err)
	defer func() { assert.NoError(t, application.Shutdown()) }()

	assert.Equal(t, 2, application.receivers.Len())

	for _, name := range []string{"ops", "oncall"} {
		out, err := application.useCases.Dispatch.Execute(context.Background(), dto.DispatchInput{
			Receiver: name,
			GroupKey: "g",
			Alerts:   []*entity.Alert{entity.NewAlert(map[string]string{"alertname": "a"}, nil)},
		})
		require.NoError(t, err)
		require.Len(t, out.Results, 1)
		assert.True(t, out.Results[0].Success, out.Results[0].Error)
	}
	assert.Equal(t, int32(2), calls.Load())
}

func TestNew_MissingConfig(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing.yaml"), "test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading config")
}

func TestOnConfigReload_KeepsReceiversOnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	application, err := New(writeConfig(t, srv.URL), "test")
	require.NoError(t, err)
	defer func() { assert.NoError(t, application.Shutdown()) }()

	broken := *application.config
	broken.Provisioning.ContactPointsFile = ""
	broken.Receivers = []config.ReceiverConfig{{
		Name:         "ops",
		Integrations: []config.IntegrationConfig{{Type: "carrier-pigeon"}},
	}}
	application.onConfigReload(&broken)

	_, ok := application.receivers.Get("oncall")
	assert.True(t, ok, "previous receivers should keep serving")

	valid := *application.config
	valid.Provisioning.ContactPointsFile = ""
	valid.Receivers = []config.ReceiverConfig{{
		Name:         "ops",
		Integrations: []config.IntegrationConfig{{Type: "webhook", Settings: map[string]any{"url": srv.URL}}},
	}, {
		Name:         "platform",
		Integrations: []config.IntegrationConfig{{Type: "webhook", Settings: map[string]any{"url": srv.URL}}},
	}}
	application.onConfigReload(&valid)

	_, ok = application.receivers.Get("platform")
	assert.True(t, ok)
}

func TestConfigManager_FollowsLoggerSwap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	cfgFile := writeConfig(t, srv.URL)
	application, err := New(cfgFile, "test")
	require.NoError(t, err)
	defer func() { assert.NoError(t, application.Shutdown()) }()

	var buf bytes.Buffer
	application.logger.Set(slog.New(slog.NewJSONHandler(&buf, nil)))

	require.NoError(t, os.WriteFile(cfgFile, []byte("server: [\n"), 0o600))
	require.Error(t, application.configManager.TryReload())

	assert.Contains(t, buf.String(), "configuration reload failed")
}
