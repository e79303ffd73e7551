package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

const baseConfig = `
logging:
  level: info
  format: json
external_url: http://grafana.example.com/
receivers:
  - name: ops
    integrations:
      - type: discord
        settings:
          url: http://discord.example.com/hook
`

// newTestManager writes content to a temp config file and loads it.
func newTestManager(t *testing.T, content string) (*ConfigManager, string) {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("failed to read config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	return NewConfigManager(cfg, v, configPath, logger), configPath
}

func rewrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to update config file: %v", err)
	}
}

// TestLoggingLevelHotReload tests that logging.level can be hot-reloaded.
func TestLoggingLevelHotReload(t *testing.T) {
	cm, configPath := newTestManager(t, baseConfig)

	if cm.Get().Logging.Level != "info" {
		t.Errorf("expected initial level 'info', got '%s'", cm.Get().Logging.Level)
	}

	rewrite(t, configPath, `
logging:
  level: debug
  format: json
external_url: http://grafana.example.com/
`)

	if err := cm.TryReload(); err != nil {
		t.Fatalf("reload failed: %v", err)
	}

	if cm.Get().Logging.Level != "debug" {
		t.Errorf("expected level 'debug' after reload, got '%s'", cm.Get().Logging.Level)
	}
}

// TestReceiversHotReload tests that inline receivers can be hot-reloaded
// and that the reload callback observes the new set.
func TestReceiversHotReload(t *testing.T) {
	cm, configPath := newTestManager(t, baseConfig)

	var reloaded *Config
	cm.SetReloadCallback(func(cfg *Config) { reloaded = cfg })

	rewrite(t, configPath, `
logging:
  level: info
  format: json
external_url: http://grafana.example.com/
receivers:
  - name: ops
    integrations:
      - type: discord
        settings:
          url: http://discord.example.com/hook
  - name: dev
    integrations:
      - type: webhook
        disable_resolve_message: true
        settings:
          url: http://dev.example.com/hook
`)

	if err := cm.TryReload(); err != nil {
		t.Fatalf("reload failed: %v", err)
	}

	if reloaded == nil {
		t.Fatal("expected reload callback to be called")
	}
	if len(reloaded.Receivers) != 2 {
		t.Fatalf("expected 2 receivers after reload, got %d", len(reloaded.Receivers))
	}
	dev := reloaded.Receivers[1]
	if dev.Name != "dev" || !dev.Integrations[0].DisableResolveMessage {
		t.Errorf("unexpected receiver after reload: %+v", dev)
	}
	if dev.Integrations[0].Settings["url"] != "http://dev.example.com/hook" {
		t.Errorf("expected webhook url setting, got %v", dev.Integrations[0].Settings["url"])
	}
}

// TestMultipleSettingsReload tests that multiple settings can be changed at once.
func TestMultipleSettingsReload(t *testing.T) {
	cm, configPath := newTestManager(t, baseConfig)

	rewrite(t, configPath, `
logging:
  level: debug
  format: text
external_url: https://grafana.internal/
templates:
  files:
    - /etc/alert-dispatch/custom.tmpl
provisioning:
  contact_points_file: /etc/alert-dispatch/contact-points.yaml
`)

	if err := cm.TryReload(); err != nil {
		t.Fatalf("reload failed: %v", err)
	}

	newCfg := cm.Get()
	if newCfg.Logging.Level != "debug" {
		t.Errorf("expected level 'debug', got '%s'", newCfg.Logging.Level)
	}
	if newCfg.Logging.Format != "text" {
		t.Errorf("expected format 'text', got '%s'", newCfg.Logging.Format)
	}
	if newCfg.ExternalURL != "https://grafana.internal/" {
		t.Errorf("expected external url 'https://grafana.internal/', got '%s'", newCfg.ExternalURL)
	}
	if len(newCfg.Templates.Files) != 1 {
		t.Errorf("expected 1 template file, got %v", newCfg.Templates.Files)
	}
	if newCfg.Provisioning.ContactPointsFile != "/etc/alert-dispatch/contact-points.yaml" {
		t.Errorf("unexpected contact points file %q", newCfg.Provisioning.ContactPointsFile)
	}
	if len(newCfg.Receivers) != 0 {
		t.Errorf("expected receivers to be removed, got %d", len(newCfg.Receivers))
	}
}

// TestExtractConfigDiff tests that receiver changes are reported without their settings.
func TestExtractConfigDiff(t *testing.T) {
	oldCfg := &Config{Logging: LoggingConfig{Level: "info"}}
	newCfg := &Config{
		Logging:   LoggingConfig{Level: "warn"},
		Receivers: []ReceiverConfig{{Name: "ops"}},
	}

	diff := extractConfigDiff(oldCfg, newCfg)
	if len(diff.ChangedKeys) != 2 {
		t.Fatalf("expected 2 changed keys, got %v", diff.ChangedKeys)
	}
	if diff.NewValues["receivers"] != 1 {
		t.Errorf("expected receiver count in diff, got %v", diff.NewValues["receivers"])
	}
}

// TestInvalidYAMLHandling tests that invalid YAML preserves existing config.
func TestInvalidYAMLHandling(t *testing.T) {
	cm, configPath := newTestManager(t, baseConfig)

	rewrite(t, configPath, `
logging:
  level: info
  invalid: yaml: syntax: error
`)

	if err := cm.TryReload(); err == nil {
		t.Fatal("expected reload to fail with invalid YAML, but it succeeded")
	}

	if cm.Get().Logging.Level != "info" {
		t.Errorf("expected preserved level 'info', got '%s'", cm.Get().Logging.Level)
	}
	if len(cm.Get().Receivers) != 1 {
		t.Errorf("expected preserved receivers, got %d", len(cm.Get().Receivers))
	}
}

// TestInvalidValueHandling tests that a config failing validation is not applied.
func TestInvalidValueHandling(t *testing.T) {
	cm, configPath := newTestManager(t, baseConfig)

	rewrite(t, configPath, `
logging:
  level: verbose
  format: json
`)

	if err := cm.TryReload(); err == nil {
		t.Fatal("expected reload to fail with invalid log level")
	}
	if cm.Get().Logging.Level != "info" {
		t.Errorf("expected preserved level 'info', got '%s'", cm.Get().Logging.Level)
	}
}

// TestStaticConfigWarning tests that static config changes are rejected.
func TestStaticConfigWarning(t *testing.T) {
	tests := []struct {
		name    string
		initial string
		updated string
	}{
		{
			name:    "server port",
			initial: "server:\n  port: 8080\n",
			updated: "server:\n  port: 9090\n",
		},
		{
			name:    "storage type",
			initial: "storage:\n  type: memory\n",
			updated: "storage:\n  type: sqlite\n",
		},
		{
			name:    "smtp",
			initial: "smtp:\n  host: smtp.example.com\n",
			updated: "smtp:\n  host: mail.example.com\n",
		},
		{
			name:    "webhook token",
			initial: "server:\n  webhook_token: a\n",
			updated: "server:\n  webhook_token: b\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cm, configPath := newTestManager(t, tt.initial)
			before := *cm.Get()

			rewrite(t, configPath, tt.updated)

			if err := cm.TryReload(); err != ErrRequiresRestart {
				t.Errorf("expected ErrRequiresRestart, got %v", err)
			}
			if cm.Get().Server != before.Server || cm.Get().Storage.Type != before.Storage.Type || cm.Get().SMTP != before.SMTP {
				t.Error("expected static config to remain unchanged")
			}
		})
	}
}

// TestConfigFileDeletion tests that config file deletion is handled gracefully.
func TestConfigFileDeletion(t *testing.T) {
	cm, configPath := newTestManager(t, baseConfig)

	if err := os.Remove(configPath); err != nil {
		t.Fatalf("failed to remove config: %v", err)
	}

	if err := cm.TryReload(); err == nil {
		t.Fatal("expected reload of a deleted file to fail")
	}
	if cm.Get().Logging.Level != "info" {
		t.Errorf("expected preserved level 'info', got '%s'", cm.Get().Logging.Level)
	}
}
