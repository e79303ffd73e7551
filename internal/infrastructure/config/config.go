// Package config loads application configuration with viper.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment variable overrides, e.g. ALERT_DISPATCH_SERVER_PORT.
const EnvPrefix = "ALERT_DISPATCH"

// Config is the complete application configuration.
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Logging      LoggingConfig      `mapstructure:"logging"`
	Storage      StorageConfig      `mapstructure:"storage"`
	ExternalURL  string             `mapstructure:"external_url"`
	Templates    TemplatesConfig    `mapstructure:"templates"`
	HTTP         HTTPConfig         `mapstructure:"http"`
	SMTP         SMTPConfig         `mapstructure:"smtp"`
	Provisioning ProvisioningConfig `mapstructure:"provisioning"`

	// Receivers are contact points declared inline. Viper lowercases map
	// keys, so settings that need case should live in the provisioning file.
	Receivers []ReceiverConfig `mapstructure:"receivers"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// WebhookToken, when set, is required as a bearer token on the Alertmanager webhook.
	WebhookToken string `mapstructure:"webhook_token"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// StorageConfig selects the contact point storage backend.
type StorageConfig struct {
	Type   string       `mapstructure:"type"`
	SQLite SQLiteConfig `mapstructure:"sqlite"`
	MySQL  MySQLConfig  `mapstructure:"mysql"`
}

// SQLiteConfig holds SQLite settings.
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// MySQLConfig holds MySQL connection settings.
type MySQLConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Database        string        `mapstructure:"database"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// TemplatesConfig lists extra template definition files.
type TemplatesConfig struct {
	Files []string `mapstructure:"files"`
}

// HTTPConfig configures the outbound webhook sender.
type HTTPConfig struct {
	Timeout       time.Duration `mapstructure:"timeout"`
	SkipTLSVerify bool          `mapstructure:"skip_tls_verify"`
	UserAgent     string        `mapstructure:"user_agent"`
}

// SMTPConfig configures the outbound email sender.
type SMTPConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Host          string        `mapstructure:"host"`
	Port          int           `mapstructure:"port"`
	Username      string        `mapstructure:"username"`
	Password      string        `mapstructure:"password"`
	From          string        `mapstructure:"from"`
	FromName      string        `mapstructure:"from_name"`
	TLS           string        `mapstructure:"tls"`
	SkipTLSVerify bool          `mapstructure:"skip_tls_verify"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

// ProvisioningConfig points at contact point files loaded on start and reload.
type ProvisioningConfig struct {
	ContactPointsFile string `mapstructure:"contact_points_file"`
}

// ReceiverConfig is an inline contact point.
type ReceiverConfig struct {
	Name         string              `mapstructure:"name"`
	Integrations []IntegrationConfig `mapstructure:"integrations"`
}

// IntegrationConfig is one integration of an inline contact point.
type IntegrationConfig struct {
	UID                   string         `mapstructure:"uid"`
	Name                  string         `mapstructure:"name"`
	Type                  string         `mapstructure:"type"`
	DisableResolveMessage bool           `mapstructure:"disable_resolve_message"`
	Settings              map[string]any `mapstructure:"settings"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("storage.type", "memory")
	v.SetDefault("storage.sqlite.path", "data/alert-dispatch.db")
	v.SetDefault("storage.mysql.port", 3306)
	v.SetDefault("storage.mysql.max_open_conns", 10)
	v.SetDefault("storage.mysql.max_idle_conns", 5)
	v.SetDefault("storage.mysql.conn_max_lifetime", 5*time.Minute)

	v.SetDefault("external_url", "http://localhost:3000/")

	v.SetDefault("http.timeout", 30*time.Second)
	v.SetDefault("http.user_agent", "alert-dispatch")

	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.tls", "opportunistic")
	v.SetDefault("smtp.timeout", 15*time.Second)
}

// Load reads the configuration file, applies defaults and environment
// overrides, and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 0 and 65535"))
	}
	if err := ValidateLogLevel(c.Logging.Level); err != nil {
		errs = append(errs, err)
	}
	if err := ValidateLogFormat(c.Logging.Format); err != nil {
		errs = append(errs, err)
	}

	switch c.Storage.Type {
	case "memory":
	case "sqlite":
		if err := ValidateNonEmpty(c.Storage.SQLite.Path, "storage.sqlite.path"); err != nil {
			errs = append(errs, err)
		}
	case "mysql":
		if err := ValidateNonEmpty(c.Storage.MySQL.Host, "storage.mysql.host"); err != nil {
			errs = append(errs, err)
		}
		if err := ValidateNonEmpty(c.Storage.MySQL.Database, "storage.mysql.database"); err != nil {
			errs = append(errs, err)
		}
	default:
		errs = append(errs, fmt.Errorf("invalid storage type: %s (must be memory, sqlite, or mysql)", c.Storage.Type))
	}

	if c.ExternalURL != "" {
		if u, err := url.Parse(c.ExternalURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("external_url must be an absolute URL: %q", c.ExternalURL))
		}
	}

	if err := ValidateDuration(c.HTTP.Timeout, "http.timeout"); err != nil {
		errs = append(errs, err)
	}

	if c.SMTP.Enabled {
		if err := ValidateNonEmpty(c.SMTP.Host, "smtp.host"); err != nil {
			errs = append(errs, err)
		}
		if err := ValidateNonEmpty(c.SMTP.From, "smtp.from"); err != nil {
			errs = append(errs, err)
		}
		if err := ValidateSMTPTLS(c.SMTP.TLS); err != nil {
			errs = append(errs, err)
		}
	}

	seen := make(map[string]bool, len(c.Receivers))
	for i, r := range c.Receivers {
		if r.Name == "" {
			errs = append(errs, fmt.Errorf("receivers[%d].name cannot be empty", i))
			continue
		}
		if seen[r.Name] {
			errs = append(errs, fmt.Errorf("duplicate receiver name: %s", r.Name))
		}
		seen[r.Name] = true
		for j, ic := range r.Integrations {
			if ic.Type == "" {
				errs = append(errs, fmt.Errorf("receivers[%d].integrations[%d].type cannot be empty", i, j))
			}
		}
	}

	return errors.Join(errs...)
}
