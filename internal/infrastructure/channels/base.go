// Package channels holds what every integration shares: settings parsing,
// the outbound sender seams and notifier metadata.
package channels

import (
	"strconv"
	"strings"

	"github.com/altuslabsxyz/alert-dispatch/internal/domain/entity"
	"github.com/altuslabsxyz/alert-dispatch/internal/domain/logger"
)

// BuildVersion is reported in notification footers. Set at start-up.
var BuildVersion = "dev"

const (
	// FooterIconURL is the product icon shown next to footer text.
	FooterIconURL = "https://grafana.com/assets/img/dp-logo.png"

	// DefaultUsername is the display name used unless overridden.
	DefaultUsername = "Grafana"

	ColorAlertFiring   = "#D63232"
	ColorAlertResolved = "#36a64f"
)

// FooterText identifies the product and version.
func FooterText() string {
	return "Grafana v" + BuildVersion
}

// Color returns the hex colour for a group status.
func Color(status entity.AlertStatus) string {
	if status == entity.StatusResolved {
		return ColorAlertResolved
	}
	return ColorAlertFiring
}

// ColorInt converts a "#rrggbb" colour to its integer form.
func ColorInt(hex string) int64 {
	v, err := strconv.ParseInt(strings.TrimPrefix(hex, "#"), 16, 64)
	if err != nil {
		return 0
	}
	return v
}

// Metadata identifies one configured integration.
type Metadata struct {
	UID                   string
	Name                  string
	Type                  string
	DisableResolveMessage bool
}

// Base is embedded by every notifier.
type Base struct {
	Metadata
	Logger logger.Logger
}

// Option configures a Base.
type Option func(*Base)

// WithMetadata sets the integration identity.
func WithMetadata(m Metadata) Option {
	return func(b *Base) {
		b.Metadata = m
	}
}

// WithLogger sets the notifier logger.
func WithLogger(l logger.Logger) Option {
	return func(b *Base) {
		if l != nil {
			b.Logger = l
		}
	}
}

// NewBase applies opts over a Base that logs nothing.
func NewBase(integrationType string, opts ...Option) Base {
	b := Base{
		Metadata: Metadata{Type: integrationType},
		Logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(&b)
	}
	if b.Type == "" {
		b.Type = integrationType
	}
	return b
}

// SendResolved reports whether fully resolved groups should be delivered.
func (b *Base) SendResolved() bool {
	return !b.DisableResolveMessage
}
