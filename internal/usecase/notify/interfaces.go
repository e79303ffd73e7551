package notify

import (
	"context"

	"github.com/altuslabsxyz/alert-dispatch/internal/domain/entity"
	"github.com/altuslabsxyz/alert-dispatch/internal/domain/logger"
)

// Notifier delivers an alert group to one integration.
type Notifier interface {
	// Notify renders and sends the alerts. It reports true on success.
	Notify(ctx context.Context, alerts ...*entity.Alert) (bool, error)

	// SendResolved reports whether fully resolved groups are delivered.
	SendResolved() bool
}

// Integration is a configured notifier together with its identity.
type Integration struct {
	UID      string
	Name     string
	Type     string
	Notifier Notifier
}

// Receiver is a contact point ready for dispatch.
type Receiver struct {
	Name         string
	Integrations []Integration
}

// ReceiverStore resolves receivers by name.
type ReceiverStore interface {
	Get(name string) (*Receiver, bool)
	List() []*Receiver
}

// BuildFunc constructs the notifier for one integration configuration.
type BuildFunc func(cfg entity.IntegrationConfig) (Notifier, error)

// Logger is the unified logging interface from domain layer.
type Logger = logger.Logger
