package entity

import (
	"time"

	"github.com/google/uuid"
)

// IntegrationConfig describes one delivery target of a contact point.
type IntegrationConfig struct {
	// UID identifies the integration across reloads.
	UID string

	// Name is a display name, defaults to the contact point name.
	Name string

	// Type selects the integration (e.g. "discord", "slack").
	Type string

	// Settings is the loosely-typed settings document for the integration.
	Settings map[string]any

	// DisableResolveMessage suppresses notifications for fully resolved groups.
	DisableResolveMessage bool
}

// ContactPoint is a named receiver made of one or more integrations.
type ContactPoint struct {
	Name         string
	Integrations []IntegrationConfig
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewContactPoint creates a contact point and assigns missing integration UIDs.
func NewContactPoint(name string, integrations ...IntegrationConfig) *ContactPoint {
	now := time.Now().UTC()
	cp := &ContactPoint{
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, ic := range integrations {
		cp.AddIntegration(ic)
	}
	return cp
}

// AddIntegration appends an integration, filling UID and Name when empty.
func (c *ContactPoint) AddIntegration(ic IntegrationConfig) {
	if ic.UID == "" {
		ic.UID = uuid.New().String()
	}
	if ic.Name == "" {
		ic.Name = c.Name
	}
	if ic.Settings == nil {
		ic.Settings = map[string]any{}
	}
	c.Integrations = append(c.Integrations, ic)
}
