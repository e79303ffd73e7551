// Package provisioning loads contact points from configuration and files
// and syncs them into the contact point repository.
package provisioning

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/altuslabsxyz/alert-dispatch/internal/domain/entity"
	"github.com/altuslabsxyz/alert-dispatch/internal/infrastructure/config"
)

// uidNamespace scopes generated integration UIDs.
var uidNamespace = uuid.MustParse("5b0f3c64-6f6e-4d2c-9a7e-3f1d2c8b9a10")

// File is a contact point provisioning document.
type File struct {
	APIVersion          int                  `yaml:"apiVersion"`
	ContactPointSpecs   []ContactPointSpec   `yaml:"contactPoints"`
	DeleteContactPoints []DeleteContactPoint `yaml:"deleteContactPoints"`
}

// ContactPointSpec declares one contact point.
type ContactPointSpec struct {
	Name      string            `yaml:"name"`
	Receivers []IntegrationSpec `yaml:"receivers"`
}

// IntegrationSpec declares one integration of a contact point.
type IntegrationSpec struct {
	UID                   string         `yaml:"uid"`
	Name                  string         `yaml:"name"`
	Type                  string         `yaml:"type"`
	DisableResolveMessage bool           `yaml:"disableResolveMessage"`
	Settings              map[string]any `yaml:"settings"`
}

// DeleteContactPoint names a contact point to remove.
type DeleteContactPoint struct {
	Name string `yaml:"name"`
}

// Parse decodes and validates a provisioning document.
// Unknown fields are rejected so typos surface at load time.
func Parse(data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("decoding contact points: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// LoadFile reads and parses a provisioning file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading contact points file: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Validate checks names and types.
func (f *File) Validate() error {
	var errs []error
	if f.APIVersion != 0 && f.APIVersion != 1 {
		errs = append(errs, fmt.Errorf("unsupported apiVersion %d", f.APIVersion))
	}
	seen := make(map[string]bool, len(f.ContactPointSpecs))
	for i, cp := range f.ContactPointSpecs {
		if cp.Name == "" {
			errs = append(errs, fmt.Errorf("contactPoints[%d].name cannot be empty", i))
			continue
		}
		if seen[cp.Name] {
			errs = append(errs, fmt.Errorf("duplicate contact point name: %s", cp.Name))
		}
		seen[cp.Name] = true
		for j, r := range cp.Receivers {
			if r.Type == "" {
				errs = append(errs, fmt.Errorf("contactPoints[%d].receivers[%d].type cannot be empty", i, j))
			}
		}
	}
	return errors.Join(errs...)
}

// ContactPoints converts the document into domain contact points.
func (f *File) ContactPoints() []*entity.ContactPoint {
	out := make([]*entity.ContactPoint, 0, len(f.ContactPointSpecs))
	for _, spec := range f.ContactPointSpecs {
		cp := entity.NewContactPoint(spec.Name)
		for i, r := range spec.Receivers {
			cp.AddIntegration(entity.IntegrationConfig{
				UID:                   integrationUID(spec.Name, i, r.UID),
				Name:                  r.Name,
				Type:                  r.Type,
				Settings:              r.Settings,
				DisableResolveMessage: r.DisableResolveMessage,
			})
		}
		out = append(out, cp)
	}
	return out
}

// Deletes returns the names listed under deleteContactPoints.
func (f *File) Deletes() []string {
	names := make([]string, 0, len(f.DeleteContactPoints))
	for _, d := range f.DeleteContactPoints {
		if d.Name != "" {
			names = append(names, d.Name)
		}
	}
	return names
}

// FromReceivers converts inline receivers from the main configuration.
func FromReceivers(receivers []config.ReceiverConfig) []*entity.ContactPoint {
	out := make([]*entity.ContactPoint, 0, len(receivers))
	for _, rc := range receivers {
		cp := entity.NewContactPoint(rc.Name)
		for i, ic := range rc.Integrations {
			cp.AddIntegration(entity.IntegrationConfig{
				UID:                   integrationUID(rc.Name, i, ic.UID),
				Name:                  ic.Name,
				Type:                  ic.Type,
				Settings:              ic.Settings,
				DisableResolveMessage: ic.DisableResolveMessage,
			})
		}
		out = append(out, cp)
	}
	return out
}

// integrationUID keeps generated UIDs stable across reloads.
func integrationUID(contactPoint string, index int, uid string) string {
	if uid != "" {
		return uid
	}
	return uuid.NewSHA1(uidNamespace, []byte(fmt.Sprintf("%s/%d", contactPoint, index))).String()
}
