package notify

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/altuslabsxyz/alert-dispatch/internal/domain/entity"
	"github.com/altuslabsxyz/alert-dispatch/internal/domain/repository"
)

// ReceiverRegistry holds the current receiver set.
// Readers never block; Replace swaps the whole set at once.
type ReceiverRegistry struct {
	receivers atomic.Pointer[map[string]*Receiver]
}

// NewReceiverRegistry creates a registry holding the given receivers.
func NewReceiverRegistry(receivers ...*Receiver) *ReceiverRegistry {
	r := &ReceiverRegistry{}
	r.Replace(receivers)
	return r
}

// Replace installs a new receiver set.
func (r *ReceiverRegistry) Replace(receivers []*Receiver) {
	m := make(map[string]*Receiver, len(receivers))
	for _, rcv := range receivers {
		m[rcv.Name] = rcv
	}
	r.receivers.Store(&m)
}

// Get returns the receiver with the given name.
func (r *ReceiverRegistry) Get(name string) (*Receiver, bool) {
	m := r.receivers.Load()
	if m == nil {
		return nil, false
	}
	rcv, ok := (*m)[name]
	return rcv, ok
}

// List returns all receivers sorted by name.
func (r *ReceiverRegistry) List() []*Receiver {
	m := r.receivers.Load()
	if m == nil {
		return nil
	}
	out := make([]*Receiver, 0, len(*m))
	for _, rcv := range *m {
		out = append(out, rcv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of receivers.
func (r *ReceiverRegistry) Len() int {
	m := r.receivers.Load()
	if m == nil {
		return 0
	}
	return len(*m)
}

// NewReceiver builds every integration of a contact point.
// All integration errors are reported together.
func NewReceiver(cp *entity.ContactPoint, build BuildFunc) (*Receiver, error) {
	rcv := &Receiver{Name: cp.Name, Integrations: make([]Integration, 0, len(cp.Integrations))}

	var errs []error
	for _, ic := range cp.Integrations {
		n, err := build(ic)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		rcv.Integrations = append(rcv.Integrations, Integration{
			UID:      ic.UID,
			Name:     ic.Name,
			Type:     strings.ToLower(ic.Type),
			Notifier: n,
		})
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("contact point %s: %w", cp.Name, errors.Join(errs...))
	}
	return rcv, nil
}

// LoadReceivers builds receivers for every contact point in the repository.
// It fails if any contact point is invalid so a bad reload keeps the previous set.
func LoadReceivers(ctx context.Context, repo repository.ContactPointRepository, build BuildFunc) ([]*Receiver, error) {
	cps, err := repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing contact points: %w", err)
	}

	receivers := make([]*Receiver, 0, len(cps))
	var errs []error
	for _, cp := range cps {
		rcv, err := NewReceiver(cp, build)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		receivers = append(receivers, rcv)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return receivers, nil
}
