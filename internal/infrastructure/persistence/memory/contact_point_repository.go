// Package memory provides an in-process contact point store.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/altuslabsxyz/alert-dispatch/internal/domain/entity"
	"github.com/altuslabsxyz/alert-dispatch/internal/domain/repository"
)

// ContactPointRepository keeps contact points in a map.
// Stored values are copied on the way in and out.
type ContactPointRepository struct {
	mu    sync.RWMutex
	items map[string]*entity.ContactPoint
}

// NewContactPointRepository creates an empty repository.
func NewContactPointRepository() *ContactPointRepository {
	return &ContactPointRepository{items: make(map[string]*entity.ContactPoint)}
}

var _ repository.ContactPointRepository = (*ContactPointRepository)(nil)

// List returns every contact point ordered by name.
func (r *ContactPointRepository) List(_ context.Context) ([]*entity.ContactPoint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*entity.ContactPoint, 0, len(r.items))
	for _, cp := range r.items {
		out = append(out, clone(cp))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Get returns the contact point with the given name.
func (r *ContactPointRepository) Get(_ context.Context, name string) (*entity.ContactPoint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cp, ok := r.items[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", entity.ErrReceiverNotFound, name)
	}
	return clone(cp), nil
}

// Save creates or replaces a contact point.
func (r *ContactPointRepository) Save(_ context.Context, cp *entity.ContactPoint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := clone(cp)
	stored.UpdatedAt = time.Now().UTC()
	if existing, ok := r.items[cp.Name]; ok {
		stored.CreatedAt = existing.CreatedAt
	} else if stored.CreatedAt.IsZero() {
		stored.CreatedAt = stored.UpdatedAt
	}
	r.items[cp.Name] = stored
	return nil
}

// Delete removes a contact point.
func (r *ContactPointRepository) Delete(_ context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, name)
	return nil
}

func clone(cp *entity.ContactPoint) *entity.ContactPoint {
	out := *cp
	out.Integrations = make([]entity.IntegrationConfig, len(cp.Integrations))
	for i, ic := range cp.Integrations {
		settings := make(map[string]any, len(ic.Settings))
		for k, v := range ic.Settings {
			settings[k] = v
		}
		ic.Settings = settings
		out.Integrations[i] = ic
	}
	return &out
}

// TransactionManager runs functions without isolation.
// The memory store applies every write immediately.
type TransactionManager struct{}

type noopTx struct{}

func (noopTx) Commit() error   { return nil }
func (noopTx) Rollback() error { return nil }

// BeginTx returns a transaction whose commit and rollback do nothing.
func (TransactionManager) BeginTx(context.Context) (repository.Transaction, error) {
	return noopTx{}, nil
}

// WithTransaction calls fn.
func (TransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
