package repository

import (
	"context"

	"github.com/altuslabsxyz/alert-dispatch/internal/domain/entity"
)

// ContactPointRepository persists contact points and their integrations.
type ContactPointRepository interface {
	// List returns every contact point ordered by name.
	List(ctx context.Context) ([]*entity.ContactPoint, error)

	// Get returns the contact point with the given name.
	// Returns entity.ErrReceiverNotFound if it does not exist.
	Get(ctx context.Context, name string) (*entity.ContactPoint, error)

	// Save creates or replaces a contact point together with its integrations.
	Save(ctx context.Context, cp *entity.ContactPoint) error

	// Delete removes a contact point. Deleting a missing one is not an error.
	Delete(ctx context.Context, name string) error
}
