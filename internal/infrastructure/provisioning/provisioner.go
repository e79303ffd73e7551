package provisioning

import (
	"context"
	"fmt"

	"github.com/altuslabsxyz/alert-dispatch/internal/domain/entity"
	"github.com/altuslabsxyz/alert-dispatch/internal/domain/logger"
	"github.com/altuslabsxyz/alert-dispatch/internal/domain/repository"
)

// Provisioner writes declared contact points into the repository.
type Provisioner struct {
	repo   repository.ContactPointRepository
	tx     repository.TransactionManager
	logger logger.Logger
}

// NewProvisioner creates a new Provisioner.
func NewProvisioner(repo repository.ContactPointRepository, tx repository.TransactionManager, log logger.Logger) *Provisioner {
	return &Provisioner{repo: repo, tx: tx, logger: log}
}

// Sync makes the repository hold exactly the desired contact points,
// minus any name listed in deletes. It runs in one transaction.
func (p *Provisioner) Sync(ctx context.Context, desired []*entity.ContactPoint, deletes []string) error {
	wanted := make(map[string]bool, len(desired))
	for _, cp := range desired {
		if wanted[cp.Name] {
			return fmt.Errorf("contact point %s is declared more than once", cp.Name)
		}
		wanted[cp.Name] = true
	}
	for _, name := range deletes {
		wanted[name] = false
	}

	return p.tx.WithTransaction(ctx, func(ctx context.Context) error {
		existing, err := p.repo.List(ctx)
		if err != nil {
			return fmt.Errorf("listing contact points: %w", err)
		}

		var removed int
		for _, cp := range existing {
			if !wanted[cp.Name] {
				if err := p.repo.Delete(ctx, cp.Name); err != nil {
					return fmt.Errorf("deleting contact point %s: %w", cp.Name, err)
				}
				removed++
			}
		}

		var saved int
		for _, cp := range desired {
			if !wanted[cp.Name] {
				continue
			}
			if err := p.repo.Save(ctx, cp); err != nil {
				return fmt.Errorf("saving contact point %s: %w", cp.Name, err)
			}
			saved++
		}

		p.logger.Info("contact points provisioned",
			"saved", saved,
			"removed", removed,
		)
		return nil
	})
}
