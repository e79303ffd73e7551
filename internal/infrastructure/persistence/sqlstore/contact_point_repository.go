package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/altuslabsxyz/alert-dispatch/internal/domain/entity"
	"github.com/altuslabsxyz/alert-dispatch/internal/domain/repository"
)

// ContactPointRepository implements repository.ContactPointRepository.
type ContactPointRepository struct {
	db      *DB
	dialect Dialect
}

// NewContactPointRepository creates a new contact point repository.
func NewContactPointRepository(db *DB, dialect Dialect) *ContactPointRepository {
	return &ContactPointRepository{db: db, dialect: dialect}
}

var _ repository.ContactPointRepository = (*ContactPointRepository)(nil)

const integrationColumns = "uid, contact_point, name, type, settings, disable_resolve_message"

// List returns every contact point ordered by name.
func (r *ContactPointRepository) List(ctx context.Context) ([]*entity.ContactPoint, error) {
	exec := r.db.Executor(ctx)

	rows, err := exec.QueryContext(ctx,
		"SELECT name, created_at, updated_at FROM contact_points ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("query contact points: %w", err)
	}
	defer rows.Close()

	var cps []*entity.ContactPoint
	byName := make(map[string]*entity.ContactPoint)
	for rows.Next() {
		cp, err := scanContactPoint(rows)
		if err != nil {
			return nil, err
		}
		cps = append(cps, cp)
		byName[cp.Name] = cp
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contact points: %w", err)
	}

	irows, err := exec.QueryContext(ctx,
		"SELECT "+integrationColumns+" FROM integrations ORDER BY contact_point, position")
	if err != nil {
		return nil, fmt.Errorf("query integrations: %w", err)
	}
	defer irows.Close()

	for irows.Next() {
		owner, ic, err := scanIntegration(irows)
		if err != nil {
			return nil, err
		}
		if cp, ok := byName[owner]; ok {
			cp.Integrations = append(cp.Integrations, ic)
		}
	}
	if err := irows.Err(); err != nil {
		return nil, fmt.Errorf("iterate integrations: %w", err)
	}

	return cps, nil
}

// Get returns the contact point with the given name.
func (r *ContactPointRepository) Get(ctx context.Context, name string) (*entity.ContactPoint, error) {
	exec := r.db.Executor(ctx)

	row := exec.QueryRowContext(ctx,
		"SELECT name, created_at, updated_at FROM contact_points WHERE name = ?", name)
	cp, err := scanContactPoint(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", entity.ErrReceiverNotFound, name)
	}
	if err != nil {
		return nil, err
	}

	rows, err := exec.QueryContext(ctx,
		"SELECT "+integrationColumns+" FROM integrations WHERE contact_point = ? ORDER BY position", name)
	if err != nil {
		return nil, fmt.Errorf("query integrations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		_, ic, err := scanIntegration(rows)
		if err != nil {
			return nil, err
		}
		cp.Integrations = append(cp.Integrations, ic)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate integrations: %w", err)
	}
	return cp, nil
}

// Save creates or replaces a contact point and its integrations atomically.
func (r *ContactPointRepository) Save(ctx context.Context, cp *entity.ContactPoint) error {
	return r.db.WithTransaction(ctx, func(ctx context.Context) error {
		exec := r.db.Executor(ctx)

		createdAt := cp.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		updatedAt := time.Now().UTC()

		if _, err := exec.ExecContext(ctx, r.dialect.UpsertContactPoint,
			cp.Name, createdAt.UnixMilli(), updatedAt.UnixMilli()); err != nil {
			return fmt.Errorf("upsert contact point %s: %w", cp.Name, err)
		}

		if _, err := exec.ExecContext(ctx,
			"DELETE FROM integrations WHERE contact_point = ?", cp.Name); err != nil {
			return fmt.Errorf("delete integrations of %s: %w", cp.Name, err)
		}

		for i, ic := range cp.Integrations {
			settings, err := json.Marshal(ic.Settings)
			if err != nil {
				return fmt.Errorf("encode settings of integration %s: %w", ic.UID, err)
			}
			if _, err := exec.ExecContext(ctx,
				"INSERT INTO integrations ("+integrationColumns+", position) VALUES (?, ?, ?, ?, ?, ?, ?)",
				ic.UID, cp.Name, ic.Name, ic.Type, string(settings), ic.DisableResolveMessage, i,
			); err != nil {
				return fmt.Errorf("insert integration %s: %w", ic.UID, err)
			}
		}
		return nil
	})
}

// Delete removes a contact point and its integrations.
func (r *ContactPointRepository) Delete(ctx context.Context, name string) error {
	return r.db.WithTransaction(ctx, func(ctx context.Context) error {
		exec := r.db.Executor(ctx)
		if _, err := exec.ExecContext(ctx, "DELETE FROM integrations WHERE contact_point = ?", name); err != nil {
			return fmt.Errorf("delete integrations of %s: %w", name, err)
		}
		if _, err := exec.ExecContext(ctx, "DELETE FROM contact_points WHERE name = ?", name); err != nil {
			return fmt.Errorf("delete contact point %s: %w", name, err)
		}
		return nil
	})
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanContactPoint(s scanner) (*entity.ContactPoint, error) {
	var (
		cp                   entity.ContactPoint
		createdAt, updatedAt int64
	)
	if err := s.Scan(&cp.Name, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan contact point: %w", err)
	}
	cp.CreatedAt = time.UnixMilli(createdAt).UTC()
	cp.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return &cp, nil
}

func scanIntegration(s scanner) (string, entity.IntegrationConfig, error) {
	var (
		ic       entity.IntegrationConfig
		owner    string
		settings string
	)
	if err := s.Scan(&ic.UID, &owner, &ic.Name, &ic.Type, &settings, &ic.DisableResolveMessage); err != nil {
		return "", ic, fmt.Errorf("scan integration: %w", err)
	}
	if err := json.Unmarshal([]byte(settings), &ic.Settings); err != nil {
		return "", ic, fmt.Errorf("decode settings of integration %s: %w", ic.UID, err)
	}
	if ic.Settings == nil {
		ic.Settings = map[string]any{}
	}
	return owner, ic, nil
}
