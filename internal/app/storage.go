package app

import (
	"context"
	"fmt"
	"io"

	"github.com/altuslabsxyz/alert-dispatch/internal/infrastructure/persistence/memory"
	"github.com/altuslabsxyz/alert-dispatch/internal/infrastructure/persistence/mysql"
	"github.com/altuslabsxyz/alert-dispatch/internal/infrastructure/persistence/sqlite"
	"github.com/altuslabsxyz/alert-dispatch/internal/infrastructure/provisioning"
)

func (app *Application) initializeStorage() error {
	var closer io.Closer

	switch app.config.Storage.Type {
	case "mysql":
		cfg := app.config.Storage.MySQL
		db, err := mysql.NewDB(mysql.Config{
			Host:            cfg.Host,
			Port:            cfg.Port,
			Database:        cfg.Database,
			Username:        cfg.Username,
			Password:        cfg.Password,
			MaxOpenConns:    cfg.MaxOpenConns,
			MaxIdleConns:    cfg.MaxIdleConns,
			ConnMaxLifetime: cfg.ConnMaxLifetime,
		})
		if err != nil {
			return fmt.Errorf("mysql init: %w", err)
		}

		if err := db.Migrate(context.Background()); err != nil {
			db.Close()
			return fmt.Errorf("mysql migration: %w", err)
		}

		app.contactPointRepo = mysql.NewContactPointRepository(db)
		app.txManager = db
		closer = db

		app.logger.Info("MySQL storage initialized",
			"host", cfg.Host,
			"database", cfg.Database,
		)

	case "sqlite":
		db, err := sqlite.NewDB(app.config.Storage.SQLite.Path)
		if err != nil {
			return fmt.Errorf("sqlite init: %w", err)
		}

		if err := db.Migrate(context.Background()); err != nil {
			db.Close()
			return fmt.Errorf("sqlite migration: %w", err)
		}

		app.contactPointRepo = sqlite.NewContactPointRepository(db)
		app.txManager = db
		closer = db

		app.logger.Info("SQLite storage initialized",
			"path", app.config.Storage.SQLite.Path,
		)

	case "memory", "":
		app.contactPointRepo = memory.NewContactPointRepository()
		app.txManager = memory.TransactionManager{}

		app.logger.Info("in-memory storage initialized")

	default:
		return fmt.Errorf("unknown storage type: %s", app.config.Storage.Type)
	}

	app.dbCloser = closer
	app.provisioner = provisioning.NewProvisioner(app.contactPointRepo, app.txManager, app.logger)
	return nil
}
