package app

import (
	"context"
	"fmt"

	"github.com/spf13/viper"

	"github.com/altuslabsxyz/alert-dispatch/internal/infrastructure/config"
)

func (app *Application) loadConfig(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	app.config = cfg
	return nil
}

func (app *Application) setupConfigManager(configPath string) error {
	v := viper.New()
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("initializing viper: %w", err)
	}

	app.configManager = config.NewConfigManager(app.config, v, configPath, app.logger)
	app.watcher = config.NewWatcher(v, app.configManager, app.logger)

	app.configManager.SetReloadCallback(app.onConfigReload)

	return nil
}

// onConfigReload applies a reloaded configuration. A receiver set that
// fails to build is logged and the previous set keeps serving.
func (app *Application) onConfigReload(newCfg *config.Config) {
	newLogger := createLogger(newCfg.Logging.Level, newCfg.Logging.Format)
	app.logger.Set(newLogger)
	app.logger.Info("logger reloaded",
		"level", newCfg.Logging.Level,
		"format", newCfg.Logging.Format,
	)

	if err := app.reloadReceivers(context.Background(), newCfg); err != nil {
		app.logger.Error("receiver reload failed, keeping previous receivers",
			"error", err,
		)
		return
	}

	if err := app.watchProvisioningFile(newCfg); err != nil {
		app.logger.Warn("failed to watch contact points file", "error", err)
	}
}

func (app *Application) setupWatcher() error {
	return app.watchProvisioningFile(app.config)
}

func (app *Application) watchProvisioningFile(cfg *config.Config) error {
	if cfg.Provisioning.ContactPointsFile == "" || app.watcher == nil {
		return nil
	}
	return app.watcher.WatchFile(cfg.Provisioning.ContactPointsFile)
}
