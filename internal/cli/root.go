// Package cli implements showcasectl, the maintenance tool run next to the server.
package cli

import (
	"context"
	"fmt"

	"github.com/microsolutions/showcase/internal/app"
	"github.com/microsolutions/showcase/internal/config"
	"github.com/microsolutions/showcase/internal/database"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Root builds the command tree.
func Root() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:           "showcasectl",
		Short:         "Maintenance commands for the showcase backend",
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigPath, "Path to YAML config file")

	open := func(cmd *cobra.Command) (*env, error) { return openEnv(cmd.Context(), configPath) }
	root.AddCommand(
		MigrateCommand(open),
		ExportCommand(open),
		ImportCommand(open),
		CacheCommand(open),
		AdminCommand(open),
	)
	return root
}

type opener func(cmd *cobra.Command) (*env, error)

// env is what a command runs against. Writes made through the CLI are not pushed to
// connected pages; their HTTP cache entries expire on their own.
type env struct {
	cfg    *config.AppConfig
	db     *gorm.DB
	svc    *app.Services
	logger *zap.Logger
}

func openEnv(ctx context.Context, configPath string) (*env, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logCfg := zap.NewProductionConfig()
	logCfg.OutputPaths = []string{"stderr"}
	logger, err := logCfg.Build()
	if err != nil {
		return nil, err
	}

	db, err := database.Connect(cfg, false)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	db = db.Session(&gorm.Session{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})

	svc, err := app.NewServices(ctx, cfg, db, nil, logger)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, db: db, svc: svc, logger: logger}, nil
}

func (e *env) Close() {
	_ = e.logger.Sync()
	if sqlDB, err := e.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
