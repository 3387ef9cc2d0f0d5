// Package app bootstraps the shared runtime for the server and the admin CLI.
package app

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"solveit/config"
	"solveit/internal/metrics"
	"solveit/internal/notify"
	"solveit/internal/repository"
	"solveit/pkg/database"
	applogger "solveit/pkg/logger"
)

// Runtime configuration, logger and database shared by every entry point
type Runtime struct {
	Config *config.Config
	Logger *zap.Logger
	DB     *gorm.DB
	Repo   *repository.Repository
}

// Bootstrap loads .env and configuration, builds the logger, connects to
// PostgreSQL and, when migrate is set, applies pending migrations.
func Bootstrap(configPath string, migrate bool) (*Runtime, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("connect database: %w", err)
	}
	rt := &Runtime{Config: cfg, Logger: logger, DB: db, Repo: repository.NewRepository(db)}

	if migrate {
		if err := rt.Migrate(); err != nil {
			rt.Close()
			return nil, err
		}
	}
	return rt, nil
}

// Migrate applies pending schema migrations
func (rt *Runtime) Migrate() error {
	sqlDB, err := rt.DB.DB()
	if err != nil {
		return fmt.Errorf("get sql.DB: %w", err)
	}
	if err := database.RunMigrations(sqlDB, rt.Logger); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Sender in-app inbox, plus SMTP when mail.smtp_host is configured
func (rt *Runtime) Sender() notify.Sender {
	inbox := notify.NewInboxSender(rt.Repo.Notification)
	if strings.TrimSpace(rt.Config.Mail.SMTPHost) == "" {
		return inbox
	}
	return notify.Multi{inbox, notify.NewMailSender(&rt.Config.Mail)}
}

// SyncDispatcher delivers inline; used by short-lived CLI commands
func (rt *Runtime) SyncDispatcher(m *metrics.Metrics) notify.Dispatcher {
	return notify.NewSyncDispatcher(rt.Sender(), m, rt.Logger)
}

// Close releases the database pool and flushes the logger
func (rt *Runtime) Close() {
	if sqlDB, err := rt.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = rt.Logger.Sync()
}
