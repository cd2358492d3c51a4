// Package app builds the object graph from configuration. Nothing is
// cached globally; tests build their own App and Reset it between cases.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/dukerupert/homekeep/internal/backup"
	"github.com/dukerupert/homekeep/internal/config"
	"github.com/dukerupert/homekeep/internal/dashboard"
	"github.com/dukerupert/homekeep/internal/database"
	"github.com/dukerupert/homekeep/internal/inventory"
	"github.com/dukerupert/homekeep/internal/memstore"
	"github.com/dukerupert/homekeep/internal/metrics"
	"github.com/dukerupert/homekeep/internal/note"
	"github.com/dukerupert/homekeep/internal/repository"
	"github.com/dukerupert/homekeep/internal/shopping"
	"github.com/dukerupert/homekeep/internal/store"
	"github.com/dukerupert/homekeep/internal/task"
	"github.com/dukerupert/homekeep/internal/websocket"
)

type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	DB      *sql.DB // nil on the memory backend
	Repos   repository.Repositories
	Metrics *metrics.Metrics // nil when metrics are disabled
	Hub     *websocket.Hub

	Shopping  *shopping.Service
	Inventory *inventory.Service
	Tasks     *task.Service
	Notes     *note.Service
	Dashboard *dashboard.Service
	Backups   *backup.Manager

	mem *memstore.Store
}

// New opens the configured backend and wires every service.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	switch cfg.Database.Backend {
	case config.BackendMemory:
		a.mem = memstore.New()
		a.Repos = a.mem.Repositories()
	case config.BackendSQLite:
		db, err := database.Open(cfg.Database.Path)
		if err != nil {
			return nil, err
		}
		a.DB = db
		a.Repos = store.New(db)
	default:
		return nil, fmt.Errorf("unknown database backend %q", cfg.Database.Backend)
	}

	if cfg.Metrics.Enabled {
		a.Metrics = metrics.New()
	}
	a.Hub = websocket.NewHub(logger.With("component", "websocket"))
	a.Hub.OnClientCountChange(a.Metrics.SetWebsocketClients)

	a.Shopping = shopping.NewService(a.Repos.ShoppingLists, a.Repos.Inventory, a.Metrics, logger.With("component", "shopping"))
	a.Inventory = inventory.NewService(a.Repos.Inventory, a.Shopping, a.Metrics, logger.With("component", "inventory"))
	a.Tasks = task.NewService(a.Repos.Tasks)
	a.Notes = note.NewService(a.Repos.Notes)
	a.Dashboard = dashboard.NewService(a.Repos)
	a.Backups = a.newBackupManager()

	return a, nil
}

func (a *App) newBackupManager() *backup.Manager {
	cfg := backup.Config{
		DBPath:        a.Config.Database.Path,
		Passphrase:    a.Config.Backup.Passphrase,
		Interval:      a.Config.Backup.Interval,
		RetentionDays: a.Config.Backup.RetentionDays,
	}
	// Backups only make sense for a database file.
	if a.DB != nil && a.Config.BackupConfigured() {
		s3 := a.Config.Backup.S3
		cfg.S3 = backup.S3Config{
			Endpoint:  s3.Endpoint,
			Bucket:    s3.Bucket,
			Region:    s3.Region,
			AccessKey: s3.AccessKey,
			SecretKey: s3.SecretKey,
		}
	}

	hub := a.Hub
	return backup.NewManager(cfg, a.DB, a.Repos.Backups, a.Metrics, func(s backup.Status) {
		hub.Broadcast(websocket.Message{
			Type:   "backup_status",
			Entity: "backup",
			Action: string(s.State),
			Extra: map[string]any{
				"in_progress": s.InProgress,
				"error":       s.Error,
			},
		})
	}, a.Logger.With("component", "backup"))
}

// Reset drops all household data. The sqlite variant deletes rows so the
// schema and migrations stay in place.
func (a *App) Reset(ctx context.Context) error {
	if a.mem != nil {
		a.mem.Reset()
		return nil
	}

	tx, err := a.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reset: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"shopping_list_items", "shopping_lists", "notes", "tasks", "inventory_items", "home_areas", "backups"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("reset %s: %w", table, err)
		}
	}
	return tx.Commit()
}

// Close stops background work and closes the database.
func (a *App) Close() error {
	a.Backups.Stop()
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
