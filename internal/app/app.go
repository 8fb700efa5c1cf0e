// Package app wires a workspace into a ready engine: it ensures the
// workspace directory exists, opens the database, applies pending
// migrations and loads pulseboard.yml.
package app

import (
	"database/sql"
	"fmt"

	"pulseboard/internal/config"
	"pulseboard/internal/db"
	"pulseboard/internal/engine"
	"pulseboard/internal/migrate"
)

// App holds the open database and the engine built on top of it.
// Close the App when done.
type App struct {
	DB     *sql.DB
	Config *config.Config
	Engine engine.Engine
}

// Open bootstraps the workspace. The config file is optional; built-in
// defaults apply when it is absent.
func Open(workspace string) (*App, error) {
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	cfg, err := config.Load(workspace)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("config: %w", err)
	}
	return &App{
		DB:     conn,
		Config: cfg,
		Engine: engine.New(conn, cfg),
	}, nil
}

func (a *App) Close() error {
	return a.DB.Close()
}
