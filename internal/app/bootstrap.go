package app

import (
	"database/sql"
	"fmt"
	"os"

	"consite/internal/config"
	"consite/internal/db"
	"consite/internal/engine"
	"consite/internal/migrate"
)

// Open prepares a workspace: database opened, migrations applied, config
// loaded. A missing consite.yml is seeded with the default template so a
// fresh directory works out of the box.
func Open(workspace string) (*sql.DB, *config.Config, error) {
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	cfg, err := config.LoadOptional(workspace)
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	if cfg == nil {
		path := config.Path(workspace)
		if err := os.WriteFile(path, []byte(config.GenerateDefault("site")), 0o644); err != nil {
			conn.Close()
			return nil, nil, fmt.Errorf("seed config %s: %w", path, err)
		}
		cfg = config.Default("site")
	}
	return conn, cfg, nil
}

// NewEngine opens the workspace and wires an engine over it.
func NewEngine(workspace string) (engine.Engine, func() error, error) {
	conn, cfg, err := Open(workspace)
	if err != nil {
		return engine.Engine{}, nil, err
	}
	return engine.New(conn, cfg), conn.Close, nil
}
