package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/pressly/goose/v3"
)

// DefaultDir is the on-disk migrations directory, relative to the repo root.
const DefaultDir = "pkg/migrate/migrations"

const embeddedDir = "migrations"

//go:embed migrations/*.sql
var embedded embed.FS

// goose keeps its dialect and base FS in package globals.
var gooseMu sync.Mutex

// Options select where migrations are read from and which SQL dialect goose
// speaks. An empty Dir reads the migrations compiled into the binary.
type Options struct {
	Dialect string
	Dir     string
}

// Dialect maps a ledger database driver name onto a goose dialect.
func Dialect(driver string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "postgres", "postgresql", "pgx":
		return "postgres", nil
	case "sqlite", "sqlite3":
		return "sqlite3", nil
	default:
		return "", fmt.Errorf("no migration dialect for driver %q", driver)
	}
}

// Run executes a goose command such as up, down or status.
func Run(ctx context.Context, db *sql.DB, opts Options, command string, args ...string) error {
	if db == nil {
		return fmt.Errorf("db is required")
	}
	gooseMu.Lock()
	defer gooseMu.Unlock()

	dir, err := configure(opts)
	if err != nil {
		return err
	}
	if err := goose.RunContext(ctx, command, db, dir, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// MigrateToVersion migrates up or down until the database is at targetVersion.
func MigrateToVersion(ctx context.Context, db *sql.DB, opts Options, targetVersion string) error {
	if db == nil {
		return fmt.Errorf("db is required")
	}
	if targetVersion == "" {
		return fmt.Errorf("targetVersion is required")
	}
	target, err := strconv.ParseInt(targetVersion, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS): %w", targetVersion, err)
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	dir, err := configure(opts)
	if err != nil {
		return err
	}
	current, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return fmt.Errorf("get db version: %w", err)
	}

	switch {
	case current == target:
		return nil
	case current < target:
		if err := goose.UpToContext(ctx, db, dir, target); err != nil {
			return fmt.Errorf("goose up-to %d: %w", target, err)
		}
	default:
		if err := goose.DownToContext(ctx, db, dir, target); err != nil {
			return fmt.Errorf("goose down-to %d: %w", target, err)
		}
	}
	return nil
}

func configure(opts Options) (string, error) {
	dialect := opts.Dialect
	if dialect == "" {
		dialect = "postgres"
	}
	if err := goose.SetDialect(dialect); err != nil {
		return "", fmt.Errorf("set goose dialect: %w", err)
	}
	if opts.Dir == "" {
		goose.SetBaseFS(embedded)
		return embeddedDir, nil
	}
	goose.SetBaseFS(nil)
	return opts.Dir, nil
}
