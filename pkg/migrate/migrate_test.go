package migrate

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"

	"github.com/vidora/vidora-backend/pkg/db"
)

func TestEmbeddedMigrationsAreValid(t *testing.T) {
	require.NoError(t, ValidateDir(embeddedDir))

	entries, err := embedded.ReadDir(embeddedDir)
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	body, err := embedded.ReadFile(embeddedDir + "/20261001120000_create_orphan_assets.sql")
	require.NoError(t, err)
	sql := string(body)
	for _, column := range []string{"storage_key", "kind", "reason", "status", "attempts", "last_error", "resolved_at"} {
		assert.Contains(t, sql, column)
	}
}

func TestValidateDirRejectsBadFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "create_things.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644))
	assert.Error(t, ValidateDir(dir))

	dir = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20260101000000_a.sql"), []byte("-- +goose Up\n"), 0o644))
	assert.ErrorContains(t, ValidateDir(dir), "goose Down")

	dir = t.TempDir()
	for _, name := range []string{"20260101000000_a.sql", "20260101000000_b.sql"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("-- +goose Up\n-- +goose Down\n"), 0o644))
	}
	assert.ErrorContains(t, ValidateDir(dir), "duplicate")

	dir = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20260101000000_a.sql"), []byte("-- +goose Down\n-- +goose Up\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.sql"), []byte(""), 0o644))
	err := ValidateDir(dir)
	assert.ErrorContains(t, err, "before")
	assert.ErrorContains(t, err, "invalid migration filename")

	assert.Error(t, ValidateDir(t.TempDir()))
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	path, err := CreateSQLMigration(dir, "Add Orphan Owner!")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "_add_orphan_owner.sql"), path)
	require.NoError(t, ValidateDir(dir))

	_, err = CreateSQLMigration(dir, "!!!")
	assert.Error(t, err)
}

func TestDialect(t *testing.T) {
	cases := map[string]string{"": "postgres", "postgres": "postgres", "SQLite": "sqlite3"}
	for driver, want := range cases {
		got, err := Dialect(driver)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := Dialect("oracle")
	assert.Error(t, err)
}

func TestRunUpAndDownOnSQLite(t *testing.T) {
	goose.SetLogger(goose.NopLogger())
	conn, err := db.Open(sqlite.Open(filepath.Join(t.TempDir(), "ledger.db")))
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	ctx := context.Background()
	opts := Options{Dialect: "sqlite3"}
	require.NoError(t, Run(ctx, sqlDB, opts, "up"))

	_, err = sqlDB.ExecContext(ctx,
		`INSERT INTO orphan_assets (id, storage_key, kind, reason) VALUES (?, ?, ?, ?)`,
		"0b7a3c52-6a43-4c39-9d8f-52f0c5c1a001", "vidora/images/a.png", "image", "compensation")
	require.NoError(t, err)

	var status string
	require.NoError(t, sqlDB.QueryRowContext(ctx, `SELECT status FROM orphan_assets`).Scan(&status))
	assert.Equal(t, "pending", status)

	_, err = sqlDB.ExecContext(ctx,
		`INSERT INTO orphan_assets (id, storage_key, kind, reason, status) VALUES (?, ?, ?, ?, ?)`,
		"0b7a3c52-6a43-4c39-9d8f-52f0c5c1a002", "k", "image", "replace", "lost")
	assert.Error(t, err, "status check constraint")

	_, err = sqlDB.ExecContext(ctx,
		`INSERT INTO orphan_assets (id, storage_key, kind, reason) VALUES (?, ?, ?, ?)`,
		"0b7a3c52-6a43-4c39-9d8f-52f0c5c1a003", "vidora/images/a.png", "auto", "replace")
	assert.Error(t, err, "one pending row per storage key")

	_, err = sqlDB.ExecContext(ctx,
		`INSERT INTO orphan_assets (id, storage_key, kind, reason, status) VALUES (?, ?, ?, ?, ?)`,
		"0b7a3c52-6a43-4c39-9d8f-52f0c5c1a004", "vidora/images/a.png", "auto", "replace", "resolved")
	assert.NoError(t, err, "settled rows may share the key")

	require.NoError(t, MigrateToVersion(ctx, sqlDB, opts, "0"))
	_, err = sqlDB.ExecContext(ctx, `SELECT 1 FROM orphan_assets`)
	assert.Error(t, err, "table dropped after migrating down")
}

func TestRunRequiresDB(t *testing.T) {
	assert.Error(t, Run(context.Background(), nil, Options{}, "up"))
	assert.Error(t, MigrateToVersion(context.Background(), nil, Options{}, "1"))
}
