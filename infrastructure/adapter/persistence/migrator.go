package persistence

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/vendora/vendora/infrastructure/service/logger"
)

//go:embed migrations
var migrationFS embed.FS

type migrationFile struct {
	version int
	name    string
	path    string
	kind    string // up or down
}

// Migrator applies the embedded schema for one dialect and tracks applied
// versions in schema_migrations.
type Migrator struct {
	db      *sql.DB
	dialect Dialect
	logger  logger.Logger
}

func NewMigrator(db *sql.DB, dialect Dialect, log logger.Logger) *Migrator {
	return &Migrator{db: db, dialect: dialect, logger: log}
}

// Up applies every pending up migration in version order. It returns the
// number of migrations applied.
func (m *Migrator) Up(ctx context.Context) (int, error) {
	files, err := m.load("up")
	if err != nil {
		return 0, err
	}
	if err := m.ensureSchemaMigrations(ctx); err != nil {
		return 0, err
	}

	applied := 0
	for _, f := range files {
		done, err := m.alreadyApplied(ctx, f.version)
		if err != nil {
			return applied, err
		}
		if done {
			continue
		}

		m.logger.Info(ctx, "Applying migration", map[string]interface{}{
			"version": f.version,
			"name":    f.name,
		})
		err = m.run(ctx, f, func(ctx context.Context, tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, m.dialect.Rebind(
				"INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)"),
				f.version, f.name, time.Now().UTC())
			return err
		})
		if err != nil {
			return applied, fmt.Errorf("failed applying %s: %w", f.path, err)
		}
		applied++
	}
	return applied, nil
}

// Down reverts applied migrations newest first. steps <= 0 reverts all.
func (m *Migrator) Down(ctx context.Context, steps int) (int, error) {
	files, err := m.load("down")
	if err != nil {
		return 0, err
	}
	if err := m.ensureSchemaMigrations(ctx); err != nil {
		return 0, err
	}
	sort.Slice(files, func(i, j int) bool { return files[i].version > files[j].version })

	reverted := 0
	for _, f := range files {
		if steps > 0 && reverted >= steps {
			break
		}
		done, err := m.alreadyApplied(ctx, f.version)
		if err != nil {
			return reverted, err
		}
		if !done {
			continue
		}

		m.logger.Info(ctx, "Reverting migration", map[string]interface{}{
			"version": f.version,
			"name":    f.name,
		})
		err = m.run(ctx, f, func(ctx context.Context, tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, m.dialect.Rebind("DELETE FROM schema_migrations WHERE version = ?"), f.version)
			return err
		})
		if err != nil {
			return reverted, fmt.Errorf("failed reverting %s: %w", f.path, err)
		}
		reverted++
	}
	return reverted, nil
}

func (m *Migrator) ensureSchemaMigrations(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("failed to ensure schema_migrations: %w", err)
	}
	return nil
}

func (m *Migrator) alreadyApplied(ctx context.Context, version int) (bool, error) {
	var count int
	err := m.db.QueryRowContext(ctx, m.dialect.Rebind("SELECT COUNT(*) FROM schema_migrations WHERE version = ?"), version).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check migration %d: %w", version, err)
	}
	return count > 0, nil
}

// run executes the statements of f and the bookkeeping in one transaction.
func (m *Migrator) run(ctx context.Context, f migrationFile, mark func(ctx context.Context, tx *sql.Tx) error) error {
	body, err := fs.ReadFile(migrationFS, f.path)
	if err != nil {
		return err
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range splitStatements(string(body)) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	if err := mark(ctx, tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (m *Migrator) load(kind string) ([]migrationFile, error) {
	dir := path.Join("migrations", string(m.dialect))
	entries, err := fs.ReadDir(migrationFS, dir)
	if err != nil {
		return nil, fmt.Errorf("no migrations for dialect %s: %w", m.dialect, err)
	}

	var files []migrationFile
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, "."+kind+".sql") {
			continue
		}
		ver, migName, err := parseVersionAndName(strings.TrimSuffix(name, "."+kind+".sql"))
		if err != nil {
			return nil, fmt.Errorf("migration %s: %w", name, err)
		}
		files = append(files, migrationFile{
			version: ver,
			name:    migName,
			path:    path.Join(dir, name),
			kind:    kind,
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].version < files[j].version })
	return files, nil
}

// parseVersionAndName expects 001_create_users.
func parseVersionAndName(filename string) (int, string, error) {
	parts := strings.SplitN(filename, "_", 2)
	if len(parts) < 2 {
		return 0, "", errors.New("invalid filename")
	}
	ver, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, "", errors.New("invalid version")
	}
	return ver, parts[1], nil
}

func splitStatements(body string) []string {
	var stmts []string
	for _, s := range strings.Split(body, ";") {
		if s = strings.TrimSpace(s); s != "" {
			stmts = append(stmts, s)
		}
	}
	return stmts
}
