package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"path"
	"slices"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type migration struct {
	name string
	sql  string
}

// RunMigrations applies every embedded migration not yet recorded in the
// _migrations table, in file name order. Each migration runs in its own
// transaction together with its bookkeeping row.
func RunMigrations(ctx context.Context, db *DB) error {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS _migrations (
			name TEXT PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("creating migrations table: %w", err)
	}

	done, err := AppliedMigrations(ctx, db)
	if err != nil {
		return err
	}

	all, err := embeddedMigrations()
	if err != nil {
		return fmt.Errorf("reading migration files: %w", err)
	}

	applied := 0
	for _, m := range all {
		if slices.Contains(done, m.name) {
			continue
		}

		log.Printf("Applying migration: %s", m.name)
		err := db.Transaction(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, m.sql); err != nil {
				return fmt.Errorf("executing SQL: %w", err)
			}
			_, err := tx.ExecContext(ctx, "INSERT INTO _migrations (name) VALUES (?)", m.name)
			return err
		})
		if err != nil {
			return fmt.Errorf("applying migration %s: %w", m.name, err)
		}
		applied++
	}

	if applied > 0 {
		log.Printf("Applied %d migration(s)", applied)
	}
	return nil
}

// AppliedMigrations lists the recorded migrations in name order.
func AppliedMigrations(ctx context.Context, db *DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, "SELECT name FROM _migrations ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("%w: listing applied migrations: %v", ErrStorage, err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("%w: scanning migration: %v", ErrStorage, err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func embeddedMigrations() ([]migration, error) {
	files, err := fs.Glob(migrationsFS, "migrations/*.sql")
	if err != nil {
		return nil, err
	}
	// Numeric prefix gives the order
	slices.Sort(files)

	migrations := make([]migration, 0, len(files))
	for _, file := range files {
		content, err := migrationsFS.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", file, err)
		}
		migrations = append(migrations, migration{name: path.Base(file), sql: string(content)})
	}
	return migrations, nil
}
