package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Ledger is the persisted ranking: one SQLite file whose row order IS
// the rank. It is authoritative for previously established order and
// for user-edited metadata; the live source is authoritative only for
// which tasks currently exist.
type Ledger struct {
	Path string
}

func (l Ledger) ensureDir() error {
	dir := filepath.Dir(filepath.Clean(l.Path))
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func (l Ledger) open(ctx context.Context) (*sql.DB, error) {
	if err := l.ensureDir(); err != nil {
		return nil, err
	}
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", l.Path)
	if err != nil {
		return nil, err
	}
	// WAL enables one writer + many readers; busy_timeout avoids
	// "database is locked" flakiness when a CLI command runs while the
	// ranking TUI is open.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA synchronous=NORMAL;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", p, err)
		}
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ranking (
			pos INTEGER PRIMARY KEY,
			status TEXT NOT NULL,
			category TEXT NOT NULL,
			title TEXT NOT NULL,
			parent_title TEXT NOT NULL,
			notes TEXT NOT NULL,
			effort TEXT NOT NULL,
			joy TEXT NOT NULL,
			link TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_ranking_parent ON ranking(parent_title);`,
		`CREATE TABLE IF NOT EXISTS categories (
			pos INTEGER PRIMARY KEY,
			name TEXT NOT NULL UNIQUE
		);`,
	}
	for _, st := range stmts {
		if _, err := db.ExecContext(ctx, st); err != nil {
			return err
		}
	}
	return nil
}

// ReadCategories returns the category vocabulary in ledger order.
func (l Ledger) ReadCategories() ([]string, error) {
	ctx := context.Background()
	db, err := l.open(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `SELECT name FROM categories ORDER BY pos`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// SeedCategories inserts any missing names, preserving existing rows
// and their order. Idempotent.
func (l Ledger) SeedCategories(names []string) error {
	ctx := context.Background()
	db, err := l.open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	for _, name := range names {
		if name == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, `INSERT OR IGNORE INTO categories(name) VALUES(?)`, name); err != nil {
			return err
		}
	}
	return nil
}
