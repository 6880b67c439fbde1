package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// DB is a key/value table in sqlite that satisfies store.Gateway.
type DB struct {
	conn *sql.DB
}

// DefaultPath is ~/.keybox/keybox.db.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".keybox", "keybox.db"), nil
}

// New opens (creating if needed) the database at path and applies pending
// migrations.
func New(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	if err := migrateUp(path); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_busy_timeout=5000", path))
	if err != nil {
		return nil, err
	}
	conn.SetMaxOpenConns(1)
	return &DB{conn: conn}, nil
}

func migrateUp(path string) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return err
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, "sqlite3://"+path)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := d.conn.QueryRowContext(ctx, `SELECT value FROM entries WHERE name = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (d *DB) Set(ctx context.Context, key, value string) error {
	_, err := d.conn.ExecContext(ctx, `
		INSERT INTO entries (name, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value)
	return err
}

func (d *DB) Remove(ctx context.Context, key string) error {
	_, err := d.conn.ExecContext(ctx, `DELETE FROM entries WHERE name = ?`, key)
	return err
}

func (d *DB) Clear(ctx context.Context) error {
	_, err := d.conn.ExecContext(ctx, `DELETE FROM entries`)
	return err
}

// Keys lists every stored key, sorted.
func (d *DB) Keys(ctx context.Context) ([]string, error) {
	rows, err := d.conn.QueryContext(ctx, `SELECT name FROM entries ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
