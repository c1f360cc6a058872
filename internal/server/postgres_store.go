package server

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

//go:embed migrations/*.up.sql
var migrationFiles embed.FS

// PostgresRecordStore keeps records in Postgres through database/sql
type PostgresRecordStore struct {
	db *sql.DB
}

// OpenPostgres opens and pings databaseURL with the pgx driver
func OpenPostgres(ctx context.Context, databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetMaxIdleConns(5)
	db.SetMaxOpenConns(10)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return db, nil
}

// NewPostgresRecordStore opens databaseURL and applies pending migrations
func NewPostgresRecordStore(ctx context.Context, databaseURL string) (*PostgresRecordStore, error) {
	db, err := OpenPostgres(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := ApplyMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &PostgresRecordStore{db: db}, nil
}

// ApplyMigrations runs every embedded migration not yet recorded in
// schema_migrations, each in its own transaction.
func ApplyMigrations(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}

	files, err := migrationNames()
	if err != nil {
		return err
	}

	for _, version := range files {
		var exists bool
		if err := db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version=$1)`, version).Scan(&exists); err != nil {
			return fmt.Errorf("check migration %s: %w", version, err)
		}
		if exists {
			continue
		}

		contents, err := migrationFiles.ReadFile("migrations/" + version)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", version, err)
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration tx %s: %w", version, err)
		}
		if _, err := tx.ExecContext(ctx, string(contents)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("execute migration %s: %w", version, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations(version) VALUES($1)`, version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %s: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", version, err)
		}
	}
	return nil
}

// migrationNames lists the embedded migrations in apply order
func migrationNames() ([]string, error) {
	entries, err := fs.ReadDir(migrationFiles, "migrations")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".up.sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *PostgresRecordStore) Save(ctx context.Context, id string, data json.RawMessage, summary string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO session_records (session_id, data, summary)
		VALUES ($1, $2, $3)
		ON CONFLICT (session_id) DO UPDATE
		SET data = EXCLUDED.data, summary = EXCLUDED.summary, updated_at = NOW()
	`, id, string(data), summary)
	if err != nil {
		return fmt.Errorf("save record: %w", err)
	}
	return nil
}

func (s *PostgresRecordStore) Load(ctx context.Context, id string) (*Record, error) {
	var rec Record
	var data string
	err := s.db.QueryRowContext(ctx, `
		SELECT session_id, data::text, summary, created_at, updated_at
		FROM session_records WHERE session_id = $1
	`, id).Scan(&rec.SessionID, &data, &rec.Summary, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load record: %w", err)
	}
	rec.Data = json.RawMessage(data)
	return &rec, nil
}

func (s *PostgresRecordStore) AddPair(ctx context.Context, pair TextPair) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO text_pairs (session_id, text1, text2) VALUES ($1, $2, $3)
	`, pair.SessionID, pair.Text1, pair.Text2)
	if err != nil {
		return fmt.Errorf("save pair: %w", err)
	}
	return nil
}

func (s *PostgresRecordStore) Pairs(ctx context.Context, id string) ([]TextPair, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, text1, text2, created_at
		FROM text_pairs WHERE session_id = $1 ORDER BY created_at, id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("load pairs: %w", err)
	}
	defer rows.Close()

	var pairs []TextPair
	for rows.Next() {
		var p TextPair
		if err := rows.Scan(&p.SessionID, &p.Text1, &p.Text2, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pair: %w", err)
		}
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}

func (s *PostgresRecordStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresRecordStore) Close() error {
	return s.db.Close()
}
