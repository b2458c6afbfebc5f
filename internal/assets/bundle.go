/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package assets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	applog "godialogue/internal/log"
	"godialogue/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

// schemaVersion tracks the bundle schema. Bump it and add a migration step for
// breaking changes.
const schemaVersion = 2

// Bundle is a single-file SQLite resource store. Besides the resources it keeps
// a full-text index of the dialogue lines for the search command.
type Bundle struct {
	db   *sql.DB
	path string
}

// Line is one dialogue node as stored in the bundle's search index.
type Line struct {
	ID     string
	Text   string
	NextID string
}

// LineHit is a search match; Snippet marks matched terms with [ ].
type LineHit struct {
	ID      string
	Snippet string
}

// OpenBundle creates or opens the bundle at path, enables WAL and brings the
// schema up to date.
func OpenBundle(path string) (*Bundle, error) {
	l := applog.WithOperation(applog.WithComponent("assets"), "bundle_open").With(
		slog.String("path", path),
	)
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("bundle path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		l.Error("create bundle dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create bundle dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if err := ensureMetaAndVersion(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure meta/version failed", slog.Any("err", err))
		return nil, err
	}
	if err := ensureSchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure schema failed", slog.Any("err", err))
		return nil, err
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		l.Error("run migrations failed", slog.Any("err", err))
		return nil, err
	}
	l.Debug("bundle ready")
	return &Bundle{db: db, path: path}, nil
}

// Close releases the database handle.
func (b *Bundle) Close() error { return b.db.Close() }

func ensureMetaAndVersion(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var cur int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// fresh bundle starts at schema 1 and migrates forward
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, 1, ?, ?, ?)`, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

func ensureSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS assets (
			key        TEXT PRIMARY KEY,
			kind       TEXT NOT NULL,
			data       BLOB NOT NULL,
			updated_at TEXT NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// runMigrations applies incremental schema migrations up to schemaVersion.
func runMigrations(ctx context.Context, db *sql.DB) error {
	var cur int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	for cur < schemaVersion {
		next := cur + 1
		var stmts []string
		switch next {
		case 2:
			// dialogue line search index
			stmts = []string{
				`CREATE TABLE IF NOT EXISTS lines (
					rowid   INTEGER PRIMARY KEY,
					id      TEXT NOT NULL UNIQUE,
					text    TEXT NOT NULL,
					next_id TEXT NOT NULL
				);`,
				`CREATE VIRTUAL TABLE IF NOT EXISTS fts_lines USING fts5(
					text,
					content='lines',
					content_rowid='rowid',
					tokenize = 'unicode61'
				);`,
				`CREATE TRIGGER IF NOT EXISTS lines_ai AFTER INSERT ON lines BEGIN
					INSERT INTO fts_lines(rowid, text) VALUES (new.rowid, new.text);
				END;`,
				`CREATE TRIGGER IF NOT EXISTS lines_ad AFTER DELETE ON lines BEGIN
					INSERT INTO fts_lines(fts_lines, rowid, text) VALUES ('delete', old.rowid, old.text);
				END;`,
				`CREATE INDEX IF NOT EXISTS idx_assets_kind ON assets(kind);`,
			}
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", next, err)
		}
		for _, q := range stmts {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d stmt failed: %w", next, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, next, time.Now().UTC().Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d update version: %w", next, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d commit: %w", next, err)
		}
		cur = next
	}
	return nil
}

// SchemaVersion reports the schema version recorded in the bundle.
func (b *Bundle) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	err := b.db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&v)
	return v, err
}

// Put inserts or replaces a resource.
func (b *Bundle) Put(ctx context.Context, key, kind string, data []byte) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("bundle: empty key")
	}
	if data == nil {
		data = []byte{}
	}
	_, err := b.db.ExecContext(ctx,
		`INSERT INTO assets(key, kind, data, updated_at) VALUES(?,?,?,?)
		 ON CONFLICT(key) DO UPDATE SET kind=excluded.kind, data=excluded.data, updated_at=excluded.updated_at`,
		key, kind, data, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("bundle put %q: %w", key, err)
	}
	return nil
}

func (b *Bundle) Load(ctx context.Context, key string) (*Resource, error) {
	r := &Resource{Key: key}
	err := b.db.QueryRowContext(ctx, `SELECT kind, data FROM assets WHERE key=?`, key).Scan(&r.Kind, &r.Data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("bundle", key)
	}
	if err != nil {
		return nil, fmt.Errorf("bundle load %q: %w", key, err)
	}
	return r, nil
}

// IndexLines replaces the searchable dialogue lines.
func (b *Bundle) IndexLines(ctx context.Context, lines []Line) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM lines;"); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear lines: %w", err)
	}
	ins, err := tx.PrepareContext(ctx, "INSERT INTO lines(id, text, next_id) VALUES(?,?,?);")
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer ins.Close()
	for _, ln := range lines {
		if _, err := ins.ExecContext(ctx, ln.ID, ln.Text, ln.NextID); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert line %q: %w", ln.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// SearchLines runs an FTS5 query (terms, "phrases", AND/OR/NOT) over the
// indexed dialogue text.
func (b *Bundle) SearchLines(ctx context.Context, query string, limit int) ([]LineHit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.New("search query is required")
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := b.db.QueryContext(ctx,
		`SELECT l.id, snippet(fts_lines, 0, '[', ']', '…', 10)
		 FROM fts_lines JOIN lines l ON fts_lines.rowid = l.rowid
		 WHERE fts_lines MATCH ?
		 ORDER BY rank
		 LIMIT ?`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()
	var out []LineHit
	for rows.Next() {
		var h LineHit
		if err := rows.Scan(&h.ID, &h.Snippet); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
