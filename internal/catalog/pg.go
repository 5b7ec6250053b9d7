/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package catalog

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"tplstudio/internal/domain"
	applog "tplstudio/internal/log"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PGSource serves the catalog from PostgreSQL. Each reference is stored as
// its JSON payload keyed by catalog position.
type PGSource struct {
	db *sql.DB
}

// OpenPG connects through pgx's database/sql driver and applies the embedded
// migrations.
func OpenPG(ctx context.Context, dsn string) (*PGSource, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("postgres dsn is required")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if err := applyMigrations(pctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &PGSource{db: db}, nil
}

func (s *PGSource) Close() error { return s.db.Close() }

// Load reads the catalog in position order. An empty database yields
// Fallback without error.
func (s *PGSource) Load(ctx context.Context) (domain.Schema, error) {
	l := applog.WithOperation(applog.WithComponent("catalog"), "pg_load")
	var out domain.Schema
	var generated time.Time
	err := s.db.QueryRowContext(ctx, `SELECT schema_version, project, generated_at FROM tpl_catalog WHERE id=1`).Scan(&out.SchemaVersion, &out.Project, &generated)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return Fallback(time.Now()), nil
	case err != nil:
		return domain.Schema{}, fmt.Errorf("select catalog: %w", err)
	}
	out.GeneratedAt = generated.UTC().Format(time.RFC3339)

	rows, err := s.db.QueryContext(ctx, `SELECT position, payload FROM tpl_references ORDER BY position`)
	if err != nil {
		return domain.Schema{}, fmt.Errorf("select references: %w", err)
	}
	defer func() { _ = rows.Close() }()
	seen := map[domain.ReferenceType]bool{}
	for rows.Next() {
		var pos int
		var raw []byte
		if err := rows.Scan(&pos, &raw); err != nil {
			return domain.Schema{}, err
		}
		var r domain.Reference
		if err := json.Unmarshal(raw, &r); err != nil {
			l.Warn("skipping undecodable reference", slog.Int("position", pos), slog.Any("err", err))
			continue
		}
		if r.Type.Valid() {
			seen[r.Type] = true
		}
		out.References = append(out.References, r)
	}
	if err := rows.Err(); err != nil {
		return domain.Schema{}, err
	}
	for _, t := range domain.ReferenceTypes {
		if seen[t] {
			out.Types = append(out.Types, t)
		}
	}
	l.Debug("catalog loaded", slog.Int("references", len(out.References)))
	return out, nil
}

// Import replaces the stored catalog with s in one transaction.
func (s *PGSource) Import(ctx context.Context, schema domain.Schema) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	generated, err := time.Parse(time.RFC3339, schema.GeneratedAt)
	if err != nil {
		generated = time.Now()
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO tpl_catalog (id, schema_version, project, generated_at) VALUES (1, $1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET schema_version=EXCLUDED.schema_version, project=EXCLUDED.project, generated_at=EXCLUDED.generated_at`,
		schema.SchemaVersion, schema.Project, generated); err != nil {
		return fmt.Errorf("upsert catalog: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM tpl_references`); err != nil {
		return fmt.Errorf("clear references: %w", err)
	}
	for i, r := range schema.References {
		b, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("encode %s: %w", r.ID, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO tpl_references (position, id, payload) VALUES ($1, $2, $3) ON CONFLICT (id) DO NOTHING`, i, r.ID, string(b)); err != nil {
			return fmt.Errorf("insert %s: %w", r.ID, err)
		}
	}
	return tx.Commit()
}

func applyMigrations(ctx context.Context, db *sql.DB) error {
	l := applog.WithOperation(applog.WithComponent("catalog"), "migrate")
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasSuffix(strings.ToLower(name), ".sql") {
			files = append(files, name)
		}
	}
	sort.Strings(files)

	// dialect=PostgreSQL
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version BIGINT PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}

	applied := map[int64]bool{}
	rows, err := db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return fmt.Errorf("select schema_migrations: %w", err)
	}
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			_ = rows.Close()
			return err
		}
		applied[v] = true
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, fname := range files {
		version, err := parseVersion(fname)
		if err != nil {
			return err
		}
		if applied[version] {
			continue
		}
		b, err := migrationsFS.ReadFile(path.Join("migrations", fname))
		if err != nil {
			return err
		}
		if strings.TrimSpace(string(b)) == "" {
			continue
		}
		l.Info("applying migration", slog.String("file", fname))
		if _, err := db.ExecContext(ctx, string(b)); err != nil {
			return fmt.Errorf("apply %s: %w", fname, err)
		}
		if _, err := db.ExecContext(ctx, `INSERT INTO schema_migrations (version, name) VALUES ($1, $2) ON CONFLICT (version) DO NOTHING`, version, fname); err != nil {
			return fmt.Errorf("record %s: %w", fname, err)
		}
	}
	return nil
}

func parseVersion(name string) (int64, error) {
	base := path.Base(name)
	parts := strings.SplitN(base, "_", 2)
	v, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse version from %s: %w", name, err)
	}
	return v, nil
}
