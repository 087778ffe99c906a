// Package store mirrors the training log into SQLite for ad-hoc queries.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/etl76/etl/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for the records table.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// quote makes column names such as "when" and "where" usable as identifiers.
func quote(name string) string {
	return `"` + name + `"`
}

func sqlType(k model.Kind) string {
	switch k {
	case model.KindUint, model.KindInt, model.KindBool, model.KindTimeOfDay:
		return "INTEGER NOT NULL"
	case model.KindFloat:
		return "REAL NOT NULL"
	default:
		return "TEXT NOT NULL"
	}
}

func (s *Store) migrate() error {
	defs := []string{"position INTEGER PRIMARY KEY"}
	for _, c := range model.Columns {
		defs = append(defs, quote(c.Name)+" "+sqlType(c.Kind))
	}
	stmts := []string{
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS records (\n\t%s\n);", strings.Join(defs, ",\n\t")),
		`CREATE INDEX IF NOT EXISTS idx_records_date ON records("year", "month", "day");`,
		`CREATE INDEX IF NOT EXISTS idx_records_activity ON records("activity");`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func columnList() string {
	names := make([]string, len(model.Columns))
	for i, c := range model.Columns {
		names[i] = quote(c.Name)
	}
	return strings.Join(names, ", ")
}

// ReplaceAll rewrites the table with records in the given order.
func (s *Store) ReplaceAll(ctx context.Context, records []*model.Record) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM records`); err != nil {
		return err
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(model.Columns)+1), ", ")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		`INSERT INTO records (position, %s) VALUES (%s)`, columnList(), placeholders))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := stmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()

	args := make([]any, len(model.Columns)+1)
	for pos, rec := range records {
		args[0] = pos
		for i, c := range model.Columns {
			args[i+1] = c.Format(rec)
		}
		if _, err = stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("store: insert record %d: %w", pos, err)
		}
	}
	return tx.Commit()
}

// List returns the stored records in position order.
func (s *Store) List(ctx context.Context) ([]*model.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT %s FROM records ORDER BY position ASC`, columnList()))
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	cells := make([]string, len(model.Columns))
	dest := make([]any, len(cells))
	for i := range cells {
		dest[i] = &cells[i]
	}
	var result []*model.Record
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		rec := &model.Record{}
		for i, c := range model.Columns {
			if err := c.Parse(rec, cells[i]); err != nil {
				return nil, fmt.Errorf("store: record %d: %w", len(result), err)
			}
		}
		rec.SetDatasetIndex(len(result))
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
