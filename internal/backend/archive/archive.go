// Package archive is a local destination: journal entries are kept in
// an SQLite file, one row per entry with the canonical payload stored
// as JSON. It doubles as a source, so an archive can later be synced
// onward to a remote backend.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"journalsync/internal/backend"
	"journalsync/internal/domain"
	"journalsync/internal/fieldmap"
)

var ErrNotFound = errors.New("not found")

// Store implements backend.Destination on a local SQLite file.
type Store struct {
	DB     *sql.DB
	table  *fieldmap.Table
	logger *slog.Logger
}

// Open opens (creating if needed) the archive database at path and
// brings its schema up to date.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=foreign_keys(1)", path)
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := migrate(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate archive: %w", err)
	}
	table, err := fieldmap.New(fieldmap.Canonical(), fieldmap.Options{})
	if err != nil {
		conn.Close()
		return nil, err
	}
	return &Store{DB: conn, table: table, logger: logger.With("backend", "archive")}, nil
}

func (s *Store) Close() error { return s.DB.Close() }

func (s *Store) Name() string { return "archive" }

func (s *Store) RegisterEntries(ctx context.Context, entries []domain.JournalEntry) ([]backend.Result, error) {
	var results []backend.Result
	for _, e := range entries {
		payload, err := json.Marshal(e.Map())
		if err != nil {
			return results, fmt.Errorf("encode entry %s: %w", e.ID, err)
		}
		_, err = s.DB.ExecContext(ctx, `INSERT INTO entries(id,entry_at,modified_at,source_app,payload,imported_at) VALUES (?,?,?,?,?,?)`,
			e.ID, domain.FormatTime(e.EntryAt), nullableTime(e.ModifiedAt), e.SourceAppName, string(payload), domain.FormatTime(e.SourceImportedAt))
		if err != nil {
			return results, fmt.Errorf("insert entry %s: %w", e.ID, err)
		}
		results = append(results, backend.Result{EntryID: e.ID, Action: backend.ActionCreate, RemoteID: e.ID})
	}
	return results, nil
}

func (s *Store) UpdateEntries(ctx context.Context, entries []domain.JournalEntry) ([]backend.Result, error) {
	var results []backend.Result
	for _, e := range entries {
		payload, err := json.Marshal(e.Map())
		if err != nil {
			return results, fmt.Errorf("encode entry %s: %w", e.ID, err)
		}
		res, err := s.DB.ExecContext(ctx, `UPDATE entries SET entry_at=?,modified_at=?,source_app=?,payload=?,imported_at=? WHERE id=?`,
			domain.FormatTime(e.EntryAt), nullableTime(e.ModifiedAt), e.SourceAppName, string(payload), domain.FormatTime(e.SourceImportedAt), e.ID)
		if err != nil {
			return results, fmt.Errorf("update entry %s: %w", e.ID, err)
		}
		affected, _ := res.RowsAffected()
		if affected == 0 {
			return results, fmt.Errorf("update entry %s: %w", e.ID, ErrNotFound)
		}
		results = append(results, backend.Result{EntryID: e.ID, Action: backend.ActionUpdate, RemoteID: e.ID})
	}
	return results, nil
}

func (s *Store) ExistingEntryIDs(ctx context.Context) ([]string, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT id FROM entries`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) ExistingModifiedAt(ctx context.Context) (map[string]time.Time, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT id, modified_at FROM entries WHERE modified_at IS NOT NULL`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]time.Time{}
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		ts, err := domain.ParseTime(raw)
		if err != nil {
			s.logger.Warn("unreadable modified_at in archive", "entry_id", id, "value", raw)
			continue
		}
		out[id] = ts
	}
	return out, rows.Err()
}

// FetchEntries reads the whole archive back as canonical entries,
// ordered by entry date, which makes the store usable as a sync source.
func (s *Store) FetchEntries(ctx context.Context) ([]domain.JournalEntry, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT id, payload FROM entries ORDER BY entry_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []domain.JournalEntry
	for rows.Next() {
		var id, payload string
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, err
		}
		var rec map[string]any
		if err := json.Unmarshal([]byte(payload), &rec); err != nil {
			s.logger.Warn("corrupt archive payload, skipping", "entry_id", id, "error", err)
			continue
		}
		entry, warnings, err := s.table.Decode(rec)
		if err != nil {
			s.logger.Warn("undecodable archive payload, skipping", "entry_id", id, "error", err)
			continue
		}
		for _, w := range warnings {
			s.logger.Warn("archive field dropped", "entry_id", id, "detail", w.String())
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return domain.FormatTime(*t)
}
