package tablehttp

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"journalsync/internal/backend"
	"journalsync/internal/domain"
	"journalsync/internal/fieldmap"
)

// Adapter implements backend.Destination on top of a Dialect. The
// shared logic lives here: field encoding, batching, and the existing
// id / modified-at projections the sync manager diffs against.
type Adapter struct {
	client   *Client
	dialect  Dialect
	table    *fieldmap.Table
	tableRef string
	logger   *slog.Logger
}

// New builds the field table from the dialect's declaration and
// provisions the remote schema before returning. A dialect whose field
// declaration is inconsistent fails here, not at sync time.
func New(ctx context.Context, client *Client, d Dialect, logger *slog.Logger) (*Adapter, error) {
	if logger == nil {
		logger = slog.Default()
	}
	table, err := fieldmap.New(d.Fields(), d.Options())
	if err != nil {
		return nil, fmt.Errorf("%s field mapping: %w", d.Name(), err)
	}
	ref, err := d.EnsureSchema(ctx, client)
	if err != nil {
		return nil, fmt.Errorf("%s schema: %w", d.Name(), err)
	}
	return &Adapter{
		client:   client,
		dialect:  d,
		table:    table,
		tableRef: ref,
		logger:   logger.With("backend", d.Name()),
	}, nil
}

func (a *Adapter) Name() string { return a.dialect.Name() }

// Table exposes the resolved field mapping, mainly for tests.
func (a *Adapter) Table() *fieldmap.Table { return a.table }

// RegisterEntries creates entries in chunks. On a failed chunk the
// results of the chunks already written are returned alongside the
// error so the caller can report partial progress.
func (a *Adapter) RegisterEntries(ctx context.Context, entries []domain.JournalEntry) ([]backend.Result, error) {
	var results []backend.Result
	for _, chunk := range chunkEntries(entries, a.dialect.ChunkSize()) {
		recs := make([]map[string]any, len(chunk))
		for i, e := range chunk {
			recs[i] = a.table.Encode(e)
		}
		remoteIDs, err := a.dialect.CreateRecords(ctx, a.client, a.tableRef, recs)
		if err != nil {
			return results, fmt.Errorf("create records: %w", err)
		}
		for i, e := range chunk {
			res := backend.Result{EntryID: e.ID, Action: backend.ActionCreate}
			if i < len(remoteIDs) {
				res.RemoteID = remoteIDs[i]
			}
			results = append(results, res)
		}
		a.logger.Debug("created records", "count", len(chunk))
	}
	return results, nil
}

// UpdateEntries updates one entry per request, keyed on the entry id
// column. It stops at the first failure.
func (a *Adapter) UpdateEntries(ctx context.Context, entries []domain.JournalEntry) ([]backend.Result, error) {
	var results []backend.Result
	for _, e := range entries {
		remoteID, err := a.dialect.UpdateRecord(ctx, a.client, a.tableRef, a.table.KeyColumn(), e.ID, a.table.Encode(e))
		if err != nil {
			return results, fmt.Errorf("update record %s: %w", e.ID, err)
		}
		results = append(results, backend.Result{EntryID: e.ID, Action: backend.ActionUpdate, RemoteID: remoteID})
	}
	return results, nil
}

func (a *Adapter) ExistingEntryIDs(ctx context.Context) ([]string, error) {
	recs, err := a.dialect.ListRecords(ctx, a.client, a.tableRef)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	ids := make([]string, 0, len(recs))
	for _, rec := range recs {
		if id, ok := a.table.KeyOf(rec.Fields); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// ExistingModifiedAt maps entry id to stored modified_at. Rows whose
// timestamp is absent or unreadable are left out, which makes the sync
// manager treat them as changed only when the incoming side also has a
// timestamp to compare.
func (a *Adapter) ExistingModifiedAt(ctx context.Context) (map[string]time.Time, error) {
	recs, err := a.dialect.ListRecords(ctx, a.client, a.tableRef)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	out := make(map[string]time.Time, len(recs))
	modCol := a.table.ModifiedColumn()
	for _, rec := range recs {
		id, ok := a.table.KeyOf(rec.Fields)
		if !ok {
			continue
		}
		raw, ok := rec.Fields[modCol]
		if !ok || raw == nil {
			continue
		}
		s, ok := raw.(string)
		if !ok || s == "" {
			continue
		}
		ts, err := domain.ParseTime(s)
		if err != nil {
			a.logger.Warn("unreadable modified_at on remote record", "entry_id", id, "value", s)
			continue
		}
		out[id] = ts
	}
	return out, nil
}

func chunkEntries(entries []domain.JournalEntry, size int) [][]domain.JournalEntry {
	if size <= 0 || len(entries) <= size {
		if len(entries) == 0 {
			return nil
		}
		return [][]domain.JournalEntry{entries}
	}
	var chunks [][]domain.JournalEntry
	for start := 0; start < len(entries); start += size {
		end := start + size
		if end > len(entries) {
			end = len(entries)
		}
		chunks = append(chunks, entries[start:end])
	}
	return chunks
}
