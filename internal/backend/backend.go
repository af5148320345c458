// Package backend defines the contracts between the sync manager and the
// components that produce and store canonical journal entries. No
// backend-specific types cross these boundaries.
package backend

import (
	"context"
	"time"

	"journalsync/internal/domain"
)

// Source produces a finite, restartable batch of canonical entries.
type Source interface {
	FetchEntries(ctx context.Context) ([]domain.JournalEntry, error)
}

// Destination stores canonical entries in one external backend.
type Destination interface {
	// Name identifies the backend in logs and reports.
	Name() string
	// RegisterEntries creates records for entries not yet stored. A
	// request failure aborts the remainder of the batch; results
	// collected before the failure are still returned.
	RegisterEntries(ctx context.Context, entries []domain.JournalEntry) ([]Result, error)
	// UpdateEntries rewrites existing records, targeted by canonical id.
	UpdateEntries(ctx context.Context, entries []domain.JournalEntry) ([]Result, error)
	// ExistingEntryIDs lists the canonical ids currently stored.
	ExistingEntryIDs(ctx context.Context) ([]string, error)
	// ExistingModifiedAt maps stored canonical ids to their last known
	// modification time. Records whose timestamp is missing or
	// unparseable are omitted; callers treat them as "unknown".
	ExistingModifiedAt(ctx context.Context) (map[string]time.Time, error)
}

// Action distinguishes result rows in a sync report.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
)

// Result correlates one destination write back to its entry.
type Result struct {
	EntryID  string `json:"entry_id"`
	Action   Action `json:"action"`
	RemoteID string `json:"remote_id,omitempty"`
}
