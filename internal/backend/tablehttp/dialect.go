package tablehttp

import (
	"context"

	"journalsync/internal/fieldmap"
)

// Record is one remote row: the backend's own row identifier plus the
// column values keyed by column name.
type Record struct {
	ID     string
	Fields map[string]any
}

// Dialect captures everything backend-specific: how the table is
// provisioned, how records are listed, created and updated, and which
// column encodings the backend expects.
type Dialect interface {
	Name() string

	// Fields declares the column mapping the dialect stores entries
	// under. Options carries its encoding quirks (string booleans,
	// JSON lists).
	Fields() []fieldmap.Field
	Options() fieldmap.Options

	// ChunkSize caps how many records one create request may carry.
	// Zero means no limit.
	ChunkSize() int

	// EnsureSchema verifies the target table exists, creating it when
	// missing, and returns the table reference used by the record
	// operations.
	EnsureSchema(ctx context.Context, c *Client) (string, error)

	ListRecords(ctx context.Context, c *Client, tableRef string) ([]Record, error)

	// CreateRecords inserts a batch and returns the remote row ids in
	// input order when the backend reports them, nil otherwise.
	CreateRecords(ctx context.Context, c *Client, tableRef string, recs []map[string]any) ([]string, error)

	// UpdateRecord replaces the stored columns of the row whose key
	// column equals key.
	UpdateRecord(ctx context.Context, c *Client, tableRef, keyColumn, key string, rec map[string]any) (string, error)
}
