package tablehttp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"journalsync/internal/fieldmap"
)

const (
	nocodbTableName = "JournalEntries"
	nocodbChunkSize = 10
)

// nocodbDialect talks to NocoDB through its v3 API. The client's base
// URL must end in /api/v3; authentication is the xc-token header.
// NocoDB reserves CreatedAt/ModifiedAt for its own row metadata, so the
// journal timestamps live in prefixed columns.
type nocodbDialect struct {
	projectID string
}

// NocoDB returns the dialect for a NocoDB base.
func NocoDB(projectID string) Dialect {
	return &nocodbDialect{projectID: projectID}
}

func (d *nocodbDialect) Name() string { return "nocodb" }

func (d *nocodbDialect) Fields() []fieldmap.Field {
	return standardFields(map[string]string{
		"id":                "JournalId",
		"created_at":        "JournalCreatedAt",
		"modified_at":       "JournalModifiedAt",
		"media_attachments": "MediaAttachments",
	})
}

func (d *nocodbDialect) Options() fieldmap.Options {
	return fieldmap.Options{BoolStrings: true, ListsAsJSON: true}
}

// NocoDB rejects large batch inserts, hence the small chunk.
func (d *nocodbDialect) ChunkSize() int { return nocodbChunkSize }

func (d *nocodbDialect) tablesPath() string {
	return fmt.Sprintf("meta/bases/%s/tables", d.projectID)
}

func (d *nocodbDialect) recordsPath(tableRef string) string {
	return fmt.Sprintf("data/%s/%s/records", d.projectID, tableRef)
}

type nocodbRecord struct {
	ID     json.Number    `json:"id"`
	Fields map[string]any `json:"fields"`
}

type nocodbList struct {
	List []nocodbRecord `json:"list"`
}

func (d *nocodbDialect) EnsureSchema(ctx context.Context, c *Client) (string, error) {
	var tables struct {
		List []struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		} `json:"list"`
	}
	if err := c.Do(ctx, http.MethodGet, d.tablesPath(), nil, nil, &tables); err != nil {
		return "", fmt.Errorf("list tables: %w", err)
	}
	for _, t := range tables.List {
		if t.Title == nocodbTableName {
			return t.ID, nil
		}
	}

	cols := make([]map[string]string, 0, len(d.Fields()))
	for _, f := range d.Fields() {
		cols = append(cols, map[string]string{"title": f.Column, "type": nocodbFieldType(f.Kind)})
	}
	var created struct {
		ID string `json:"id"`
	}
	body := map[string]any{"title": nocodbTableName, "fields": cols}
	if err := c.Do(ctx, http.MethodPost, d.tablesPath(), nil, body, &created); err != nil {
		// Another process may have created it between the list and the POST.
		if err2 := c.Do(ctx, http.MethodGet, d.tablesPath(), nil, nil, &tables); err2 == nil {
			for _, t := range tables.List {
				if t.Title == nocodbTableName {
					return t.ID, nil
				}
			}
		}
		return "", fmt.Errorf("create table %s: %w", nocodbTableName, err)
	}
	if created.ID == "" {
		return "", fmt.Errorf("create table %s: no table id in response", nocodbTableName)
	}
	return created.ID, nil
}

func nocodbFieldType(k fieldmap.Kind) string {
	switch k {
	case fieldmap.KindText, fieldmap.KindJSON, fieldmap.KindAttachments:
		return "LongText"
	case fieldmap.KindBool:
		return "Checkbox"
	case fieldmap.KindFloat:
		return "Decimal"
	case fieldmap.KindInt:
		return "Number"
	default:
		return "SingleLineText"
	}
}

func (d *nocodbDialect) ListRecords(ctx context.Context, c *Client, tableRef string) ([]Record, error) {
	var list nocodbList
	if err := c.Do(ctx, http.MethodGet, d.recordsPath(tableRef), nil, nil, &list); err != nil {
		return nil, err
	}
	out := make([]Record, len(list.List))
	for i, r := range list.List {
		out[i] = Record{ID: r.ID.String(), Fields: r.Fields}
	}
	return out, nil
}

func (d *nocodbDialect) CreateRecords(ctx context.Context, c *Client, tableRef string, recs []map[string]any) ([]string, error) {
	payload := make([]map[string]any, len(recs))
	for i, rec := range recs {
		payload[i] = map[string]any{"fields": rec}
	}
	var resp []nocodbRecord
	if err := c.Do(ctx, http.MethodPost, d.recordsPath(tableRef), nil, payload, &resp); err != nil {
		return nil, err
	}
	ids := make([]string, len(resp))
	for i, r := range resp {
		ids[i] = r.ID.String()
	}
	return ids, nil
}

// UpdateRecord looks up the NocoDB row id for the entry, then patches
// that row. The v3 batch PATCH addresses rows by their own id, not by
// an arbitrary column.
func (d *nocodbDialect) UpdateRecord(ctx context.Context, c *Client, tableRef, keyColumn, key string, rec map[string]any) (string, error) {
	existing, err := d.ListRecords(ctx, c, tableRef)
	if err != nil {
		return "", err
	}
	var rowID string
	for _, r := range existing {
		if v, ok := r.Fields[keyColumn].(string); ok && v == key {
			rowID = r.ID
			break
		}
	}
	if rowID == "" {
		return "", fmt.Errorf("no record with %s=%s", keyColumn, key)
	}
	payload := []map[string]any{{"id": json.RawMessage(rowID), "fields": rec}}
	if err := c.Do(ctx, http.MethodPatch, d.recordsPath(tableRef), nil, payload, nil); err != nil {
		return "", err
	}
	return rowID, nil
}
