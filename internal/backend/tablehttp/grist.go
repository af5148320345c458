package tablehttp

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"journalsync/internal/fieldmap"
)

const gristTableName = "JournalEntries"

// gristDialect talks to a Grist document. Grist addresses tables by
// name rather than by an opaque id, and its batch PATCH can match rows
// on a required column, so updates need no separate row-id lookup.
type gristDialect struct {
	docID string
}

// Grist returns the dialect for a Grist document.
func Grist(docID string) Dialect {
	return &gristDialect{docID: docID}
}

func (d *gristDialect) Name() string { return "grist" }

func (d *gristDialect) Fields() []fieldmap.Field {
	return standardFields(map[string]string{
		"id":                "JournalId",
		"media_attachments": "MediaAttachments",
	})
}

// Grist columns here are untyped text, so booleans and lists are
// stored as strings.
func (d *gristDialect) Options() fieldmap.Options {
	return fieldmap.Options{BoolStrings: true, ListsAsJSON: true}
}

func (d *gristDialect) ChunkSize() int { return 0 }

func (d *gristDialect) recordsPath() string {
	return fmt.Sprintf("api/docs/%s/tables/%s/records", d.docID, gristTableName)
}

type gristRecord struct {
	ID     int64          `json:"id"`
	Fields map[string]any `json:"fields"`
}

type gristRecordList struct {
	Records []gristRecord `json:"records"`
}

func (d *gristDialect) EnsureSchema(ctx context.Context, c *Client) (string, error) {
	var tables struct {
		Tables []struct {
			ID string `json:"id"`
		} `json:"tables"`
	}
	path := fmt.Sprintf("api/docs/%s/tables", d.docID)
	if err := c.Do(ctx, http.MethodGet, path, nil, nil, &tables); err != nil {
		return "", fmt.Errorf("list tables: %w", err)
	}
	for _, t := range tables.Tables {
		if t.ID == gristTableName {
			return gristTableName, nil
		}
	}

	cols := make([]map[string]any, 0, len(d.Fields()))
	for _, f := range d.Fields() {
		cols = append(cols, map[string]any{
			"id":     f.Column,
			"fields": map[string]any{"label": f.Column},
		})
	}
	body := map[string]any{
		"tables": []map[string]any{{"id": gristTableName, "columns": cols}},
	}
	if err := c.Do(ctx, http.MethodPost, path, nil, body, nil); err != nil {
		// Another process may have created it between the list and the POST.
		if err2 := c.Do(ctx, http.MethodGet, path, nil, nil, &tables); err2 == nil {
			for _, t := range tables.Tables {
				if t.ID == gristTableName {
					return gristTableName, nil
				}
			}
		}
		return "", fmt.Errorf("create table %s: %w", gristTableName, err)
	}
	return gristTableName, nil
}

func (d *gristDialect) ListRecords(ctx context.Context, c *Client, _ string) ([]Record, error) {
	var list gristRecordList
	if err := c.Do(ctx, http.MethodGet, d.recordsPath(), nil, nil, &list); err != nil {
		return nil, err
	}
	out := make([]Record, len(list.Records))
	for i, r := range list.Records {
		out[i] = Record{ID: strconv.FormatInt(r.ID, 10), Fields: r.Fields}
	}
	return out, nil
}

func (d *gristDialect) CreateRecords(ctx context.Context, c *Client, _ string, recs []map[string]any) ([]string, error) {
	payload := make([]map[string]any, len(recs))
	for i, rec := range recs {
		payload[i] = map[string]any{"fields": rec}
	}
	var resp gristRecordList
	if err := c.Do(ctx, http.MethodPost, d.recordsPath(), nil, map[string]any{"records": payload}, &resp); err != nil {
		return nil, err
	}
	ids := make([]string, len(resp.Records))
	for i, r := range resp.Records {
		ids[i] = strconv.FormatInt(r.ID, 10)
	}
	return ids, nil
}

func (d *gristDialect) UpdateRecord(ctx context.Context, c *Client, _, keyColumn, key string, rec map[string]any) (string, error) {
	// The key column lives inside fields and must not be replaced by
	// the match clause, so it stays in rec as well.
	payload := map[string]any{
		"records": []map[string]any{{
			"require": map[string]any{keyColumn: key},
			"fields":  rec,
		}},
	}
	if err := c.Do(ctx, http.MethodPatch, d.recordsPath(), nil, payload, nil); err != nil {
		return "", err
	}
	return "", nil
}
