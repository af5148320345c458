package tablehttp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"journalsync/internal/fieldmap"
)

const teableTableName = "JourneyEntries"

// teableDialect talks to Teable (https://teable.io). The client's base
// URL must end in /api; authentication is a Bearer token header.
type teableDialect struct {
	baseID string
}

// Teable returns the dialect for a Teable base.
func Teable(baseID string) Dialect {
	return &teableDialect{baseID: baseID}
}

func (d *teableDialect) Name() string { return "teable" }

func (d *teableDialect) Fields() []fieldmap.Field {
	return standardFields(nil)
}

// Teable has native checkboxes and no JSON list columns, so booleans
// stay booleans and lists are stored comma separated.
func (d *teableDialect) Options() fieldmap.Options {
	return fieldmap.Options{}
}

func (d *teableDialect) ChunkSize() int { return 0 }

type teableTable struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type teableRecord struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
}

type teableRecordList struct {
	Records []teableRecord `json:"records"`
}

func (d *teableDialect) EnsureSchema(ctx context.Context, c *Client) (string, error) {
	var tables []teableTable
	if err := c.Do(ctx, http.MethodGet, fmt.Sprintf("base/%s/table", d.baseID), nil, nil, &tables); err != nil {
		return "", fmt.Errorf("list tables: %w", err)
	}
	for _, t := range tables {
		if t.Name == teableTableName {
			return t.ID, nil
		}
	}

	cols := make([]map[string]string, 0, len(d.Fields()))
	for _, f := range d.Fields() {
		cols = append(cols, map[string]string{"name": f.Column, "type": teableFieldType(f.Kind)})
	}
	var created teableTable
	body := map[string]any{"name": teableTableName, "fields": cols}
	if err := c.Do(ctx, http.MethodPost, fmt.Sprintf("base/%s/table", d.baseID), nil, body, &created); err != nil {
		// Another process may have created it between the list and the POST.
		if id := d.findTable(ctx, c); id != "" {
			return id, nil
		}
		return "", fmt.Errorf("create table %s: %w", teableTableName, err)
	}
	return created.ID, nil
}

func (d *teableDialect) findTable(ctx context.Context, c *Client) string {
	var tables []teableTable
	if err := c.Do(ctx, http.MethodGet, fmt.Sprintf("base/%s/table", d.baseID), nil, nil, &tables); err != nil {
		return ""
	}
	for _, t := range tables {
		if t.Name == teableTableName {
			return t.ID
		}
	}
	return ""
}

func teableFieldType(k fieldmap.Kind) string {
	switch k {
	case fieldmap.KindText, fieldmap.KindJSON, fieldmap.KindAttachments:
		return "longText"
	case fieldmap.KindBool:
		return "checkbox"
	case fieldmap.KindInt, fieldmap.KindFloat:
		return "number"
	default:
		return "singleLineText"
	}
}

func (d *teableDialect) ListRecords(ctx context.Context, c *Client, tableRef string) ([]Record, error) {
	var list teableRecordList
	if err := c.Do(ctx, http.MethodGet, fmt.Sprintf("table/%s/record", tableRef), nil, nil, &list); err != nil {
		return nil, err
	}
	out := make([]Record, len(list.Records))
	for i, r := range list.Records {
		out[i] = Record{ID: r.ID, Fields: r.Fields}
	}
	return out, nil
}

func (d *teableDialect) CreateRecords(ctx context.Context, c *Client, tableRef string, recs []map[string]any) ([]string, error) {
	payload := make([]map[string]any, len(recs))
	for i, rec := range recs {
		payload[i] = map[string]any{"fields": rec}
	}
	var resp teableRecordList
	err := c.Do(ctx, http.MethodPost, fmt.Sprintf("table/%s/record", tableRef), nil, map[string]any{"records": payload}, &resp)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(resp.Records))
	for i, r := range resp.Records {
		ids[i] = r.ID
	}
	return ids, nil
}

// UpdateRecord resolves the Teable row id by filtering on the entry id
// column, then patches that row.
func (d *teableDialect) UpdateRecord(ctx context.Context, c *Client, tableRef, keyColumn, key string, rec map[string]any) (string, error) {
	where, err := json.Marshal(map[string]any{"field": keyColumn, "op": "is", "value": key})
	if err != nil {
		return "", err
	}
	var list teableRecordList
	q := url.Values{"where": {string(where)}}
	if err := c.Do(ctx, http.MethodGet, fmt.Sprintf("table/%s/record", tableRef), q, nil, &list); err != nil {
		return "", err
	}
	if len(list.Records) == 0 {
		return "", fmt.Errorf("no record with %s=%s", keyColumn, key)
	}
	rowID := list.Records[0].ID
	body := map[string]any{"fields": rec}
	if err := c.Do(ctx, http.MethodPatch, fmt.Sprintf("table/%s/record/%s", tableRef, rowID), nil, body, nil); err != nil {
		return "", err
	}
	return rowID, nil
}
