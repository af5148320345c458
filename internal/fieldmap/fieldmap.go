// Package fieldmap maintains the mapping between canonical journal fields
// and one backend's column names. The forward and reverse maps are derived
// from a single declarative table so they cannot drift apart, and every
// field's codec is resolved once at table construction, not per record.
package fieldmap

import (
	"errors"
	"fmt"
	"time"

	"journalsync/internal/domain"
)

// Kind selects the codec used for a column.
type Kind int

const (
	KindString Kind = iota
	KindText
	KindDateTime
	KindBool
	KindStringList
	KindInt
	KindFloat
	KindJSON
	KindAttachments
)

// Field binds one canonical entry field to a backend column.
type Field struct {
	Canonical string
	Column    string
	Kind      Kind
}

// Options capture what the backend's column types can hold.
type Options struct {
	// BoolStrings encodes booleans as strings instead of native booleans.
	BoolStrings bool
	// BoolTrue/BoolFalse override the string literals ("True"/"False"
	// when empty, matching backends that store str(bool)).
	BoolTrue  string
	BoolFalse string
	// ListsAsJSON stores list fields as JSON array strings; otherwise
	// they are comma-joined. Decoding sniffs a leading '[' either way.
	ListsAsJSON bool
}

// Table is a resolved bidirectional mapping for one backend schema.
type Table struct {
	fields      []Field
	byCanonical map[string]Field
	opts        Options
}

// ErrMissingEntryAt marks a record that cannot establish the mandatory
// entry timestamp; such records are skipped, never defaulted.
var ErrMissingEntryAt = errors.New("record has no usable entry_at value")

// New validates the declarative field list and derives both lookup maps.
func New(fields []Field, opts Options) (*Table, error) {
	t := &Table{
		fields:      fields,
		byCanonical: make(map[string]Field, len(fields)),
		opts:        opts,
	}
	if t.opts.BoolTrue == "" {
		t.opts.BoolTrue = "True"
	}
	if t.opts.BoolFalse == "" {
		t.opts.BoolFalse = "False"
	}
	columns := make(map[string]string, len(fields))
	for _, f := range fields {
		acc, ok := accessors[f.Canonical]
		if !ok {
			return nil, fmt.Errorf("unknown canonical field %q", f.Canonical)
		}
		if acc.kind != f.Kind && !kindCompatible(acc.kind, f.Kind) {
			return nil, fmt.Errorf("field %q cannot use kind %d", f.Canonical, f.Kind)
		}
		if prev, dup := t.byCanonical[f.Canonical]; dup {
			return nil, fmt.Errorf("canonical field %q mapped twice (%s, %s)", f.Canonical, prev.Column, f.Column)
		}
		if prev, dup := columns[f.Column]; dup {
			return nil, fmt.Errorf("column %q mapped twice (%s, %s)", f.Column, prev, f.Canonical)
		}
		t.byCanonical[f.Canonical] = f
		columns[f.Column] = f.Canonical
	}
	if _, ok := t.byCanonical["id"]; !ok {
		return nil, errors.New("mapping table must bind the id field")
	}
	if _, ok := t.byCanonical["entry_at"]; !ok {
		return nil, errors.New("mapping table must bind the entry_at field")
	}
	return t, nil
}

// kindCompatible allows text columns for string fields and vice versa;
// the distinction only matters for schema provisioning.
func kindCompatible(a, b Kind) bool {
	return (a == KindString || a == KindText) && (b == KindString || b == KindText)
}

// Fields returns the declarative table, in declaration order.
func (t *Table) Fields() []Field { return t.fields }

// Column resolves a canonical field name to its backend column.
func (t *Table) Column(canonical string) (string, bool) {
	f, ok := t.byCanonical[canonical]
	return f.Column, ok
}

// KeyColumn is the column carrying the canonical entry id.
func (t *Table) KeyColumn() string {
	return t.byCanonical["id"].Column
}

// ModifiedColumn is the column carrying modified_at, empty if unmapped.
func (t *Table) ModifiedColumn() string {
	f, ok := t.byCanonical["modified_at"]
	if !ok {
		return ""
	}
	return f.Column
}

// Encode builds a sparse backend record: absent canonical fields are
// omitted entirely so partial updates never clobber remote data.
func (t *Table) Encode(e domain.JournalEntry) map[string]any {
	rec := make(map[string]any, len(t.fields))
	for _, f := range t.fields {
		val, present := accessors[f.Canonical].get(&e)
		if !present {
			continue
		}
		enc, err := t.encodeValue(f.Kind, val)
		if err != nil {
			// Encoding only fails for unmarshalable attachments, which
			// cannot happen for values built from our own types.
			continue
		}
		rec[f.Column] = enc
	}
	return rec
}

// Warning reports a field dropped during decode.
type Warning struct {
	Column string
	Value  any
	Err    error
}

func (w Warning) String() string {
	return fmt.Sprintf("column %s: value %v: %v", w.Column, w.Value, w.Err)
}

// Decode converts a backend record back to a canonical entry. Field
// coercion failures drop the field and are returned as warnings; a record
// with no parseable entry_at fails as a whole with ErrMissingEntryAt.
func (t *Table) Decode(rec map[string]any) (domain.JournalEntry, []Warning, error) {
	var e domain.JournalEntry
	var warnings []Warning
	for _, f := range t.fields {
		raw, ok := rec[f.Column]
		if !ok || raw == nil {
			continue
		}
		if s, isStr := raw.(string); isStr && s == "" {
			continue
		}
		val, err := t.decodeValue(f.Kind, raw)
		if err != nil {
			warnings = append(warnings, Warning{Column: f.Column, Value: raw, Err: err})
			continue
		}
		if err := accessors[f.Canonical].set(&e, val); err != nil {
			warnings = append(warnings, Warning{Column: f.Column, Value: raw, Err: err})
		}
	}
	if e.EntryAt.IsZero() {
		return domain.JournalEntry{}, warnings, ErrMissingEntryAt
	}
	return e, warnings, nil
}

// ModifiedAtOf extracts and parses the modified-at column of a raw record.
// The boolean is false when the column is absent or unparseable.
func (t *Table) ModifiedAtOf(rec map[string]any) (time.Time, bool) {
	col := t.ModifiedColumn()
	if col == "" {
		return time.Time{}, false
	}
	s, ok := rec[col].(string)
	if !ok || s == "" {
		return time.Time{}, false
	}
	ts, err := domain.ParseTime(s)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

// KeyOf extracts the canonical id column of a raw record.
func (t *Table) KeyOf(rec map[string]any) (string, bool) {
	v, ok := rec[t.KeyColumn()]
	if !ok || v == nil {
		return "", false
	}
	s := fmt.Sprintf("%v", v)
	return s, s != ""
}
