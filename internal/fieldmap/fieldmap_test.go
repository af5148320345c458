package fieldmap_test

import (
	"errors"
	"testing"
	"time"

	"journalsync/internal/domain"
	"journalsync/internal/fieldmap"
)

func sampleEntry(t *testing.T) domain.JournalEntry {
	t.Helper()
	e := domain.New(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC))
	e.ID = "entry-1"
	title := "Morning walk"
	e.Title = &title
	mod := time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC)
	e.ModifiedAt = &mod
	e.Tags = []string{"walk", "spring"}
	e.IsFavorite = true
	score := 1.5
	e.MoodScore = &score
	steps := 8000
	e.StepCount = &steps
	return e
}

func TestNewRejectsBadTables(t *testing.T) {
	cases := []struct {
		name   string
		fields []fieldmap.Field
	}{
		{"unknown canonical", []fieldmap.Field{
			{Canonical: "id", Column: "Id", Kind: fieldmap.KindString},
			{Canonical: "entry_at", Column: "EntryAt", Kind: fieldmap.KindDateTime},
			{Canonical: "favorite_color", Column: "Color", Kind: fieldmap.KindString},
		}},
		{"wrong kind", []fieldmap.Field{
			{Canonical: "id", Column: "Id", Kind: fieldmap.KindString},
			{Canonical: "entry_at", Column: "EntryAt", Kind: fieldmap.KindBool},
		}},
		{"duplicate canonical", []fieldmap.Field{
			{Canonical: "id", Column: "Id", Kind: fieldmap.KindString},
			{Canonical: "id", Column: "Id2", Kind: fieldmap.KindString},
			{Canonical: "entry_at", Column: "EntryAt", Kind: fieldmap.KindDateTime},
		}},
		{"duplicate column", []fieldmap.Field{
			{Canonical: "id", Column: "Same", Kind: fieldmap.KindString},
			{Canonical: "title", Column: "Same", Kind: fieldmap.KindString},
			{Canonical: "entry_at", Column: "EntryAt", Kind: fieldmap.KindDateTime},
		}},
		{"missing id", []fieldmap.Field{
			{Canonical: "entry_at", Column: "EntryAt", Kind: fieldmap.KindDateTime},
		}},
		{"missing entry_at", []fieldmap.Field{
			{Canonical: "id", Column: "Id", Kind: fieldmap.KindString},
		}},
	}
	for _, c := range cases {
		if _, err := fieldmap.New(c.fields, fieldmap.Options{}); err == nil {
			t.Errorf("%s: expected error", c.name)
		}
	}
}

func TestEncodeIsSparse(t *testing.T) {
	table, err := fieldmap.New(fieldmap.Canonical(), fieldmap.Options{})
	if err != nil {
		t.Fatalf("new table: %v", err)
	}
	e := sampleEntry(t)
	rec := table.Encode(e)

	if rec["id"] != "entry-1" {
		t.Errorf("id = %v", rec["id"])
	}
	if rec["title"] != "Morning walk" {
		t.Errorf("title = %v", rec["title"])
	}
	if rec["modified_at"] != "2024-03-02T08:00:00Z" {
		t.Errorf("modified_at = %v", rec["modified_at"])
	}
	if rec["tags"] != "walk, spring" {
		t.Errorf("tags = %v", rec["tags"])
	}
	if rec["is_favorite"] != true {
		t.Errorf("is_favorite = %v", rec["is_favorite"])
	}
	// Unset pointers never reach the record.
	for _, col := range []string{"notebook", "location_lat", "text_content", "created_at"} {
		if _, ok := rec[col]; ok {
			t.Errorf("unset field %q leaked into record", col)
		}
	}
}

func TestEncodeStringOptions(t *testing.T) {
	table, err := fieldmap.New(fieldmap.Canonical(), fieldmap.Options{BoolStrings: true, ListsAsJSON: true})
	if err != nil {
		t.Fatalf("new table: %v", err)
	}
	rec := table.Encode(sampleEntry(t))
	if rec["is_favorite"] != "True" {
		t.Errorf("is_favorite = %v, want \"True\"", rec["is_favorite"])
	}
	if rec["is_pinned"] != "False" {
		t.Errorf("is_pinned = %v, want \"False\"", rec["is_pinned"])
	}
	if rec["tags"] != `["walk","spring"]` {
		t.Errorf("tags = %v", rec["tags"])
	}
}

func TestRoundTrip(t *testing.T) {
	for _, opts := range []fieldmap.Options{
		{},
		{BoolStrings: true, ListsAsJSON: true},
	} {
		table, err := fieldmap.New(fieldmap.Canonical(), opts)
		if err != nil {
			t.Fatalf("new table: %v", err)
		}
		e := sampleEntry(t)
		decoded, warnings, err := table.Decode(table.Encode(e))
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(warnings) != 0 {
			t.Fatalf("unexpected warnings: %v", warnings)
		}
		if decoded.ID != e.ID {
			t.Errorf("id = %q", decoded.ID)
		}
		if !decoded.EntryAt.Equal(e.EntryAt) {
			t.Errorf("entry_at = %v", decoded.EntryAt)
		}
		if decoded.Title == nil || *decoded.Title != "Morning walk" {
			t.Errorf("title = %v", decoded.Title)
		}
		if decoded.ModifiedAt == nil || !decoded.ModifiedAt.Equal(*e.ModifiedAt) {
			t.Errorf("modified_at = %v", decoded.ModifiedAt)
		}
		if len(decoded.Tags) != 2 || decoded.Tags[0] != "walk" {
			t.Errorf("tags = %v", decoded.Tags)
		}
		if !decoded.IsFavorite || decoded.IsPinned {
			t.Errorf("flags = %v/%v", decoded.IsFavorite, decoded.IsPinned)
		}
		if decoded.StepCount == nil || *decoded.StepCount != 8000 {
			t.Errorf("step_count = %v", decoded.StepCount)
		}
	}
}

func TestDecodeWarnsAndDrops(t *testing.T) {
	table, err := fieldmap.New(fieldmap.Canonical(), fieldmap.Options{})
	if err != nil {
		t.Fatalf("new table: %v", err)
	}
	rec := map[string]any{
		"id":         "entry-1",
		"entry_at":   "2024-03-01T10:00:00Z",
		"mood_score": "not a number",
		"title":      "still fine",
	}
	e, warnings, err := table.Decode(rec)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(warnings) != 1 || warnings[0].Column != "mood_score" {
		t.Fatalf("warnings = %v", warnings)
	}
	if e.MoodScore != nil {
		t.Error("bad field must be dropped, not defaulted")
	}
	if e.Title == nil || *e.Title != "still fine" {
		t.Error("good fields must survive a bad sibling")
	}
}

func TestDecodeMissingEntryAt(t *testing.T) {
	table, err := fieldmap.New(fieldmap.Canonical(), fieldmap.Options{})
	if err != nil {
		t.Fatalf("new table: %v", err)
	}
	for _, rec := range []map[string]any{
		{"id": "x"},
		{"id": "x", "entry_at": ""},
		{"id": "x", "entry_at": "not-a-date"},
	} {
		if _, _, err := table.Decode(rec); !errors.Is(err, fieldmap.ErrMissingEntryAt) {
			t.Errorf("Decode(%v) err = %v, want ErrMissingEntryAt", rec, err)
		}
	}
}

func TestDecodeListFlavors(t *testing.T) {
	table, err := fieldmap.New(fieldmap.Canonical(), fieldmap.Options{})
	if err != nil {
		t.Fatalf("new table: %v", err)
	}
	base := map[string]any{"id": "x", "entry_at": "2024-03-01T10:00:00Z"}
	cases := []struct {
		raw  any
		want []string
	}{
		{"a, b, c", []string{"a", "b", "c"}},
		{`["a","b"]`, []string{"a", "b"}},
		{[]any{"a", "b"}, []string{"a", "b"}},
	}
	for _, c := range cases {
		rec := map[string]any{"tags": c.raw}
		for k, v := range base {
			rec[k] = v
		}
		e, _, err := table.Decode(rec)
		if err != nil {
			t.Fatalf("decode tags=%v: %v", c.raw, err)
		}
		if len(e.Tags) != len(c.want) {
			t.Errorf("tags from %v = %v, want %v", c.raw, e.Tags, c.want)
			continue
		}
		for i := range c.want {
			if e.Tags[i] != c.want[i] {
				t.Errorf("tags from %v = %v, want %v", c.raw, e.Tags, c.want)
				break
			}
		}
	}
}

func TestKeyAndModifiedHelpers(t *testing.T) {
	table, err := fieldmap.New(fieldmap.Canonical(), fieldmap.Options{})
	if err != nil {
		t.Fatalf("new table: %v", err)
	}
	rec := map[string]any{"id": "entry-1", "modified_at": "2024-03-02T08:00:00Z"}
	if id, ok := table.KeyOf(rec); !ok || id != "entry-1" {
		t.Errorf("KeyOf = %q, %v", id, ok)
	}
	ts, ok := table.ModifiedAtOf(rec)
	if !ok || !ts.Equal(time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC)) {
		t.Errorf("ModifiedAtOf = %v, %v", ts, ok)
	}
	if _, ok := table.KeyOf(map[string]any{}); ok {
		t.Error("KeyOf on empty record should fail")
	}
	if _, ok := table.ModifiedAtOf(map[string]any{"modified_at": "garbage"}); ok {
		t.Error("unparseable modified_at should not be reported")
	}
}
