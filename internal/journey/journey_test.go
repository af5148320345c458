package journey_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"journalsync/internal/journey"
)

func writeEntry(t *testing.T, root, id string, sidecar map[string]any, attachments ...string) {
	t.Helper()
	dir := filepath.Join(root, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	data, err := json.Marshal(sidecar)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, id+".json"), data, 0o644); err != nil {
		t.Fatal(err)
	}
	for _, name := range attachments {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("media"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestFetchEntries(t *testing.T) {
	root := t.TempDir()
	writeEntry(t, root, "abc123", map[string]any{
		"id":            "abc123",
		"dateOfJournal": "2024-03-01T10:00:00.000Z",
		"updatedAt":     "2024-03-02T09:15:00.000Z",
		"text":          "walked up the hill",
		"timezone":      "Europe/Paris",
		"favourite":     true,
		"tags":          []string{"walk", " spring ", ""},
		"attachments":   []string{"photo.jpg", "missing.png"},
	}, "photo.jpg")

	src, err := journey.NewSource(root, nil)
	if err != nil {
		t.Fatalf("new source: %v", err)
	}
	entries, err := src.FetchEntries(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	e := entries[0]
	if e.ID != "abc123" {
		t.Errorf("id = %q", e.ID)
	}
	if !e.EntryAt.Equal(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("entry_at = %v", e.EntryAt)
	}
	if e.ModifiedAt == nil || !e.ModifiedAt.Equal(time.Date(2024, 3, 2, 9, 15, 0, 0, time.UTC)) {
		t.Errorf("modified_at = %v", e.ModifiedAt)
	}
	if e.TextContent == nil || *e.TextContent != "walked up the hill" {
		t.Errorf("text = %v", e.TextContent)
	}
	if !e.IsFavorite {
		t.Error("favourite lost")
	}
	if len(e.Tags) != 2 || e.Tags[0] != "walk" || e.Tags[1] != "spring" {
		t.Errorf("tags = %v", e.Tags)
	}
	if e.SourceAppName != journey.AppName {
		t.Errorf("source app = %q", e.SourceAppName)
	}
	if e.SourceRawData == "" {
		t.Error("raw sidecar payload must be retained")
	}
	// The missing attachment is dropped, the present one resolved.
	if len(e.MediaAttachments) != 1 {
		t.Fatalf("attachments = %v", e.MediaAttachments)
	}
	att := e.MediaAttachments[0]
	if att.Filename != "photo.jpg" || att.Size != int64(len("media")) {
		t.Errorf("attachment = %+v", att)
	}
}

func TestFetchSkipsBrokenEntries(t *testing.T) {
	root := t.TempDir()
	// Good entry.
	writeEntry(t, root, "good", map[string]any{
		"id": "good", "dateOfJournal": "2024-03-01T10:00:00.000Z", "text": "ok",
	})
	// No usable timestamp: skipped, not defaulted to now.
	writeEntry(t, root, "notime", map[string]any{
		"id": "notime", "text": "when?",
	})
	// Malformed sidecar.
	dir := filepath.Join(root, "broken")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{nope"), 0o644); err != nil {
		t.Fatal(err)
	}
	// Directory without any sidecar.
	if err := os.MkdirAll(filepath.Join(root, "empty"), 0o755); err != nil {
		t.Fatal(err)
	}

	src, err := journey.NewSource(root, nil)
	if err != nil {
		t.Fatalf("new source: %v", err)
	}
	entries, err := src.FetchEntries(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != "good" {
		t.Fatalf("entries = %v", entries)
	}
}

func TestNewSourceRejectsBadPath(t *testing.T) {
	if _, err := journey.NewSource(filepath.Join(t.TempDir(), "nope"), nil); err == nil {
		t.Error("expected error for missing directory")
	}
	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := journey.NewSource(file, nil); err == nil {
		t.Error("expected error for non-directory path")
	}
}

func TestToCanonicalHTMLDerivesText(t *testing.T) {
	exp := journey.Entry{
		ID:            "h1",
		DateOfJournal: "2024-03-01T10:00:00.000Z",
		Text:          "<p>Hello <strong>world</strong></p>",
		Type:          journey.TypeHTML,
	}
	e, err := journey.ToCanonical(exp, []byte("{}"))
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if e.RichTextContent == nil || *e.RichTextContent != exp.Text {
		t.Errorf("rich text = %v", e.RichTextContent)
	}
	if e.TextContent == nil || *e.TextContent == "" || *e.TextContent == exp.Text {
		t.Errorf("derived text = %v", e.TextContent)
	}
}

func TestToCanonicalMarkdownKeepsRichOnly(t *testing.T) {
	exp := journey.Entry{
		ID:            "m1",
		DateOfJournal: "2024-03-01T10:00:00.000Z",
		Text:          "# Heading",
		Type:          journey.TypeMarkdown,
	}
	e, err := journey.ToCanonical(exp, []byte("{}"))
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if e.RichTextContent == nil || *e.RichTextContent != "# Heading" {
		t.Errorf("rich text = %v", e.RichTextContent)
	}
	if e.TextContent != nil {
		t.Errorf("plaintext should stay unset for markdown, got %v", e.TextContent)
	}
}

func TestToCanonicalRequiresTimestamp(t *testing.T) {
	if _, err := journey.ToCanonical(journey.Entry{ID: "x", Text: "body"}, []byte("{}")); err == nil {
		t.Fatal("expected error when both timestamps are absent")
	}
	// createdAt alone is an accepted fallback.
	e, err := journey.ToCanonical(journey.Entry{ID: "x", CreatedAt: "2024-03-01T10:00:00.000Z"}, []byte("{}"))
	if err != nil {
		t.Fatalf("createdAt fallback: %v", err)
	}
	if !e.EntryAt.Equal(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("entry_at = %v", e.EntryAt)
	}
}

func TestFromCanonicalPrefersRawPayload(t *testing.T) {
	raw := `{"id":"r1","dateOfJournal":"2024-03-01T10:00:00.000Z","text":"original body","tags":["a"],"sentiment":0.5}`
	e, err := journey.ToCanonical(journey.Entry{ID: "r1", DateOfJournal: "2024-03-01T10:00:00.000Z", Text: "original body"}, []byte(raw))
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	exp := journey.FromCanonical(e)
	if exp.Text != "original body" || exp.Sentiment != 0.5 || len(exp.Tags) != 1 {
		t.Errorf("raw payload not honored: %+v", exp)
	}
}

func TestFromCanonicalRebuildParity(t *testing.T) {
	orig := journey.Entry{
		ID:            "p1",
		DateOfJournal: "2024-03-01T10:00:00.000Z",
		UpdatedAt:     "2024-03-02T09:00:00.000Z",
		Text:          "on the summit",
		Timezone:      "Europe/Zurich",
		Favourite:     true,
		Sentiment:     1.5,
		Activity:      3,
		Tags:          []string{"hike"},
	}
	lat, lng := 46.55, 7.98
	name := "Eiger"
	orig.Location = &journey.Location{Lat: &lat, Lng: &lng, Name: &name}
	degC := -4.5
	cond := "Snow"
	orig.Weather = &journey.Weather{DegreeC: &degC, Description: &cond}

	e, err := journey.ToCanonical(orig, nil)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	// No raw payload survived, so the wire form is rebuilt field by field.
	e.SourceRawData = ""
	got := journey.FromCanonical(e)

	if got.ID != orig.ID || got.DateOfJournal != orig.DateOfJournal || got.UpdatedAt != orig.UpdatedAt {
		t.Errorf("identity/time mismatch: %+v", got)
	}
	if got.Text != orig.Text || got.Timezone != orig.Timezone {
		t.Errorf("content mismatch: %+v", got)
	}
	if !got.Favourite || got.Sentiment != 1.5 || got.Activity != 3 {
		t.Errorf("context mismatch: %+v", got)
	}
	if len(got.Tags) != 1 || got.Tags[0] != "hike" {
		t.Errorf("tags = %v", got.Tags)
	}
	if got.Location == nil || *got.Location.Lat != lat || *got.Location.Name != name {
		t.Errorf("location = %+v", got.Location)
	}
	if got.Weather == nil || *got.Weather.DegreeC != degC || *got.Weather.Description != cond {
		t.Errorf("weather = %+v", got.Weather)
	}
}

func TestRoundTripThroughMap(t *testing.T) {
	// An entry fetched from an export keeps enough to reproduce the
	// export form even after passing through the canonical projection.
	root := t.TempDir()
	writeEntry(t, root, "rt1", map[string]any{
		"id":            "rt1",
		"dateOfJournal": "2024-03-01T10:00:00.000Z",
		"text":          "round trip",
		"type":          "markdown",
	})
	src, err := journey.NewSource(root, nil)
	if err != nil {
		t.Fatal(err)
	}
	entries, err := src.FetchEntries(context.Background())
	if err != nil || len(entries) != 1 {
		t.Fatalf("fetch: %v (%d entries)", err, len(entries))
	}
	exp := journey.FromCanonical(entries[0])
	if exp.ID != "rt1" || exp.Text != "round trip" || exp.Type != "markdown" {
		t.Errorf("round trip lost data: %+v", exp)
	}
}
