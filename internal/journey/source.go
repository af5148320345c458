package journey

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"journalsync/internal/domain"
)

// Source reads a Journey.Cloud export directory: one subdirectory per
// entry, named by the entry's origin id, containing an <id>.json sidecar
// plus the attachment files it references.
//
// Fetching is restartable: the directory is re-read on every call and no
// cursor state is kept. Per-entry failures are logged and skipped; the
// fetch always returns whatever could be parsed.
type Source struct {
	Root   string
	Logger *slog.Logger
}

// NewSource validates the export root up front so a bad path fails fast.
func NewSource(root string, logger *slog.Logger) (*Source, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("export path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("export path %s is not a directory", root)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Source{Root: root, Logger: logger}, nil
}

// FetchEntries parses every entry directory under the export root.
func (s *Source) FetchEntries(ctx context.Context) ([]domain.JournalEntry, error) {
	dirs, err := os.ReadDir(s.Root)
	if err != nil {
		return nil, fmt.Errorf("read export root: %w", err)
	}

	var entries []domain.JournalEntry
	for _, d := range dirs {
		if err := ctx.Err(); err != nil {
			return entries, err
		}
		if !d.IsDir() {
			continue
		}
		entry, ok := s.loadEntry(d.Name())
		if ok {
			entries = append(entries, entry)
		}
	}
	s.Logger.Info("fetched journey export", "root", s.Root, "entries", len(entries))
	return entries, nil
}

// loadEntry reads and converts one entry directory. Failures are
// warnings, never fatal to the batch.
func (s *Source) loadEntry(id string) (domain.JournalEntry, bool) {
	dir := filepath.Join(s.Root, id)
	sidecar := filepath.Join(dir, id+".json")

	raw, err := os.ReadFile(sidecar)
	if err != nil {
		s.Logger.Warn("sidecar missing, skipping entry", "entry", id, "path", sidecar)
		return domain.JournalEntry{}, false
	}
	var exp Entry
	if err := json.Unmarshal(raw, &exp); err != nil {
		s.Logger.Warn("sidecar is not valid json, skipping entry", "entry", id, "error", err)
		return domain.JournalEntry{}, false
	}

	entry, err := ToCanonical(exp, raw)
	if err != nil {
		s.Logger.Warn("skipping entry", "entry", id, "error", err)
		return domain.JournalEntry{}, false
	}
	entry.MediaAttachments = s.resolveAttachments(dir, id, exp.Attachments)
	return entry, true
}

// resolveAttachments matches the sidecar's ordered attachment list against
// files physically present in the entry directory. Missing files are
// dropped with a warning; the order of the remaining ones is preserved.
func (s *Source) resolveAttachments(dir, id string, names []string) []domain.MediaAttachment {
	var atts []domain.MediaAttachment
	for _, name := range names {
		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if err != nil {
			s.Logger.Warn("attachment file not found", "entry", id, "file", name)
			continue
		}
		atts = append(atts, domain.MediaAttachment{
			ID:       name,
			FileID:   name,
			Path:     path,
			Filename: name,
			Size:     info.Size(),
		})
	}
	return atts
}
