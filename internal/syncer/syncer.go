// Package syncer reconciles a journal source against a destination
// backend: new entries are created, entries whose modification time
// moved forward are updated, everything else is left alone. Reruns over
// an unchanged source are no-ops.
package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"journalsync/internal/backend"
	"journalsync/internal/domain"
)

// Report summarizes one sync run.
type Report struct {
	Backend string
	Fetched int
	Created int
	Updated int
	Skipped int
	Results []backend.Result
}

// Manager drives one source/destination pair.
type Manager struct {
	Source backend.Source
	Dest   backend.Destination
	Logger *slog.Logger
}

func New(src backend.Source, dest backend.Destination, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{Source: src, Dest: dest, Logger: logger}
}

// Run fetches the source, diffs against the destination and applies
// the difference. On a backend failure it stops immediately and
// returns the partial report alongside the error, so nothing is
// retried blindly against a backend in an unknown state.
func (m *Manager) Run(ctx context.Context) (Report, error) {
	report := Report{Backend: m.Dest.Name()}

	entries, err := m.Source.FetchEntries(ctx)
	if err != nil {
		return report, fmt.Errorf("fetch entries: %w", err)
	}
	report.Fetched = len(entries)
	if len(entries) == 0 {
		m.Logger.Info("source is empty, nothing to sync")
		return report, nil
	}

	existingIDs, err := m.Dest.ExistingEntryIDs(ctx)
	if err != nil {
		return report, fmt.Errorf("existing ids: %w", err)
	}
	modified, err := m.Dest.ExistingModifiedAt(ctx)
	if err != nil {
		return report, fmt.Errorf("existing timestamps: %w", err)
	}

	existing := make(map[string]bool, len(existingIDs))
	for _, id := range existingIDs {
		existing[id] = true
	}

	var toCreate, toUpdate []domain.JournalEntry
	for _, e := range entries {
		switch {
		case !existing[e.ID]:
			toCreate = append(toCreate, e)
		case shouldUpdate(e, modified):
			toUpdate = append(toUpdate, e)
		default:
			report.Skipped++
		}
	}
	m.Logger.Info("sync plan ready",
		"backend", m.Dest.Name(),
		"fetched", report.Fetched,
		"to_create", len(toCreate),
		"to_update", len(toUpdate),
		"skipped", report.Skipped)

	if len(toCreate) > 0 {
		results, err := m.Dest.RegisterEntries(ctx, toCreate)
		report.Results = append(report.Results, results...)
		report.Created = len(results)
		if err != nil {
			return report, fmt.Errorf("register entries: %w", err)
		}
	}
	if len(toUpdate) > 0 {
		results, err := m.Dest.UpdateEntries(ctx, toUpdate)
		report.Results = append(report.Results, results...)
		report.Updated = len(results)
		if err != nil {
			return report, fmt.Errorf("update entries: %w", err)
		}
	}
	return report, nil
}

// shouldUpdate is true only when both sides carry a modification time
// and the incoming one is strictly newer. Equal or unordered
// timestamps mean skip; updating on missing data would overwrite
// blindly.
func shouldUpdate(e domain.JournalEntry, modified map[string]time.Time) bool {
	if e.ModifiedAt == nil {
		return false
	}
	stored, ok := modified[e.ID]
	if !ok {
		return false
	}
	return e.ModifiedAt.After(stored)
}
