package syncer_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"journalsync/internal/backend"
	"journalsync/internal/domain"
	"journalsync/internal/syncer"
)

type fakeSource struct {
	entries []domain.JournalEntry
	err     error
}

func (s *fakeSource) FetchEntries(ctx context.Context) ([]domain.JournalEntry, error) {
	return s.entries, s.err
}

// fakeDest records what the manager asked of it and mirrors creations
// and updates into its stored state, so reruns see the new reality.
type fakeDest struct {
	ids        map[string]time.Time
	hasModified map[string]bool
	created    [][]string
	updated    [][]string
	failCreate error
	failUpdate error
}

func newFakeDest() *fakeDest {
	return &fakeDest{ids: map[string]time.Time{}, hasModified: map[string]bool{}}
}

func (d *fakeDest) put(id string, modifiedAt *time.Time) {
	if modifiedAt != nil {
		d.ids[id] = *modifiedAt
		d.hasModified[id] = true
	} else {
		d.ids[id] = time.Time{}
		d.hasModified[id] = false
	}
}

func (d *fakeDest) Name() string { return "fake" }

func (d *fakeDest) RegisterEntries(ctx context.Context, entries []domain.JournalEntry) ([]backend.Result, error) {
	if d.failCreate != nil {
		return nil, d.failCreate
	}
	var batch []string
	var results []backend.Result
	for _, e := range entries {
		d.put(e.ID, e.ModifiedAt)
		batch = append(batch, e.ID)
		results = append(results, backend.Result{EntryID: e.ID, Action: backend.ActionCreate})
	}
	d.created = append(d.created, batch)
	return results, nil
}

func (d *fakeDest) UpdateEntries(ctx context.Context, entries []domain.JournalEntry) ([]backend.Result, error) {
	if d.failUpdate != nil {
		return nil, d.failUpdate
	}
	var batch []string
	var results []backend.Result
	for _, e := range entries {
		d.put(e.ID, e.ModifiedAt)
		batch = append(batch, e.ID)
		results = append(results, backend.Result{EntryID: e.ID, Action: backend.ActionUpdate})
	}
	d.updated = append(d.updated, batch)
	return results, nil
}

func (d *fakeDest) ExistingEntryIDs(ctx context.Context) ([]string, error) {
	var ids []string
	for id := range d.ids {
		ids = append(ids, id)
	}
	return ids, nil
}

func (d *fakeDest) ExistingModifiedAt(ctx context.Context) (map[string]time.Time, error) {
	out := map[string]time.Time{}
	for id, ts := range d.ids {
		if d.hasModified[id] {
			out[id] = ts
		}
	}
	return out, nil
}

func entry(id string, modified *time.Time) domain.JournalEntry {
	e := domain.New(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC))
	e.ID = id
	e.ModifiedAt = modified
	return e
}

func ts(day int) *time.Time {
	t := time.Date(2024, 3, day, 12, 0, 0, 0, time.UTC)
	return &t
}

func TestRunPartitionsEntries(t *testing.T) {
	dest := newFakeDest()
	dest.put("kept", ts(5))     // incoming is older
	dest.put("stale", ts(1))    // incoming is newer
	dest.put("equal", ts(3))    // same timestamp
	dest.put("unstamped", nil)  // remote has no timestamp
	src := &fakeSource{entries: []domain.JournalEntry{
		entry("new", ts(2)),
		entry("kept", ts(2)),
		entry("stale", ts(2)),
		entry("equal", ts(3)),
		entry("unstamped", ts(2)),
		entry("untimed", nil), // incoming has no timestamp
	}}
	dest.put("untimed", ts(1))

	rep, err := syncer.New(src, dest, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if rep.Fetched != 6 {
		t.Errorf("fetched = %d", rep.Fetched)
	}
	if rep.Created != 1 || len(dest.created) != 1 || dest.created[0][0] != "new" {
		t.Errorf("created = %d %v", rep.Created, dest.created)
	}
	if rep.Updated != 1 || len(dest.updated) != 1 || dest.updated[0][0] != "stale" {
		t.Errorf("updated = %d %v", rep.Updated, dest.updated)
	}
	if rep.Skipped != 4 {
		t.Errorf("skipped = %d", rep.Skipped)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	dest := newFakeDest()
	src := &fakeSource{entries: []domain.JournalEntry{
		entry("a", ts(2)),
		entry("b", nil),
	}}
	mgr := syncer.New(src, dest, nil)

	first, err := mgr.Run(context.Background())
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.Created != 2 || first.Updated != 0 {
		t.Fatalf("first run: %+v", first)
	}

	second, err := mgr.Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.Created != 0 || second.Updated != 0 || second.Skipped != 2 {
		t.Fatalf("second run must be a no-op: %+v", second)
	}
}

func TestRunEmptySourceIsNoOp(t *testing.T) {
	dest := newFakeDest()
	rep, err := syncer.New(&fakeSource{}, dest, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if rep.Fetched != 0 || rep.Created != 0 || len(dest.created) != 0 {
		t.Fatalf("report = %+v", rep)
	}
}

func TestRunAbortsOnSourceError(t *testing.T) {
	src := &fakeSource{err: errors.New("disk gone")}
	if _, err := syncer.New(src, newFakeDest(), nil).Run(context.Background()); err == nil {
		t.Fatal("expected fetch error to propagate")
	}
}

func TestRunStopsAfterBackendFailure(t *testing.T) {
	dest := newFakeDest()
	dest.put("old", ts(1))
	dest.failCreate = errors.New("boom")
	src := &fakeSource{entries: []domain.JournalEntry{
		entry("fresh", ts(2)),
		entry("old", ts(2)),
	}}
	_, err := syncer.New(src, dest, nil).Run(context.Background())
	if err == nil {
		t.Fatal("expected create failure to propagate")
	}
	if len(dest.updated) != 0 {
		t.Fatal("updates must not run after a failed create batch")
	}
}
