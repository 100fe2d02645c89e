package queue

import (
	"context"
	"errors"
	"testing"

	pebblestore "github.com/labelwire/labelwire/internal/storage/pebble"
)

func openTestStore(t *testing.T) (*PebbleStore, *pebblestore.DB) {
	t.Helper()
	db, err := pebblestore.Open(pebblestore.Options{DataDir: t.TempDir(), Fsync: pebblestore.FsyncModeAlways})
	if err != nil {
		t.Fatalf("open pebble: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	s, err := OpenPebbleStore(db)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return s, db
}

func TestEnqueueAndGet(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	ok, err := s.EnqueueIfAbsent(ctx, Item{ID: "m-1", Subject: "hello", Context: "body"})
	if err != nil || !ok {
		t.Fatalf("enqueue: %v %v", ok, err)
	}

	got, err := s.Get(ctx, "m-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != StatusQueued {
		t.Fatalf("default status: %q", got.Status)
	}
	if got.Subject != "hello" {
		t.Fatalf("subject: %q", got.Subject)
	}
}

func TestDuplicateSuppression(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	if ok, _ := s.EnqueueIfAbsent(ctx, Item{ID: "m-1"}); !ok {
		t.Fatalf("first insert should succeed")
	}
	// same id, any status: no second record
	if err := s.UpdateStatus(ctx, "m-1", StatusPosted, 100); err != nil {
		t.Fatalf("update: %v", err)
	}
	if ok, err := s.EnqueueIfAbsent(ctx, Item{ID: "m-1", Subject: "again"}); err != nil || ok {
		t.Fatalf("duplicate should be suppressed: %v %v", ok, err)
	}
	items, _ := s.FindByStatus(ctx, StatusPosted)
	if len(items) != 1 {
		t.Fatalf("expected one record, got %d", len(items))
	}
}

func TestFIFOOrder(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"X", "Y", "Z"} {
		if ok, err := s.EnqueueIfAbsent(ctx, Item{ID: id}); err != nil || !ok {
			t.Fatalf("enqueue %s: %v", id, err)
		}
	}
	items, err := s.FindByStatus(ctx, StatusQueued)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(items) != 3 || items[0].ID != "X" || items[1].ID != "Y" || items[2].ID != "Z" {
		t.Fatalf("order: %+v", items)
	}

	first, err := FirstByStatus(ctx, s, StatusQueued)
	if err != nil || first.ID != "X" {
		t.Fatalf("oldest queued should be X: %+v %v", first, err)
	}
}

func TestUpdateStatusStampsPostedAt(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	_, _ = s.EnqueueIfAbsent(ctx, Item{ID: "m-1"})
	if err := s.UpdateStatus(ctx, "m-1", StatusPosted, 12345); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ := s.Get(ctx, "m-1")
	if got.PostedAtMs != 12345 || got.Attempts != 1 {
		t.Fatalf("posted stamp: %+v", got)
	}

	// second posting bumps attempts
	_ = s.UpdateStatus(ctx, "m-1", StatusQueued, 0)
	_ = s.UpdateStatus(ctx, "m-1", StatusPosted, 20000)
	got, _ = s.Get(ctx, "m-1")
	if got.Attempts != 2 {
		t.Fatalf("attempts: %d", got.Attempts)
	}
}

func TestUpdateStatusAbsentIsNoop(t *testing.T) {
	s, _ := openTestStore(t)
	if err := s.UpdateStatus(context.Background(), "ghost", StatusPosted, 1); err != nil {
		t.Fatalf("absent update should be no-op: %v", err)
	}
}

func TestDeleteAndNotFound(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	_, _ = s.EnqueueIfAbsent(ctx, Item{ID: "m-1"})
	if err := s.Delete(ctx, "m-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, "m-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	// deleting again is fine
	if err := s.Delete(ctx, "m-1"); err != nil {
		t.Fatalf("double delete: %v", err)
	}
	// id is free again
	if ok, _ := s.EnqueueIfAbsent(ctx, Item{ID: "m-1"}); !ok {
		t.Fatalf("re-enqueue after delete should insert")
	}
}

func TestSetLabels(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	_, _ = s.EnqueueIfAbsent(ctx, Item{ID: "m-1"})
	if err := s.SetLabels(ctx, "m-1", "A, B"); err != nil {
		t.Fatalf("set labels: %v", err)
	}
	got, _ := s.Get(ctx, "m-1")
	if got.Labels != "A, B" {
		t.Fatalf("labels: %q", got.Labels)
	}
	if err := s.SetLabels(ctx, "ghost", "A"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("labels on absent item: %v", err)
	}
}

func TestSeqSurvivesReopen(t *testing.T) {
	s, db := openTestStore(t)
	ctx := context.Background()

	_, _ = s.EnqueueIfAbsent(ctx, Item{ID: "m-1"})
	_, _ = s.EnqueueIfAbsent(ctx, Item{ID: "m-2"})

	s2, err := OpenPebbleStore(db)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if ok, _ := s2.EnqueueIfAbsent(ctx, Item{ID: "m-3"}); !ok {
		t.Fatalf("enqueue after reopen")
	}
	items, _ := s2.FindByStatus(ctx, StatusQueued)
	if len(items) != 3 || items[2].ID != "m-3" {
		t.Fatalf("order after reopen: %+v", items)
	}
}
