package pebblestore

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(Options{
		DataDir:       t.TempDir(),
		Fsync:         FsyncModeInterval,
		FsyncInterval: 2 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestCRUD(t *testing.T) {
	db := newTestDB(t)

	key := []byte("k1")
	if err := db.Set(key, []byte("v1")); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := db.Get(key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "v1" {
		t.Fatalf("got %q want v1", got)
	}

	ok, err := db.Has(key)
	if err != nil || !ok {
		t.Fatalf("has: %v %v", ok, err)
	}

	if err := db.Delete(key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := db.Get(key); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestBatchCommit(t *testing.T) {
	db := newTestDB(t)

	b := db.NewBatch()
	if err := b.Set([]byte("a"), []byte("1"), nil); err != nil {
		t.Fatalf("batch set: %v", err)
	}
	if err := b.Set([]byte("b"), []byte("2"), nil); err != nil {
		t.Fatalf("batch set: %v", err)
	}
	if err := db.CommitBatch(context.Background(), b); err != nil {
		t.Fatalf("commit: %v", err)
	}
	b.Close()

	for _, k := range []string{"a", "b"} {
		if _, err := db.Get([]byte(k)); err != nil {
			t.Fatalf("get %s after batch: %v", k, err)
		}
	}
}

func TestPrefixBounds(t *testing.T) {
	db := newTestDB(t)
	_ = db.Set([]byte("p/1"), []byte("x"))
	_ = db.Set([]byte("p/2"), []byte("y"))
	_ = db.Set([]byte("q/1"), []byte("z"))

	it, err := db.NewIter(PrefixBounds([]byte("p/")))
	if err != nil {
		t.Fatalf("iter: %v", err)
	}
	defer it.Close()

	n := 0
	for ok := it.First(); ok; ok = it.Next() {
		n++
	}
	if n != 2 {
		t.Fatalf("want 2 keys under p/, got %d", n)
	}
}

func TestPrefixBoundsHighBytes(t *testing.T) {
	db := newTestDB(t)
	_ = db.Set(append([]byte("p/"), 0xFF, 0xFF), []byte("x"))
	_ = db.Set([]byte("p0"), []byte("y"))

	it, err := db.NewIter(PrefixBounds([]byte("p/")))
	if err != nil {
		t.Fatalf("iter: %v", err)
	}
	defer it.Close()

	n := 0
	for ok := it.First(); ok; ok = it.Next() {
		if it.Key()[1] != '/' {
			t.Fatalf("key %q outside prefix", it.Key())
		}
		n++
	}
	if n != 1 {
		t.Fatalf("want 1 key under p/, got %d", n)
	}

	if hi := prefixUpperBound([]byte{0xFF, 0xFF}); hi != nil {
		t.Fatalf("want nil upper bound for all-0xFF prefix, got %v", hi)
	}
}
