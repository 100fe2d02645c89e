package queue

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	pebblestore "github.com/labelwire/labelwire/internal/storage/pebble"
)

// PebbleStore keeps queue items in the embedded ordered store. Insertion
// order is the big-endian sequence in the item key; an id index provides
// point lookups.
type PebbleStore struct {
	db *pebblestore.DB

	mu      sync.Mutex
	lastSeq uint64
}

// OpenPebbleStore initializes the store and restores the last sequence from
// metadata if present.
func OpenPebbleStore(db *pebblestore.DB) (*PebbleStore, error) {
	s := &PebbleStore{db: db}
	if meta, err := db.Get(keyMeta); err == nil && len(meta) >= 8 {
		s.lastSeq = binary.BigEndian.Uint64(meta[:8])
	}
	return s, nil
}

func (s *PebbleStore) EnqueueIfAbsent(ctx context.Context, item Item) (bool, error) {
	if item.ID == "" {
		return false, errors.New("queue: empty item id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if ok, err := s.db.Has(idKey(item.ID)); err != nil {
		return false, fmt.Errorf("check duplicate %s: %w", item.ID, err)
	} else if ok {
		return false, nil
	}

	s.lastSeq++
	item.Seq = s.lastSeq
	if item.Status == "" {
		item.Status = StatusQueued
	}

	val, err := json.Marshal(item)
	if err != nil {
		return false, err
	}

	b := s.db.NewBatch()
	defer b.Close()
	if err := b.Set(itemKey(item.Seq), val, nil); err != nil {
		return false, err
	}
	var seqBuf [8]byte
	binary.BigEndian.PutUint64(seqBuf[:], item.Seq)
	if err := b.Set(idKey(item.ID), seqBuf[:], nil); err != nil {
		return false, err
	}
	if err := b.Set(keyMeta, seqBuf[:], nil); err != nil {
		return false, err
	}
	if err := s.db.CommitBatch(ctx, b); err != nil {
		return false, fmt.Errorf("commit enqueue %s: %w", item.ID, err)
	}
	return true, nil
}

func (s *PebbleStore) Get(_ context.Context, id string) (Item, error) {
	seq, err := s.seqFor(id)
	if err != nil {
		return Item{}, err
	}
	return s.itemAt(seq)
}

func (s *PebbleStore) FindByStatus(_ context.Context, status Status) ([]Item, error) {
	it, err := s.db.NewIter(pebblestore.PrefixBounds(itemPrefix))
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var items []Item
	for ok := it.First(); ok; ok = it.Next() {
		var item Item
		if err := json.Unmarshal(it.Value(), &item); err != nil {
			continue
		}
		if item.Status == status {
			items = append(items, item)
		}
	}
	return items, nil
}

func (s *PebbleStore) UpdateStatus(ctx context.Context, id string, status Status, postedAtMs int64) error {
	seq, err := s.seqFor(id)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	item, err := s.itemAt(seq)
	if err != nil {
		return err
	}
	item.Status = status
	if status == StatusPosted {
		item.PostedAtMs = postedAtMs
		item.Attempts++
	}
	return s.writeItem(ctx, item)
}

func (s *PebbleStore) SetLabels(ctx context.Context, id, labels string) error {
	seq, err := s.seqFor(id)
	if err != nil {
		return err
	}
	item, err := s.itemAt(seq)
	if err != nil {
		return err
	}
	item.Labels = labels
	return s.writeItem(ctx, item)
}

func (s *PebbleStore) Delete(ctx context.Context, id string) error {
	seq, err := s.seqFor(id)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	b := s.db.NewBatch()
	defer b.Close()
	if err := b.Delete(itemKey(seq), nil); err != nil {
		return err
	}
	if err := b.Delete(idKey(id), nil); err != nil {
		return err
	}
	return s.db.CommitBatch(ctx, b)
}

// Close is a no-op; the underlying DB is owned by the runtime.
func (s *PebbleStore) Close() error { return nil }

func (s *PebbleStore) seqFor(id string) (uint64, error) {
	b, err := s.db.Get(idKey(id))
	if errors.Is(err, pebblestore.ErrNotFound) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	if len(b) < 8 {
		return 0, fmt.Errorf("corrupt id index for %s", id)
	}
	return binary.BigEndian.Uint64(b[:8]), nil
}

func (s *PebbleStore) itemAt(seq uint64) (Item, error) {
	b, err := s.db.Get(itemKey(seq))
	if errors.Is(err, pebblestore.ErrNotFound) {
		return Item{}, ErrNotFound
	}
	if err != nil {
		return Item{}, err
	}
	var item Item
	if err := json.Unmarshal(b, &item); err != nil {
		return Item{}, fmt.Errorf("decode item at seq %d: %w", seq, err)
	}
	return item, nil
}

func (s *PebbleStore) writeItem(_ context.Context, item Item) error {
	val, err := json.Marshal(item)
	if err != nil {
		return err
	}
	return s.db.Set(itemKey(item.Seq), val)
}
