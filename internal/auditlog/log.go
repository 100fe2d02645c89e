package auditlog

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"sync"
	"time"

	pebblestore "github.com/labelwire/labelwire/internal/storage/pebble"
)

// SystemItem marks entries not tied to a specific queue item.
const SystemItem = "SYSTEM"

// Entry is one append-only audit record.
type Entry struct {
	TimestampMs int64  `json:"timestampMs"`
	ItemID      string `json:"itemId"` // item id or SYSTEM
	Action      string `json:"action"`
	Details     string `json:"details,omitempty"`
	Result      string `json:"result,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

// Log provides append-only audit operations backed by the embedded store.
type Log struct {
	db *pebblestore.DB

	mu      sync.Mutex
	lastSeq uint64
}

// Open initializes a Log and loads the last sequence from metadata (if any).
func Open(db *pebblestore.DB) (*Log, error) {
	l := &Log{db: db}
	if meta, err := db.Get(keyLogMeta()); err == nil && len(meta) >= 8 {
		l.lastSeq = binary.BigEndian.Uint64(meta[:8])
	}
	return l, nil
}

// Append writes one entry atomically and returns its sequence. A zero
// TimestampMs is stamped with the wall clock.
func (l *Log) Append(ctx context.Context, e Entry) (uint64, error) {
	if e.TimestampMs == 0 {
		e.TimestampMs = time.Now().UnixMilli()
	}
	if e.ItemID == "" {
		e.ItemID = SystemItem
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return 0, err
	}
	var header [8]byte
	binary.BigEndian.PutUint64(header[:], uint64(e.TimestampMs))

	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.db.NewBatch()
	defer b.Close()

	l.lastSeq++
	seq := l.lastSeq
	if err := b.Set(keyLogEntry(seq), encodeRecord(header[:], payload), nil); err != nil {
		return 0, err
	}
	var meta [8]byte
	binary.BigEndian.PutUint64(meta[:], l.lastSeq)
	if err := b.Set(keyLogMeta(), meta[:], nil); err != nil {
		return 0, err
	}
	if err := l.db.CommitBatch(ctx, b); err != nil {
		return 0, err
	}
	return seq, nil
}

// Item is a read-back entry with its sequence.
type Item struct {
	Seq   uint64
	Entry Entry
}

// Recent returns up to limit entries, newest first.
func (l *Log) Recent(limit int) ([]Item, error) {
	it, err := l.db.NewIter(pebblestore.PrefixBounds(entryPrefix()))
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var items []Item
	for ok := it.Last(); ok && (limit <= 0 || len(items) < limit); ok = it.Prev() {
		seq := seqFromKey(it.Key())
		dec, okDec := decodeRecord(it.Value())
		if !okDec {
			continue
		}
		var e Entry
		if json.Unmarshal(dec.Payload, &e) != nil {
			continue
		}
		items = append(items, Item{Seq: seq, Entry: e})
	}
	return items, nil
}
