package auditlog

import (
	"context"

	pebblestore "github.com/labelwire/labelwire/internal/storage/pebble"
)

// TrimToRetention deletes the oldest entries until at most keep remain.
// Deletes commit as a single batch. Returns the number of deleted entries.
// keep <= 0 disables trimming.
func (l *Log) TrimToRetention(ctx context.Context, keep int) (int, error) {
	if keep <= 0 {
		return 0, nil
	}

	it, err := l.db.NewIter(pebblestore.PrefixBounds(entryPrefix()))
	if err != nil {
		return 0, err
	}
	defer it.Close()

	total := 0
	for ok := it.First(); ok; ok = it.Next() {
		total++
	}
	excess := total - keep
	if excess <= 0 {
		return 0, nil
	}

	b := l.db.NewBatch()
	defer b.Close()
	deleted := 0
	for ok := it.First(); ok && deleted < excess; ok = it.Next() {
		if err := b.Delete(it.Key(), nil); err != nil {
			return 0, err
		}
		deleted++
	}
	if err := l.db.CommitBatch(ctx, b); err != nil {
		return 0, err
	}
	return deleted, nil
}
