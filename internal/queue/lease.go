package queue

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	pebblestore "github.com/labelwire/labelwire/internal/storage/pebble"
)

// DispatchLease is the advisory lock around the "select next queued item and
// mark it posted" critical section. Both the timer tick and webhook-triggered
// chained advancement acquire it, so overlapping invocations cannot both
// dispatch. The lease expires on its own; a crashed holder never wedges the
// queue.
type DispatchLease struct {
	db *pebblestore.DB
}

type leaseRecord struct {
	Owner       string `json:"owner"`
	ExpiresAtMs int64  `json:"expiresAtMs"`
}

// NewDispatchLease creates a lease manager over the embedded store. The lease
// always lives in pebble even when the queue backend is postgres.
func NewDispatchLease(db *pebblestore.DB) *DispatchLease {
	return &DispatchLease{db: db}
}

// Acquire attempts to take the lease for owner until now+ttl. Returns false if
// another owner holds an unexpired lease. Re-acquiring by the same owner
// extends it. If nowMs <= 0, the wall clock is used.
func (l *DispatchLease) Acquire(ctx context.Context, owner string, ttl time.Duration, nowMs int64) (bool, error) {
	if nowMs <= 0 {
		nowMs = time.Now().UnixMilli()
	}

	existing, err := l.db.Get(dispatchLease)
	if err != nil && !errors.Is(err, pebblestore.ErrNotFound) {
		return false, err
	}
	if len(existing) > 0 {
		var rec leaseRecord
		if json.Unmarshal(existing, &rec) == nil {
			if rec.ExpiresAtMs > nowMs && rec.Owner != owner {
				return false, nil
			}
		}
	}

	rec := leaseRecord{Owner: owner, ExpiresAtMs: nowMs + ttl.Milliseconds()}
	val, err := json.Marshal(rec)
	if err != nil {
		return false, err
	}
	if err := l.db.Set(dispatchLease, val); err != nil {
		return false, err
	}
	return true, nil
}

// Release drops the lease if owner still holds it.
func (l *DispatchLease) Release(ctx context.Context, owner string) error {
	existing, err := l.db.Get(dispatchLease)
	if errors.Is(err, pebblestore.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	var rec leaseRecord
	if json.Unmarshal(existing, &rec) == nil && rec.Owner != owner {
		return nil
	}
	return l.db.Delete(dispatchLease)
}
