package queue

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no stored item matches the given id.
var ErrNotFound = errors.New("queue: item not found")

// Store is the persistent queue contract. Implementations keep insertion
// order stable so FindByStatus doubles as "oldest first". Operations are
// read-modify-write against the backing store; no in-memory state survives
// between invocations.
type Store interface {
	// EnqueueIfAbsent inserts the item unless its ID is already present,
	// regardless of status. Reports whether an insert happened.
	EnqueueIfAbsent(ctx context.Context, item Item) (bool, error)

	// Get returns the stored item or ErrNotFound.
	Get(ctx context.Context, id string) (Item, error)

	// FindByStatus returns all items with the given status in insertion order.
	FindByStatus(ctx context.Context, status Status) ([]Item, error)

	// UpdateStatus transitions the item; a transition to posted stamps
	// postedAtMs and increments the attempt counter. No-op if absent.
	UpdateStatus(ctx context.Context, id string, status Status, postedAtMs int64) error

	// SetLabels records the oracle's raw label reply on the item.
	SetLabels(ctx context.Context, id, labels string) error

	// Delete removes the item. Deleting an absent id is not an error.
	Delete(ctx context.Context, id string) error

	Close() error
}

// FirstByStatus returns the oldest item with the given status, or ErrNotFound.
func FirstByStatus(ctx context.Context, s Store, status Status) (Item, error) {
	items, err := s.FindByStatus(ctx, status)
	if err != nil {
		return Item{}, err
	}
	if len(items) == 0 {
		return Item{}, ErrNotFound
	}
	return items[0], nil
}
