package settings

import (
	"encoding/json"
	"time"

	pebblestore "github.com/labelwire/labelwire/internal/storage/pebble"
)

// Registration records the outcome of the channel handshake. An instance is
// considered registered once RegisteredAtMs is non-zero.
type Registration struct {
	InstanceTag    string `json:"instanceTag"`
	AccountID      string `json:"accountId"`
	RegisteredAtMs int64  `json:"registeredAtMs"`
}

// LabelCache is the persisted snapshot of the mailbox label inventory.
type LabelCache struct {
	Labels      []string `json:"labels"`
	FetchedAtMs int64    `json:"fetchedAtMs"`
}

var (
	regKey    = []byte("settings/registration")
	labelsKey = []byte("settings/labels")
)

// Store persists small singleton records alongside the queue.
type Store struct {
	db *pebblestore.DB
}

// New returns a settings store over the shared database.
func New(db *pebblestore.DB) *Store {
	return &Store{db: db}
}

// Registration returns the stored handshake record, or a zero value if the
// instance never registered.
func (s *Store) Registration() (Registration, error) {
	b, err := s.db.Get(regKey)
	if err == pebblestore.ErrNotFound {
		return Registration{}, nil
	}
	if err != nil {
		return Registration{}, err
	}
	var r Registration
	if err := json.Unmarshal(b, &r); err != nil {
		return Registration{}, nil // corrupted record reads as unregistered
	}
	return r, nil
}

// MarkRegistered stores the handshake record with the current wall clock.
// Idempotent: re-registering overwrites the previous record.
func (s *Store) MarkRegistered(instanceTag, accountID string) (Registration, error) {
	r := Registration{
		InstanceTag:    instanceTag,
		AccountID:      accountID,
		RegisteredAtMs: time.Now().UnixMilli(),
	}
	b, err := json.Marshal(r)
	if err != nil {
		return Registration{}, err
	}
	if err := s.db.Set(regKey, b); err != nil {
		return Registration{}, err
	}
	return r, nil
}

// Labels returns the cached label inventory. A missing cache returns an empty
// snapshot with FetchedAtMs zero.
func (s *Store) Labels() (LabelCache, error) {
	b, err := s.db.Get(labelsKey)
	if err == pebblestore.ErrNotFound {
		return LabelCache{}, nil
	}
	if err != nil {
		return LabelCache{}, err
	}
	var c LabelCache
	if err := json.Unmarshal(b, &c); err != nil {
		return LabelCache{}, nil
	}
	return c, nil
}

// SetLabels replaces the cached inventory and stamps the fetch time.
func (s *Store) SetLabels(labels []string) (LabelCache, error) {
	c := LabelCache{Labels: labels, FetchedAtMs: time.Now().UnixMilli()}
	b, err := json.Marshal(c)
	if err != nil {
		return LabelCache{}, err
	}
	if err := s.db.Set(labelsKey, b); err != nil {
		return LabelCache{}, err
	}
	return c, nil
}
