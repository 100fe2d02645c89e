package mailbox

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

const (
	messageExt    = ".json"
	labelsSidecar = ".labels"
	inventoryFile = "labels.json"
)

// Maildir is a local directory mailbox: one JSON message file per item, labels
// recorded in a sidecar next to each message, and the accepted label inventory
// in labels.json at the directory root.
type Maildir struct {
	dir string
	mu  sync.Mutex
}

// OpenMaildir opens (creating if needed) a directory mailbox.
func OpenMaildir(dir string) (*Maildir, error) {
	if dir == "" {
		return nil, fmt.Errorf("mailbox: directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Maildir{dir: dir}, nil
}

func (m *Maildir) messagePath(id string) string {
	return filepath.Join(m.dir, id+messageExt)
}

func (m *Maildir) sidecarPath(id string) string {
	return filepath.Join(m.dir, id+labelsSidecar+messageExt)
}

func (m *Maildir) readMessage(id string) (Email, error) {
	b, err := os.ReadFile(m.messagePath(id))
	if os.IsNotExist(err) {
		return Email{}, ErrNotFound
	}
	if err != nil {
		return Email{}, err
	}
	var e Email
	if err := json.Unmarshal(b, &e); err != nil {
		return Email{}, fmt.Errorf("mailbox: decode %s: %w", id, err)
	}
	if e.ID == "" {
		e.ID = id
	}
	labels, err := m.readSidecar(id)
	if err != nil {
		return Email{}, err
	}
	e.Labels = labels
	return e, nil
}

func (m *Maildir) readSidecar(id string) ([]string, error) {
	b, err := os.ReadFile(m.sidecarPath(id))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var labels []string
	if err := json.Unmarshal(b, &labels); err != nil {
		return nil, fmt.Errorf("mailbox: decode labels for %s: %w", id, err)
	}
	return labels, nil
}

func (m *Maildir) writeSidecar(id string, labels []string) error {
	b, err := json.Marshal(labels)
	if err != nil {
		return err
	}
	return os.WriteFile(m.sidecarPath(id), b, 0o644)
}

// Scan returns undecided messages ordered by receive time, then id. A message
// is decided once its label sidecar exists, even when the decision attached no
// labels.
func (m *Maildir) Scan(ctx context.Context) ([]Email, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, err
	}
	var out []Email
	for _, ent := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := ent.Name()
		if ent.IsDir() || !strings.HasSuffix(name, messageExt) {
			continue
		}
		if name == inventoryFile || strings.HasSuffix(name, labelsSidecar+messageExt) {
			continue
		}
		id := strings.TrimSuffix(name, messageExt)
		if _, err := os.Stat(m.sidecarPath(id)); err == nil {
			continue
		}
		e, err := m.readMessage(id)
		if err != nil {
			// Skip unreadable messages rather than failing the whole scan.
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ReceivedAtMs != out[j].ReceivedAtMs {
			return out[i].ReceivedAtMs < out[j].ReceivedAtMs
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// ListLabels reads the inventory from labels.json. A missing inventory is an
// empty one.
func (m *Maildir) ListLabels(ctx context.Context) ([]string, error) {
	b, err := os.ReadFile(filepath.Join(m.dir, inventoryFile))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var labels []string
	if err := json.Unmarshal(b, &labels); err != nil {
		return nil, fmt.Errorf("mailbox: decode label inventory: %w", err)
	}
	return labels, nil
}

// ApplyLabel attaches a label from the inventory to a message.
func (m *Maildir) ApplyLabel(ctx context.Context, id, label string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	inventory, err := m.ListLabels(ctx)
	if err != nil {
		return err
	}
	known := false
	for _, l := range inventory {
		if l == label {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("%w: %q", ErrUnknownLabel, label)
	}
	if _, err := os.Stat(m.messagePath(id)); os.IsNotExist(err) {
		return ErrNotFound
	}
	labels, err := m.readSidecar(id)
	if err != nil {
		return err
	}
	for _, l := range labels {
		if l == label {
			return nil
		}
	}
	return m.writeSidecar(id, append(labels, label))
}

// RemoveLabel detaches a label from a message.
func (m *Maildir) RemoveLabel(ctx context.Context, id, label string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := os.Stat(m.messagePath(id)); os.IsNotExist(err) {
		return ErrNotFound
	}
	labels, err := m.readSidecar(id)
	if err != nil {
		return err
	}
	kept := labels[:0]
	for _, l := range labels {
		if l != label {
			kept = append(kept, l)
		}
	}
	if len(kept) == len(labels) {
		return nil
	}
	return m.writeSidecar(id, kept)
}

// MarkDecided records a no-label decision by writing an empty sidecar.
func (m *Maildir) MarkDecided(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := os.Stat(m.messagePath(id)); os.IsNotExist(err) {
		return ErrNotFound
	}
	if _, err := os.Stat(m.sidecarPath(id)); err == nil {
		return nil
	}
	return m.writeSidecar(id, []string{})
}

// SetInventory writes the accepted label list. Used by tooling and tests.
func (m *Maildir) SetInventory(labels []string) error {
	b, err := json.Marshal(labels)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(m.dir, inventoryFile), b, 0o644)
}

// Deliver writes a message file into the directory. Used by tooling and tests.
func (m *Maildir) Deliver(e Email) error {
	if e.ID == "" {
		return fmt.Errorf("mailbox: message id is required")
	}
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return os.WriteFile(m.messagePath(e.ID), b, 0o644)
}
